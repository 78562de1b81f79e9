package txpolicies

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourusername/txpolicies/core"
)

// InsertCommand is a parsed "<address> <rate> [<rate> ...]" payload
type InsertCommand struct {
	Address core.HardwareAddress
	Rates   []int
}

// Dump writes the default policy and every station entry, one per line:
//
//	DEFAULT <policy>
//	<address> <policy>
//
// Stations are ordered by address. The output comes from a single snapshot.
func (ps *PolicyStore) Dump(w io.Writer) error {
	snap := ps.current.Load()

	if _, err := fmt.Fprintf(w, "%s %s\n", DefaultDirective, snap.def); err != nil {
		return err
	}
	for _, e := range snap.entries() {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Address, e.Policy); err != nil {
			return err
		}
	}
	return nil
}

// String returns the Dump output
func (ps *PolicyStore) String() string {
	var sb strings.Builder
	ps.Dump(&sb)
	return sb.String()
}

// ParseInsertCommand parses an insert payload. At least one rate is required
// and every rate must be an integer.
func ParseInsertCommand(s string) (InsertCommand, error) {
	tokens := strings.Fields(uncomment(s))
	if len(tokens) < 2 {
		return InsertCommand{}, fmt.Errorf("%w: insert requires an address and at least one rate, got %q", ErrMalformedCommand, s)
	}

	addr, err := core.ParseHardwareAddress(tokens[0])
	if err != nil {
		return InsertCommand{}, fmt.Errorf("%w: %q must start with a hardware address", ErrMalformedCommand, s)
	}

	rates := make([]int, 0, len(tokens)-1)
	for _, tok := range tokens[1:] {
		r, err := strconv.Atoi(tok)
		if err != nil {
			return InsertCommand{}, fmt.Errorf("%w: rate %q in %q is not an integer", ErrMalformedCommand, tok, s)
		}
		rates = append(rates, r)
	}

	return InsertCommand{Address: addr, Rates: rates}, nil
}

// ParseRemoveCommand parses a remove payload consisting of a single address
func ParseRemoveCommand(s string) (core.HardwareAddress, error) {
	tokens := strings.Fields(uncomment(s))
	if len(tokens) != 1 {
		return core.HardwareAddress{}, fmt.Errorf("%w: remove requires exactly one address, got %q", ErrMalformedCommand, s)
	}

	addr, err := core.ParseHardwareAddress(tokens[0])
	if err != nil {
		return core.HardwareAddress{}, fmt.Errorf("%w: %q is not a hardware address", ErrMalformedCommand, s)
	}
	return addr, nil
}

// ExecInsert parses an insert payload and inserts it with default flags
func (ps *PolicyStore) ExecInsert(s string) error {
	cmd, err := ParseInsertCommand(s)
	if err != nil {
		return err
	}
	return ps.Insert(cmd.Address, cmd.Rates)
}

// ExecRemove parses a remove payload and removes the station
func (ps *PolicyStore) ExecRemove(s string) error {
	addr, err := ParseRemoveCommand(s)
	if err != nil {
		return err
	}
	return ps.Remove(addr)
}

// uncomment removes C and C++ style comments: "//" to the end of the line
// and "/* ... */" blocks, which may span lines. A block comment is replaced
// by a space so it still separates tokens; an unterminated block runs to the
// end of the input.
func uncomment(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '/' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '/':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		case '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			sb.WriteByte(' ')
			i += end + 3
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
