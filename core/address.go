package core

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidAddress is returned when a string is not a 48-bit hardware address
var ErrInvalidAddress = errors.New("invalid hardware address")

// HardwareAddress is a 48-bit link-layer station address
type HardwareAddress [6]byte

// ZeroAddress is reserved and never valid as a table key
var ZeroAddress HardwareAddress

// ParseHardwareAddress parses colon, dash or dot separated hex notation.
// The zero address parses successfully; callers check IsZero.
func ParseHardwareAddress(s string) (HardwareAddress, error) {
	var a HardwareAddress

	mac, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(mac) != len(a) {
		return a, fmt.Errorf("%w: %q is not 48 bits", ErrInvalidAddress, s)
	}

	copy(a[:], mac)
	return a, nil
}

// MustParseHardwareAddress is ParseHardwareAddress for literals in tests and examples
func MustParseHardwareAddress(s string) HardwareAddress {
	a, err := ParseHardwareAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the reserved all-zero address
func (a HardwareAddress) IsZero() bool {
	return a == ZeroAddress
}

func (a HardwareAddress) String() string {
	return net.HardwareAddr(a[:]).String()
}

// Less orders addresses bytewise, used for deterministic dumps
func (a HardwareAddress) Less(b HardwareAddress) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler
func (a HardwareAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *HardwareAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseHardwareAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
