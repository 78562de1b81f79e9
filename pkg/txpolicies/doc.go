// Package txpolicies keeps per-station transmission policies for a wireless
// link layer.
//
// A PolicyStore maps station hardware addresses to the rates, acknowledgment
// behavior and RTS/CTS threshold used when transmitting to them. One default
// policy serves stations without an entry and bounds which rates an entry may
// hold.
//
// # Quick Start
//
//	ps, err := txpolicies.NewPolicyStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ps.SetDefault(core.Policy{
//	    Rates:           []int{1, 2, 5, 11, 6, 9, 12, 18, 24, 36, 48, 54},
//	    RTSCTSThreshold: core.DefaultRTSCTSThreshold,
//	})
//
//	sta := core.MustParseHardwareAddress("aa:bb:cc:dd:ee:ff")
//	ps.Insert(sta, []int{1, 2, 5, 11, 300}) // stores 1,2,5,11
//
//	policy := ps.Lookup(sta)
//
// # Lookup Semantics
//
// Lookup never fails. A station with an entry gets its entry. Any other
// station gets the default when the default has at least one rate, and an
// empty policy otherwise. The zero address always gets an empty policy and a
// warning is logged. Supported is the same but never falls back to the
// default. Resolve additionally reports which of these cases applied.
//
// # Rate Intersection
//
// Insert keeps only the requested rates that also appear in the default's
// rate list, in requested order. With an empty default the requested rates
// are stored as given. SetDefault does not revisit existing entries.
//
// # Concurrency
//
// Lookups read an immutable snapshot through an atomic pointer and never
// block. Insert, Remove and SetDefault build a new snapshot under a mutex
// and publish it in one step, so readers never see half of a mutation.
// Returned policies are copies owned by the caller.
//
// # Configuration
//
// Load configuration from YAML file:
//
//	ps, err := txpolicies.NewPolicyStore(
//	    txpolicies.WithConfigFile("policies.yaml"),
//	)
//
// Example YAML configuration:
//
//	policies:
//	  legacy:
//	    rates: [1, 2, 5, 11, 6, 9, 12, 18, 24, 36, 48, 54]
//	  voip:
//	    rates: [1, 2, 5, 11]
//	    no_ack: true
//	    rate_selection: pr
//	    rts_cts: 500
//
//	table:
//	  - "DEFAULT legacy"
//	  - "aa:bb:cc:dd:ee:ff voip"
//
// Each table directive has exactly two tokens. A malformed directive, a bad
// address or an unknown policy name makes construction fail.
//
// # Administration
//
// Dump renders the table as text, one "DEFAULT <policy>" line followed by
// one "<address> <policy>" line per station. ExecInsert and ExecRemove accept
// the "<address> <rate>..." and "<address>" payloads of the admin interface.
// Payloads may carry "//" and "/* */" comments.
//
// # Persistence
//
// WithPersistence writes every mutation through to a store.Store before it
// becomes visible; Restore reloads saved state at startup.
package txpolicies
