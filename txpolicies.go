package txpolicies

import (
	"github.com/yourusername/txpolicies/core"
	"github.com/yourusername/txpolicies/pkg/txpolicies"
)

// Re-export main types for convenience
type (
	PolicyStore     = txpolicies.PolicyStore
	Option          = txpolicies.Option
	Config          = txpolicies.Config
	Policy          = core.Policy
	HardwareAddress = core.HardwareAddress
)

// NewPolicyStore creates a new policy store
var NewPolicyStore = txpolicies.NewPolicyStore

// ParseHardwareAddress parses a station address
var ParseHardwareAddress = core.ParseHardwareAddress
