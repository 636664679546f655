package entity

import "time"

// Principal is an externally-authenticated caller identity. The environment
// is responsible for verifying the identity proof before it reaches the core.
type Principal string

// String returns the string representation of the principal
func (p Principal) String() string {
	return string(p)
}

// AuthorizationBinding selects how administrative and review actions on a
// manager are authorized. It is set exactly once, at creation (DIRECT) or via
// a one-time bind call (GOVERNANCE, SQUAD), and is immutable thereafter.
type AuthorizationBinding struct {
	Kind string `json:"kind"`

	// DIRECT
	Authority Principal `json:"authority,omitempty"`

	// GOVERNANCE
	Realm               string `json:"realm,omitempty"`
	GovernanceAuthority string `json:"governance_authority,omitempty"`

	// SQUAD
	Squad string `json:"squad,omitempty"`

	// Optional external program identifier for GOVERNANCE and SQUAD
	ExternalProgram string `json:"external_program,omitempty"`
}

// IsBound reports whether the binding has moved past the default
// direct-authority form.
func (b AuthorizationBinding) IsBound() bool {
	return b.Kind == BindingGovernance || b.Kind == BindingSquad
}

// ExpenseManager represents a named fund pool. Its balance lives in a
// separate balance account keyed by the manager's address and is mutated only
// through the fund transfer ledger.
type ExpenseManager struct {
	Address             string               `json:"address"`
	Name                string               `json:"name"`
	MembershipTokenMint string               `json:"membership_token_mint,omitempty"`
	PackageNonce        uint32               `json:"package_nonce"`
	Binding             AuthorizationBinding `json:"binding"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}
