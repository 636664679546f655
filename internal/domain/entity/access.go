package entity

import "time"

// Role is the capability level granted by an AccessRecord
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleReviewer Role = "REVIEWER"
)

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleReviewer
}

// CanApproveAndDeny reports whether the role permits approving and denying
// expense packages. Both roles currently grant it; the Admin/Reviewer split
// gates treasury withdrawal and direct access grants.
func (r Role) CanApproveAndDeny() bool {
	return r == RoleAdmin || r == RoleReviewer
}

// AccessRecord is a capability grant of a role to a user over a manager.
// Created directly by an admin under direct authority, or by a verified
// governance/squad proposal.
type AccessRecord struct {
	Address        string    `json:"address"`
	ManagerAddress string    `json:"manager_address"`
	User           Principal `json:"user"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProposalExecution records that a governance/squad proposal has been
// executed, so a proposal can never be applied twice.
type ProposalExecution struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	ExecutedAt time.Time `json:"executed_at"`
}
