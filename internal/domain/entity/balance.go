package entity

import "time"

// Balance account kinds
const (
	AccountKindManager   = "MANAGER"
	AccountKindEscrow    = "ESCROW"
	AccountKindPrincipal = "PRINCIPAL"
	AccountKindExternal  = "EXTERNAL"
)

// BalanceAccount is a fund-holding record. Manager accounts are keyed by the
// manager address, escrow accounts by the package address, principal payout
// accounts by a generated ID with the owning principal recorded alongside.
// The reserve floor is the minimum balance the account must retain; it is
// never withdrawable.
type BalanceAccount struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	OwnerPrincipal Principal `json:"owner_principal,omitempty"`
	Balance        uint64    `json:"balance"`
	ReserveFloor   uint64    `json:"reserve_floor"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
