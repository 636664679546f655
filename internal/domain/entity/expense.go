package entity

import "time"

// ExpensePackage represents a single reimbursement request. It is uniquely
// identified by (manager, owner, nonce); the nonce is the manager's counter
// value at creation time. Name, description and quantity are mutable only in
// the CREATED state. Escrowed funds live in a balance account keyed by the
// package's address.
type ExpensePackage struct {
	Address        string    `json:"address"`
	ManagerAddress string    `json:"manager_address"`
	Owner          Principal `json:"owner"`
	Nonce          uint32    `json:"nonce"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Quantity       uint64    `json:"quantity"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
