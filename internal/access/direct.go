package access

import (
	"fmt"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// authorizeDirect grants every capability to the single bound authority.
// Package creation is unrestricted under direct authority; the original
// single-team deployments let any registered user file expenses.
func (p *provider) authorizeDirect(principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error {
	if capability == CapabilityCreatePackage {
		return nil
	}
	if principal != manager.Binding.Authority {
		return fmt.Errorf("%w: %s is not the manager authority", entity.ErrNotAuthorized, principal)
	}
	return nil
}
