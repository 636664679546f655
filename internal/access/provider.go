// Package access implements the authorization capability query used by every
// gated operation: "does principal P hold capability C over manager M". The
// three binding kinds (direct authority, DAO governance, squad multisig)
// share one Provider interface so the state machine never branches on the
// provider in use. Authorization is a pure predicate: failure never mutates
// state.
package access

import (
	"context"
	"fmt"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// Capability identifies what the caller wants to do to the manager
type Capability string

const (
	// CapabilityCreatePackage gates creating an expense package under the
	// manager.
	CapabilityCreatePackage Capability = "CREATE_PACKAGE"

	// CapabilityApprove gates approving or denying a submitted package.
	CapabilityApprove Capability = "APPROVE"

	// CapabilityAdmin gates treasury withdrawal and direct access grants.
	CapabilityAdmin Capability = "ADMIN"
)

// Provider answers capability queries against a manager's authorization
// binding
type Provider interface {
	Authorize(ctx context.Context, principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error
}

type provider struct {
	governance port.GovernanceOracle
	squads     port.SquadOracle
	accessRepo port.AccessRecordRepository
}

// NewProvider creates a Provider backed by the external authority oracles
// and the local access-record store
func NewProvider(governance port.GovernanceOracle, squads port.SquadOracle, accessRepo port.AccessRecordRepository) Provider {
	return &provider{
		governance: governance,
		squads:     squads,
		accessRepo: accessRepo,
	}
}

// Authorize dispatches to the backend selected by the manager's binding
func (p *provider) Authorize(ctx context.Context, principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error {
	switch manager.Binding.Kind {
	case entity.BindingDirect:
		return p.authorizeDirect(principal, manager, capability)
	case entity.BindingGovernance:
		return p.authorizeGovernance(ctx, principal, manager, capability)
	case entity.BindingSquad:
		return p.authorizeSquad(ctx, principal, manager, capability)
	default:
		return fmt.Errorf("%w: manager has no authorization binding", entity.ErrNotAuthorized)
	}
}

// requireAccessRecord enforces the local AccessRecord grant shared by the
// governance and squad backends. Approve needs any role that can approve and
// deny; Admin needs the admin role.
func (p *provider) requireAccessRecord(ctx context.Context, principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error {
	record, err := p.accessRepo.Get(ctx, manager.Address, principal)
	if err != nil {
		return fmt.Errorf("look up access record: %w", err)
	}
	if record == nil {
		return fmt.Errorf("%w: no access record for %s", entity.ErrNotAuthorized, principal)
	}

	switch capability {
	case CapabilityApprove:
		if !record.Role.CanApproveAndDeny() {
			return fmt.Errorf("%w: role %s cannot approve", entity.ErrNotAuthorized, record.Role)
		}
	case CapabilityAdmin:
		if record.Role != entity.RoleAdmin {
			return fmt.Errorf("%w: role %s is not admin", entity.ErrNotAuthorized, record.Role)
		}
	}
	return nil
}
