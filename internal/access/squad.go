package access

import (
	"context"
	"fmt"

	"github.com/expensio/expense-ledger/internal/access/extcodec"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// authorizeSquad checks squad membership through the member's equity token
// balance: it must be positive and minted by the squad's configured mint.
// Approve and Admin additionally require a local AccessRecord.
func (p *provider) authorizeSquad(ctx context.Context, principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error {
	squadID := manager.Binding.Squad

	rawSquad, err := p.squads.Squad(ctx, squadID)
	if err != nil {
		return fmt.Errorf("fetch squad: %w", err)
	}
	if rawSquad == nil {
		return fmt.Errorf("%w: squad %s not found", entity.ErrUninitialized, squadID)
	}
	squad, err := extcodec.DecodeSquad(rawSquad)
	if err != nil {
		return err
	}

	rawEquity, err := p.squads.MemberEquity(ctx, squadID, principal)
	if err != nil {
		return fmt.Errorf("fetch member equity: %w", err)
	}
	if rawEquity == nil {
		return fmt.Errorf("%w: no equity record for %s", entity.ErrUserIsNotMember, principal)
	}
	equity, err := extcodec.DecodeMemberEquity(rawEquity)
	if err != nil {
		return err
	}

	if equity.Member != principal.String() || equity.Mint != squad.Mint {
		return fmt.Errorf("%w: equity record does not match squad mint", entity.ErrUserIsNotMember)
	}
	if equity.Amount == 0 {
		return fmt.Errorf("%w: zero equity balance", entity.ErrUserIsNotMember)
	}

	if capability == CapabilityCreatePackage {
		return nil
	}
	return p.requireAccessRecord(ctx, principal, manager, capability)
}
