package access

import (
	"context"
	"fmt"

	"github.com/expensio/expense-ledger/internal/access/extcodec"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// authorizeGovernance checks DAO membership through the realm's token-owner
// record: the principal must hold a deposited membership-token amount above
// zero. Approve and Admin additionally require a local AccessRecord.
func (p *provider) authorizeGovernance(ctx context.Context, principal entity.Principal, manager *entity.ExpenseManager, capability Capability) error {
	raw, err := p.governance.TokenOwnerRecord(ctx, manager.Binding.Realm, manager.MembershipTokenMint, principal)
	if err != nil {
		return fmt.Errorf("fetch token owner record: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%w: no token owner record for %s", entity.ErrUserIsNotMember, principal)
	}

	record, err := extcodec.DecodeTokenOwnerRecord(raw)
	if err != nil {
		return err
	}
	if record.Owner != principal.String() || record.Realm != manager.Binding.Realm {
		return fmt.Errorf("%w: token owner record does not match caller", entity.ErrUserIsNotMember)
	}
	if record.DepositedAmount == 0 {
		return fmt.Errorf("%w: no deposited membership tokens", entity.ErrUserIsNotMember)
	}

	if capability == CapabilityCreatePackage {
		return nil
	}
	return p.requireAccessRecord(ctx, principal, manager, capability)
}
