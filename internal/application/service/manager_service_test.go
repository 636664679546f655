package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensio/expense-ledger/internal/access/extcodec"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/domain/ledger"
	"github.com/expensio/expense-ledger/internal/proposal"
)

func TestManagerCreate(t *testing.T) {
	f := newFixture(10, proposal.Thresholds{})
	ctx := context.Background()

	manager, err := f.managers.Create(ctx, "engineering", boss, 1000, "MINT")
	require.NoError(t, err)
	assert.Equal(t, "engineering", manager.Name)
	assert.Equal(t, uint32(0), manager.PackageNonce)
	assert.Equal(t, entity.BindingDirect, manager.Binding.Kind)
	assert.Equal(t, boss, manager.Binding.Authority)

	acct, err := f.managers.GetBalance(ctx, "engineering")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), acct.Balance)
	assert.Equal(t, uint64(10), acct.ReserveFloor)
}

func TestManagerCreate_DuplicateName(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "engineering", boss, 1000, "")
	require.NoError(t, err)

	_, err = f.managers.Create(ctx, "engineering", alice, 500, "")
	require.ErrorIs(t, err, entity.ErrAlreadyExists)
}

func TestManagerCreate_Validation(t *testing.T) {
	f := newFixture(50, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "", boss, 1000, "")
	require.ErrorIs(t, err, entity.ErrUninitialized)

	long := make([]byte, entity.MaxManagerNameLen+1)
	for i := range long {
		long[i] = 'n'
	}
	_, err = f.managers.Create(ctx, string(long), boss, 1000, "")
	require.ErrorIs(t, err, entity.ErrDataTooLarge)

	// seeding below the floor would make the pool unusable from day one
	_, err = f.managers.Create(ctx, "tiny", boss, 49, "")
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestManagerGet_Unknown(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})

	_, err := f.managers.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, entity.ErrUninitialized)
}

func TestManagerWithdraw(t *testing.T) {
	f := newFixture(100, proposal.Thresholds{})
	ctx := context.Background()

	manager, err := f.managers.Create(ctx, "ops", boss, 1000, "")
	require.NoError(t, err)

	err = f.managers.Withdraw(ctx, boss, "ops", 600, "treasury-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), f.balance(manager.Address))
	assert.Equal(t, uint64(600), f.balance("treasury-1"))

	dest := f.store.balances["treasury-1"]
	assert.Equal(t, entity.AccountKindExternal, dest.Kind)
}

func TestManagerWithdraw_RejectsSelfTransfer(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	manager, err := f.managers.Create(ctx, "ops", boss, 1000, "")
	require.NoError(t, err)
	total := f.store.totalFunds()

	// naming the pool's own account as destination must not mint funds
	err = f.managers.Withdraw(ctx, boss, "ops", 500, manager.Address)
	require.ErrorIs(t, err, ledger.ErrSameAccount)
	assert.Equal(t, uint64(1000), f.balance(manager.Address))
	assert.Equal(t, total, f.store.totalFunds(), "funds are conserved")
}

func TestManagerWithdraw_RespectsReserveFloor(t *testing.T) {
	f := newFixture(100, proposal.Thresholds{})
	ctx := context.Background()

	manager, err := f.managers.Create(ctx, "ops", boss, 1000, "")
	require.NoError(t, err)

	err = f.managers.Withdraw(ctx, boss, "ops", 901, "treasury-1")
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, uint64(1000), f.balance(manager.Address), "failed withdrawal moves nothing")
	assert.Equal(t, uint64(0), f.balance("treasury-1"))

	err = f.managers.Withdraw(ctx, boss, "ops", 900, "treasury-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), f.balance(manager.Address))
}

func TestManagerWithdraw_RequiresAuthority(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "ops", boss, 1000, "")
	require.NoError(t, err)

	err = f.managers.Withdraw(ctx, alice, "ops", 100, "treasury-1")
	require.ErrorIs(t, err, entity.ErrNotAuthorized)
}

func TestManagerBindGovernance(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "dao-fund", boss, 1000, "MINT")
	require.NoError(t, err)

	blob, err := extcodec.EncodeTokenOwnerRecord(extcodec.TokenOwnerRecord{
		Realm:           "realm-1",
		Mint:            "MINT",
		Owner:           alice.String(),
		DepositedAmount: 5,
	})
	require.NoError(t, err)
	f.oracle.PutTokenOwnerRecord("realm-1", "MINT", alice, blob)

	manager, err := f.managers.BindGovernance(ctx, alice, "dao-fund", "realm-1", "gov-authority")
	require.NoError(t, err)
	assert.Equal(t, entity.BindingGovernance, manager.Binding.Kind)
	assert.Equal(t, "realm-1", manager.Binding.Realm)
	assert.Equal(t, "gov-authority", manager.Binding.GovernanceAuthority)

	// the binding is one-time
	_, err = f.managers.BindSquad(ctx, alice, "dao-fund", "squad-1")
	require.ErrorIs(t, err, entity.ErrAlreadyBound)
}

func TestManagerBindGovernance_RequiresMembership(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "dao-fund", boss, 1000, "MINT")
	require.NoError(t, err)

	// no token owner record deposited for bob in this realm
	_, err = f.managers.BindGovernance(ctx, bob, "dao-fund", "realm-1", "gov-authority")
	require.ErrorIs(t, err, entity.ErrUserIsNotMember)
}

func TestManagerBindSquad(t *testing.T) {
	f := newFixture(0, proposal.Thresholds{})
	ctx := context.Background()

	_, err := f.managers.Create(ctx, "squad-fund", boss, 1000, "MINT")
	require.NoError(t, err)

	squadBlob, err := extcodec.EncodeSquad(extcodec.Squad{
		Name: "core", Mint: "MINT", VoteSupport: 50, VoteQuorum: 50,
		MemberCount: 3, EquitySupply: 300,
	})
	require.NoError(t, err)
	f.oracle.PutSquad("squad-1", squadBlob)

	equityBlob, err := extcodec.EncodeMemberEquity(extcodec.MemberEquity{
		Squad: "squad-1", Member: alice.String(), Mint: "MINT", Amount: 100,
	})
	require.NoError(t, err)
	f.oracle.PutMemberEquity("squad-1", alice, equityBlob)

	manager, err := f.managers.BindSquad(ctx, alice, "squad-fund", "squad-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BindingSquad, manager.Binding.Kind)
	assert.Equal(t, "squad-1", manager.Binding.Squad)
}
