package port

import (
	"context"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// ManagerRepository defines persistence operations for ExpenseManager
type ManagerRepository interface {
	Create(ctx context.Context, manager *entity.ExpenseManager) error
	GetByName(ctx context.Context, name string) (*entity.ExpenseManager, error)
	GetByAddress(ctx context.Context, address string) (*entity.ExpenseManager, error)
	// SetBinding persists a one-time governance/squad binding
	SetBinding(ctx context.Context, address string, binding entity.AuthorizationBinding) error
	// AdvanceNonce increments the package counter iff it still equals
	// expected, returning false when another creation got there first.
	AdvanceNonce(ctx context.Context, address string, expected uint32) (bool, error)
}

// PackageRepository defines persistence operations for ExpensePackage
type PackageRepository interface {
	Create(ctx context.Context, pkg *entity.ExpensePackage) error
	GetByAddress(ctx context.Context, address string) (*entity.ExpensePackage, error)
	Get(ctx context.Context, managerAddress string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error)
	// UpdateInfo overwrites the mutable fields; callers enforce the
	// CREATED-only rule before invoking it.
	UpdateInfo(ctx context.Context, address, name, description string, quantity uint64) error
	UpdateState(ctx context.Context, address, state string) error
	ListByOwner(ctx context.Context, managerAddress string, owner entity.Principal) ([]*entity.ExpensePackage, error)
}

// AccessRecordRepository defines persistence operations for AccessRecord
type AccessRecordRepository interface {
	Create(ctx context.Context, record *entity.AccessRecord) error
	Get(ctx context.Context, managerAddress string, user entity.Principal) (*entity.AccessRecord, error)
}

// UserRepository defines persistence operations for UserData
type UserRepository interface {
	Create(ctx context.Context, user *entity.UserData) error
	Get(ctx context.Context, principal entity.Principal) (*entity.UserData, error)
}

// BalanceRepository defines persistence operations for fund-holding accounts.
// UpdateAmounts applies a precomputed debit/credit pair; it must run inside a
// transaction so the pair is never visible half-applied.
type BalanceRepository interface {
	Create(ctx context.Context, account *entity.BalanceAccount) error
	Get(ctx context.Context, id string) (*entity.BalanceAccount, error)
	GetOrCreateForPrincipal(ctx context.Context, principal entity.Principal) (*entity.BalanceAccount, error)
	UpdateAmounts(ctx context.Context, fromID string, fromBalance uint64, toID string, toBalance uint64) error
}

// ProposalExecutionRepository tracks which proposals have already been
// executed, so a verdict is applied at most once.
type ProposalExecutionRepository interface {
	Create(ctx context.Context, exec *entity.ProposalExecution) error
	GetByProposal(ctx context.Context, proposalID string) (*entity.ProposalExecution, error)
}

// TransactionManager provides transaction management for multi-record
// check-then-commit sequences
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
