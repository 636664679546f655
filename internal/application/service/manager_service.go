package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expensio/expense-ledger/internal/access"
	"github.com/expensio/expense-ledger/internal/address"
	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/domain/ledger"
)

// ManagerService manages expense managers and their fund pools
type ManagerService interface {
	Create(ctx context.Context, name string, funder entity.Principal, initialBalance uint64, membershipTokenMint string) (*entity.ExpenseManager, error)
	Get(ctx context.Context, name string) (*entity.ExpenseManager, error)
	GetBalance(ctx context.Context, name string) (*entity.BalanceAccount, error)
	BindGovernance(ctx context.Context, caller entity.Principal, name, realm, governanceAuthority string) (*entity.ExpenseManager, error)
	BindSquad(ctx context.Context, caller entity.Principal, name, squad string) (*entity.ExpenseManager, error)
	Withdraw(ctx context.Context, caller entity.Principal, name string, amount uint64, destination string) error
}

type managerServiceImpl struct {
	managerRepo  port.ManagerRepository
	balanceRepo  port.BalanceRepository
	provider     access.Provider
	txManager    port.TransactionManager
	reserveFloor uint64
	logger       Logger
}

// NewManagerService creates a new ManagerService
func NewManagerService(
	managerRepo port.ManagerRepository,
	balanceRepo port.BalanceRepository,
	provider access.Provider,
	txManager port.TransactionManager,
	reserveFloor uint64,
	logger Logger,
) ManagerService {
	return &managerServiceImpl{
		managerRepo:  managerRepo,
		balanceRepo:  balanceRepo,
		provider:     provider,
		txManager:    txManager,
		reserveFloor: reserveFloor,
		logger:       logger,
	}
}

// Create allocates a fresh manager with a zero package counter and a funded
// balance account. The binding defaults to direct authority held by the
// funding principal until a one-time bind call replaces it.
func (s *managerServiceImpl) Create(ctx context.Context, name string, funder entity.Principal, initialBalance uint64, membershipTokenMint string) (*entity.ExpenseManager, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty manager name", entity.ErrUninitialized)
	}
	if len(name) > entity.MaxManagerNameLen {
		return nil, fmt.Errorf("%w: manager name exceeds %d bytes", entity.ErrDataTooLarge, entity.MaxManagerNameLen)
	}
	if initialBalance < s.reserveFloor {
		return nil, fmt.Errorf("%w: initial balance below reserve floor", ledger.ErrInsufficientFunds)
	}

	existing, err := s.managerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up manager: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrAlreadyExists, name)
	}

	now := time.Now()
	manager := &entity.ExpenseManager{
		Address:             address.ForManager(name),
		Name:                name,
		MembershipTokenMint: membershipTokenMint,
		PackageNonce:        0,
		Binding: entity.AuthorizationBinding{
			Kind:      entity.BindingDirect,
			Authority: funder,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.managerRepo.Create(txCtx, manager); err != nil {
			return fmt.Errorf("create manager: %w", err)
		}
		account := &entity.BalanceAccount{
			ID:           manager.Address,
			Kind:         entity.AccountKindManager,
			Balance:      initialBalance,
			ReserveFloor: s.reserveFloor,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.balanceRepo.Create(txCtx, account); err != nil {
			return fmt.Errorf("create manager balance: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create manager", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("Manager created", "name", name, "address", manager.Address, "balance", initialBalance)
	return manager, nil
}

// Get retrieves a manager by name
func (s *managerServiceImpl) Get(ctx context.Context, name string) (*entity.ExpenseManager, error) {
	manager, err := s.managerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up manager: %w", err)
	}
	if manager == nil {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrUninitialized, name)
	}
	return manager, nil
}

// GetBalance retrieves the manager's balance account
func (s *managerServiceImpl) GetBalance(ctx context.Context, name string) (*entity.BalanceAccount, error) {
	manager, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	account, err := s.balanceRepo.Get(ctx, manager.Address)
	if err != nil {
		return nil, fmt.Errorf("look up manager balance: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: balance account for manager %q", entity.ErrUninitialized, name)
	}
	return account, nil
}

// BindGovernance performs the one-time DAO-governance binding. The caller
// must hold deposited membership tokens for the realm.
func (s *managerServiceImpl) BindGovernance(ctx context.Context, caller entity.Principal, name, realm, governanceAuthority string) (*entity.ExpenseManager, error) {
	return s.bind(ctx, caller, name, entity.AuthorizationBinding{
		Kind:                entity.BindingGovernance,
		Realm:               realm,
		GovernanceAuthority: governanceAuthority,
	})
}

// BindSquad performs the one-time squad-multisig binding. The caller must
// hold positive equity in the squad.
func (s *managerServiceImpl) BindSquad(ctx context.Context, caller entity.Principal, name, squad string) (*entity.ExpenseManager, error) {
	return s.bind(ctx, caller, name, entity.AuthorizationBinding{
		Kind:  entity.BindingSquad,
		Squad: squad,
	})
}

func (s *managerServiceImpl) bind(ctx context.Context, caller entity.Principal, name string, binding entity.AuthorizationBinding) (*entity.ExpenseManager, error) {
	manager, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if manager.Binding.IsBound() {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrAlreadyBound, name)
	}

	// Prove membership against the prospective binding before committing it
	candidate := *manager
	candidate.Binding = binding
	if err := s.provider.Authorize(ctx, caller, &candidate, access.CapabilityCreatePackage); err != nil {
		return nil, err
	}

	if err := s.managerRepo.SetBinding(ctx, manager.Address, binding); err != nil {
		s.logger.Error("Failed to bind manager", "error", err, "name", name, "kind", binding.Kind)
		return nil, err
	}

	manager.Binding = binding
	s.logger.Info("Manager bound", "name", name, "kind", binding.Kind)
	return manager, nil
}

// Withdraw moves funds from the manager's pool to a destination account.
// Only the admin path may do this: the direct authority, or an admin-role
// holder under governance/squad bindings (treasury proposals run through the
// governance service instead).
func (s *managerServiceImpl) Withdraw(ctx context.Context, caller entity.Principal, name string, amount uint64, destination string) error {
	manager, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := s.provider.Authorize(ctx, caller, manager, access.CapabilityAdmin); err != nil {
		return err
	}
	if destination == "" {
		return fmt.Errorf("%w: empty destination account", entity.ErrUninitialized)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return transferFunds(txCtx, s.balanceRepo, manager.Address, destination, amount)
	})
	if err != nil {
		s.logger.Error("Treasury withdrawal failed", "error", err, "manager", name, "amount", amount)
		return err
	}

	s.logger.Info("Treasury withdrawal", "manager", name, "amount", amount, "destination", destination)
	return nil
}

// transferFunds loads both accounts, validates the move with the checked
// ledger arithmetic, and applies the debit/credit pair. Must run inside a
// transaction. A missing destination account is created as an external
// account so governance treasuries can receive funds without registering.
func transferFunds(ctx context.Context, balances port.BalanceRepository, fromID, toID string, amount uint64) error {
	if fromID == toID {
		return fmt.Errorf("%w: %s", ledger.ErrSameAccount, fromID)
	}

	from, err := balances.Get(ctx, fromID)
	if err != nil {
		return fmt.Errorf("load source account: %w", err)
	}
	if from == nil {
		return fmt.Errorf("%w: balance account %s", entity.ErrUninitialized, fromID)
	}

	to, err := balances.Get(ctx, toID)
	if err != nil {
		return fmt.Errorf("load destination account: %w", err)
	}
	if to == nil {
		now := time.Now()
		to = &entity.BalanceAccount{
			ID:        toID,
			Kind:      entity.AccountKindExternal,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := balances.Create(ctx, to); err != nil {
			return fmt.Errorf("create destination account: %w", err)
		}
	}

	newFrom, newTo, err := ledger.Transfer(from.Balance, to.Balance, amount, from.ReserveFloor)
	if err != nil {
		return err
	}
	return balances.UpdateAmounts(ctx, fromID, newFrom, toID, newTo)
}
