package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expensio/expense-ledger/internal/access"
	"github.com/expensio/expense-ledger/internal/address"
	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/domain/workflow"
)

// PackageService runs the expense package lifecycle. Every transition is
// checked in full before anything is written; failed preconditions leave the
// package, the manager and all balances untouched.
type PackageService interface {
	Create(ctx context.Context, caller entity.Principal, managerName string, nonce uint32, name, description string, quantity uint64) (*entity.ExpensePackage, error)
	Update(ctx context.Context, caller entity.Principal, managerName string, nonce uint32, name, description string, quantity uint64) (*entity.ExpensePackage, error)
	Submit(ctx context.Context, caller entity.Principal, managerName string, nonce uint32) (*entity.ExpensePackage, error)
	Approve(ctx context.Context, reviewer entity.Principal, managerName string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error)
	Deny(ctx context.Context, reviewer entity.Principal, managerName string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error)
	Withdraw(ctx context.Context, caller entity.Principal, managerName string, nonce uint32) (*entity.ExpensePackage, error)
	ListByOwner(ctx context.Context, managerName string, owner entity.Principal) ([]*entity.ExpensePackage, error)
}

type packageServiceImpl struct {
	managerRepo port.ManagerRepository
	packageRepo port.PackageRepository
	balanceRepo port.BalanceRepository
	provider    access.Provider
	txManager   port.TransactionManager
	logger      Logger
}

// NewPackageService creates a new PackageService
func NewPackageService(
	managerRepo port.ManagerRepository,
	packageRepo port.PackageRepository,
	balanceRepo port.BalanceRepository,
	provider access.Provider,
	txManager port.TransactionManager,
	logger Logger,
) PackageService {
	return &packageServiceImpl{
		managerRepo: managerRepo,
		packageRepo: packageRepo,
		balanceRepo: balanceRepo,
		provider:    provider,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *packageServiceImpl) getManager(ctx context.Context, name string) (*entity.ExpenseManager, error) {
	manager, err := s.managerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up manager: %w", err)
	}
	if manager == nil {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrUninitialized, name)
	}
	return manager, nil
}

func (s *packageServiceImpl) getPackage(ctx context.Context, managerAddress string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error) {
	pkg, err := s.packageRepo.Get(ctx, managerAddress, owner, nonce)
	if err != nil {
		return nil, fmt.Errorf("look up package: %w", err)
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: package nonce %d for %s", entity.ErrUninitialized, nonce, owner)
	}
	return pkg, nil
}

func validatePackageFields(name, description string) error {
	if len(name) > entity.MaxPackageNameLen {
		return fmt.Errorf("%w: package name exceeds %d bytes", entity.ErrDataTooLarge, entity.MaxPackageNameLen)
	}
	if len(description) > entity.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d bytes", entity.ErrDataTooLarge, entity.MaxDescriptionLen)
	}
	return nil
}

// Create allocates a package in CREATED under the manager, consuming the
// manager's current nonce. The client supplies the nonce it observed; a
// mismatch with the live counter means a stale or replayed request and fails
// without allocating anything.
func (s *packageServiceImpl) Create(ctx context.Context, caller entity.Principal, managerName string, nonce uint32, name, description string, quantity uint64) (*entity.ExpensePackage, error) {
	if err := validatePackageFields(name, description); err != nil {
		return nil, err
	}

	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, err
	}
	if err := s.provider.Authorize(ctx, caller, manager, access.CapabilityCreatePackage); err != nil {
		return nil, err
	}
	if nonce != manager.PackageNonce {
		return nil, fmt.Errorf("%w: supplied %d, current %d", entity.ErrIncorrectNonce, nonce, manager.PackageNonce)
	}

	now := time.Now()
	pkg := &entity.ExpensePackage{
		Address:        address.ForPackage(manager.Address, caller.String(), nonce),
		ManagerAddress: manager.Address,
		Owner:          caller,
		Nonce:          nonce,
		Name:           name,
		Description:    description,
		Quantity:       quantity,
		State:          workflow.StateCreated.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		advanced, err := s.managerRepo.AdvanceNonce(txCtx, manager.Address, nonce)
		if err != nil {
			return fmt.Errorf("advance nonce: %w", err)
		}
		if !advanced {
			return fmt.Errorf("%w: counter moved", entity.ErrIncorrectNonce)
		}
		if err := s.packageRepo.Create(txCtx, pkg); err != nil {
			return err
		}
		escrow := &entity.BalanceAccount{
			ID:        pkg.Address,
			Kind:      entity.AccountKindEscrow,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.balanceRepo.Create(txCtx, escrow); err != nil {
			return fmt.Errorf("create escrow account: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create package", "error", err, "manager", managerName, "owner", caller, "nonce", nonce)
		return nil, err
	}

	s.logger.Info("Package created", "manager", managerName, "owner", caller, "nonce", nonce)
	return pkg, nil
}

// Update overwrites the mutable fields of the caller's package. Permitted
// only while the package is still in CREATED.
func (s *packageServiceImpl) Update(ctx context.Context, caller entity.Principal, managerName string, nonce uint32, name, description string, quantity uint64) (*entity.ExpensePackage, error) {
	if err := validatePackageFields(name, description); err != nil {
		return nil, err
	}

	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, err
	}
	pkg, err := s.getPackage(ctx, manager.Address, caller, nonce)
	if err != nil {
		return nil, err
	}
	if pkg.State != workflow.StateCreated.String() {
		return nil, fmt.Errorf("%w: package is %s", entity.ErrPackageFrozen, pkg.State)
	}

	if err := s.packageRepo.UpdateInfo(ctx, pkg.Address, name, description, quantity); err != nil {
		s.logger.Error("Failed to update package", "error", err, "address", pkg.Address)
		return nil, err
	}

	pkg.Name = name
	pkg.Description = description
	pkg.Quantity = quantity
	return pkg, nil
}

// Submit moves the caller's package from CREATED to PENDING. A package with
// an empty name or zero quantity cannot be submitted.
func (s *packageServiceImpl) Submit(ctx context.Context, caller entity.Principal, managerName string, nonce uint32) (*entity.ExpensePackage, error) {
	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, err
	}
	pkg, err := s.getPackage(ctx, manager.Address, caller, nonce)
	if err != nil {
		return nil, err
	}
	if pkg.State != workflow.StateCreated.String() {
		return nil, fmt.Errorf("%w: package is %s", entity.ErrPackageFrozen, pkg.State)
	}
	if pkg.Name == "" || pkg.Quantity == 0 {
		return nil, fmt.Errorf("%w: name and quantity are required before submission", entity.ErrPackageMissingInfo)
	}

	return s.fireTransition(ctx, pkg, workflow.TriggerSubmit, nil)
}

// Approve moves a PENDING package to APPROVED and escrows the requested
// quantity out of the manager's pool in the same transaction. The reviewer
// must pass the manager's authorization binding and may not own the package.
func (s *packageServiceImpl) Approve(ctx context.Context, reviewer entity.Principal, managerName string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error) {
	manager, pkg, err := s.reviewChecks(ctx, reviewer, managerName, owner, nonce)
	if err != nil {
		return nil, err
	}

	pkg, err = s.fireTransition(ctx, pkg, workflow.TriggerApprove, func(txCtx context.Context) error {
		return transferFunds(txCtx, s.balanceRepo, manager.Address, pkg.Address, pkg.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Package approved", "manager", managerName, "owner", owner, "nonce", nonce,
		"quantity", pkg.Quantity, "reviewer", reviewer)
	return pkg, nil
}

// Deny moves a PENDING package to DENIED. Same gating as Approve; no funds
// move.
func (s *packageServiceImpl) Deny(ctx context.Context, reviewer entity.Principal, managerName string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error) {
	_, pkg, err := s.reviewChecks(ctx, reviewer, managerName, owner, nonce)
	if err != nil {
		return nil, err
	}

	pkg, err = s.fireTransition(ctx, pkg, workflow.TriggerDeny, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Package denied", "manager", managerName, "owner", owner, "nonce", nonce, "reviewer", reviewer)
	return pkg, nil
}

// Withdraw drains the escrowed funds of the caller's APPROVED package into
// the caller's payout account and moves the package to PAID.
func (s *packageServiceImpl) Withdraw(ctx context.Context, caller entity.Principal, managerName string, nonce uint32) (*entity.ExpensePackage, error) {
	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, err
	}
	pkg, err := s.getPackage(ctx, manager.Address, caller, nonce)
	if err != nil {
		return nil, err
	}
	if pkg.State != workflow.StateApproved.String() {
		return nil, fmt.Errorf("%w: package is %s", entity.ErrPackageNotApproved, pkg.State)
	}

	pkg, err = s.fireTransition(ctx, pkg, workflow.TriggerWithdraw, func(txCtx context.Context) error {
		payout, err := s.balanceRepo.GetOrCreateForPrincipal(txCtx, caller)
		if err != nil {
			return fmt.Errorf("resolve payout account: %w", err)
		}
		// escrow accounts carry no reserve floor; the full escrowed
		// quantity goes to the owner
		return transferFunds(txCtx, s.balanceRepo, pkg.Address, payout.ID, pkg.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Package paid out", "manager", managerName, "owner", caller, "nonce", nonce, "quantity", pkg.Quantity)
	return pkg, nil
}

// ListByOwner returns the packages a principal owns under a manager. This is
// a derived read-side index over the package table, not a second source of
// truth.
func (s *packageServiceImpl) ListByOwner(ctx context.Context, managerName string, owner entity.Principal) ([]*entity.ExpensePackage, error) {
	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, err
	}
	return s.packageRepo.ListByOwner(ctx, manager.Address, owner)
}

// reviewChecks runs the shared approve/deny gating: the package must exist,
// the reviewer must hold the approve capability, and self-review is always
// rejected regardless of role.
func (s *packageServiceImpl) reviewChecks(ctx context.Context, reviewer entity.Principal, managerName string, owner entity.Principal, nonce uint32) (*entity.ExpenseManager, *entity.ExpensePackage, error) {
	manager, err := s.getManager(ctx, managerName)
	if err != nil {
		return nil, nil, err
	}
	pkg, err := s.getPackage(ctx, manager.Address, owner, nonce)
	if err != nil {
		return nil, nil, err
	}
	if err := s.provider.Authorize(ctx, reviewer, manager, access.CapabilityApprove); err != nil {
		return nil, nil, err
	}
	if reviewer == pkg.Owner {
		return nil, nil, fmt.Errorf("%w: %s owns this package", entity.ErrCannotApproveOwnExpense, reviewer)
	}
	return manager, pkg, nil
}

// fireTransition validates the trigger against the lifecycle table, then
// applies the optional fund movement and the state flip in one transaction.
// If the fund movement fails nothing is committed.
func (s *packageServiceImpl) fireTransition(ctx context.Context, pkg *entity.ExpensePackage, trigger workflow.Trigger, fundMove func(ctx context.Context) error) (*entity.ExpensePackage, error) {
	machine, err := workflow.NewMachine(workflow.State(pkg.State))
	if err != nil {
		return nil, err
	}
	next, err := machine.Fire(trigger)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if fundMove != nil {
			if err := fundMove(txCtx); err != nil {
				return err
			}
		}
		return s.packageRepo.UpdateState(txCtx, pkg.Address, next.String())
	})
	if err != nil {
		s.logger.Error("Transition failed", "error", err, "address", pkg.Address, "trigger", trigger)
		return nil, err
	}

	pkg.State = next.String()
	return pkg, nil
}
