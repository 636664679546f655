package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// In-memory fakes backing the service tests. They keep real state so the
// conservation and nonce properties can be checked across call sequences.

type fakeStore struct {
	managers       map[string]*entity.ExpenseManager
	managersByName map[string]string
	packages       map[string]*entity.ExpensePackage
	accessRecords  map[string]*entity.AccessRecord
	users          map[entity.Principal]*entity.UserData
	balances       map[string]*entity.BalanceAccount
	principalAccts map[entity.Principal]string
	executions     map[string]*entity.ProposalExecution
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		managers:       make(map[string]*entity.ExpenseManager),
		managersByName: make(map[string]string),
		packages:       make(map[string]*entity.ExpensePackage),
		accessRecords:  make(map[string]*entity.AccessRecord),
		users:          make(map[entity.Principal]*entity.UserData),
		balances:       make(map[string]*entity.BalanceAccount),
		principalAccts: make(map[entity.Principal]string),
		executions:     make(map[string]*entity.ProposalExecution),
	}
}

// totalFunds sums every balance account; conservation tests assert it never
// changes across approve/withdraw sequences.
func (s *fakeStore) totalFunds() uint64 {
	var total uint64
	for _, acct := range s.balances {
		total += acct.Balance
	}
	return total
}

func (s *fakeStore) principalAcctBalance(principal entity.Principal) (uint64, error) {
	id, ok := s.principalAccts[principal]
	if !ok {
		return 0, fmt.Errorf("no payout account for %s", principal)
	}
	return s.balances[id].Balance, nil
}

func accessKey(managerAddress string, user entity.Principal) string {
	return managerAddress + "/" + user.String()
}

type fakeManagerRepo struct{ s *fakeStore }

func (r *fakeManagerRepo) Create(_ context.Context, manager *entity.ExpenseManager) error {
	if _, ok := r.s.managersByName[manager.Name]; ok {
		return entity.ErrAlreadyExists
	}
	clone := *manager
	r.s.managers[manager.Address] = &clone
	r.s.managersByName[manager.Name] = manager.Address
	return nil
}

func (r *fakeManagerRepo) GetByName(_ context.Context, name string) (*entity.ExpenseManager, error) {
	addr, ok := r.s.managersByName[name]
	if !ok {
		return nil, nil
	}
	clone := *r.s.managers[addr]
	return &clone, nil
}

func (r *fakeManagerRepo) GetByAddress(_ context.Context, address string) (*entity.ExpenseManager, error) {
	manager, ok := r.s.managers[address]
	if !ok {
		return nil, nil
	}
	clone := *manager
	return &clone, nil
}

func (r *fakeManagerRepo) SetBinding(_ context.Context, address string, binding entity.AuthorizationBinding) error {
	manager, ok := r.s.managers[address]
	if !ok {
		return fmt.Errorf("manager %s not found", address)
	}
	manager.Binding = binding
	return nil
}

func (r *fakeManagerRepo) AdvanceNonce(_ context.Context, address string, expected uint32) (bool, error) {
	manager, ok := r.s.managers[address]
	if !ok {
		return false, fmt.Errorf("manager %s not found", address)
	}
	if manager.PackageNonce != expected {
		return false, nil
	}
	manager.PackageNonce++
	return true, nil
}

type fakePackageRepo struct{ s *fakeStore }

func packageKey(managerAddress string, owner entity.Principal, nonce uint32) string {
	return fmt.Sprintf("%s/%s/%d", managerAddress, owner, nonce)
}

func (r *fakePackageRepo) Create(_ context.Context, pkg *entity.ExpensePackage) error {
	if _, ok := r.s.packages[pkg.Address]; ok {
		return entity.ErrAlreadyExists
	}
	clone := *pkg
	r.s.packages[pkg.Address] = &clone
	return nil
}

func (r *fakePackageRepo) GetByAddress(_ context.Context, address string) (*entity.ExpensePackage, error) {
	pkg, ok := r.s.packages[address]
	if !ok {
		return nil, nil
	}
	clone := *pkg
	return &clone, nil
}

func (r *fakePackageRepo) Get(_ context.Context, managerAddress string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error) {
	for _, pkg := range r.s.packages {
		if pkg.ManagerAddress == managerAddress && pkg.Owner == owner && pkg.Nonce == nonce {
			clone := *pkg
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakePackageRepo) UpdateInfo(_ context.Context, address, name, description string, quantity uint64) error {
	pkg, ok := r.s.packages[address]
	if !ok {
		return fmt.Errorf("package %s not found", address)
	}
	pkg.Name = name
	pkg.Description = description
	pkg.Quantity = quantity
	return nil
}

func (r *fakePackageRepo) UpdateState(_ context.Context, address, state string) error {
	pkg, ok := r.s.packages[address]
	if !ok {
		return fmt.Errorf("package %s not found", address)
	}
	pkg.State = state
	return nil
}

func (r *fakePackageRepo) ListByOwner(_ context.Context, managerAddress string, owner entity.Principal) ([]*entity.ExpensePackage, error) {
	var out []*entity.ExpensePackage
	for _, pkg := range r.s.packages {
		if pkg.ManagerAddress == managerAddress && pkg.Owner == owner {
			clone := *pkg
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeAccessRepo struct{ s *fakeStore }

func (r *fakeAccessRepo) Create(_ context.Context, record *entity.AccessRecord) error {
	key := accessKey(record.ManagerAddress, record.User)
	if _, ok := r.s.accessRecords[key]; ok {
		return entity.ErrAlreadyExists
	}
	clone := *record
	r.s.accessRecords[key] = &clone
	return nil
}

func (r *fakeAccessRepo) Get(_ context.Context, managerAddress string, user entity.Principal) (*entity.AccessRecord, error) {
	record, ok := r.s.accessRecords[accessKey(managerAddress, user)]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.UserData) error {
	if _, ok := r.s.users[user.Principal]; ok {
		return entity.ErrAlreadyExists
	}
	clone := *user
	r.s.users[user.Principal] = &clone
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, principal entity.Principal) (*entity.UserData, error) {
	user, ok := r.s.users[principal]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

type fakeBalanceRepo struct{ s *fakeStore }

func (r *fakeBalanceRepo) Create(_ context.Context, account *entity.BalanceAccount) error {
	if _, ok := r.s.balances[account.ID]; ok {
		return entity.ErrAlreadyExists
	}
	clone := *account
	r.s.balances[account.ID] = &clone
	return nil
}

func (r *fakeBalanceRepo) Get(_ context.Context, id string) (*entity.BalanceAccount, error) {
	account, ok := r.s.balances[id]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *fakeBalanceRepo) GetOrCreateForPrincipal(_ context.Context, principal entity.Principal) (*entity.BalanceAccount, error) {
	if id, ok := r.s.principalAccts[principal]; ok {
		clone := *r.s.balances[id]
		return &clone, nil
	}
	account := &entity.BalanceAccount{
		ID:             uuid.NewString(),
		Kind:           entity.AccountKindPrincipal,
		OwnerPrincipal: principal,
	}
	r.s.balances[account.ID] = account
	r.s.principalAccts[principal] = account.ID
	clone := *account
	return &clone, nil
}

func (r *fakeBalanceRepo) UpdateAmounts(_ context.Context, fromID string, fromBalance uint64, toID string, toBalance uint64) error {
	from, ok := r.s.balances[fromID]
	if !ok {
		return fmt.Errorf("account %s not found", fromID)
	}
	to, ok := r.s.balances[toID]
	if !ok {
		return fmt.Errorf("account %s not found", toID)
	}
	from.Balance = fromBalance
	to.Balance = toBalance
	return nil
}

type fakeExecRepo struct{ s *fakeStore }

func (r *fakeExecRepo) Create(_ context.Context, exec *entity.ProposalExecution) error {
	for _, existing := range r.s.executions {
		if existing.ProposalID == exec.ProposalID {
			return entity.ErrAlreadyExists
		}
	}
	clone := *exec
	r.s.executions[exec.ID] = &clone
	return nil
}

func (r *fakeExecRepo) GetByProposal(_ context.Context, proposalID string) (*entity.ProposalExecution, error) {
	for _, exec := range r.s.executions {
		if exec.ProposalID == proposalID {
			clone := *exec
			return &clone, nil
		}
	}
	return nil, nil
}

// noopTxManager runs the function directly; the fakes mutate shared maps so
// the commit semantics are immediate.
type noopTxManager struct {
	calls int64
}

func (m *noopTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	atomic.AddInt64(&m.calls, 1)
	return fn(ctx)
}

type testLogger struct{}

func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
