package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"go.uber.org/zap"
)

// ManagerRepository implements port.ManagerRepository
type ManagerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewManagerRepository creates a new manager repository
func NewManagerRepository(db *sql.DB, logger *zap.Logger) port.ManagerRepository {
	return &ManagerRepository{
		db:     db,
		logger: logger,
	}
}

const managerColumns = `
	address, name, membership_token_mint, package_nonce,
	binding_kind, authority, realm, governance_authority, squad, external_program,
	created_at, updated_at
`

// Create inserts a new expense manager
func (r *ManagerRepository) Create(ctx context.Context, manager *entity.ExpenseManager) error {
	query := `
		INSERT INTO expense_managers (` + managerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		manager.Address,
		manager.Name,
		manager.MembershipTokenMint,
		manager.PackageNonce,
		manager.Binding.Kind,
		manager.Binding.Authority,
		manager.Binding.Realm,
		manager.Binding.GovernanceAuthority,
		manager.Binding.Squad,
		manager.Binding.ExternalProgram,
		manager.CreatedAt,
		manager.UpdatedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to create manager", zap.String("name", manager.Name), zap.Error(err))
		return fmt.Errorf("create manager: %w", err)
	}

	return nil
}

// GetByName retrieves a manager by its unique name
func (r *ManagerRepository) GetByName(ctx context.Context, name string) (*entity.ExpenseManager, error) {
	query := `SELECT ` + managerColumns + ` FROM expense_managers WHERE name = ?`
	return r.scanOne(ctx, query, name)
}

// GetByAddress retrieves a manager by its derived address
func (r *ManagerRepository) GetByAddress(ctx context.Context, address string) (*entity.ExpenseManager, error) {
	query := `SELECT ` + managerColumns + ` FROM expense_managers WHERE address = ?`
	return r.scanOne(ctx, query, address)
}

func (r *ManagerRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.ExpenseManager, error) {
	var manager entity.ExpenseManager

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&manager.Address,
		&manager.Name,
		&manager.MembershipTokenMint,
		&manager.PackageNonce,
		&manager.Binding.Kind,
		&manager.Binding.Authority,
		&manager.Binding.Realm,
		&manager.Binding.GovernanceAuthority,
		&manager.Binding.Squad,
		&manager.Binding.ExternalProgram,
		&manager.CreatedAt,
		&manager.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get manager", zap.Error(err))
		return nil, fmt.Errorf("get manager: %w", err)
	}

	return &manager, nil
}

// SetBinding persists a one-time governance/squad binding
func (r *ManagerRepository) SetBinding(ctx context.Context, address string, binding entity.AuthorizationBinding) error {
	query := `
		UPDATE expense_managers
		SET binding_kind = ?, authority = ?, realm = ?, governance_authority = ?,
			squad = ?, external_program = ?, updated_at = CURRENT_TIMESTAMP
		WHERE address = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		binding.Kind,
		binding.Authority,
		binding.Realm,
		binding.GovernanceAuthority,
		binding.Squad,
		binding.ExternalProgram,
		address,
	)
	if err != nil {
		r.logger.Error("Failed to set binding", zap.String("address", address), zap.Error(err))
		return fmt.Errorf("set binding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set binding: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set binding: %w", entity.ErrUninitialized)
	}

	return nil
}

// AdvanceNonce increments the package counter iff it still equals expected.
// The guarded update makes concurrent creations race on the counter instead of
// silently sharing a nonce.
func (r *ManagerRepository) AdvanceNonce(ctx context.Context, address string, expected uint32) (bool, error) {
	query := `
		UPDATE expense_managers
		SET package_nonce = package_nonce + 1, updated_at = CURRENT_TIMESTAMP
		WHERE address = ? AND package_nonce = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, address, expected)
	if err != nil {
		r.logger.Error("Failed to advance nonce", zap.String("address", address), zap.Error(err))
		return false, fmt.Errorf("advance nonce: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance nonce: %w", err)
	}

	return affected == 1, nil
}

// Verify interface compliance
var _ port.ManagerRepository = (*ManagerRepository)(nil)
