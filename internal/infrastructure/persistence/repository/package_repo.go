package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"go.uber.org/zap"
)

// PackageRepository implements port.PackageRepository
type PackageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *sql.DB, logger *zap.Logger) port.PackageRepository {
	return &PackageRepository{
		db:     db,
		logger: logger,
	}
}

const packageColumns = `
	address, manager_address, owner, nonce, name, description, quantity, state,
	created_at, updated_at
`

// Create inserts a new expense package
func (r *PackageRepository) Create(ctx context.Context, pkg *entity.ExpensePackage) error {
	query := `
		INSERT INTO expense_packages (` + packageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		pkg.Address,
		pkg.ManagerAddress,
		pkg.Owner,
		pkg.Nonce,
		pkg.Name,
		pkg.Description,
		pkg.Quantity,
		pkg.State,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to create package",
			zap.String("manager", pkg.ManagerAddress),
			zap.String("owner", pkg.Owner.String()),
			zap.Uint32("nonce", pkg.Nonce),
			zap.Error(err))
		return fmt.Errorf("create package: %w", err)
	}

	return nil
}

// GetByAddress retrieves a package by its derived address
func (r *PackageRepository) GetByAddress(ctx context.Context, address string) (*entity.ExpensePackage, error) {
	query := `SELECT ` + packageColumns + ` FROM expense_packages WHERE address = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, address)
	return r.scanRow(row)
}

// Get retrieves a package by its manager, owner and nonce
func (r *PackageRepository) Get(ctx context.Context, managerAddress string, owner entity.Principal, nonce uint32) (*entity.ExpensePackage, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM expense_packages
		WHERE manager_address = ? AND owner = ? AND nonce = ?
	`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, managerAddress, owner, nonce)
	return r.scanRow(row)
}

func (r *PackageRepository) scanRow(row *sql.Row) (*entity.ExpensePackage, error) {
	var pkg entity.ExpensePackage

	err := row.Scan(
		&pkg.Address,
		&pkg.ManagerAddress,
		&pkg.Owner,
		&pkg.Nonce,
		&pkg.Name,
		&pkg.Description,
		&pkg.Quantity,
		&pkg.State,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get package", zap.Error(err))
		return nil, fmt.Errorf("get package: %w", err)
	}

	return &pkg, nil
}

// UpdateInfo overwrites the mutable fields of a package
func (r *PackageRepository) UpdateInfo(ctx context.Context, address, name, description string, quantity uint64) error {
	query := `
		UPDATE expense_packages
		SET name = ?, description = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE address = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, name, description, quantity, address)
	if err != nil {
		r.logger.Error("Failed to update package info", zap.String("address", address), zap.Error(err))
		return fmt.Errorf("update package info: %w", err)
	}

	return nil
}

// UpdateState flips the lifecycle state of a package
func (r *PackageRepository) UpdateState(ctx context.Context, address, state string) error {
	query := `
		UPDATE expense_packages
		SET state = ?, updated_at = CURRENT_TIMESTAMP
		WHERE address = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, state, address)
	if err != nil {
		r.logger.Error("Failed to update package state",
			zap.String("address", address), zap.String("state", state), zap.Error(err))
		return fmt.Errorf("update package state: %w", err)
	}

	return nil
}

// ListByOwner retrieves every package a principal owns under a manager,
// newest first
func (r *PackageRepository) ListByOwner(ctx context.Context, managerAddress string, owner entity.Principal) ([]*entity.ExpensePackage, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM expense_packages
		WHERE manager_address = ? AND owner = ?
		ORDER BY nonce DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, managerAddress, owner)
	if err != nil {
		r.logger.Error("Failed to list packages", zap.String("manager", managerAddress), zap.Error(err))
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []*entity.ExpensePackage
	for rows.Next() {
		var pkg entity.ExpensePackage
		err := rows.Scan(
			&pkg.Address,
			&pkg.ManagerAddress,
			&pkg.Owner,
			&pkg.Nonce,
			&pkg.Name,
			&pkg.Description,
			&pkg.Quantity,
			&pkg.State,
			&pkg.CreatedAt,
			&pkg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, &pkg)
	}

	return packages, rows.Err()
}

// Verify interface compliance
var _ port.PackageRepository = (*PackageRepository)(nil)
