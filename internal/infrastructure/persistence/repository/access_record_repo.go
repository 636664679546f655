package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// AccessRecordRepository implements port.AccessRecordRepository
type AccessRecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAccessRecordRepository creates a new access record repository
func NewAccessRecordRepository(db *sql.DB, logger *zap.Logger) port.AccessRecordRepository {
	return &AccessRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new access record
func (r *AccessRecordRepository) Create(ctx context.Context, record *entity.AccessRecord) error {
	query := `
		INSERT INTO access_records (address, manager_address, user_principal, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.Address,
		record.ManagerAddress,
		record.User,
		record.Role,
		record.CreatedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to create access record",
			zap.String("manager", record.ManagerAddress),
			zap.String("user", record.User.String()),
			zap.Error(err))
		return fmt.Errorf("create access record: %w", err)
	}

	return nil
}

// Get retrieves the access record a user holds over a manager
func (r *AccessRecordRepository) Get(ctx context.Context, managerAddress string, user entity.Principal) (*entity.AccessRecord, error) {
	query := `
		SELECT address, manager_address, user_principal, role, created_at
		FROM access_records
		WHERE manager_address = ? AND user_principal = ?
	`

	var record entity.AccessRecord
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, managerAddress, user).Scan(
		&record.Address,
		&record.ManagerAddress,
		&record.User,
		&record.Role,
		&record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get access record", zap.Error(err))
		return nil, fmt.Errorf("get access record: %w", err)
	}

	return &record, nil
}

// Verify interface compliance
var _ port.AccessRecordRepository = (*AccessRecordRepository)(nil)
