package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user profile
func (r *UserRepository) Create(ctx context.Context, user *entity.UserData) error {
	query := `
		INSERT INTO users (address, principal, username, real_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		user.Address,
		user.Principal,
		user.Username,
		user.RealName,
		user.CreatedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to create user", zap.String("principal", user.Principal.String()), zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// Get retrieves a user profile by principal
func (r *UserRepository) Get(ctx context.Context, principal entity.Principal) (*entity.UserData, error) {
	query := `
		SELECT address, principal, username, real_name, created_at
		FROM users
		WHERE principal = ?
	`

	var user entity.UserData
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, principal).Scan(
		&user.Address,
		&user.Principal,
		&user.Username,
		&user.RealName,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("principal", principal.String()), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
