package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// BalanceRepository implements port.BalanceRepository
type BalanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *sql.DB, logger *zap.Logger) port.BalanceRepository {
	return &BalanceRepository{
		db:     db,
		logger: logger,
	}
}

const balanceColumns = `
	id, kind, owner_principal, balance, reserve_floor, created_at, updated_at
`

// Create inserts a new balance account
func (r *BalanceRepository) Create(ctx context.Context, account *entity.BalanceAccount) error {
	query := `
		INSERT INTO balance_accounts (` + balanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		account.ID,
		account.Kind,
		account.OwnerPrincipal,
		account.Balance,
		account.ReserveFloor,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to create balance account", zap.String("id", account.ID), zap.Error(err))
		return fmt.Errorf("create balance account: %w", err)
	}

	return nil
}

// Get retrieves a balance account by ID
func (r *BalanceRepository) Get(ctx context.Context, id string) (*entity.BalanceAccount, error) {
	query := `SELECT ` + balanceColumns + ` FROM balance_accounts WHERE id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	return r.scanRow(row)
}

// GetOrCreateForPrincipal returns the payout account owned by a principal,
// creating an empty one on first use.
func (r *BalanceRepository) GetOrCreateForPrincipal(ctx context.Context, principal entity.Principal) (*entity.BalanceAccount, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balance_accounts
		WHERE kind = ? AND owner_principal = ?
	`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, entity.AccountKindPrincipal, principal)
	account, err := r.scanRow(row)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	now := time.Now()
	account = &entity.BalanceAccount{
		ID:             uuid.NewString(),
		Kind:           entity.AccountKindPrincipal,
		OwnerPrincipal: principal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.Create(ctx, account); err != nil {
		return nil, err
	}

	r.logger.Info("Created payout account",
		zap.String("principal", principal.String()), zap.String("id", account.ID))
	return account, nil
}

// UpdateAmounts applies a precomputed debit/credit pair. It must run inside a
// transaction so the pair is never visible half-applied.
func (r *BalanceRepository) UpdateAmounts(ctx context.Context, fromID string, fromBalance uint64, toID string, toBalance uint64) error {
	query := `
		UPDATE balance_accounts
		SET balance = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	exec := getExecutor(ctx, r.db)
	for _, upd := range []struct {
		id      string
		balance uint64
	}{
		{fromID, fromBalance},
		{toID, toBalance},
	} {
		result, err := exec.ExecContext(ctx, query, upd.balance, upd.id)
		if err != nil {
			r.logger.Error("Failed to update balance", zap.String("id", upd.id), zap.Error(err))
			return fmt.Errorf("update balance: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("update balance %s: %w", upd.id, entity.ErrUninitialized)
		}
	}

	return nil
}

func (r *BalanceRepository) scanRow(row *sql.Row) (*entity.BalanceAccount, error) {
	var account entity.BalanceAccount

	err := row.Scan(
		&account.ID,
		&account.Kind,
		&account.OwnerPrincipal,
		&account.Balance,
		&account.ReserveFloor,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get balance account", zap.Error(err))
		return nil, fmt.Errorf("get balance account: %w", err)
	}

	return &account, nil
}

// Verify interface compliance
var _ port.BalanceRepository = (*BalanceRepository)(nil)
