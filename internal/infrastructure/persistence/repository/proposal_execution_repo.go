package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// ProposalExecutionRepository implements port.ProposalExecutionRepository
type ProposalExecutionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProposalExecutionRepository creates a new proposal execution repository
func NewProposalExecutionRepository(db *sql.DB, logger *zap.Logger) port.ProposalExecutionRepository {
	return &ProposalExecutionRepository{
		db:     db,
		logger: logger,
	}
}

// Create records that a proposal has been executed. The unique constraint on
// proposal_id is the final guard against applying a verdict twice.
func (r *ProposalExecutionRepository) Create(ctx context.Context, exec *entity.ProposalExecution) error {
	query := `
		INSERT INTO proposal_executions (id, proposal_id, executed_at)
		VALUES (?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		exec.ID,
		exec.ProposalID,
		exec.ExecutedAt,
	)
	if err != nil {
		err = mapConstraintErr(err)
		r.logger.Error("Failed to record proposal execution",
			zap.String("proposal_id", exec.ProposalID), zap.Error(err))
		return fmt.Errorf("record proposal execution: %w", err)
	}

	return nil
}

// GetByProposal retrieves the execution record for a proposal, if any
func (r *ProposalExecutionRepository) GetByProposal(ctx context.Context, proposalID string) (*entity.ProposalExecution, error) {
	query := `
		SELECT id, proposal_id, executed_at
		FROM proposal_executions
		WHERE proposal_id = ?
	`

	var exec entity.ProposalExecution
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, proposalID).Scan(
		&exec.ID,
		&exec.ProposalID,
		&exec.ExecutedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get proposal execution", zap.String("proposal_id", proposalID), zap.Error(err))
		return nil, fmt.Errorf("get proposal execution: %w", err)
	}

	return &exec, nil
}

// Verify interface compliance
var _ port.ProposalExecutionRepository = (*ProposalExecutionRepository)(nil)
