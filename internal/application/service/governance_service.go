package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expensio/expense-ledger/internal/access"
	"github.com/expensio/expense-ledger/internal/access/extcodec"
	"github.com/expensio/expense-ledger/internal/address"
	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
	"github.com/expensio/expense-ledger/internal/proposal"
)

// GovernanceService grants access records and executes passed proposals.
// Direct grants are available to the admin path; proposal execution verifies
// the vote outcome first and applies each proposal at most once.
type GovernanceService interface {
	GrantAccess(ctx context.Context, caller entity.Principal, managerName string, user entity.Principal, role entity.Role) (*entity.AccessRecord, error)
	ExecuteProposal(ctx context.Context, executor entity.Principal, managerName, proposalID string) (*proposal.Verdict, error)
}

type governanceServiceImpl struct {
	managerRepo port.ManagerRepository
	accessRepo  port.AccessRecordRepository
	balanceRepo port.BalanceRepository
	execRepo    port.ProposalExecutionRepository
	squads      port.SquadOracle
	provider    access.Provider
	txManager   port.TransactionManager
	thresholds  proposal.Thresholds
	logger      Logger
}

// NewGovernanceService creates a new GovernanceService. The thresholds are
// the configured quorum/support defaults used when the external record does
// not carry its own.
func NewGovernanceService(
	managerRepo port.ManagerRepository,
	accessRepo port.AccessRecordRepository,
	balanceRepo port.BalanceRepository,
	execRepo port.ProposalExecutionRepository,
	squads port.SquadOracle,
	provider access.Provider,
	txManager port.TransactionManager,
	thresholds proposal.Thresholds,
	logger Logger,
) GovernanceService {
	return &governanceServiceImpl{
		managerRepo: managerRepo,
		accessRepo:  accessRepo,
		balanceRepo: balanceRepo,
		execRepo:    execRepo,
		squads:      squads,
		provider:    provider,
		txManager:   txManager,
		thresholds:  thresholds,
		logger:      logger,
	}
}

// GrantAccess creates an access record directly. The caller must hold the
// admin capability over the manager (the direct authority, or an admin-role
// grant under governance/squad bindings).
func (s *governanceServiceImpl) GrantAccess(ctx context.Context, caller entity.Principal, managerName string, user entity.Principal, role entity.Role) (*entity.AccessRecord, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", proposal.ErrFailedToParse, role)
	}

	manager, err := s.managerRepo.GetByName(ctx, managerName)
	if err != nil {
		return nil, fmt.Errorf("look up manager: %w", err)
	}
	if manager == nil {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrUninitialized, managerName)
	}
	if err := s.provider.Authorize(ctx, caller, manager, access.CapabilityAdmin); err != nil {
		return nil, err
	}

	record, err := s.createAccessRecord(ctx, manager.Address, user, role)
	if err != nil {
		s.logger.Error("Failed to grant access", "error", err, "manager", managerName, "user", user)
		return nil, err
	}

	s.logger.Info("Access granted", "manager", managerName, "user", user, "role", role)
	return record, nil
}

// ExecuteProposal fetches a squad proposal, verifies its tally against the
// squad's thresholds, and applies the parsed verdict. The proposal text is
// interpreted exactly once; a second execution attempt fails with
// ErrAlreadyExists and changes nothing.
func (s *governanceServiceImpl) ExecuteProposal(ctx context.Context, executor entity.Principal, managerName, proposalID string) (*proposal.Verdict, error) {
	manager, err := s.managerRepo.GetByName(ctx, managerName)
	if err != nil {
		return nil, fmt.Errorf("look up manager: %w", err)
	}
	if manager == nil {
		return nil, fmt.Errorf("%w: manager %q", entity.ErrUninitialized, managerName)
	}
	if !manager.Binding.IsBound() {
		return nil, fmt.Errorf("%w: manager has no governance or squad binding", entity.ErrNotAuthorized)
	}

	// executors must themselves be members
	if err := s.provider.Authorize(ctx, executor, manager, access.CapabilityCreatePackage); err != nil {
		return nil, err
	}

	prior, err := s.execRepo.GetByProposal(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("look up proposal execution: %w", err)
	}
	if prior != nil {
		return nil, fmt.Errorf("%w: proposal %s already executed", entity.ErrAlreadyExists, proposalID)
	}

	prop, tally, thresholds, err := s.loadProposal(ctx, manager, proposalID)
	if err != nil {
		return nil, err
	}

	verdict, err := proposal.ParseAndVerify(prop.Title, prop.Description, tally, thresholds)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.applyVerdict(txCtx, manager, verdict); err != nil {
			return err
		}
		return s.execRepo.Create(txCtx, &entity.ProposalExecution{
			ID:         uuid.NewString(),
			ProposalID: proposalID,
			ExecutedAt: time.Now(),
		})
	})
	if err != nil {
		s.logger.Error("Proposal execution failed", "error", err, "proposal", proposalID)
		return nil, err
	}

	s.logger.Info("Proposal executed", "proposal", proposalID, "kind", verdict.Kind, "executor", executor)
	return verdict, nil
}

// loadProposal decodes the proposal blob and assembles the tally. Finalized
// proposals carry frozen denominators; live ones use current squad state.
// Squad bindings take their thresholds from the squad record, governance
// bindings from the configured defaults.
func (s *governanceServiceImpl) loadProposal(ctx context.Context, manager *entity.ExpenseManager, proposalID string) (*extcodec.SquadProposal, proposal.Tally, proposal.Thresholds, error) {
	var tally proposal.Tally
	var thresholds proposal.Thresholds

	raw, err := s.squads.Proposal(ctx, proposalID)
	if err != nil {
		return nil, tally, thresholds, fmt.Errorf("fetch proposal: %w", err)
	}
	if raw == nil {
		return nil, tally, thresholds, fmt.Errorf("%w: proposal %s", entity.ErrUninitialized, proposalID)
	}
	prop, err := extcodec.DecodeSquadProposal(raw)
	if err != nil {
		return nil, tally, thresholds, err
	}

	tally = proposal.Tally{
		Options:      prop.VoteLabels,
		Votes:        prop.Votes,
		Participants: prop.Participants,
	}

	if prop.Executed {
		tally.EligibleVoters = prop.MembersAtExecute
		tally.EligibleSupply = prop.SupplyAtExecute
	}

	if manager.Binding.Kind == entity.BindingSquad {
		if prop.Squad != manager.Binding.Squad {
			return nil, tally, thresholds, fmt.Errorf("%w: proposal belongs to another squad", proposal.ErrInvalidProposal)
		}
		rawSquad, err := s.squads.Squad(ctx, manager.Binding.Squad)
		if err != nil {
			return nil, tally, thresholds, fmt.Errorf("fetch squad: %w", err)
		}
		if rawSquad == nil {
			return nil, tally, thresholds, fmt.Errorf("%w: squad %s", entity.ErrUninitialized, manager.Binding.Squad)
		}
		squad, err := extcodec.DecodeSquad(rawSquad)
		if err != nil {
			return nil, tally, thresholds, err
		}
		thresholds = proposal.Thresholds{Quorum: squad.VoteQuorum, Support: squad.VoteSupport}
		if !prop.Executed {
			tally.EligibleVoters = squad.MemberCount
			tally.EligibleSupply = squad.EquitySupply
		}
	} else {
		thresholds = s.thresholds
		if !prop.Executed {
			// governance realm proposals are only executable once
			// finalized; live realm denominators are not visible here
			return nil, tally, thresholds, fmt.Errorf("%w: proposal is not finalized", proposal.ErrInvalidProposal)
		}
	}

	return prop, tally, thresholds, nil
}

func (s *governanceServiceImpl) applyVerdict(ctx context.Context, manager *entity.ExpenseManager, verdict *proposal.Verdict) error {
	switch verdict.Kind {
	case proposal.KindGrantAccess:
		_, err := s.createAccessRecord(ctx, manager.Address, verdict.GrantAccess.Member, verdict.GrantAccess.Role)
		return err
	case proposal.KindWithdrawFunds:
		w := verdict.WithdrawFunds
		if w.Manager != manager.Address && w.Manager != manager.Name {
			return fmt.Errorf("%w: withdrawal targets another manager", proposal.ErrInvalidProposal)
		}
		return transferFunds(ctx, s.balanceRepo, manager.Address, w.Treasury, w.Amount)
	default:
		return fmt.Errorf("%w: verdict kind %q", proposal.ErrInvalidProposal, verdict.Kind)
	}
}

func (s *governanceServiceImpl) createAccessRecord(ctx context.Context, managerAddress string, user entity.Principal, role entity.Role) (*entity.AccessRecord, error) {
	existing, err := s.accessRepo.Get(ctx, managerAddress, user)
	if err != nil {
		return nil, fmt.Errorf("look up access record: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: access record for %s", entity.ErrAlreadyExists, user)
	}

	record := &entity.AccessRecord{
		Address:        address.ForAccessRecord(managerAddress, user.String()),
		ManagerAddress: managerAddress,
		User:           user,
		Role:           role,
		CreatedAt:      time.Now(),
	}
	if err := s.accessRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
