package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

const proposalsPageSize = 10

const (
	OpInitialize     = "initialize"
	OpCreateProposal = "create_proposal"
	OpVote           = "vote"
)

type ledgerService struct {
	store   ports.LedgerStore
	metrics ports.LedgerMetrics
	logger  *slog.Logger
}

func NewLedgerService(store ports.LedgerStore, metrics ports.LedgerMetrics, logger *slog.Logger) ports.LedgerService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "ledger"),
	}
}

func (s *ledgerService) Initialize(ctx context.Context, input ports.InitializeInput) (dao *domain.DaoAccount, err error) {
	defer s.observe(OpInitialize, time.Now(), &err)

	dao, err = domain.NewDaoAccount(input.Address, input.Name, input.Payer)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ports.LedgerTx) error {
		return tx.InsertDao(ctx, dao)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dao initialized", "dao", dao.Address, "owner", dao.Owner, "name", dao.Name)
	return dao, nil
}

func (s *ledgerService) CreateProposal(ctx context.Context, input ports.CreateProposalInput) (proposal *domain.Proposal, err error) {
	defer s.observe(OpCreateProposal, time.Now(), &err)

	if input.Payer == uuid.Nil {
		return nil, domain.ErrMissingIdentity
	}
	proposal, err = domain.NewProposal(input.Dao, input.Title, input.Description)
	if err != nil {
		return nil, err
	}

	// Any payer may create proposals under any DAO.
	err = s.store.Update(ctx, func(tx ports.LedgerTx) error {
		if _, err := tx.GetDao(ctx, input.Dao); err != nil {
			return err
		}
		return tx.InsertProposal(ctx, proposal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "proposal created",
		"dao", proposal.Dao, "proposal", proposal.Address, "title", proposal.Title, "payer", input.Payer)
	return proposal, nil
}

func (s *ledgerService) Vote(ctx context.Context, input ports.VoteInput) (err error) {
	defer s.observe(OpVote, time.Now(), &err)

	if input.Voter == uuid.Nil {
		return domain.ErrMissingIdentity
	}

	var points uint64
	err = s.store.Update(ctx, func(tx ports.LedgerTx) error {
		proposal, err := tx.GetProposal(ctx, input.Proposal)
		if err != nil {
			return err
		}
		if input.Dao != uuid.Nil && input.Dao != proposal.Dao {
			return domain.ErrDaoMismatch
		}

		voter, err := tx.GetOrCreateVoter(ctx, proposal.Address, input.Voter)
		if err != nil {
			return err
		}
		reward, err := tx.GetOrCreateRewardAccount(ctx, proposal.Dao, input.Voter)
		if err != nil {
			return err
		}

		if voter.HasVoted {
			return domain.ErrVotedTwice
		}

		if err := proposal.Tally(input.Choice); err != nil {
			return err
		}
		voter.HasVoted = true
		if err := reward.Reward(); err != nil {
			return err
		}

		if err := tx.UpdateProposal(ctx, proposal); err != nil {
			return err
		}
		if err := tx.UpdateVoter(ctx, voter); err != nil {
			return err
		}
		points = reward.RewardPoints
		return tx.UpdateRewardAccount(ctx, reward)
	})
	if err != nil {
		if errors.Is(err, domain.ErrVotedTwice) {
			s.logger.WarnContext(ctx, "vote rejected", "proposal", input.Proposal, "voter", input.Voter, "error", err)
		}
		return err
	}

	s.logger.InfoContext(ctx, "vote cast",
		"proposal", input.Proposal, "voter", input.Voter, "choice", input.Choice, "reward_points", points)
	return nil
}

func (s *ledgerService) GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	return s.store.GetDao(ctx, address)
}

func (s *ledgerService) GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error) {
	return s.store.GetProposal(ctx, address)
}

func (s *ledgerService) GetProposalByTitle(ctx context.Context, dao uuid.UUID, title string) (*domain.Proposal, error) {
	return s.store.GetProposal(ctx, domain.ProposalAddress(dao, title))
}

func (s *ledgerService) ListProposals(ctx context.Context, input ports.ListProposalsInput) ([]*domain.Proposal, error) {
	if _, err := s.store.GetDao(ctx, input.Dao); err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt/proposalsPageSize {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPage, page)
	}
	offset := (page - 1) * proposalsPageSize

	proposals, err := s.store.ListProposals(ctx, input.Dao, proposalsPageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, nil
}

func (s *ledgerService) GetVoter(ctx context.Context, proposal, user uuid.UUID) (*domain.Voter, error) {
	return s.store.GetVoter(ctx, domain.VoterAddress(proposal, user))
}

func (s *ledgerService) GetRewardAccount(ctx context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error) {
	return s.store.GetRewardAccount(ctx, domain.RewardAddress(dao, user))
}

func (s *ledgerService) observe(operation string, start time.Time, err *error) {
	s.metrics.ObserveOperation(operation, *err, time.Since(start).Seconds())
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, error, float64) {}
