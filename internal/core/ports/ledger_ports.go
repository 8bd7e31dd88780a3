package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

// LedgerTx is the record set a single operation reads and writes. Nothing
// written through it is visible to others until the surrounding Update
// returns nil.
type LedgerTx interface {
	GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error)
	InsertDao(ctx context.Context, dao *domain.DaoAccount) error

	GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error)
	InsertProposal(ctx context.Context, proposal *domain.Proposal) error
	UpdateProposal(ctx context.Context, proposal *domain.Proposal) error

	GetOrCreateVoter(ctx context.Context, proposal, user uuid.UUID) (*domain.Voter, error)
	UpdateVoter(ctx context.Context, voter *domain.Voter) error

	GetOrCreateRewardAccount(ctx context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error)
	UpdateRewardAccount(ctx context.Context, reward *domain.RewardAccount) error
}

type LedgerReader interface {
	GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error)
	GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error)
	GetVoter(ctx context.Context, address uuid.UUID) (*domain.Voter, error)
	GetRewardAccount(ctx context.Context, address uuid.UUID) (*domain.RewardAccount, error)

	ListDaos(ctx context.Context) ([]*domain.DaoAccount, error)
	ListProposals(ctx context.Context, dao uuid.UUID, limit, offset int) ([]*domain.Proposal, error)
	ListRewardAccounts(ctx context.Context, dao uuid.UUID) ([]*domain.RewardAccount, error)

	// CountVoted returns how many voter records of proposal have voted.
	CountVoted(ctx context.Context, proposal uuid.UUID) (uint64, error)
	// CountVotesCast returns how many proposals of dao user has voted on.
	CountVotesCast(ctx context.Context, dao, user uuid.UUID) (uint64, error)
}

type LedgerStore interface {
	LedgerReader

	// Update runs fn as one all-or-nothing unit. If fn returns an error every
	// write made through tx is discarded and the error is returned unchanged.
	Update(ctx context.Context, fn func(tx LedgerTx) error) error
	Close() error
}

type InitializeInput struct {
	Payer   uuid.UUID
	Address uuid.UUID
	Name    string
}

type CreateProposalInput struct {
	Payer       uuid.UUID
	Dao         uuid.UUID
	Title       string
	Description string
}

type VoteInput struct {
	Proposal uuid.UUID
	// Dao is optional; when set it must match the proposal's DAO.
	Dao    uuid.UUID
	Voter  uuid.UUID
	Choice bool
}

type ListProposalsInput struct {
	Dao  uuid.UUID
	Page int
}

type LedgerService interface {
	Initialize(ctx context.Context, input InitializeInput) (*domain.DaoAccount, error)
	CreateProposal(ctx context.Context, input CreateProposalInput) (*domain.Proposal, error)
	Vote(ctx context.Context, input VoteInput) error

	GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error)
	GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error)
	GetProposalByTitle(ctx context.Context, dao uuid.UUID, title string) (*domain.Proposal, error)
	ListProposals(ctx context.Context, input ListProposalsInput) ([]*domain.Proposal, error)
	GetVoter(ctx context.Context, proposal, user uuid.UUID) (*domain.Voter, error)
	GetRewardAccount(ctx context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error)
}

// LedgerMetrics records the outcome of every ledger operation.
type LedgerMetrics interface {
	ObserveOperation(operation string, err error, seconds float64)
}
