// Package memory keeps the ledger in process memory. Every Update holds the
// store's write lock for its whole duration, so operations are serialized.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

var _ ports.LedgerStore = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	daos      map[uuid.UUID]domain.DaoAccount
	proposals map[uuid.UUID]domain.Proposal
	voters    map[uuid.UUID]domain.Voter
	rewards   map[uuid.UUID]domain.RewardAccount

	// creation order, for stable listing
	daoOrder      []uuid.UUID
	proposalOrder map[uuid.UUID][]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		daos:          make(map[uuid.UUID]domain.DaoAccount),
		proposals:     make(map[uuid.UUID]domain.Proposal),
		voters:        make(map[uuid.UUID]domain.Voter),
		rewards:       make(map[uuid.UUID]domain.RewardAccount),
		proposalOrder: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Store) Update(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTxn(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) GetDao(_ context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dao, ok := s.daos[address]
	if !ok {
		return nil, domain.ErrDaoNotFound
	}
	return &dao, nil
}

func (s *Store) GetProposal(_ context.Context, address uuid.UUID) (*domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposal, ok := s.proposals[address]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return &proposal, nil
}

func (s *Store) GetVoter(_ context.Context, address uuid.UUID) (*domain.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voter, ok := s.voters[address]
	if !ok {
		return nil, domain.ErrVoterNotFound
	}
	return &voter, nil
}

func (s *Store) GetRewardAccount(_ context.Context, address uuid.UUID) (*domain.RewardAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reward, ok := s.rewards[address]
	if !ok {
		return nil, domain.ErrRewardNotFound
	}
	return &reward, nil
}

func (s *Store) ListDaos(_ context.Context) ([]*domain.DaoAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	daos := make([]*domain.DaoAccount, 0, len(s.daoOrder))
	for _, address := range s.daoOrder {
		dao := s.daos[address]
		daos = append(daos, &dao)
	}
	return daos, nil
}

func (s *Store) ListProposals(_ context.Context, dao uuid.UUID, limit, offset int) ([]*domain.Proposal, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidPage, offset)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.proposalOrder[dao]
	if offset >= len(order) {
		return nil, nil
	}
	end := len(order)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	proposals := make([]*domain.Proposal, 0, end-offset)
	for _, address := range order[offset:end] {
		proposal := s.proposals[address]
		proposals = append(proposals, &proposal)
	}
	return proposals, nil
}

func (s *Store) ListRewardAccounts(_ context.Context, dao uuid.UUID) ([]*domain.RewardAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rewards []*domain.RewardAccount
	for _, r := range s.rewards {
		if r.Dao == dao {
			reward := r
			rewards = append(rewards, &reward)
		}
	}
	sort.Slice(rewards, func(i, j int) bool {
		return rewards[i].User.String() < rewards[j].User.String()
	})
	return rewards, nil
}

func (s *Store) CountVoted(_ context.Context, proposal uuid.UUID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	for _, v := range s.voters {
		if v.Proposal == proposal && v.HasVoted {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountVotesCast(_ context.Context, dao, user uuid.UUID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	for _, proposal := range s.proposalOrder[dao] {
		if v, ok := s.voters[domain.VoterAddress(proposal, user)]; ok && v.HasVoted {
			n++
		}
	}
	return n, nil
}
