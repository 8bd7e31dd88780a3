package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

// txn stages writes on top of the committed maps. The caller holds the
// store's write lock for the txn's whole lifetime.
type txn struct {
	store *Store

	daos      map[uuid.UUID]domain.DaoAccount
	proposals map[uuid.UUID]domain.Proposal
	voters    map[uuid.UUID]domain.Voter
	rewards   map[uuid.UUID]domain.RewardAccount

	newDaos      []uuid.UUID
	newProposals []domain.Proposal
}

func newTxn(s *Store) *txn {
	return &txn{
		store:     s,
		daos:      make(map[uuid.UUID]domain.DaoAccount),
		proposals: make(map[uuid.UUID]domain.Proposal),
		voters:    make(map[uuid.UUID]domain.Voter),
		rewards:   make(map[uuid.UUID]domain.RewardAccount),
	}
}

func (t *txn) GetDao(_ context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	if dao, ok := t.daos[address]; ok {
		return &dao, nil
	}
	if dao, ok := t.store.daos[address]; ok {
		return &dao, nil
	}
	return nil, domain.ErrDaoNotFound
}

func (t *txn) InsertDao(ctx context.Context, dao *domain.DaoAccount) error {
	if _, err := t.GetDao(ctx, dao.Address); err == nil {
		return domain.NewAccountInUse("dao", dao.Address)
	}
	t.daos[dao.Address] = *dao
	t.newDaos = append(t.newDaos, dao.Address)
	return nil
}

func (t *txn) GetProposal(_ context.Context, address uuid.UUID) (*domain.Proposal, error) {
	if proposal, ok := t.proposals[address]; ok {
		return &proposal, nil
	}
	if proposal, ok := t.store.proposals[address]; ok {
		return &proposal, nil
	}
	return nil, domain.ErrProposalNotFound
}

func (t *txn) InsertProposal(ctx context.Context, proposal *domain.Proposal) error {
	if _, err := t.GetProposal(ctx, proposal.Address); err == nil {
		return domain.NewAccountInUse("proposal", proposal.Address)
	}
	t.proposals[proposal.Address] = *proposal
	t.newProposals = append(t.newProposals, *proposal)
	return nil
}

func (t *txn) UpdateProposal(ctx context.Context, proposal *domain.Proposal) error {
	if _, err := t.GetProposal(ctx, proposal.Address); err != nil {
		return err
	}
	t.proposals[proposal.Address] = *proposal
	return nil
}

func (t *txn) GetOrCreateVoter(_ context.Context, proposal, user uuid.UUID) (*domain.Voter, error) {
	address := domain.VoterAddress(proposal, user)
	if voter, ok := t.voters[address]; ok {
		return &voter, nil
	}
	if voter, ok := t.store.voters[address]; ok {
		return &voter, nil
	}
	voter := domain.NewVoter(proposal, user)
	t.voters[address] = *voter
	return voter, nil
}

func (t *txn) UpdateVoter(_ context.Context, voter *domain.Voter) error {
	t.voters[voter.Address] = *voter
	return nil
}

func (t *txn) GetOrCreateRewardAccount(_ context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error) {
	address := domain.RewardAddress(dao, user)
	if reward, ok := t.rewards[address]; ok {
		return &reward, nil
	}
	if reward, ok := t.store.rewards[address]; ok {
		return &reward, nil
	}
	reward := domain.NewRewardAccount(dao, user)
	t.rewards[address] = *reward
	return reward, nil
}

func (t *txn) UpdateRewardAccount(_ context.Context, reward *domain.RewardAccount) error {
	t.rewards[reward.Address] = *reward
	return nil
}

func (t *txn) commit() {
	s := t.store
	for address, dao := range t.daos {
		s.daos[address] = dao
	}
	for address, proposal := range t.proposals {
		s.proposals[address] = proposal
	}
	for address, voter := range t.voters {
		s.voters[address] = voter
	}
	for address, reward := range t.rewards {
		s.rewards[address] = reward
	}
	s.daoOrder = append(s.daoOrder, t.newDaos...)
	for _, p := range t.newProposals {
		s.proposalOrder[p.Dao] = append(s.proposalOrder[p.Dao], p.Address)
	}
}
