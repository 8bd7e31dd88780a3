package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

type txn struct {
	rtx  *goredis.Tx
	keys keyspace

	// staged values by key, and index entries to append on commit
	writes    map[string][]byte
	order     []string
	listPush  map[string][]string
	setAdd    map[string][]string
	listOrder []string
	setOrder  []string
}

func newTxn(rtx *goredis.Tx, keys keyspace) *txn {
	return &txn{
		rtx:      rtx,
		keys:     keys,
		writes:   make(map[string][]byte),
		listPush: make(map[string][]string),
		setAdd:   make(map[string][]string),
	}
}

// load reads key, preferring staged writes. Keys read from the server are
// watched so a concurrent change aborts the commit.
func (t *txn) load(ctx context.Context, key string, v any) (bool, error) {
	raw, ok := t.writes[key]
	if !ok {
		if err := t.rtx.Watch(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("failed to watch %s: %w", key, err)
		}
		var err error
		raw, err = t.rtx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to get %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (t *txn) stage(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = raw
	return nil
}

func (t *txn) push(list, member string) {
	if _, ok := t.listPush[list]; !ok {
		t.listOrder = append(t.listOrder, list)
	}
	t.listPush[list] = append(t.listPush[list], member)
}

func (t *txn) add(set, member string) {
	if _, ok := t.setAdd[set]; !ok {
		t.setOrder = append(t.setOrder, set)
	}
	t.setAdd[set] = append(t.setAdd[set], member)
}

func (t *txn) commit(ctx context.Context) error {
	if len(t.order) == 0 {
		return nil
	}
	_, err := t.rtx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, key := range t.order {
			pipe.Set(ctx, key, t.writes[key], 0)
		}
		for _, list := range t.listOrder {
			members := make([]any, len(t.listPush[list]))
			for i, m := range t.listPush[list] {
				members[i] = m
			}
			pipe.RPush(ctx, list, members...)
		}
		for _, set := range t.setOrder {
			members := make([]any, len(t.setAdd[set]))
			for i, m := range t.setAdd[set] {
				members[i] = m
			}
			pipe.SAdd(ctx, set, members...)
		}
		return nil
	})
	return err
}

func (t *txn) GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	var dao domain.DaoAccount
	found, err := t.load(ctx, t.keys.dao(address), &dao)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrDaoNotFound
	}
	return &dao, nil
}

func (t *txn) InsertDao(ctx context.Context, dao *domain.DaoAccount) error {
	_, err := t.GetDao(ctx, dao.Address)
	if err == nil {
		return domain.NewAccountInUse("dao", dao.Address)
	}
	if !errors.Is(err, domain.ErrDaoNotFound) {
		return err
	}
	if err := t.stage(t.keys.dao(dao.Address), dao); err != nil {
		return err
	}
	t.push(t.keys.daoIndex(), dao.Address.String())
	return nil
}

func (t *txn) GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error) {
	var proposal domain.Proposal
	found, err := t.load(ctx, t.keys.proposal(address), &proposal)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrProposalNotFound
	}
	return &proposal, nil
}

func (t *txn) InsertProposal(ctx context.Context, proposal *domain.Proposal) error {
	_, err := t.GetProposal(ctx, proposal.Address)
	if err == nil {
		return domain.NewAccountInUse("proposal", proposal.Address)
	}
	if !errors.Is(err, domain.ErrProposalNotFound) {
		return err
	}
	if err := t.stage(t.keys.proposal(proposal.Address), proposal); err != nil {
		return err
	}
	t.push(t.keys.proposalIndex(proposal.Dao), proposal.Address.String())
	return nil
}

func (t *txn) UpdateProposal(ctx context.Context, proposal *domain.Proposal) error {
	if _, err := t.GetProposal(ctx, proposal.Address); err != nil {
		return err
	}
	return t.stage(t.keys.proposal(proposal.Address), proposal)
}

func (t *txn) GetOrCreateVoter(ctx context.Context, proposal, user uuid.UUID) (*domain.Voter, error) {
	voter := domain.NewVoter(proposal, user)
	key := t.keys.voter(voter.Address)

	found, err := t.load(ctx, key, voter)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := t.stage(key, voter); err != nil {
			return nil, err
		}
		t.add(t.keys.voterIndex(proposal), voter.Address.String())
	}
	return voter, nil
}

func (t *txn) UpdateVoter(_ context.Context, voter *domain.Voter) error {
	return t.stage(t.keys.voter(voter.Address), voter)
}

func (t *txn) GetOrCreateRewardAccount(ctx context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error) {
	reward := domain.NewRewardAccount(dao, user)
	key := t.keys.reward(reward.Address)

	found, err := t.load(ctx, key, reward)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := t.stage(key, reward); err != nil {
			return nil, err
		}
		t.add(t.keys.rewardIndex(dao), reward.Address.String())
	}
	return reward, nil
}

func (t *txn) UpdateRewardAccount(_ context.Context, reward *domain.RewardAccount) error {
	return t.stage(t.keys.reward(reward.Address), reward)
}
