// Package redis stores ledger records as JSON values keyed by their derived
// address. Updates use optimistic transactions: every key read is WATCHed and
// staged writes are committed with MULTI/EXEC.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

const (
	DefaultPrefix     = "govledger"
	DefaultMaxRetries = 16
)

var _ ports.LedgerStore = (*Store)(nil)

type Options struct {
	Prefix     string
	MaxRetries int
}

type Store struct {
	client     goredis.UniversalClient
	keys       keyspace
	maxRetries int
}

func NewStore(client goredis.UniversalClient, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Store{
		client:     client,
		keys:       keyspace{prefix: opts.Prefix},
		maxRetries: opts.MaxRetries,
	}
}

func Open(ctx context.Context, addr, password string, db int, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewStore(client, opts), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Update(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *goredis.Tx) error {
			tx := newTxn(rtx, s.keys)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.commit(ctx)
		})
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return domain.ErrTxConflict
}

func (s *Store) GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	var dao domain.DaoAccount
	if err := getJSON(ctx, s.client, s.keys.dao(address), &dao); err != nil {
		return nil, notFound(err, domain.ErrDaoNotFound)
	}
	return &dao, nil
}

func (s *Store) GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error) {
	var proposal domain.Proposal
	if err := getJSON(ctx, s.client, s.keys.proposal(address), &proposal); err != nil {
		return nil, notFound(err, domain.ErrProposalNotFound)
	}
	return &proposal, nil
}

func (s *Store) GetVoter(ctx context.Context, address uuid.UUID) (*domain.Voter, error) {
	var voter domain.Voter
	if err := getJSON(ctx, s.client, s.keys.voter(address), &voter); err != nil {
		return nil, notFound(err, domain.ErrVoterNotFound)
	}
	return &voter, nil
}

func (s *Store) GetRewardAccount(ctx context.Context, address uuid.UUID) (*domain.RewardAccount, error) {
	var reward domain.RewardAccount
	if err := getJSON(ctx, s.client, s.keys.reward(address), &reward); err != nil {
		return nil, notFound(err, domain.ErrRewardNotFound)
	}
	return &reward, nil
}

func (s *Store) ListDaos(ctx context.Context) ([]*domain.DaoAccount, error) {
	addresses, err := s.client.LRange(ctx, s.keys.daoIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list daos: %w", err)
	}
	return mgetJSON[domain.DaoAccount](ctx, s.client, addresses, s.keys.daoByString)
}

func (s *Store) ListProposals(ctx context.Context, dao uuid.UUID, limit, offset int) ([]*domain.Proposal, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidPage, offset)
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}
	addresses, err := s.client.LRange(ctx, s.keys.proposalIndex(dao), int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return mgetJSON[domain.Proposal](ctx, s.client, addresses, s.keys.proposalByString)
}

func (s *Store) ListRewardAccounts(ctx context.Context, dao uuid.UUID) ([]*domain.RewardAccount, error) {
	addresses, err := s.client.SMembers(ctx, s.keys.rewardIndex(dao)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reward accounts: %w", err)
	}
	return mgetJSON[domain.RewardAccount](ctx, s.client, addresses, s.keys.rewardByString)
}

func (s *Store) CountVoted(ctx context.Context, proposal uuid.UUID) (uint64, error) {
	addresses, err := s.client.SMembers(ctx, s.keys.voterIndex(proposal)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list voters: %w", err)
	}
	voters, err := mgetJSON[domain.Voter](ctx, s.client, addresses, s.keys.voterByString)
	if err != nil {
		return 0, err
	}

	var n uint64
	for _, v := range voters {
		if v.HasVoted {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountVotesCast(ctx context.Context, dao, user uuid.UUID) (uint64, error) {
	proposals, err := s.client.LRange(ctx, s.keys.proposalIndex(dao), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	addresses := make([]string, 0, len(proposals))
	for _, p := range proposals {
		proposal, err := uuid.Parse(p)
		if err != nil {
			return 0, fmt.Errorf("corrupt proposal index entry %q: %w", p, err)
		}
		addresses = append(addresses, domain.VoterAddress(proposal, user).String())
	}
	voters, err := mgetJSON[domain.Voter](ctx, s.client, addresses, s.keys.voterByString)
	if err != nil {
		return 0, err
	}

	var n uint64
	for _, v := range voters {
		if v.HasVoted {
			n++
		}
	}
	return n, nil
}

func getJSON(ctx context.Context, c goredis.Cmdable, key string, v any) error {
	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// mgetJSON loads the records at addresses, skipping ones that do not exist.
func mgetJSON[T any](ctx context.Context, c goredis.Cmdable, addresses []string, key func(string) string) ([]*T, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = key(a)
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]*T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		record := new(T)
		if err := json.Unmarshal([]byte(raw), record); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}
		records = append(records, record)
	}
	return records, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, goredis.Nil) {
		return sentinel
	}
	return err
}
