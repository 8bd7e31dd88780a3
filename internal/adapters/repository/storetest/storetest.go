// Package storetest holds the behaviour every ports.LedgerStore must share.
// Store packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
	"github.com/vncsmyrnk/govledger/internal/core/services"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) ports.LedgerStore

var errAbort = errors.New("abort")

func Run(t *testing.T, newStore Factory) {
	t.Run("InsertDao", func(t *testing.T) { testInsertDao(t, newStore(t)) })
	t.Run("InsertProposal", func(t *testing.T) { testInsertProposal(t, newStore(t)) })
	t.Run("ListProposals", func(t *testing.T) { testListProposals(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("GetOrCreate", func(t *testing.T) { testGetOrCreate(t, newStore(t)) })
	t.Run("Counts", func(t *testing.T) { testCounts(t, newStore(t)) })
	t.Run("ConcurrentVotes", func(t *testing.T) { testConcurrentVotes(t, newStore(t)) })
}

func insertDao(t *testing.T, store ports.LedgerStore, name string) *domain.DaoAccount {
	t.Helper()
	dao, err := domain.NewDaoAccount(uuid.Nil, name, uuid.New())
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), func(tx ports.LedgerTx) error {
		return tx.InsertDao(context.Background(), dao)
	}))
	return dao
}

func insertProposal(t *testing.T, store ports.LedgerStore, dao uuid.UUID, title string) *domain.Proposal {
	t.Helper()
	p, err := domain.NewProposal(dao, title, "description of "+title)
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), func(tx ports.LedgerTx) error {
		return tx.InsertProposal(context.Background(), p)
	}))
	return p
}

func testInsertDao(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	dao := insertDao(t, store, "Acme")

	got, err := store.GetDao(ctx, dao.Address)
	require.NoError(t, err)
	assert.Equal(t, dao, got)

	dup := &domain.DaoAccount{Address: dao.Address, Name: "Other", Owner: uuid.New()}
	err = store.Update(ctx, func(tx ports.LedgerTx) error {
		return tx.InsertDao(ctx, dup)
	})
	require.ErrorIs(t, err, domain.ErrAllocation)
	require.ErrorIs(t, err, domain.ErrAccountInUse)

	got, err = store.GetDao(ctx, dao.Address)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = store.GetDao(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrDaoNotFound)

	daos, err := store.ListDaos(ctx)
	require.NoError(t, err)
	assert.Len(t, daos, 1)
}

func testInsertProposal(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	dao := insertDao(t, store, "Acme")
	p := insertProposal(t, store, dao.Address, "Q1")

	got, err := store.GetProposal(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Zero(t, got.VotesYes)
	assert.Zero(t, got.VotesNo)

	dup, err := domain.NewProposal(dao.Address, "Q1", "another description")
	require.NoError(t, err)
	err = store.Update(ctx, func(tx ports.LedgerTx) error {
		return tx.InsertProposal(ctx, dup)
	})
	require.ErrorIs(t, err, domain.ErrAccountInUse)

	got, err = store.GetProposal(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p.Description, got.Description)

	_, err = store.GetProposal(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func testListProposals(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	dao := insertDao(t, store, "Acme")
	other := insertDao(t, store, "Other")

	var want []uuid.UUID
	for i := 0; i < 12; i++ {
		want = append(want, insertProposal(t, store, dao.Address, fmt.Sprintf("P%02d", i)).Address)
	}
	insertProposal(t, store, other.Address, "elsewhere")

	first, err := store.ListProposals(ctx, dao.Address, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 10)

	second, err := store.ListProposals(ctx, dao.Address, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)

	var got []uuid.UUID
	for _, p := range append(first, second...) {
		got = append(got, p.Address)
	}
	assert.Equal(t, want, got)

	empty, err := store.ListProposals(ctx, dao.Address, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, empty)

	far, err := store.ListProposals(ctx, dao.Address, 10, math.MaxInt-10)
	require.NoError(t, err)
	assert.Empty(t, far)

	_, err = store.ListProposals(ctx, dao.Address, 10, -10)
	require.ErrorIs(t, err, domain.ErrInvalidPage)
}

func testRollback(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	dao := insertDao(t, store, "Acme")
	p := insertProposal(t, store, dao.Address, "Q1")
	user := uuid.New()

	newDao, err := domain.NewDaoAccount(uuid.Nil, "Ghost", uuid.New())
	require.NoError(t, err)

	err = store.Update(ctx, func(tx ports.LedgerTx) error {
		if err := tx.InsertDao(ctx, newDao); err != nil {
			return err
		}
		proposal, err := tx.GetProposal(ctx, p.Address)
		if err != nil {
			return err
		}
		voter, err := tx.GetOrCreateVoter(ctx, p.Address, user)
		if err != nil {
			return err
		}
		reward, err := tx.GetOrCreateRewardAccount(ctx, dao.Address, user)
		if err != nil {
			return err
		}
		require.NoError(t, proposal.Tally(true))
		voter.HasVoted = true
		require.NoError(t, reward.Reward())
		require.NoError(t, tx.UpdateProposal(ctx, proposal))
		require.NoError(t, tx.UpdateVoter(ctx, voter))
		require.NoError(t, tx.UpdateRewardAccount(ctx, reward))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = store.GetDao(ctx, newDao.Address)
	require.ErrorIs(t, err, domain.ErrDaoNotFound)

	got, err := store.GetProposal(ctx, p.Address)
	require.NoError(t, err)
	assert.Zero(t, got.TotalVotes())

	_, err = store.GetVoter(ctx, domain.VoterAddress(p.Address, user))
	require.ErrorIs(t, err, domain.ErrVoterNotFound)
	_, err = store.GetRewardAccount(ctx, domain.RewardAddress(dao.Address, user))
	require.ErrorIs(t, err, domain.ErrRewardNotFound)

	daos, err := store.ListDaos(ctx)
	require.NoError(t, err)
	assert.Len(t, daos, 1)
}

func testGetOrCreate(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	dao := insertDao(t, store, "Acme")
	p := insertProposal(t, store, dao.Address, "Q1")
	user := uuid.New()

	require.NoError(t, store.Update(ctx, func(tx ports.LedgerTx) error {
		voter, err := tx.GetOrCreateVoter(ctx, p.Address, user)
		if err != nil {
			return err
		}
		assert.False(t, voter.HasVoted)
		assert.Equal(t, domain.VoterAddress(p.Address, user), voter.Address)
		voter.HasVoted = true
		return tx.UpdateVoter(ctx, voter)
	}))

	require.NoError(t, store.Update(ctx, func(tx ports.LedgerTx) error {
		voter, err := tx.GetOrCreateVoter(ctx, p.Address, user)
		if err != nil {
			return err
		}
		assert.True(t, voter.HasVoted)

		reward, err := tx.GetOrCreateRewardAccount(ctx, dao.Address, user)
		if err != nil {
			return err
		}
		// a second lookup in the same transaction sees the same record
		again, err := tx.GetOrCreateRewardAccount(ctx, dao.Address, user)
		if err != nil {
			return err
		}
		assert.Equal(t, reward.Address, again.Address)
		return nil
	}))

	voter, err := store.GetVoter(ctx, domain.VoterAddress(p.Address, user))
	require.NoError(t, err)
	assert.True(t, voter.HasVoted)
	assert.Equal(t, user, voter.User)
}

func testCounts(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	ledger := services.NewLedgerService(store, nil, nil)

	dao := insertDao(t, store, "Acme")
	p1 := insertProposal(t, store, dao.Address, "Q1")
	p2 := insertProposal(t, store, dao.Address, "Q2")
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, ledger.Vote(ctx, ports.VoteInput{Proposal: p1.Address, Voter: alice, Choice: true}))
	require.NoError(t, ledger.Vote(ctx, ports.VoteInput{Proposal: p2.Address, Voter: alice, Choice: false}))
	require.NoError(t, ledger.Vote(ctx, ports.VoteInput{Proposal: p1.Address, Voter: bob, Choice: false}))

	voted, err := store.CountVoted(ctx, p1.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), voted)

	cast, err := store.CountVotesCast(ctx, dao.Address, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cast)

	cast, err = store.CountVotesCast(ctx, dao.Address, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cast)

	rewards, err := store.ListRewardAccounts(ctx, dao.Address)
	require.NoError(t, err)
	assert.Len(t, rewards, 2)

	discrepancies, err := services.NewAuditService(store).AuditAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func testConcurrentVotes(t *testing.T, store ports.LedgerStore) {
	ctx := context.Background()
	ledger := services.NewLedgerService(store, nil, nil)

	dao := insertDao(t, store, "Acme")
	p := insertProposal(t, store, dao.Address, "Q1")

	const attempts = 20
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes = map[uuid.UUID]int{}
	)
	for i := 0; i < attempts; i++ {
		for _, user := range users {
			wg.Add(1)
			go func(user uuid.UUID, choice bool) {
				defer wg.Done()
				err := ledger.Vote(ctx, ports.VoteInput{Proposal: p.Address, Voter: user, Choice: choice})
				if err == nil {
					mu.Lock()
					successes[user]++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, domain.ErrVotedTwice)
			}(user, i%2 == 0)
		}
	}
	wg.Wait()

	for _, user := range users {
		assert.Equal(t, 1, successes[user], "user %s", user)

		reward, err := store.GetRewardAccount(ctx, domain.RewardAddress(dao.Address, user))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), reward.RewardPoints)
	}

	got, err := store.GetProposal(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(users)), got.TotalVotes())
}
