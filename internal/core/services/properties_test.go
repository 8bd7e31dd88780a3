package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
	"github.com/vncsmyrnk/govledger/internal/core/services"
)

type voteKey struct {
	proposal int
	user     int
}

// TestVoteConservation drives random vote sequences against a model and checks
// that tallies and reward points always match the distinct successful votes.
func TestVoteConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		store := memory.NewStore()
		ledger := services.NewLedgerService(store, nil, nil)

		nDaos := rapid.IntRange(1, 2).Draw(t, "daos")
		nProposals := rapid.IntRange(1, 4).Draw(t, "proposals")
		nUsers := rapid.IntRange(1, 4).Draw(t, "users")

		var daos []uuid.UUID
		for i := 0; i < nDaos; i++ {
			dao, err := ledger.Initialize(ctx, ports.InitializeInput{Payer: uuid.New(), Name: fmt.Sprintf("dao-%d", i)})
			if err != nil {
				t.Fatalf("initialize: %v", err)
			}
			daos = append(daos, dao.Address)
		}

		var proposals []*domain.Proposal
		for i := 0; i < nProposals; i++ {
			p, err := ledger.CreateProposal(ctx, ports.CreateProposalInput{
				Payer: uuid.New(),
				Dao:   daos[i%nDaos],
				Title: fmt.Sprintf("proposal-%d", i),
			})
			if err != nil {
				t.Fatalf("create proposal: %v", err)
			}
			proposals = append(proposals, p)
		}

		users := make([]uuid.UUID, nUsers)
		for i := range users {
			users[i] = uuid.New()
		}

		voted := map[voteKey]bool{}
		yes := make([]uint64, nProposals)
		no := make([]uint64, nProposals)

		steps := rapid.IntRange(0, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			pi := rapid.IntRange(0, nProposals-1).Draw(t, "proposal")
			ui := rapid.IntRange(0, nUsers-1).Draw(t, "user")
			choice := rapid.Bool().Draw(t, "choice")

			err := ledger.Vote(ctx, ports.VoteInput{Proposal: proposals[pi].Address, Voter: users[ui], Choice: choice})

			key := voteKey{proposal: pi, user: ui}
			if voted[key] {
				if !errors.Is(err, domain.ErrVotedTwice) {
					t.Fatalf("second vote by user %d on proposal %d: got %v, want VotedTwice", ui, pi, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("first vote: %v", err)
			}
			voted[key] = true
			if choice {
				yes[pi]++
			} else {
				no[pi]++
			}
		}

		for pi, p := range proposals {
			got, err := store.GetProposal(ctx, p.Address)
			if err != nil {
				t.Fatalf("get proposal: %v", err)
			}
			if got.VotesYes != yes[pi] || got.VotesNo != no[pi] {
				t.Fatalf("proposal %d: got %d/%d, want %d/%d", pi, got.VotesYes, got.VotesNo, yes[pi], no[pi])
			}
		}

		for _, dao := range daos {
			for ui, user := range users {
				var want uint64
				for pi, p := range proposals {
					if p.Dao == dao && voted[voteKey{proposal: pi, user: ui}] {
						want++
					}
				}
				reward, err := store.GetRewardAccount(ctx, domain.RewardAddress(dao, user))
				if want == 0 {
					if !errors.Is(err, domain.ErrRewardNotFound) {
						t.Fatalf("reward account exists without votes: %v", err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("get reward: %v", err)
				}
				if reward.RewardPoints != want {
					t.Fatalf("reward points: got %d, want %d", reward.RewardPoints, want)
				}
			}
		}

		discrepancies, err := services.NewAuditService(store).AuditAll(ctx)
		if err != nil {
			t.Fatalf("audit: %v", err)
		}
		if len(discrepancies) != 0 {
			t.Fatalf("audit found %v", discrepancies)
		}
	})
}

// TestInitializeOncePerAddress checks that a second initialize at any address
// fails and leaves the first DAO untouched.
func TestInitializeOncePerAddress(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		ledger := services.NewLedgerService(memory.NewStore(), nil, nil)

		address := uuid.New()
		first := rapid.StringN(0, domain.MaxDaoNameLen, domain.MaxDaoNameLen).Draw(t, "first")
		second := rapid.StringN(0, domain.MaxDaoNameLen, domain.MaxDaoNameLen).Draw(t, "second")

		_, err := ledger.Initialize(ctx, ports.InitializeInput{Payer: uuid.New(), Address: address, Name: first})
		if err != nil {
			t.Fatalf("first initialize: %v", err)
		}
		_, err = ledger.Initialize(ctx, ports.InitializeInput{Payer: uuid.New(), Address: address, Name: second})
		if !errors.Is(err, domain.ErrAccountInUse) {
			t.Fatalf("second initialize: got %v, want AccountInUse", err)
		}

		dao, err := ledger.GetDao(ctx, address)
		if err != nil {
			t.Fatalf("get dao: %v", err)
		}
		if dao.Name != first {
			t.Fatalf("name: got %q, want %q", dao.Name, first)
		}
	})
}
