package domain

import (
	"math"

	"github.com/google/uuid"
)

// Voter is the permanent per-(proposal, user) flag. Once HasVoted is set it
// is never cleared.
type Voter struct {
	Address  uuid.UUID `json:"address"`
	Proposal uuid.UUID `json:"proposal"`
	User     uuid.UUID `json:"user"`
	HasVoted bool      `json:"has_voted"`
}

func NewVoter(proposal, user uuid.UUID) *Voter {
	return &Voter{
		Address:  VoterAddress(proposal, user),
		Proposal: proposal,
		User:     user,
	}
}

type RewardAccount struct {
	Address      uuid.UUID `json:"address"`
	Dao          uuid.UUID `json:"dao"`
	User         uuid.UUID `json:"user"`
	RewardPoints uint64    `json:"reward_points"`
}

func NewRewardAccount(dao, user uuid.UUID) *RewardAccount {
	return &RewardAccount{
		Address: RewardAddress(dao, user),
		Dao:     dao,
		User:    user,
	}
}

func (r *RewardAccount) Reward() error {
	if r.RewardPoints == math.MaxUint64 {
		return ErrArithmeticOverflow
	}
	r.RewardPoints++
	return nil
}
