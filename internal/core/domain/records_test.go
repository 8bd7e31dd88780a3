package domain

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDaoAccount(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name    string
		address uuid.UUID
		dao     string
		owner   uuid.UUID
		wantErr error
	}{
		{name: "generated address", dao: "Acme DAO", owner: owner},
		{name: "fixed address", address: uuid.New(), dao: "Acme DAO", owner: owner},
		{name: "name at limit", dao: strings.Repeat("a", MaxDaoNameLen), owner: owner},
		{name: "name too long", dao: strings.Repeat("a", MaxDaoNameLen+1), owner: owner, wantErr: ErrMaxLenExceeded},
		// multi-byte runes count in bytes
		{name: "name too long in bytes", dao: strings.Repeat("é", 11), owner: owner, wantErr: ErrMaxLenExceeded},
		{name: "invalid utf-8", dao: "Acme\xff", owner: owner, wantErr: ErrInvalidText},
		{name: "NUL byte", dao: "Acme\x00DAO", owner: owner, wantErr: ErrInvalidText},
		{name: "missing owner", dao: "Acme DAO", wantErr: ErrMissingIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dao, err := NewDaoAccount(tt.address, tt.dao, tt.owner)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, dao.Address)
			if tt.address != uuid.Nil {
				assert.Equal(t, tt.address, dao.Address)
			}
			assert.Equal(t, tt.owner, dao.Owner)
		})
	}
}

func TestNewProposalBounds(t *testing.T) {
	dao := uuid.New()

	p, err := NewProposal(dao, strings.Repeat("t", MaxTitleLen), strings.Repeat("d", MaxDescriptionLen))
	require.NoError(t, err)
	assert.Equal(t, ProposalAddress(dao, p.Title), p.Address)
	assert.Zero(t, p.TotalVotes())

	_, err = NewProposal(dao, strings.Repeat("t", MaxTitleLen+1), "")
	require.ErrorIs(t, err, ErrAllocation)
	require.ErrorIs(t, err, ErrMaxLenExceeded)

	_, err = NewProposal(dao, "ok", strings.Repeat("d", MaxDescriptionLen+1))
	require.ErrorIs(t, err, ErrMaxLenExceeded)

	_, err = NewProposal(dao, "bad\xc3", "")
	require.ErrorIs(t, err, ErrAllocation)
	require.ErrorIs(t, err, ErrInvalidText)

	_, err = NewProposal(dao, "ok", "nul\x00inside")
	require.ErrorIs(t, err, ErrInvalidText)
}

func TestTally(t *testing.T) {
	p := &Proposal{}
	require.NoError(t, p.Tally(true))
	require.NoError(t, p.Tally(false))
	require.NoError(t, p.Tally(true))

	assert.Equal(t, uint64(2), p.VotesYes)
	assert.Equal(t, uint64(1), p.VotesNo)
	assert.Equal(t, uint64(3), p.TotalVotes())
}

func TestTallyOverflow(t *testing.T) {
	p := &Proposal{VotesYes: math.MaxUint64}
	require.ErrorIs(t, p.Tally(true), ErrArithmeticOverflow)
	assert.Equal(t, uint64(math.MaxUint64), p.VotesYes)

	require.NoError(t, p.Tally(false))

	r := &RewardAccount{RewardPoints: math.MaxUint64}
	require.ErrorIs(t, r.Reward(), ErrArithmeticOverflow)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrVotedTwice, "VotedTwice"},
		{NewAccountInUse("dao", uuid.New()), "AllocationError"},
		{NewMaxLenExceeded("dao name", MaxDaoNameLen), "AllocationError"},
		{ErrArithmeticOverflow, "ArithmeticOverflow"},
		{ErrProposalNotFound, "AccountNotFound"},
		{ErrDaoMismatch, "DaoMismatch"},
		{ErrTxConflict, "TxConflict"},
		{errors.New("boom"), "Internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}

func TestAllocationErrorUnwrap(t *testing.T) {
	address := uuid.New()
	err := NewAccountInUse("proposal", address)

	assert.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, ErrAccountInUse)
	assert.NotErrorIs(t, err, ErrMaxLenExceeded)
	assert.Contains(t, err.Error(), address.String())

	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, "proposal", allocErr.Account)
}
