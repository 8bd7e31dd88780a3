package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAddressesAreDeterministic(t *testing.T) {
	dao := uuid.MustParse("0b8f7a1e-2c44-4f7e-9b1d-3a5e6c7d8e9f")
	user := uuid.MustParse("d2c1b0a9-8f7e-4d6c-9b5a-4e3f2a1b0c9d")

	assert.Equal(t, ProposalAddress(dao, "Fund X"), ProposalAddress(dao, "Fund X"))
	assert.Equal(t, RewardAddress(dao, user), RewardAddress(dao, user))
	assert.Equal(t, uuid.Version(5), ProposalAddress(dao, "Fund X").Version())
}

func TestAddressesDoNotAlias(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	// same seed bytes, different kinds
	assert.NotEqual(t, VoterAddress(a, b), RewardAddress(a, b))
	assert.NotEqual(t, ProposalAddress(a, string(b[:])), RewardAddress(a, b))

	assert.NotEqual(t, VoterAddress(a, b), VoterAddress(b, a))
	assert.NotEqual(t, ProposalAddress(a, "Fund X"), ProposalAddress(b, "Fund X"))
}

func TestDeriveAddressLengthPrefix(t *testing.T) {
	assert.NotEqual(t,
		deriveAddress("k", []byte("ab"), []byte("c")),
		deriveAddress("k", []byte("a"), []byte("bc")),
	)
}

func TestProposalAddressInjective(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dao := uuid.UUID(rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "dao"))
		t1 := rapid.StringN(0, MaxTitleLen, MaxTitleLen).Draw(t, "t1")
		t2 := rapid.StringN(0, MaxTitleLen, MaxTitleLen).Draw(t, "t2")

		if t1 == t2 {
			assert.Equal(t, ProposalAddress(dao, t1), ProposalAddress(dao, t2))
		} else {
			assert.NotEqual(t, ProposalAddress(dao, t1), ProposalAddress(dao, t2))
		}
	})
}
