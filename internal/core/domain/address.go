package domain

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// LedgerNamespace scopes every derived address. Changing it re-addresses all records.
var LedgerNamespace = uuid.MustParse("6f1c2b7e-4d0a-5a53-9d2e-8b3f0c6a1e47")

const (
	proposalSeed = "proposal"
	voterSeed    = "voter"
	rewardSeed   = "reward"
)

// deriveAddress hashes a kind tag and length-prefixed seeds into a v5 UUID.
func deriveAddress(kind string, seeds ...[]byte) uuid.UUID {
	buf := make([]byte, 0, 64)
	buf = appendSeed(buf, []byte(kind))
	for _, seed := range seeds {
		buf = appendSeed(buf, seed)
	}
	return uuid.NewSHA1(LedgerNamespace, buf)
}

func appendSeed(buf, seed []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(seed)))
	return append(buf, seed...)
}

func ProposalAddress(dao uuid.UUID, title string) uuid.UUID {
	return deriveAddress(proposalSeed, dao[:], []byte(title))
}

func VoterAddress(proposal, user uuid.UUID) uuid.UUID {
	return deriveAddress(voterSeed, proposal[:], user[:])
}

func RewardAddress(dao, user uuid.UUID) uuid.UUID {
	return deriveAddress(rewardSeed, dao[:], user[:])
}
