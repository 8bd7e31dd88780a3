package redis

import (
	"github.com/google/uuid"
)

type keyspace struct {
	prefix string
}

func (k keyspace) dao(address uuid.UUID) string      { return k.daoByString(address.String()) }
func (k keyspace) proposal(address uuid.UUID) string { return k.proposalByString(address.String()) }
func (k keyspace) voter(address uuid.UUID) string    { return k.voterByString(address.String()) }
func (k keyspace) reward(address uuid.UUID) string   { return k.rewardByString(address.String()) }

func (k keyspace) daoByString(address string) string      { return k.prefix + ":dao:" + address }
func (k keyspace) proposalByString(address string) string { return k.prefix + ":proposal:" + address }
func (k keyspace) voterByString(address string) string    { return k.prefix + ":voter:" + address }
func (k keyspace) rewardByString(address string) string   { return k.prefix + ":reward:" + address }

func (k keyspace) daoIndex() string { return k.prefix + ":idx:daos" }

func (k keyspace) proposalIndex(dao uuid.UUID) string {
	return k.prefix + ":idx:dao:" + dao.String() + ":proposals"
}

func (k keyspace) voterIndex(proposal uuid.UUID) string {
	return k.prefix + ":idx:proposal:" + proposal.String() + ":voters"
}

func (k keyspace) rewardIndex(dao uuid.UUID) string {
	return k.prefix + ":idx:dao:" + dao.String() + ":rewards"
}
