package domain

import (
	"github.com/google/uuid"
)

type DiscrepancyKind string

const (
	DiscrepancyTally  DiscrepancyKind = "tally"
	DiscrepancyReward DiscrepancyKind = "reward"
)

// Discrepancy is a stored counter that disagrees with the voter records it
// should be derived from.
type Discrepancy struct {
	Kind     DiscrepancyKind `json:"kind"`
	Dao      uuid.UUID       `json:"dao"`
	Account  uuid.UUID       `json:"account"`
	Stored   uint64          `json:"stored"`
	Expected uint64          `json:"expected"`
}
