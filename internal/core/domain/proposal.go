package domain

import (
	"math"

	"github.com/google/uuid"
)

const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 200
)

type Proposal struct {
	Address     uuid.UUID `json:"address"`
	Dao         uuid.UUID `json:"dao"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VotesYes    uint64    `json:"votes_yes"`
	VotesNo     uint64    `json:"votes_no"`
}

// NewProposal builds a proposal at the address derived from its DAO and title,
// with both tallies at zero.
func NewProposal(dao uuid.UUID, title, description string) (*Proposal, error) {
	if err := checkText("proposal title", title, MaxTitleLen); err != nil {
		return nil, err
	}
	if err := checkText("proposal description", description, MaxDescriptionLen); err != nil {
		return nil, err
	}

	return &Proposal{
		Address:     ProposalAddress(dao, title),
		Dao:         dao,
		Title:       title,
		Description: description,
	}, nil
}

// Tally counts one vote for choice. true is yes.
func (p *Proposal) Tally(choice bool) error {
	counter := &p.VotesNo
	if choice {
		counter = &p.VotesYes
	}
	if *counter == math.MaxUint64 {
		return ErrArithmeticOverflow
	}
	*counter++
	return nil
}

func (p *Proposal) TotalVotes() uint64 {
	return p.VotesYes + p.VotesNo
}
