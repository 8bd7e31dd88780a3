package domain

import (
	"github.com/google/uuid"
)

const MaxDaoNameLen = 20

// DaoAccount is the governance entity proposals are created under. It is
// immutable once initialized.
type DaoAccount struct {
	Address uuid.UUID `json:"address"`
	Name    string    `json:"name"`
	Owner   uuid.UUID `json:"owner"`
}

func NewDaoAccount(address uuid.UUID, name string, owner uuid.UUID) (*DaoAccount, error) {
	if err := checkText("dao name", name, MaxDaoNameLen); err != nil {
		return nil, err
	}
	if owner == uuid.Nil {
		return nil, ErrMissingIdentity
	}
	if address == uuid.Nil {
		address = uuid.New()
	}

	return &DaoAccount{
		Address: address,
		Name:    name,
		Owner:   owner,
	}, nil
}
