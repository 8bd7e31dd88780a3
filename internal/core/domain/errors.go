package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrVotedTwice         = errors.New("user has already voted")
	ErrAllocation         = errors.New("allocation error")
	ErrAccountInUse       = errors.New("account already in use")
	ErrMaxLenExceeded     = errors.New("string exceeds max length")
	ErrInvalidText        = errors.New("string is not valid utf-8 or contains NUL")
	ErrInvalidPage        = errors.New("page out of range")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrDaoNotFound        = errors.New("dao not found")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrVoterNotFound      = errors.New("voter not found")
	ErrRewardNotFound     = errors.New("reward account not found")
	ErrDaoMismatch        = errors.New("proposal does not belong to dao")
	ErrInvalidAddress     = errors.New("invalid account address")
	ErrTxConflict         = errors.New("transaction conflict, retries exhausted")
	ErrMissingIdentity    = errors.New("caller identity is required")
	ErrInternal           = errors.New("internal server error")
)

// AllocationError reports a record that could not be created at its address,
// either because the address is occupied or a field exceeds its bound.
type AllocationError struct {
	Account string
	Address uuid.UUID
	Reason  error
}

func (e *AllocationError) Error() string {
	if e.Address == uuid.Nil {
		return fmt.Sprintf("%s: %s: %v", ErrAllocation, e.Account, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrAllocation, e.Account, e.Address, e.Reason)
}

func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocation
}

func (e *AllocationError) Unwrap() error {
	return e.Reason
}

func NewAccountInUse(account string, address uuid.UUID) error {
	return &AllocationError{Account: account, Address: address, Reason: ErrAccountInUse}
}

func NewMaxLenExceeded(field string, max int) error {
	return &AllocationError{
		Account: field,
		Reason:  fmt.Errorf("%w (max %d bytes)", ErrMaxLenExceeded, max),
	}
}

func NewInvalidText(field string) error {
	return &AllocationError{Account: field, Reason: ErrInvalidText}
}

// checkText enforces the byte bound and the encoding every store can persist.
func checkText(field, s string, max int) error {
	if len(s) > max {
		return NewMaxLenExceeded(field, max)
	}
	if !utf8.ValidString(s) || strings.IndexByte(s, 0) >= 0 {
		return NewInvalidText(field)
	}
	return nil
}

// ErrorCode returns the stable code clients match on.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrVotedTwice):
		return "VotedTwice"
	case errors.Is(err, ErrAllocation):
		return "AllocationError"
	case errors.Is(err, ErrArithmeticOverflow):
		return "ArithmeticOverflow"
	case errors.Is(err, ErrDaoNotFound),
		errors.Is(err, ErrProposalNotFound),
		errors.Is(err, ErrVoterNotFound),
		errors.Is(err, ErrRewardNotFound):
		return "AccountNotFound"
	case errors.Is(err, ErrDaoMismatch):
		return "DaoMismatch"
	case errors.Is(err, ErrInvalidPage):
		return "InvalidPage"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ErrMissingIdentity):
		return "MissingIdentity"
	case errors.Is(err, ErrTxConflict):
		return "TxConflict"
	default:
		return "Internal"
	}
}
