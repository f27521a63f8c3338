package domain

import (
	"errors"
	"time"

	"github.com/tourneyarena/arena-auth/identity"
)

var (
	ErrDuplicateEmail = errors.New("storage: account with this email already exists")
	ErrNotFound       = errors.New("storage: not found")
)

// Storage defines the interface for all persistence operations.
type Storage interface {
	AccountStorage
	OTPStorage
}

type AccountStorage interface {
	// CreateAccount persists a new account. Returns ErrDuplicateEmail if an
	// account with the same normalized email already exists.
	CreateAccount(a *identity.Account) error
	GetAccountByEmail(email string) (*identity.Account, error)
	GetAccountByID(id string) (*identity.Account, error)
	ListAccounts() ([]identity.Account, error)
	// ListProfileIDs returns the full set of profile ids in use, for
	// collision checking when generating new ones.
	ListProfileIDs() (map[string]struct{}, error)
	DeleteAccount(id string) error
}

type OTPStorage interface {
	// ReplaceOTP atomically supersedes any outstanding record for the same
	// email with rec.
	ReplaceOTP(rec *identity.OTPRecord) error
	// ConsumeOTP deletes the record for email and reports true only when one
	// exists, its code matches exactly and it has not expired at now. Any
	// other case reports false and leaves the ledger untouched.
	ConsumeOTP(email, code string, now time.Time) (bool, error)
}
