package hireqa

import (
	"context"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all stores. It intentionally offers no
// cross-row transaction: the remote store contract is single-statement
// writes, and the signup orchestration compensates by hand.
type RepositoryManager interface {
	Validate(ctx context.Context) error
	MustValidate(ctx context.Context)
	Accounts() Accounts
	PersonalDetails() PersonalDetailsStore
}

type mngr struct {
	db              *bun.DB
	accounts        Accounts
	personalDetails PersonalDetailsStore
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:              db,
		accounts:        NewAccountsRepository(db),
		personalDetails: NewPersonalDetailsRepository(db),
	}
}

func (m mngr) Validate(ctx context.Context) error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.personalDetails == nil {
		return errors.New("repository personalDetails should be initialized")
	}

	if m.db != nil {
		if err := m.db.PingContext(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (m mngr) MustValidate(ctx context.Context) {
	if err := m.Validate(ctx); err != nil {
		log.Panic(err)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) PersonalDetails() PersonalDetailsStore {
	return m.personalDetails
}
