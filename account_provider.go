package hireqa

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AccountProvider resolves login attempts against the accounts store
type AccountProvider struct {
	store  Accounts
	logger Logger
}

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store Accounts) *AccountProvider {
	return &AccountProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity finds the account, compares the password, and returns the
// identity. Unknown email and wrong password collapse into the same error
// so responses cannot be used to enumerate registered addresses.
func (p *AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	account, err := p.store.GetByEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	// a row without a hash means signup never finished writing it
	if account.PasswordHash == "" {
		return nil, ErrAccountIncomplete
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			p.logger.Warn("stored password hash for account %s is malformed: %v", account.ID, err)
		}
		return nil, ErrInvalidCredentials
	}

	// the password check runs first so this branch takes the same time
	// whether or not the credential was correct
	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := p.store.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login: %v", err)
	}

	return identityFromAccount(account), nil
}

func (p *AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.GetByEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account")
	}

	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return identityFromAccount(account), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Role() string     { return a.role }

var _ Identity = authIdentity{}

func identityFromAccount(account *Account) authIdentity {
	return authIdentity{
		id:       account.ID.String(),
		username: account.Username,
		email:    account.Email,
		role:     account.RoleType,
	}
}
