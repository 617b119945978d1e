package hireqa

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MarkAccountVerifiedSQL flips an account to verified and clears the token
// fields in one conditional write. The token predicate plus the unverified
// predicate make consumption single-use even under concurrent requests.
var MarkAccountVerifiedSQL = `UPDATE "accounts" AS "acct"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL,
	"verification_token_expires_at" = NULL,
	"verified_at" = ?,
	"updated_at" = ?
WHERE
	"acct"."deleted_at" IS NULL
AND "acct"."is_email_verified" = FALSE
AND (
	"acct"."verification_token" = ?
) RETURNING *;`

// RotateVerificationTokenSQL overwrites the stored token and expiry,
// invalidating any outstanding token, in one conditional write.
var RotateVerificationTokenSQL = `UPDATE "accounts" AS "acct"
SET
	"verification_token" = ?,
	"verification_token_expires_at" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acct"."deleted_at" IS NULL
AND "acct"."is_email_verified" = FALSE
AND (
	"acct"."id" = ?
) RETURNING *;`

// Accounts is the account persistence collaborator. Every method is a
// single statement against the store; there is deliberately no cross-row
// transaction here, the signup orchestration compensates instead.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*Account, error)
	Create(ctx context.Context, record *Account) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, token string, at time.Time) (*Account, error)
	RotateVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) (*Account, error)
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

type accounts struct {
	repo repository.Repository[*Account]
	db   *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository builds the bun-backed account store.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		repo: repo,
		db:   db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.getByColumn(ctx, "email", normalizeEmail(email))
}

func (a *accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return a.getByColumn(ctx, "username", strings.TrimSpace(username))
}

func (a *accounts) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	return a.getByColumn(ctx, "verification_token", token)
}

func (a *accounts) getByColumn(ctx context.Context, column, value string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"column": column,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = normalizeEmail(record.Email)
	record.Username = strings.TrimSpace(record.Username)

	return a.repo.CreateTx(ctx, a.db, record)
}

// Delete is the compensating hard delete. Soft delete would keep the unique
// email row around and block the registrant from retrying.
func (a *accounts) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model(&Account{ID: id}).
		WherePK().
		ForceDelete().
		Exec(ctx)
	return err
}

func (a *accounts) MarkVerified(ctx context.Context, token string, at time.Time) (*Account, error) {
	res, err := a.repo.RawTx(ctx, a.db, MarkAccountVerifiedSQL, at, at, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"column": "verification_token",
			})
	}

	return res[0], nil
}

func (a *accounts) RotateVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) (*Account, error) {
	res, err := a.repo.RawTx(ctx, a.db, RotateVerificationTokenSQL, token, expiresAt, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *accounts) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	now := time.Now()
	account.LoggedInAt = &now

	_, err := a.db.NewUpdate().
		Model(account).
		Column("logged_in_at").
		WherePK().
		Exec(ctx)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
