package hireqa

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PersonalDetailsStore persists the demographic record created as signup
// step two.
type PersonalDetailsStore interface {
	Create(ctx context.Context, record *PersonalDetails) (*PersonalDetails, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*PersonalDetails, error)
}

type personalDetails struct {
	repo repository.Repository[*PersonalDetails]
	db   *bun.DB
}

var _ PersonalDetailsStore = (*personalDetails)(nil)

// NewPersonalDetailsRepository builds the bun-backed personal-details store.
func NewPersonalDetailsRepository(db *bun.DB) PersonalDetailsStore {
	repo := repository.NewRepository[*PersonalDetails](db, repository.ModelHandlers[*PersonalDetails]{
		NewRecord: func() *PersonalDetails { return &PersonalDetails{} },
		GetID: func(record *PersonalDetails) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PersonalDetails, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
	})

	return &personalDetails{
		repo: repo,
		db:   db,
	}
}

func (p *personalDetails) Create(ctx context.Context, record *PersonalDetails) (*PersonalDetails, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return p.repo.CreateTx(ctx, p.db, record)
}

func (p *personalDetails) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*PersonalDetails, error) {
	record := &PersonalDetails{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"account_id": accountID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}
