package store

import (
	"context"

	"vifm-portal/internal/profile/models"
	dErrors "vifm-portal/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across
// implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "profile not found")

// Store is the single typed lookup interface for profiles: one real
// implementation (Postgres) and one in-memory test double. Nothing in the
// lookup path ever substitutes hardcoded records on error.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
}
