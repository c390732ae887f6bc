package store

import (
	"context"

	"vifm-portal/internal/auth/models"
	dErrors "vifm-portal/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across
// implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "credential not found")

// CredentialStore holds sign-in secrets. Provisioning writes them; the
// sign-in path only reads.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) error
}
