package store

import (
	"context"

	"vifm-portal/internal/records/models"
	dErrors "vifm-portal/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across record
// implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// OpportunityStore persists opportunities.
type OpportunityStore interface {
	List(ctx context.Context) ([]*models.Opportunity, error)
	FindByID(ctx context.Context, id string) (*models.Opportunity, error)
	Save(ctx context.Context, opp *models.Opportunity) error
	Delete(ctx context.Context, id string) error
}

// PipelineStore persists pipeline entries.
type PipelineStore interface {
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*models.PipelineEntry, error)
	Save(ctx context.Context, entry *models.PipelineEntry) error
	Delete(ctx context.Context, id string) error
}
