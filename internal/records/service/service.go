// Package service owns record CRUD and its creation side effects: every
// record created emits an audit event and a fire-and-forget notification.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vifm-portal/internal/notify"
	"vifm-portal/internal/records/models"
	"vifm-portal/internal/records/store"
	dErrors "vifm-portal/pkg/domain-errors"
	audit "vifm-portal/pkg/platform/audit"
	"vifm-portal/pkg/requestcontext"
)

// Notifier is the dispatch side of the notification pipeline. Dispatch
// must not block or fail the record path.
type Notifier interface {
	Dispatch(event notify.Event)
}

// Service coordinates record storage with notification and audit side
// effects.
type Service struct {
	opportunities store.OpportunityStore
	pipeline      store.PipelineStore
	notifier      Notifier
	logger        *slog.Logger
	publisher     audit.Publisher
	tracer        trace.Tracer
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func New(opportunities store.OpportunityStore, pipeline store.PipelineStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if opportunities == nil {
		return nil, fmt.Errorf("opportunity store is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline store is required")
	}
	svc := &Service{
		opportunities: opportunities,
		pipeline:      pipeline,
		logger:        logger,
		tracer:        otel.Tracer("vifm-portal/records"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) ListOpportunities(ctx context.Context) ([]*models.Opportunity, error) {
	opps, err := s.opportunities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list opportunities")
	}
	return opps, nil
}

func (s *Service) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	opp, err := s.opportunities.FindByID(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load opportunity")
	}
	return opp, nil
}

// CreateOpportunity stores the record, then fires the notification and
// audit side effects. The caller returns as soon as the row is stored.
func (s *Service) CreateOpportunity(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error) {
	ctx, span := s.tracer.Start(ctx, "records.create_opportunity")
	defer span.End()

	if opp.Company == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company is required")
	}
	if opp.ID == "" {
		opp.ID = uuid.NewString()
	}
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = requestcontext.Now(ctx)
	}

	if err := s.opportunities.Save(ctx, opp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save opportunity")
	}

	s.recordCreated(ctx, "opportunity", opp.ID, map[string]string{
		"company": opp.Company,
		"contact": opp.Contact,
		"value":   strconv.FormatInt(opp.Value, 10),
		"stage":   opp.Stage,
		"owner":   opp.Owner,
	})
	return opp, nil
}

func (s *Service) UpdateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	if _, err := s.opportunities.FindByID(ctx, opp.ID); err != nil {
		return err
	}
	if err := s.opportunities.Save(ctx, opp); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update opportunity")
	}
	return nil
}

func (s *Service) DeleteOpportunity(ctx context.Context, id string) error {
	if err := s.opportunities.Delete(ctx, id); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete opportunity")
	}
	audit.Emit(ctx, s.publisher, s.logger, audit.Event{
		Name:      audit.EventRecordDeleted,
		Resource:  "opportunity/" + id,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func (s *Service) ListPipeline(ctx context.Context, opportunityID string) ([]*models.PipelineEntry, error) {
	entries, err := s.pipeline.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pipeline entries")
	}
	return entries, nil
}

// CreatePipelineEntry stores a pipeline entry and fires the creation side
// effects.
func (s *Service) CreatePipelineEntry(ctx context.Context, entry *models.PipelineEntry) (*models.PipelineEntry, error) {
	if entry.OpportunityID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "opportunity_id is required")
	}
	if _, err := s.opportunities.FindByID(ctx, entry.OpportunityID); err != nil {
		return nil, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = requestcontext.Now(ctx)
	}

	if err := s.pipeline.Save(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save pipeline entry")
	}

	s.recordCreated(ctx, "pipeline", entry.ID, map[string]string{
		"opportunity_id": entry.OpportunityID,
		"status":         entry.Status,
		"notes":          entry.Notes,
		"updated_by":     entry.UpdatedBy,
	})
	return entry, nil
}

func (s *Service) recordCreated(ctx context.Context, kind, id string, fields map[string]string) {
	if s.notifier != nil {
		s.notifier.Dispatch(notify.Event{RecordKind: kind, Fields: fields})
	}
	audit.Emit(ctx, s.publisher, s.logger, audit.Event{
		Name:      audit.EventRecordCreated,
		Resource:  kind + "/" + id,
		RequestID: requestcontext.RequestID(ctx),
	})
}
