package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vifm-portal/internal/notify"
	"vifm-portal/internal/records/models"
	"vifm-portal/internal/records/store"
	dErrors "vifm-portal/pkg/domain-errors"
	audit "vifm-portal/pkg/platform/audit"
	auditpublisher "vifm-portal/pkg/platform/audit/publisher"
	auditmemory "vifm-portal/pkg/platform/audit/store/memory"
)

// recordingNotifier captures dispatched events synchronously.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Dispatch(event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Event, len(n.events))
	copy(out, n.events)
	return out
}

type RecordsServiceSuite struct {
	suite.Suite
	notifier *recordingNotifier
	auditLog *auditmemory.Store
	service  *Service
}

func (s *RecordsServiceSuite) SetupTest() {
	s.notifier = &recordingNotifier{}
	s.auditLog = auditmemory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := New(
		store.NewInMemoryOpportunities(),
		store.NewInMemoryPipeline(),
		logger,
		WithNotifier(s.notifier),
		WithAuditPublisher(auditpublisher.StoreBridge{Store: s.auditLog}),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *RecordsServiceSuite) TestCreateOpportunity() {
	s.T().Run("created record fires notification and audit side effects", func(t *testing.T) {
		created, err := s.service.CreateOpportunity(context.Background(), &models.Opportunity{
			Company: "Acme",
			Contact: "Jane Roe",
			Value:   120000,
			Stage:   "prospect",
			Owner:   "bd@vifm.example",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		events := s.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "opportunity", events[0].RecordKind)
		assert.Equal(t, "Acme", events[0].Fields["company"])

		entries := s.auditLog.Events()
		require.Len(t, entries, 1)
		assert.Equal(t, audit.EventRecordCreated, entries[0].Name)
	})

	s.T().Run("missing company is rejected before any side effect", func(t *testing.T) {
		before := len(s.notifier.Events())

		_, err := s.service.CreateOpportunity(context.Background(), &models.Opportunity{})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		assert.Len(t, s.notifier.Events(), before)
	})
}

func (s *RecordsServiceSuite) TestCreatePipelineEntry() {
	s.T().Run("entry for an existing opportunity is stored and notified", func(t *testing.T) {
		opp, err := s.service.CreateOpportunity(context.Background(), &models.Opportunity{Company: "Acme"})
		require.NoError(t, err)

		entry, err := s.service.CreatePipelineEntry(context.Background(), &models.PipelineEntry{
			OpportunityID: opp.ID,
			Status:        "negotiation",
			UpdatedBy:     "bd@vifm.example",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)

		events := s.notifier.Events()
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, "pipeline", last.RecordKind)
		assert.Equal(t, opp.ID, last.Fields["opportunity_id"])
	})

	s.T().Run("entry for an unknown opportunity is rejected", func(t *testing.T) {
		_, err := s.service.CreatePipelineEntry(context.Background(), &models.PipelineEntry{
			OpportunityID: "does-not-exist",
			Status:        "won",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RecordsServiceSuite) TestGetAndDelete() {
	opp, err := s.service.CreateOpportunity(context.Background(), &models.Opportunity{Company: "Acme"})
	s.Require().NoError(err)

	got, err := s.service.GetOpportunity(context.Background(), opp.ID)
	s.Require().NoError(err)
	s.Equal("Acme", got.Company)

	s.Require().NoError(s.service.DeleteOpportunity(context.Background(), opp.ID))

	_, err = s.service.GetOpportunity(context.Background(), opp.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRecordsServiceSuite(t *testing.T) {
	suite.Run(t, new(RecordsServiceSuite))
}
