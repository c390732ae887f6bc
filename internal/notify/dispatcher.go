// Package notify turns record-change events into outbound email. Dispatch
// is fire-and-forget: the record-creation path never waits on, or learns
// about, mail delivery.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"

	"vifm-portal/internal/platform/metrics"
	audit "vifm-portal/pkg/platform/audit"
)

// Subject lines per record kind; unknown kinds get the generic one.
var subjects = map[string]string{
	"opportunity": "VIFM Portal: new opportunity created",
	"pipeline":    "VIFM Portal: pipeline entry updated",
	"profile":     "VIFM Portal: new profile provisioned",
}

const genericSubject = "VIFM Portal: record activity"

// bodyTemplate renders the field table. html/template escapes every free
// text value, so markup in user input arrives neutralized.
var bodyTemplate = template.Must(template.New("notification").Parse(`<html>
<body>
<h2>{{.Heading}}</h2>
<table>
{{range .Fields}}<tr><td><b>{{.Key}}</b></td><td>{{.Value}}</td></tr>
{{end}}</table>
<p>This is an automated notification from the VIFM portal.</p>
</body>
</html>`))

var headings = map[string]string{
	"opportunity": "New Opportunity",
	"pipeline":    "Pipeline Update",
	"profile":     "New Profile",
}

// Dispatcher formats events and hands them to the mail transport through a
// buffered channel consumed by Run. Failures are logged and counted, never
// retried, never escalated.
type Dispatcher struct {
	mailer    Mailer
	recipient string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher audit.Publisher
	inbox     chan Event
}

type DispatcherOption func(*Dispatcher)

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = publisher }
}

func NewDispatcher(mailer Mailer, recipient string, logger *slog.Logger, opts ...DispatcherOption) (*Dispatcher, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	d := &Dispatcher{
		mailer:    mailer,
		recipient: recipient,
		logger:    logger,
		inbox:     make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch queues an event and returns immediately. A full queue drops the
// event with a log line; notification loss never blocks the caller.
func (d *Dispatcher) Dispatch(event Event) {
	select {
	case d.inbox <- event:
		if d.metrics != nil {
			d.metrics.NotificationsQueued.Inc()
		}
	default:
		d.logger.Warn("notification queue full; dropping event", "record_kind", event.RecordKind)
		if d.metrics != nil {
			d.metrics.NotificationsFailed.Inc()
		}
	}
}

// Run consumes the queue until ctx is cancelled. Delivery errors are
// absorbed here; this is the only component allowed to observe them.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-d.inbox:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	msg, err := d.Compose(event)
	if err != nil {
		d.fail(ctx, event, err)
		return
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.fail(ctx, event, err)
		return
	}
	audit.Emit(ctx, d.publisher, d.logger, audit.Event{
		Name:     audit.EventNotificationQueued,
		Resource: event.RecordKind,
	})
}

func (d *Dispatcher) fail(ctx context.Context, event Event, err error) {
	d.logger.WarnContext(ctx, "notification delivery failed",
		"record_kind", event.RecordKind, "error", err)
	if d.metrics != nil {
		d.metrics.NotificationsFailed.Inc()
	}
}

// Compose renders the message for an event. Exported so tests can assert
// on the body without a transport.
func (d *Dispatcher) Compose(event Event) (Message, error) {
	kind := strings.ToLower(event.RecordKind)
	subject, ok := subjects[kind]
	if !ok {
		subject = genericSubject
	}
	heading, ok := headings[kind]
	if !ok {
		heading = "Record Activity"
	}

	type field struct{ Key, Value string }
	fields := make([]field, 0, len(event.Fields))
	for k, v := range event.Fields {
		fields = append(fields, field{Key: k, Value: v})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

	var body strings.Builder
	err := bodyTemplate.Execute(&body, struct {
		Heading string
		Fields  []field
	}{Heading: heading, Fields: fields})
	if err != nil {
		return Message{}, fmt.Errorf("render notification: %w", err)
	}

	return Message{
		Recipient: d.recipient,
		Subject:   subject,
		HTMLBody:  body.String(),
	}, nil
}
