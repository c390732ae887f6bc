// Package guard gates every protected page. It resolves the session and
// profile, feeds them to the policy evaluator, and performs the only
// redirect side effects in the system. The guard fails closed: any
// unexpected condition is a denial toward login, never rendered content.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authModel "vifm-portal/internal/auth/models"
	"vifm-portal/internal/platform/metrics"
	"vifm-portal/internal/policy"
	profileModel "vifm-portal/internal/profile/models"
	"vifm-portal/internal/transport/http/shared"
	dErrors "vifm-portal/pkg/domain-errors"
	audit "vifm-portal/pkg/platform/audit"
	"vifm-portal/pkg/requestcontext"
)

// SessionCookie is the cookie carrying the session token for page loads.
// API clients may send the same token as a bearer header instead.
const SessionCookie = "portal_session"

// SessionSource yields the current session for a raw token, nil on miss.
type SessionSource interface {
	Current(ctx context.Context, rawToken string) *authModel.Session
}

// ProfileSource yields the profile for a session, nil on miss.
type ProfileSource interface {
	Current(ctx context.Context, sess *authModel.Session) *profileModel.Profile
}

// ReadyChecker reports whether one guard dependency is reachable.
type ReadyChecker func(ctx context.Context) error

// Controller orchestrates the guard on every protected page load. The
// protected handler never runs, and never writes a byte, before the
// decision resolves.
type Controller struct {
	sessions  SessionSource
	profiles  ProfileSource
	notices   *Notices
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	publisher audit.Publisher

	// publicPages is the fixed allow-list checked before anything else.
	publicPages map[string]struct{}

	ready bool
}

type Option func(*Controller)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(c *Controller) { c.publisher = publisher }
}

func NewController(sessions SessionSource, profiles ProfileSource, notices *Notices, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		sessions: sessions,
		profiles: profiles,
		notices:  notices,
		logger:   logger,
		tracer:   otel.Tracer("vifm-portal/guard"),
		publicPages: map[string]struct{}{
			"login.html":    {},
			"register.html": {},
			"index.html":    {},
		},
		ready: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WaitReady polls the given dependency checks until all pass or the
// timeout elapses. On timeout the guard stays not-ready and denies every
// protected page with a system error; it never fails open.
func (c *Controller) WaitReady(ctx context.Context, timeout time.Duration, checks ...ReadyChecker) bool {
	if len(checks) == 0 {
		c.ready = true
		return true
	}
	deadline := time.Now().Add(timeout)
	for {
		if allReady(ctx, checks) {
			c.ready = true
			return true
		}
		if time.Now().After(deadline) {
			c.ready = false
			c.logger.Error("guard dependencies never became ready; failing closed")
			return false
		}
		select {
		case <-ctx.Done():
			c.ready = false
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func allReady(ctx context.Context, checks []ReadyChecker) bool {
	for _, check := range checks {
		if err := check(ctx); err != nil {
			return false
		}
	}
	return true
}

// Protect wraps a protected page handler. Public allow-list pages skip all
// checks; everything else is evaluated before the handler may write.
func (c *Controller) Protect(required profileModel.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c.isPublic(r.URL.Path) {
				c.count("public")
				next.ServeHTTP(w, r)
				return
			}

			// Fail closed on anything unexpected below.
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.ErrorContext(r.Context(), "guard panicked; denying",
						"panic", rec, "path", r.URL.Path)
					c.deny(w, r, policy.Decision{
						Reason:   policy.ReasonSystemError,
						Redirect: policy.RedirectLogin,
					})
				}
			}()

			ctx, span := c.tracer.Start(r.Context(), "guard.evaluate",
				trace.WithAttributes(
					attribute.String("page", pageIdentity(r.URL.Path)),
					attribute.String("required_role", string(required)),
				))
			defer span.End()
			r = r.WithContext(ctx)

			if !c.ready {
				c.deny(w, r, policy.Decision{
					Reason:   policy.ReasonSystemError,
					Redirect: policy.RedirectLogin,
				})
				return
			}

			// An enclosing guard already resolved identity for this
			// request; reuse it rather than re-fetching. Evaluation is
			// pure, so re-running it on an allowed state cannot redirect.
			sess := SessionFromContext(ctx)
			prof := ProfileFromContext(ctx)
			if sess == nil {
				sess = c.sessions.Current(ctx, tokenFromRequest(r))
				prof = c.profiles.Current(ctx, sess)
			}

			decision := policy.Evaluate(sess, prof, required)
			span.SetAttributes(attribute.Bool("allow", decision.Allow))
			if !decision.Allow {
				c.auditDeny(ctx, sess, decision)
				c.deny(w, r, decision)
				return
			}

			c.count("allow")
			// No protected byte is cacheable; back navigation must not
			// replay this page after sign-out.
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r.WithContext(withIdentity(ctx, sess, prof)))
		})
	}
}

// ProtectAPI is the JSON variant of Protect for API routes: the same
// evaluation through the one policy evaluator, but denials answer with a
// status code instead of a redirect.
func (c *Controller) ProtectAPI(required profileModel.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.ErrorContext(r.Context(), "guard panicked; denying",
						"panic", rec, "path", r.URL.Path)
					shared.WriteError(w, dErrors.New(dErrors.CodeInternal, policy.ReasonSystemError))
				}
			}()

			ctx := r.Context()
			if !c.ready {
				shared.WriteError(w, dErrors.New(dErrors.CodeInternal, policy.ReasonSystemError))
				return
			}

			sess := SessionFromContext(ctx)
			prof := ProfileFromContext(ctx)
			if sess == nil {
				sess = c.sessions.Current(ctx, tokenFromRequest(r))
				prof = c.profiles.Current(ctx, sess)
			}

			decision := policy.Evaluate(sess, prof, required)
			if !decision.Allow {
				c.auditDeny(ctx, sess, decision)
				c.count("deny")
				code := dErrors.CodeForbidden
				if decision.Redirect == policy.RedirectLogin {
					code = dErrors.CodeUnauthorized
				}
				shared.WriteError(w, dErrors.New(code, decision.Reason))
				return
			}

			c.count("allow")
			next.ServeHTTP(w, r.WithContext(withIdentity(ctx, sess, prof)))
		})
	}
}

func (c *Controller) isPublic(urlPath string) bool {
	_, ok := c.publicPages[pageIdentity(urlPath)]
	return ok
}

// pageIdentity reduces a request path to its page name.
func pageIdentity(urlPath string) string {
	base := path.Base(urlPath)
	if base == "/" || base == "." {
		return "index.html"
	}
	return base
}

func (c *Controller) deny(w http.ResponseWriter, r *http.Request, decision policy.Decision) {
	c.count("deny")
	c.notices.Put(r.Context(), decision.Reason)
	// 303 replaces the page; combined with no-store the protected URL
	// cannot be resurfaced from history.
	http.Redirect(w, r, "/"+decision.Redirect, http.StatusSeeOther)
}

func (c *Controller) auditDeny(ctx context.Context, sess *authModel.Session, decision policy.Decision) {
	event := audit.Event{
		Name:      audit.EventAccessDenied,
		Reason:    decision.Reason,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.DeviceLabel(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	}
	if sess != nil {
		event.SubjectID = sess.SubjectID
		event.Email = sess.Email
	}
	audit.Emit(ctx, c.publisher, c.logger, event)
}

func (c *Controller) count(outcome string) {
	if c.metrics != nil {
		c.metrics.GuardDecisions.WithLabelValues(outcome).Inc()
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}
