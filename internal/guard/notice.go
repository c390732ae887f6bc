package guard

import (
	"context"
	"log/slog"
	"time"

	"vifm-portal/internal/localstate"
	"vifm-portal/pkg/requestcontext"
)

const (
	noticeKeyPrefix = "portal:notice:"
	noticeTTL       = 5 * time.Minute
)

// Notices persists the human-readable denial reason so the destination
// page can display it after the redirect. Entries are read-once.
type Notices struct {
	state  localstate.Store
	logger *slog.Logger
}

func NewNotices(state localstate.Store, logger *slog.Logger) *Notices {
	return &Notices{state: state, logger: logger}
}

// Put stores the reason for the client behind ctx. Failures are logged
// only; a lost notice must not block the redirect.
func (n *Notices) Put(ctx context.Context, reason string) {
	key := noticeKeyPrefix + clientKey(ctx)
	if err := n.state.Set(ctx, key, []byte(reason), noticeTTL); err != nil {
		n.logger.WarnContext(ctx, "failed to persist denial notice", "error", err)
	}
}

// Take returns and clears the pending notice for the client behind ctx.
func (n *Notices) Take(ctx context.Context) string {
	key := noticeKeyPrefix + clientKey(ctx)
	blob, err := n.state.Get(ctx, key)
	if err != nil {
		return ""
	}
	if err := n.state.Delete(ctx, key); err != nil {
		n.logger.WarnContext(ctx, "failed to clear denial notice", "error", err)
	}
	return string(blob)
}

// clientKey identifies one browser context well enough to route its notice
// back: client IP plus parsed device label.
func clientKey(ctx context.Context) string {
	return requestcontext.ClientIP(ctx) + "|" + requestcontext.DeviceLabel(ctx)
}
