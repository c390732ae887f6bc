package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("first sweep runs before the first tick", func(t *testing.T) {
		checker := NewChecker(time.Hour, logger)
		checker.Register("up", func(context.Context) error { return nil })
		checker.Register("down", func(context.Context) error { return errors.New("unreachable") })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = checker.Run(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool {
			return len(checker.Snapshot()) == 2
		}, time.Second, 5*time.Millisecond)
		cancel()
		<-done

		snapshot := checker.Snapshot()
		assert.True(t, snapshot["up"])
		assert.False(t, snapshot["down"])
		assert.False(t, checker.Healthy())
	})

	t.Run("healthy when every probe passes", func(t *testing.T) {
		checker := NewChecker(time.Hour, logger)
		checker.Register("pg", func(context.Context) error { return nil })
		checker.sweep(context.Background())

		assert.True(t, checker.Healthy())
	})

	t.Run("recovery flips the result on the next sweep", func(t *testing.T) {
		var failing atomic.Bool
		failing.Store(true)

		checker := NewChecker(time.Hour, logger)
		checker.Register("flaky", func(context.Context) error {
			if failing.Load() {
				return errors.New("unreachable")
			}
			return nil
		})

		checker.sweep(context.Background())
		assert.False(t, checker.Healthy())

		failing.Store(false)
		checker.sweep(context.Background())
		assert.True(t, checker.Healthy())
	})

	t.Run("no probes registered reads as healthy", func(t *testing.T) {
		checker := NewChecker(time.Hour, logger)
		assert.True(t, checker.Healthy())
		assert.Empty(t, checker.Snapshot())
	})
}
