// Package status probes backing dependencies on an interval and keeps the
// latest result for the health endpoint and the dependency gauges.
package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vifm-portal/internal/platform/metrics"
)

// Check probes one dependency; a nil error means reachable.
type Check func(ctx context.Context) error

type probe struct {
	name  string
	check Check
}

// Checker runs the registered probes periodically and caches the outcome.
type Checker struct {
	probes   []probe
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	results map[string]bool
}

type Option func(*Checker)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

func NewChecker(interval time.Duration, logger *slog.Logger, opts ...Option) *Checker {
	c := &Checker{
		interval: interval,
		logger:   logger,
		results:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a named dependency probe. Must be called before Run.
func (c *Checker) Register(name string, check Check) {
	c.probes = append(c.probes, probe{name: name, check: check})
}

// Run probes immediately, then on every interval tick until ctx ends.
func (c *Checker) Run(ctx context.Context) error {
	c.sweep(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Checker) sweep(ctx context.Context) {
	for _, p := range c.probes {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := p.check(probeCtx)
		cancel()

		up := err == nil
		if !up {
			c.logger.WarnContext(ctx, "dependency check failed", "dependency", p.name, "error", err)
		}
		c.mu.Lock()
		c.results[p.name] = up
		c.mu.Unlock()
		if c.metrics != nil {
			value := 0.0
			if up {
				value = 1.0
			}
			c.metrics.DependencyUp.WithLabelValues(p.name).Set(value)
		}
	}
}

// Snapshot returns the most recent result per dependency.
func (c *Checker) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.results))
	for name, up := range c.results {
		out[name] = up
	}
	return out
}

// Healthy reports whether every registered dependency was reachable on the
// last sweep.
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, up := range c.results {
		if !up {
			return false
		}
	}
	return true
}
