// Package shutdown coordinates graceful termination across the
// indexer's long-running components, grounded on bin/runic.rs's
// run_indexer shutdown sequence: cancel the root context, wait for the
// chain fleet and cron scheduler to stop, then flush and close both
// ingestors before exiting.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/luxfi/dexindexer/internal/observability"
)

// Component is one long-running part that Coordinator.WaitGroup runs.
// Its Run watches ctx (or its own input) and returns once it has
// stopped and cleaned up.
type Component struct {
	Name string
	Run  func(ctx context.Context) error
}

// Coordinator runs groups of components and logs how each one stops.
// Root cancellation comes from NotifyContext, not from Coordinator.
type Coordinator struct {
	components []Component
	log        observability.Logger
}

// New builds a Coordinator. Every component within a single WaitGroup
// call runs concurrently; ordering between groups comes from the order
// of the WaitGroup calls.
func New() *Coordinator {
	return &Coordinator{log: observability.New("shutdown")}
}

// NotifyContext returns a context canceled on SIGINT/SIGTERM, mirroring
// the original's tokio::signal::ctrl_c/SIGTERM select.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// WaitGroup runs every component concurrently and blocks until all of
// them have returned, logging each completion and any error returned
// while ctx is still live. Components are expected to watch ctx and
// exit once it is canceled.
func (c *Coordinator) WaitGroup(ctx context.Context, components ...Component) {
	var wg sync.WaitGroup
	wg.Add(len(components))
	for _, comp := range components {
		comp := comp
		go func() {
			defer wg.Done()
			start := time.Now()
			if err := comp.Run(ctx); err != nil && ctx.Err() == nil {
				c.log.Error("component exited with error", "component", comp.Name, "err", err)
				return
			}
			c.log.Info("component stopped", "component", comp.Name, "elapsed", time.Since(start))
		}()
	}
	wg.Wait()
}

// StopTimeout bounds how long the final drain phase (flushing
// ingestors after everything upstream has stopped producing) may take
// before the caller stops waiting for it.
const StopTimeout = 30 * time.Second
