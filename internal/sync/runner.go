package sync

import (
	"context"
	"time"

	appLog "fogtime/internal/log"
	"fogtime/internal/metrics"
)

// Runner is the supervisor loop around the orchestrator. Each cycle runs
// under a single catch boundary: an error aborts that cycle, is logged with
// its cause, and the loop proceeds after the fixed delay. No backoff and no
// circuit breaking; those are deliberate extension points, not defaults.
type Runner struct {
	orch  *Orchestrator
	delay time.Duration
}

// NewRunner constructs a Runner that waits delay after each cycle, success
// or failure. The delay guarantees at most one in-flight cycle.
func NewRunner(orch *Orchestrator, delay time.Duration) *Runner {
	return &Runner{orch: orch, delay: delay}
}

// RunOnce executes a single supervised cycle and records its outcome.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := r.orch.RunCycle(ctx)
	elapsed := time.Since(start)

	if err != nil {
		metrics.CycleFinished("error", elapsed)
		appLog.Error("cycle failed, retrying next interval", err, "elapsed", elapsed.String())
		return err
	}
	metrics.CycleFinished("ok", elapsed)
	appLog.Info("cycle finished", "elapsed", elapsed.String())
	return nil
}

// Run executes cycles until ctx is canceled. Cycle errors never terminate
// the loop; only cancellation does.
func (r *Runner) Run(ctx context.Context) {
	for {
		// Errors are contained per cycle; RunOnce already logged them.
		_ = r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			appLog.Info("runner stopping", "reason", ctx.Err().Error())
			return
		case <-time.After(r.delay):
		}
	}
}
