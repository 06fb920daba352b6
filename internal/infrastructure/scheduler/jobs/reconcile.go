package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/pkg/logger"
)

// NameReconcileCounters is the job name of the counter sweep.
const NameReconcileCounters = "reconcile_counters"

// CounterReconciler rewrites denormalized counters from the fact tables and
// reports the rows fixed per counter.
type CounterReconciler interface {
	Reconcile(ctx context.Context) (map[string]int64, error)
}

// ReconcileCountersJob corrects drift between counters and facts.
type ReconcileCountersJob struct {
	reconciler CounterReconciler
	logger     zerolog.Logger
}

// NewReconcileCountersJob creates the sweep job.
func NewReconcileCountersJob(r CounterReconciler, log zerolog.Logger) *ReconcileCountersJob {
	return &ReconcileCountersJob{
		reconciler: r,
		logger:     log.With().Str(logger.KeyJob, NameReconcileCounters).Logger(),
	}
}

func (j *ReconcileCountersJob) Name() string { return NameReconcileCounters }

func (j *ReconcileCountersJob) Description() string {
	return "Recounts likes, views and comments and fixes drifted counters"
}

func (j *ReconcileCountersJob) Run(ctx context.Context) error {
	fixed, err := j.reconciler.Reconcile(ctx)

	var total int64
	ev := j.logger.Info()
	for name, n := range fixed {
		total += n
		if n > 0 {
			ev = ev.Int64(name, n)
		}
	}
	ev.Int64("corrected_total", total).Msg("counters reconciled")

	if err != nil {
		return fmt.Errorf("reconcile counters: %w", err)
	}
	return nil
}
