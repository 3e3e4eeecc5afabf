package store

import (
	"context"

	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/resilience"
)

// Retrying retries ledger writes that fail with a transient error, such as a
// dropped database connection. Reads pass straight through.
type Retrying struct {
	Store
	cfg resilience.RetryConfig
}

// WithRetry wraps s so CreateRun and CompleteRun are retried under cfg.
func WithRetry(s Store, cfg resilience.RetryConfig) *Retrying {
	return &Retrying{Store: s, cfg: cfg}
}

func (r *Retrying) config(op string) resilience.RetryConfig {
	cfg := r.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("store", op)
	}
	return cfg
}

func (r *Retrying) CreateRun(ctx context.Context, dataset string) (*model.Run, error) {
	return resilience.DoVal(ctx, r.config("create_run"), func(ctx context.Context) (*model.Run, error) {
		return r.Store.CreateRun(ctx, dataset)
	})
}

func (r *Retrying) CompleteRun(ctx context.Context, runID string, summary model.RunSummary, runErr error) error {
	return resilience.Do(ctx, r.config("complete_run"), func(ctx context.Context) error {
		return r.Store.CompleteRun(ctx, runID, summary, runErr)
	})
}
