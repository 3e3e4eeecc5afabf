// Package store keeps the run ledger: one entry per enrichment pass with
// its outcome and counters.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/resilience"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Store defines the persistence interface for the run ledger.
type Store interface {
	CreateRun(ctx context.Context, dataset string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary model.RunSummary, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Options selects and configures a ledger backend.
type Options struct {
	Driver      string
	DSN         string
	DatabaseURL string
	Pool        *PoolConfig
	// Retry governs ledger writes. Nil means resilience.DefaultRetryConfig.
	Retry *resilience.RetryConfig
}

// Open connects to the configured backend and migrates it. Writes on the
// returned store are retried on transient errors.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		s, err = NewSQLite(opts.DSN)
	case DriverPostgres:
		s, err = NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	case DriverNone:
		return Nop{}, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	retry := resilience.DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	return WithRetry(s, retry), nil
}

func runStatus(runErr error) (model.RunStatus, string) {
	if runErr != nil {
		return model.RunStatusFailed, runErr.Error()
	}
	return model.RunStatusComplete, ""
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// Nop is a Store that records nothing.
type Nop struct{}

func (Nop) CreateRun(_ context.Context, dataset string) (*model.Run, error) {
	return &model.Run{Dataset: dataset, Status: model.RunStatusRunning}, nil
}

func (Nop) CompleteRun(context.Context, string, model.RunSummary, error) error { return nil }

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (Nop) ListRuns(context.Context, int) ([]model.Run, error) { return nil, nil }
func (Nop) Migrate(context.Context) error                      { return nil }
func (Nop) Close() error                                       { return nil }
