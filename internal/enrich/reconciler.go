// Package enrich fills the derived fields of job records through an ordered
// pipeline of stages and checkpoints the dataset as it goes.
package enrich

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/resilience"
)

// Saver persists a full snapshot of the records.
type Saver interface {
	Save(records []model.JobRecord) error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config controls the reconciler. Zero fields take DefaultConfig values.
type Config struct {
	MinDescriptionChars int
	CheckpointEvery     int
	// Pauses follow each classifier call. NoPause disables one.
	TitlePause       time.Duration
	DescriptionPause time.Duration
	// DefaultSeniority is applied when no stage could place the record.
	// Unset keeps seniority empty.
	DefaultSeniority model.Seniority
	// Limit caps how many records are visited. 0 visits all.
	Limit int
}

// NoPause turns off pacing for a classifier pass.
const NoPause time.Duration = -1

// DefaultConfig returns the standard reconciler configuration.
func DefaultConfig() Config {
	return Config{
		MinDescriptionChars: 10,
		CheckpointEvery:     5,
		TitlePause:          2 * time.Second,
		DescriptionPause:    4 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinDescriptionChars <= 0 {
		c.MinDescriptionChars = def.MinDescriptionChars
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = def.CheckpointEvery
	}
	switch {
	case c.TitlePause == 0:
		c.TitlePause = def.TitlePause
	case c.TitlePause < 0:
		c.TitlePause = 0
	}
	switch {
	case c.DescriptionPause == 0:
		c.DescriptionPause = def.DescriptionPause
	case c.DescriptionPause < 0:
		c.DescriptionPause = 0
	}
	return c
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithSleeper replaces the pacing sleep.
func WithSleeper(s Sleeper) Option {
	return func(r *Reconciler) { r.sleep = s }
}

// RecordResult describes what happened to one record.
type RecordResult struct {
	Skipped         bool
	AlreadyComplete bool
	Filled          []Field
	Mutations       int
	TitleCalls      int
	DescCalls       int
}

// Reconciler runs the stage pipeline over a dataset.
type Reconciler struct {
	stages []Stage
	saver  Saver
	cfg    Config
	sleep  Sleeper
}

// New creates a Reconciler. saver may be nil, in which case no checkpoints
// are written.
func New(stages []Stage, saver Saver, cfg Config, opts ...Option) *Reconciler {
	r := &Reconciler{
		stages: stages,
		saver:  saver,
		cfg:    cfg.withDefaults(),
		sleep:  resilience.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs every needed stage over rec in order.
func (r *Reconciler) Reconcile(ctx context.Context, rec *model.JobRecord) (RecordResult, error) {
	var res RecordResult
	if !r.classifiable(rec) {
		res.Skipped = true
		return res, nil
	}

	c := rec.Completeness()
	if c.Complete() {
		res.AlreadyComplete = true
		return res, nil
	}

	for _, st := range r.stages {
		if !st.Needed(c) {
			continue
		}
		out, err := st.Apply(ctx, rec, &c)
		if err != nil {
			return res, eris.Wrapf(err, "enrich: stage %s", st.Name())
		}
		res.Filled = append(res.Filled, out.Filled...)
		res.Mutations += out.Mutations
		if out.Called {
			switch out.Call {
			case classifier.KindTitle:
				res.TitleCalls++
			case classifier.KindDescription:
				res.DescCalls++
			}
		}
		if out.Pause > 0 {
			if err := r.sleep(ctx, out.Pause); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (r *Reconciler) classifiable(rec *model.JobRecord) bool {
	return classifiable(rec, r.cfg.MinDescriptionChars)
}

// classifiable reports whether rec has a description of at least minChars
// runes. A missing title does not block the description pass.
func classifiable(rec *model.JobRecord, minChars int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(rec.Description)) >= minChars
}

// Run reconciles records in place, in source order. The dataset is saved
// after every record whose index is a multiple of CheckpointEvery and once
// more at the end, including when ctx is cancelled. Only save failures
// are returned as errors.
func (r *Reconciler) Run(ctx context.Context, records []model.JobRecord) (model.RunSummary, error) {
	start := time.Now()
	sum := model.RunSummary{Total: len(records)}

	n := len(records)
	if r.cfg.Limit > 0 && r.cfg.Limit < n {
		n = r.cfg.Limit
	}

	var runErr error
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			zap.L().Info("enrich: run interrupted", zap.Int("row", i))
			break
		}

		res, err := r.Reconcile(ctx, &records[i])
		sum.TitleCalls += res.TitleCalls
		sum.DescriptionCalls += res.DescCalls
		sum.Mutations += res.Mutations
		if len(res.Filled) > 0 {
			sum.Mutated++
		}
		if err != nil {
			if ctx.Err() != nil {
				zap.L().Info("enrich: run interrupted", zap.Int("row", i))
				break
			}
			runErr = err
			break
		}

		if res.Skipped {
			sum.Skipped++
			zap.L().Debug("enrich: skipping record without usable description", zap.Int("row", i))
			continue
		}
		if res.AlreadyComplete {
			sum.AlreadyComplete++
		} else if len(res.Filled) > 0 {
			zap.L().Debug("enrich: record updated",
				zap.Int("row", i),
				zap.Int("fields", len(res.Filled)),
			)
		}

		if i%r.cfg.CheckpointEvery == 0 {
			if err := r.checkpoint(records, &sum); err != nil {
				sum.DurationMs = time.Since(start).Milliseconds()
				return sum, err
			}
			zap.L().Info("enrich: checkpoint saved",
				zap.Int("row", i),
				zap.Int("mutations", sum.Mutations),
			)
		}
	}

	if err := r.checkpoint(records, &sum); err != nil {
		sum.DurationMs = time.Since(start).Milliseconds()
		return sum, err
	}
	sum.DurationMs = time.Since(start).Milliseconds()
	return sum, runErr
}

func (r *Reconciler) checkpoint(records []model.JobRecord, sum *model.RunSummary) error {
	if r.saver == nil {
		return nil
	}
	if err := r.saver.Save(records); err != nil {
		return eris.Wrap(err, "enrich: checkpoint")
	}
	sum.Checkpoints++
	return nil
}
