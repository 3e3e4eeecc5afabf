package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/config"
	"github.com/sells-group/jobmarket-cli/internal/dataset"
	"github.com/sells-group/jobmarket-cli/internal/enrich"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/normalize"
)

type enrichOptions struct {
	Limit   int
	DryRun  bool
	Offline bool
	JSON    bool
}

var enrichOpts enrichOptions

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing attributes in the dataset",
	Long:  "Classifies every posting with missing role, seniority, work arrangement, or technology fields and saves the dataset in place with periodic checkpoints.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode := "enrich"
		switch {
		case enrichOpts.DryRun:
			mode = "read"
		case enrichOpts.Offline:
			mode = "offline"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		if enrichOpts.DryRun {
			return runAssess(cfg, enrichOpts, os.Stdout)
		}

		provider, name, err := newProvider(ctx, cfg, enrichOpts.Offline)
		if err != nil {
			return eris.Wrap(err, "enrich: provider")
		}
		zap.L().Info("enrich: starting",
			zap.String("dataset", cfg.Dataset.File),
			zap.String("provider", name),
			zap.Int("limit", enrichOpts.Limit),
		)

		sum, err := runEnrich(ctx, cfg, provider, enrichOpts)
		formatSummary(os.Stdout, sum, enrichOpts.JSON)
		return err
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichOpts.Limit, "limit", 0, "max records to visit (0 = all)")
	enrichCmd.Flags().BoolVar(&enrichOpts.DryRun, "dry-run", false, "report pending work without calling the classifier")
	enrichCmd.Flags().BoolVar(&enrichOpts.Offline, "offline", false, "classify with local rules instead of a remote model")
	enrichCmd.Flags().BoolVar(&enrichOpts.JSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(enrichCmd)
}

// runAssess prints the work a run would do.
func runAssess(c *config.Config, opts enrichOptions, out io.Writer) error {
	ds, err := dataset.Load(c.Dataset.File)
	if err != nil {
		return err
	}
	rep := enrich.Assess(ds.Records, reconcilerConfig(c, opts.Limit))
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Records:\t%d\n", rep.Total)
	_, _ = fmt.Fprintf(w, "Unclassifiable:\t%d\n", rep.Unclassifiable)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", rep.Complete)
	_, _ = fmt.Fprintf(w, "Need title pass:\t%d\n", rep.NeedsTitle)
	_, _ = fmt.Fprintf(w, "Need description pass:\t%d\n", rep.NeedsDescription)
	_, _ = fmt.Fprintf(w, "  Missing role:\t%d\n", rep.MissingRole)
	_, _ = fmt.Fprintf(w, "  Missing seniority:\t%d\n", rep.MissingSeniority)
	_, _ = fmt.Fprintf(w, "  Missing arrangement:\t%d\n", rep.MissingArrange)
	_, _ = fmt.Fprintf(w, "  Missing tech:\t%d\n", rep.MissingTech)
	return w.Flush()
}

// runEnrich loads the dataset, reconciles it, and records the run in the
// ledger. Ledger errors are logged and never fail the run.
func runEnrich(ctx context.Context, c *config.Config, p classifier.Provider, opts enrichOptions, clsOpts ...classifier.Option) (model.RunSummary, error) {
	ds, err := dataset.Load(c.Dataset.File)
	if err != nil {
		return model.RunSummary{}, err
	}

	norm, err := normalize.FromFile(c.Normalize.VocabularyFile)
	if err != nil {
		return model.RunSummary{}, err
	}

	cls := classifier.New(p, classifierConfig(c), clsOpts...)
	rcfg := reconcilerConfig(c, opts.Limit)
	rec := enrich.New(enrich.DefaultStages(cls, norm, rcfg), ds, rcfg)

	ledger := openLedger(ctx, c)
	defer ledger.Close() //nolint:errcheck

	var runID string
	if run, err := ledger.CreateRun(ctx, c.Dataset.File); err != nil {
		zap.L().Warn("enrich: create run record", zap.Error(err))
	} else if run != nil {
		runID = run.ID
	}

	sum, runErr := rec.Run(ctx, ds.Records)
	st := cls.Stats()
	sum.InputTokens = st.InputTokens
	sum.OutputTokens = st.OutputTokens

	if runID != "" {
		// The run context may already be cancelled; the ledger write should
		// still land.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := ledger.CompleteRun(lctx, runID, sum, runErr); err != nil {
			zap.L().Warn("enrich: complete run record", zap.String("run_id", runID), zap.Error(err))
		}
		cancel()
	}

	zap.L().Info("enrich: finished",
		zap.String("run_id", runID),
		zap.Int("total", sum.Total),
		zap.Int("mutated", sum.Mutated),
		zap.Int("mutations", sum.Mutations),
		zap.Int("title_calls", sum.TitleCalls),
		zap.Int("description_calls", sum.DescriptionCalls),
		zap.Int("classifier_failures", st.Failures),
		zap.Int64("duration_ms", sum.DurationMs),
	)
	return sum, runErr
}

// formatSummary writes a run summary to w.
func formatSummary(out io.Writer, sum model.RunSummary, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Records:\t%d\n", sum.Total)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", sum.Skipped)
	_, _ = fmt.Fprintf(w, "Already complete:\t%d\n", sum.AlreadyComplete)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", sum.Mutated)
	_, _ = fmt.Fprintf(w, "Mutations:\t%d\n", sum.Mutations)
	_, _ = fmt.Fprintf(w, "Title calls:\t%d\n", sum.TitleCalls)
	_, _ = fmt.Fprintf(w, "Description calls:\t%d\n", sum.DescriptionCalls)
	_, _ = fmt.Fprintf(w, "Checkpoints:\t%d\n", sum.Checkpoints)
	if sum.InputTokens > 0 || sum.OutputTokens > 0 {
		_, _ = fmt.Fprintf(w, "Tokens:\t%d in / %d out\n", sum.InputTokens, sum.OutputTokens)
	}
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", (time.Duration(sum.DurationMs) * time.Millisecond).Round(time.Millisecond))
	_ = w.Flush()
}
