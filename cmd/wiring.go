package main

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/config"
	"github.com/sells-group/jobmarket-cli/internal/enrich"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/store"
	"github.com/sells-group/jobmarket-cli/pkg/anthropic"
	"github.com/sells-group/jobmarket-cli/pkg/gemini"
)

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// pause maps a configured pause in seconds; 0 turns pacing off.
func pause(n int) time.Duration {
	if n <= 0 {
		return enrich.NoPause
	}
	return secs(n)
}

func classifierConfig(c *config.Config) classifier.Config {
	cc := c.Classifier
	return classifier.Config{
		MaxDescriptionChars:  cc.MaxDescriptionChars,
		TitleAttempts:        cc.TitleAttempts,
		TitleBaseDelay:       secs(cc.TitleBaseDelaySecs),
		DescriptionAttempts:  cc.DescriptionAttempts,
		DescriptionBaseDelay: secs(cc.DescriptionBaseDelaySecs),
		TitleMaxTokens:       int32(cc.TitleMaxTokens),
		DescriptionMaxTokens: int32(cc.DescriptionMaxTokens),
		RequestsPerMinute:    cc.RequestsPerMinute,
		BreakerThreshold:     cc.BreakerThreshold,
		BreakerResetSecs:     cc.BreakerResetSecs,
	}
}

func reconcilerConfig(c *config.Config, limit int) enrich.Config {
	return enrich.Config{
		MinDescriptionChars: c.Enrich.MinDescriptionChars,
		CheckpointEvery:     c.Enrich.CheckpointEvery,
		TitlePause:          pause(c.Enrich.TitlePauseSecs),
		DescriptionPause:    pause(c.Enrich.DescriptionPauseSecs),
		DefaultSeniority:    model.ParseSeniority(c.Enrich.DefaultSeniority),
		Limit:               limit,
	}
}

// newProvider builds the text-generation backend named by
// classifier.provider. Offline mode answers from local rules.
func newProvider(ctx context.Context, c *config.Config, offline bool) (classifier.Provider, string, error) {
	if offline {
		return &classifier.StubProvider{}, "offline", nil
	}
	switch strings.ToLower(c.Classifier.Provider) {
	case "anthropic":
		var opts []option.RequestOption
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(c.Anthropic.BaseURL))
		}
		client := anthropic.NewClient(c.Anthropic.Key, opts...)
		return classifier.NewAnthropicProvider(client, c.Anthropic.Model), "anthropic", nil
	case "gemini", "":
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:  c.Gemini.Key,
			BaseURL: c.Gemini.BaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return classifier.NewGeminiProvider(client, c.Gemini.Model), "gemini", nil
	default:
		return nil, "", eris.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}
}

// openLedger opens the run store. Failures fall back to the no-op store so
// that a broken ledger never blocks enrichment.
func openLedger(ctx context.Context, c *config.Config) store.Store {
	st, err := store.Open(ctx, store.Options{
		Driver:      c.Store.Driver,
		DSN:         c.Store.DSN,
		DatabaseURL: c.Store.DatabaseURL,
		Pool: &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		},
	})
	if err != nil {
		zap.L().Warn("run ledger unavailable", zap.String("driver", c.Store.Driver), zap.Error(err))
		return store.Nop{}
	}
	return st
}

// initStore opens the run store for commands that only read it.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		DSN:         cfg.Store.DSN,
		DatabaseURL: cfg.Store.DatabaseURL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	return st, nil
}
