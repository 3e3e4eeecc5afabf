// Package classifier turns job titles and descriptions into structured
// attributes through a text-generation provider. Every failure mode
// (throttling past the retry ceiling, permanent provider errors, output
// that holds no JSON object) yields a nil result, never an error.
package classifier

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/resilience"
)

// Kind selects the prompt and retry policy of a classification call.
type Kind int

const (
	// KindTitle classifies role and seniority from the title alone.
	KindTitle Kind = iota
	// KindDescription extracts arrangement, technologies, and the rest
	// from the full description.
	KindDescription
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindDescription:
		return "description"
	default:
		return "unknown"
	}
}

// Request is one text-generation call.
type Request struct {
	Kind            Kind
	Prompt          string
	MaxOutputTokens int32
	Temperature     float32
	JSONOnly        bool
}

// Response is the raw provider output.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Provider generates text for a prompt. Implementations report throttling
// as an error satisfying resilience.IsRateLimited.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config controls the client. Zero fields take DefaultConfig values.
type Config struct {
	MaxDescriptionChars int

	TitleAttempts        int
	TitleBaseDelay       time.Duration
	DescriptionAttempts  int
	DescriptionBaseDelay time.Duration

	TitleMaxTokens       int32
	DescriptionMaxTokens int32

	// RequestsPerMinute caps provider calls. 0 disables the limiter.
	RequestsPerMinute int

	// BreakerThreshold is the number of consecutive permanent failures that
	// opens the circuit. 0 disables the breaker.
	BreakerThreshold int
	BreakerResetSecs int
}

// DefaultConfig returns the standard classifier configuration.
func DefaultConfig() Config {
	return Config{
		MaxDescriptionChars:  8000,
		TitleAttempts:        3,
		TitleBaseDelay:       5 * time.Second,
		DescriptionAttempts:  5,
		DescriptionBaseDelay: 10 * time.Second,
		TitleMaxTokens:       256,
		DescriptionMaxTokens: 2048,
		BreakerThreshold:     5,
		BreakerResetSecs:     60,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxDescriptionChars <= 0 {
		c.MaxDescriptionChars = def.MaxDescriptionChars
	}
	if c.TitleAttempts <= 0 {
		c.TitleAttempts = def.TitleAttempts
	}
	if c.TitleBaseDelay <= 0 {
		c.TitleBaseDelay = def.TitleBaseDelay
	}
	if c.DescriptionAttempts <= 0 {
		c.DescriptionAttempts = def.DescriptionAttempts
	}
	if c.DescriptionBaseDelay <= 0 {
		c.DescriptionBaseDelay = def.DescriptionBaseDelay
	}
	if c.TitleMaxTokens <= 0 {
		c.TitleMaxTokens = def.TitleMaxTokens
	}
	if c.DescriptionMaxTokens <= 0 {
		c.DescriptionMaxTokens = def.DescriptionMaxTokens
	}
	return c
}

// TitleResult is the decoded title classification.
type TitleResult struct {
	Role      model.RoleCategory
	Seniority model.Seniority
}

// DescriptionResult is the decoded description extraction. List fields are
// raw model output; normalization happens in the reconciler.
type DescriptionResult struct {
	WorkArrangement model.WorkArrangement
	TechStack       []string
	CloudTools      []string
	SoftSkills      []string
	Languages       []string
	Education       string
}

// Payload carries the text a classification works from.
type Payload struct {
	Title       string
	Description string
}

// Stats tallies client activity.
type Stats struct {
	TitleCalls       int
	DescriptionCalls int
	Attempts         int
	Failures         int
	InputTokens      int64
	OutputTokens     int64
}

// Option configures a Client.
type Option func(*Client)

// WithWait replaces the backoff sleep. Tests pass a no-op.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.wait = wait }
}

// WithLimiter sets the throughput limiter used before every attempt.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// Client classifies job postings.
type Client struct {
	provider Provider
	cfg      Config
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	wait     func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	stats Stats
}

// New creates a Client over p.
func New(p Provider, cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		provider: p,
		cfg:      cfg,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	if cfg.BreakerThreshold > 0 {
		bcfg := resilience.BreakerFromSettings(cfg.BreakerThreshold, cfg.BreakerResetSecs)
		bcfg.Trips = resilience.TripOnPermanent
		bcfg.OnChange = func(from, to resilience.BreakerState) {
			zap.L().Warn("classifier: breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
		c.breaker = resilience.NewBreaker(bcfg)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ClassifyTitle returns the role and seniority for title, or nil.
func (c *Client) ClassifyTitle(ctx context.Context, title string) *TitleResult {
	obj := c.run(ctx, KindTitle, buildTitlePrompt(title))
	if obj == nil {
		return nil
	}
	return decodeTitle(obj)
}

// ClassifyDescription extracts description attributes, or nil. The
// description is truncated to MaxDescriptionChars runes.
func (c *Client) ClassifyDescription(ctx context.Context, title, description string) *DescriptionResult {
	description = truncateRunes(description, c.cfg.MaxDescriptionChars)
	obj := c.run(ctx, KindDescription, buildDescriptionPrompt(title, description))
	if obj == nil {
		return nil
	}
	return decodeDescription(obj)
}

// Classify dispatches on kind. The result is a *TitleResult, a
// *DescriptionResult, or nil.
func (c *Client) Classify(ctx context.Context, kind Kind, payload Payload) any {
	switch kind {
	case KindTitle:
		if r := c.ClassifyTitle(ctx, payload.Title); r != nil {
			return r
		}
	case KindDescription:
		if r := c.ClassifyDescription(ctx, payload.Title, payload.Description); r != nil {
			return r
		}
	}
	return nil
}

func (c *Client) retryConfig(kind Kind) resilience.RetryConfig {
	var cfg resilience.RetryConfig
	switch kind {
	case KindDescription:
		cfg = resilience.LinearRetryConfig(c.cfg.DescriptionAttempts, c.cfg.DescriptionBaseDelay)
	default:
		cfg = resilience.LinearRetryConfig(c.cfg.TitleAttempts, c.cfg.TitleBaseDelay)
	}
	cfg.OnRetry = resilience.RetryLogger("classifier", kind.String())
	cfg.Wait = c.wait
	return cfg
}

func (c *Client) request(kind Kind, prompt string) Request {
	req := Request{
		Kind:            kind,
		Prompt:          prompt,
		MaxOutputTokens: c.cfg.TitleMaxTokens,
		Temperature:     0,
		JSONOnly:        true,
	}
	if kind == KindDescription {
		req.MaxOutputTokens = c.cfg.DescriptionMaxTokens
	}
	return req
}

func (c *Client) run(ctx context.Context, kind Kind, prompt string) map[string]any {
	c.mu.Lock()
	if kind == KindDescription {
		c.stats.DescriptionCalls++
	} else {
		c.stats.TitleCalls++
	}
	c.mu.Unlock()

	req := c.request(kind, prompt)
	resp, err := resilience.DoVal(ctx, c.retryConfig(kind), func(ctx context.Context) (Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Response{}, err
			}
		}
		c.mu.Lock()
		c.stats.Attempts++
		c.mu.Unlock()
		return c.generate(ctx, req)
	})
	if err != nil {
		c.mu.Lock()
		c.stats.Failures++
		c.mu.Unlock()
		zap.L().Warn("classifier: call failed",
			zap.String("kind", kind.String()),
			zap.Bool("rate_limited", resilience.IsRateLimited(err)),
			zap.Error(err),
		)
		return nil
	}

	c.mu.Lock()
	c.stats.InputTokens += resp.InputTokens
	c.stats.OutputTokens += resp.OutputTokens
	c.mu.Unlock()

	obj, ok := ParseJSONObject(resp.Text)
	if !ok {
		zap.L().Warn("classifier: no JSON object in response",
			zap.String("kind", kind.String()),
			zap.Int("response_len", len(resp.Text)),
		)
		return nil
	}
	return obj
}

func (c *Client) generate(ctx context.Context, req Request) (Response, error) {
	if c.breaker == nil {
		return c.provider.Generate(ctx, req)
	}
	return resilience.Guard(ctx, c.breaker, func(ctx context.Context) (Response, error) {
		return c.provider.Generate(ctx, req)
	})
}

func decodeTitle(obj map[string]any) *TitleResult {
	role := model.ParseRole(stringField(obj, "role_category", "role", "cargo_simplificado"))
	if !role.IsSet() {
		role = model.RoleOther
	}
	return &TitleResult{
		Role:      role,
		Seniority: model.ParseSeniority(stringField(obj, "seniority", "senioridade_simplificada")),
	}
}

var unspecifiedEducation = map[string]bool{
	"":                 true,
	"n/a":              true,
	"none":             true,
	"unspecified":      true,
	"not specified":    true,
	"não especificado": true,
	"nao especificado": true,
}

func decodeDescription(obj map[string]any) *DescriptionResult {
	education := stringField(obj, "education", "educacao")
	if unspecifiedEducation[strings.ToLower(education)] {
		education = model.Unspecified
	}
	return &DescriptionResult{
		WorkArrangement: model.ParseWorkArrangement(stringField(obj, "work_arrangement", "tipo_padronizado")),
		TechStack:       listField(obj, "tech_stack"),
		CloudTools:      listField(obj, "cloud", "cloud_tools"),
		SoftSkills:      listField(obj, "soft_skills"),
		Languages:       listField(obj, "languages", "linguas"),
		Education:       education,
	}
}
