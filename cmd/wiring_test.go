package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/enrich"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/store"
)

func TestClassifierConfig(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Classifier.TitleBaseDelaySecs = 5
	c.Classifier.DescriptionBaseDelaySecs = 10
	c.Classifier.TitleMaxTokens = 128
	c.Classifier.RequestsPerMinute = 30

	cc := classifierConfig(c)
	assert.Equal(t, 5*time.Second, cc.TitleBaseDelay)
	assert.Equal(t, 10*time.Second, cc.DescriptionBaseDelay)
	assert.Equal(t, int32(128), cc.TitleMaxTokens)
	assert.Equal(t, 30, cc.RequestsPerMinute)
	assert.Equal(t, 8000, cc.MaxDescriptionChars)
}

func TestReconcilerConfig(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Enrich.TitlePauseSecs = 2
	c.Enrich.DescriptionPauseSecs = 4
	c.Enrich.DefaultSeniority = "Pleno"

	rc := reconcilerConfig(c, 7)
	assert.Equal(t, 2*time.Second, rc.TitlePause)
	assert.Equal(t, 4*time.Second, rc.DescriptionPause)
	assert.Equal(t, model.SeniorityMid, rc.DefaultSeniority)
	assert.Equal(t, 7, rc.Limit)
	assert.Equal(t, 5, rc.CheckpointEvery)
}

func TestNewProvider_Offline(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	p, name, err := newProvider(context.Background(), c, true)
	require.NoError(t, err)
	assert.Equal(t, "offline", name)
	assert.IsType(t, &classifier.StubProvider{}, p)
}

func TestNewProvider_Anthropic(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Classifier.Provider = "anthropic"
	c.Anthropic.Key = "sk-ant-test"
	c.Anthropic.BaseURL = "http://127.0.0.1:1"

	p, name, err := newProvider(context.Background(), c, false)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", name)
	assert.IsType(t, &classifier.AnthropicProvider{}, p)
}

func TestNewProvider_Gemini(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Gemini.Key = "gm-test"

	p, name, err := newProvider(context.Background(), c, false)
	require.NoError(t, err)
	assert.Equal(t, "gemini", name)
	assert.IsType(t, &classifier.GeminiProvider{}, p)
}

func TestNewProvider_Unknown(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Classifier.Provider = "openai"
	_, _, err := newProvider(context.Background(), c, false)
	assert.Error(t, err)
}

func TestOpenLedger_FallsBackToNop(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	c.Store.Driver = "mysql"

	st := openLedger(context.Background(), c)
	assert.IsType(t, store.Nop{}, st)
}

func TestOpenLedger_SQLite(t *testing.T) {
	c := testConfig(t, "vagas.csv")
	st := openLedger(context.Background(), c)
	defer st.Close() //nolint:errcheck

	_, isNop := st.(store.Nop)
	assert.False(t, isNop)
}

func TestReconcilerConfig_ZeroPauseDisablesPacing(t *testing.T) {
	c := testConfig(t, "vagas.csv")

	rc := reconcilerConfig(c, 0)
	assert.Equal(t, enrich.NoPause, rc.TitlePause)
	assert.Equal(t, enrich.NoPause, rc.DescriptionPause)

	stages := enrich.DefaultStages(nil, nil, rc)
	assert.Zero(t, stages[1].(*enrich.LLMTitleStage).Pause)
	assert.Zero(t, stages[2].(*enrich.LLMDescriptionStage).Pause)
}
