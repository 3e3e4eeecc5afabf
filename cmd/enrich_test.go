package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/dataset"
	"github.com/sells-group/jobmarket-cli/internal/enrich"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/store"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Generate(ctx context.Context, req classifier.Request) (classifier.Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(classifier.Response), args.Error(1)
}

func TestRunEnrich_Offline(t *testing.T) {
	path := writeFixture(t)
	c := testConfig(t, path)

	sum, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{Offline: true})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.AlreadyComplete)
	assert.Equal(t, 1, sum.Mutated)
	assert.Equal(t, 4, sum.Mutations)
	assert.Equal(t, 0, sum.TitleCalls)
	assert.Equal(t, 1, sum.DescriptionCalls)
	assert.Positive(t, sum.InputTokens)
	assert.GreaterOrEqual(t, sum.Checkpoints, 1)

	ds, err := dataset.Load(path)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	first := ds.Records[0]
	assert.Equal(t, model.RoleDataEngineer, first.Role)
	assert.Equal(t, model.SenioritySenior, first.Seniority)
	assert.Equal(t, model.ArrangementRemote, first.WorkArrangement)
	assert.True(t, first.TechStack.Has("Python"))
	assert.True(t, first.TechStack.Has("AWS"))
	assert.True(t, first.CloudTools.Has("AWS"))

	// Skipped row is written back untouched.
	assert.False(t, ds.Records[1].Role.IsSet())
	assert.Equal(t, "curta", ds.Records[1].Description)
}

func TestRunEnrich_RecordsLedger(t *testing.T) {
	path := writeFixture(t)
	c := testConfig(t, path)

	sum, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{})
	require.NoError(t, err)

	st, err := store.Open(context.Background(), store.Options{Driver: c.Store.Driver, DSN: c.Store.DSN})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, path, runs[0].Dataset)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, sum.Mutations, runs[0].Summary.Mutations)
}

func TestRunEnrich_SecondRunIsNoop(t *testing.T) {
	path := writeFixture(t)
	c := testConfig(t, path)
	c.Store.Driver = store.DriverNone

	_, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{})
	require.NoError(t, err)

	p := new(mockProvider)
	sum, err := runEnrich(context.Background(), c, p, enrichOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Mutations)
	assert.Equal(t, 2, sum.AlreadyComplete)
	p.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRunEnrich_ProviderFailureLeavesFieldsEmpty(t *testing.T) {
	path := writeFixture(t)
	c := testConfig(t, path)
	c.Store.Driver = store.DriverNone
	c.Classifier.BreakerThreshold = 0

	p := new(mockProvider)
	p.On("Generate", mock.Anything, mock.Anything).Return(classifier.Response{}, errors.New("boom"))

	sum, err := runEnrich(context.Background(), c, p, enrichOptions{},
		classifier.WithWait(func(context.Context, time.Duration) error { return nil }))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.DescriptionCalls)
	// Regex still fills role, seniority and arrangement.
	assert.Equal(t, 3, sum.Mutations)

	ds, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Zero(t, ds.Records[0].TechStack.Len())
}

func TestRunEnrich_Limit(t *testing.T) {
	path := writeFixture(t)
	c := testConfig(t, path)
	c.Store.Driver = store.DriverNone

	sum, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Mutated)
	assert.Equal(t, 0, sum.Skipped)
}

func TestRunEnrich_MissingDataset(t *testing.T) {
	c := testConfig(t, "/nonexistent/vagas.csv")
	_, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: open")
}

func TestRunEnrich_BadVocabulary(t *testing.T) {
	c := testConfig(t, writeFixture(t))
	c.Normalize.VocabularyFile = "/nonexistent/vocab.yaml"
	_, err := runEnrich(context.Background(), c, &classifier.StubProvider{}, enrichOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "normalize: read vocabulary")
}

func TestRunAssess(t *testing.T) {
	c := testConfig(t, writeFixture(t))

	var buf bytes.Buffer
	require.NoError(t, runAssess(c, enrichOptions{JSON: true}, &buf))

	var rep enrich.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Unclassifiable)
	assert.Equal(t, 1, rep.Complete)
	assert.Equal(t, 1, rep.NeedsTitle)
	assert.Equal(t, 1, rep.NeedsDescription)

	buf.Reset()
	require.NoError(t, runAssess(c, enrichOptions{}, &buf))
	assert.Contains(t, buf.String(), "Unclassifiable:")
	assert.Contains(t, buf.String(), "Need description pass:")
}

func TestFormatSummary(t *testing.T) {
	sum := model.RunSummary{Total: 10, Skipped: 2, Mutated: 5, Mutations: 9, Checkpoints: 3, InputTokens: 100, OutputTokens: 20, DurationMs: 1500}

	var buf bytes.Buffer
	formatSummary(&buf, sum, false)
	out := buf.String()
	assert.Contains(t, out, "Records:")
	assert.Contains(t, out, "Mutations:")
	assert.Contains(t, out, "100 in / 20 out")
	assert.Contains(t, out, "1.5s")

	buf.Reset()
	formatSummary(&buf, sum, true)
	var decoded model.RunSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sum, decoded)
}
