package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/normalize"
)

const longDescription = "Buscamos pessoa para construir pipelines de dados."

func newReconciler(m *mockClassifier, saver Saver, p *pauses) *Reconciler {
	cfg := DefaultConfig()
	return New(DefaultStages(m, normalize.Default(), cfg), saver, cfg, WithSleeper(p.sleep))
}

func completeRecord(title string) model.JobRecord {
	return model.JobRecord{
		Title:           title,
		Description:     longDescription,
		Role:            model.RoleDataEngineer,
		Seniority:       model.SenioritySenior,
		WorkArrangement: model.ArrangementRemote,
		TechStack:       model.NewLabelSet("Python"),
	}
}

func TestReconcile_SkipsShortDescription(t *testing.T) {
	m := new(mockClassifier)
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := model.JobRecord{Title: "Consultor", Description: "curta"}
	before := rec
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Zero(t, res.Mutations)
	assert.Empty(t, res.Filled)
	assert.Equal(t, before, rec)
	assert.Empty(t, p.d)
	m.AssertNotCalled(t, "ClassifyTitle", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "ClassifyDescription", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_MissingTitleStillRunsDescriptionPass(t *testing.T) {
	const desc = "Remote role building Python pipelines on AWS."
	m := new(mockClassifier)
	m.On("ClassifyDescription", mock.Anything, "", desc).Return(&classifier.DescriptionResult{
		WorkArrangement: model.ArrangementRemote,
		TechStack:       []string{"Python"},
		CloudTools:      []string{"AWS"},
	})
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := model.JobRecord{Description: desc}
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Zero(t, res.TitleCalls)
	assert.Equal(t, 1, res.DescCalls)
	assert.Equal(t, model.ArrangementRemote, rec.WorkArrangement)
	assert.True(t, rec.TechStack.Has("Python"))
	assert.Equal(t, []time.Duration{4 * time.Second}, p.d)
	m.AssertNotCalled(t, "ClassifyTitle", mock.Anything, mock.Anything)
}

func TestConfigDefaults_Pauses(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.TitlePause)
	assert.Equal(t, 4*time.Second, cfg.DescriptionPause)

	off := Config{TitlePause: NoPause, DescriptionPause: NoPause}.withDefaults()
	assert.Zero(t, off.TitlePause)
	assert.Zero(t, off.DescriptionPause)

	custom := Config{TitlePause: time.Second}.withDefaults()
	assert.Equal(t, time.Second, custom.TitlePause)
	assert.Equal(t, 4*time.Second, custom.DescriptionPause)
}

func TestReconcile_ZeroConfigPacesWithDefaults(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, "Consultor de Dados").Return(nil)
	m.On("ClassifyDescription", mock.Anything, "Consultor de Dados", longDescription).Return(nil)
	p := &pauses{}
	r := New(DefaultStages(m, normalize.Default(), Config{}), nil, Config{}, WithSleeper(p.sleep))

	rec := model.JobRecord{Title: "Consultor de Dados", Description: longDescription}
	_, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, p.d)
}

func TestReconcile_CompleteRecordIsNoop(t *testing.T) {
	m := new(mockClassifier)
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := completeRecord("Senior Data Engineer")
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)
	assert.True(t, res.AlreadyComplete)
	assert.Empty(t, p.d)
	m.AssertExpectations(t)
}

func TestReconcile_RegexWinsOverClassifier(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyDescription", mock.Anything, "Senior Data Engineer", longDescription).Return(&classifier.DescriptionResult{
		WorkArrangement: model.ArrangementOnSite,
		TechStack:       []string{"Python"},
		CloudTools:      []string{"AWS", "Databricks"},
		Education:       model.Unspecified,
	})
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := model.JobRecord{Title: "Senior Data Engineer", Location: "Remoto", Description: longDescription}
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)

	assert.Equal(t, model.RoleDataEngineer, rec.Role)
	assert.Equal(t, model.SenioritySenior, rec.Seniority)
	assert.Equal(t, model.ArrangementRemote, rec.WorkArrangement, "regex arrangement must not be replaced")
	assert.Equal(t, []string{"AWS", "Databricks", "Python"}, rec.TechStack.Sorted())
	assert.Equal(t, []string{"AWS", "Databricks"}, rec.CloudTools.Sorted())

	assert.Zero(t, res.TitleCalls)
	assert.Equal(t, 1, res.DescCalls)
	// three regex fields and one description pass
	assert.Equal(t, 4, res.Mutations)
	assert.Equal(t, []time.Duration{4 * time.Second}, p.d)
	m.AssertNotCalled(t, "ClassifyTitle", mock.Anything, mock.Anything)
	m.AssertExpectations(t)
}

func TestReconcile_BothClassifierPasses(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, "Consultor de Dados").Return(&classifier.TitleResult{
		Role:      model.RoleOther,
		Seniority: model.SeniorityMid,
	})
	m.On("ClassifyDescription", mock.Anything, "Consultor de Dados", longDescription).Return(&classifier.DescriptionResult{
		WorkArrangement: model.ArrangementHybrid,
		TechStack:       []string{"Power BI"},
		Education:       model.Unspecified,
	})
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := model.JobRecord{Title: "Consultor de Dados", Description: longDescription}
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)

	assert.Equal(t, model.RoleOther, rec.Role)
	assert.Equal(t, model.SeniorityMid, rec.Seniority)
	assert.Equal(t, model.ArrangementHybrid, rec.WorkArrangement)
	assert.True(t, rec.TechStack.Has("Power BI"))
	assert.Equal(t, 1, res.TitleCalls)
	assert.Equal(t, 1, res.DescCalls)
	assert.Equal(t, 2, res.Mutations)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, p.d)
}

func TestReconcile_ClassifierAbsenceLeavesFieldsMissing(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, mock.Anything).Return(nil)
	m.On("ClassifyDescription", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	p := &pauses{}
	r := newReconciler(m, nil, p)

	rec := model.JobRecord{Title: "Consultor de Dados", Description: longDescription}
	res, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)

	assert.False(t, rec.Completeness().RoleSet)
	assert.Zero(t, res.Mutations)
	assert.Equal(t, 1, res.TitleCalls)
	assert.Equal(t, 1, res.DescCalls)
	assert.Len(t, p.d, 2, "pacing applies after every call")
}

func TestReconcile_DefaultSeniority(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, mock.Anything).Return(&classifier.TitleResult{Role: model.RoleOther})
	cfg := DefaultConfig()
	cfg.DefaultSeniority = model.SeniorityMid
	r := New(DefaultStages(m, nil, cfg), nil, cfg, WithSleeper((&pauses{}).sleep))

	rec := completeRecord("Consultor")
	rec.Role = model.RoleUnset
	rec.Seniority = model.SeniorityUnset
	_, err := r.Reconcile(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOther, rec.Role)
	assert.Equal(t, model.SeniorityMid, rec.Seniority)
}

func TestReconcile_SleeperErrorStops(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, mock.Anything).Return(nil)
	cfg := DefaultConfig()
	stop := errors.New("context canceled")
	r := New(DefaultStages(m, nil, cfg), nil, cfg, WithSleeper(func(context.Context, time.Duration) error { return stop }))

	rec := model.JobRecord{Title: "Consultor de Dados", Description: longDescription}
	_, err := r.Reconcile(context.Background(), &rec)
	require.ErrorIs(t, err, stop)
	m.AssertNotCalled(t, "ClassifyDescription", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_CheckpointsEveryFifthAndAtEnd(t *testing.T) {
	m := new(mockClassifier)
	saver := &recordingSaver{}
	r := newReconciler(m, saver, &pauses{})

	records := make([]model.JobRecord, 12)
	for i := range records {
		records[i] = completeRecord(fmt.Sprintf("Data Engineer %d", i))
	}
	// Skipped records do not reach the checkpoint.
	records[5].Description = "x"

	sum, err := r.Run(context.Background(), records)
	require.NoError(t, err)

	// index 0 and 10, plus the final save
	assert.Len(t, saver.snapshots, 3)
	assert.Equal(t, 3, sum.Checkpoints)
	assert.Equal(t, 12, sum.Total)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 11, sum.AlreadyComplete)
	assert.Zero(t, sum.Mutations)
}

func TestRun_SnapshotsCarryProgress(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyDescription", mock.Anything, mock.Anything, mock.Anything).Return(&classifier.DescriptionResult{
		TechStack: []string{"SQL"},
		Education: model.Unspecified,
	})
	saver := &recordingSaver{}
	r := newReconciler(m, saver, &pauses{})

	records := []model.JobRecord{
		{Title: "Senior Data Engineer", Location: "Remote", Description: longDescription},
		completeRecord("Data Engineer"),
	}
	sum, err := r.Run(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, saver.snapshots, 2)
	first := saver.snapshots[0][0]
	assert.True(t, first.TechStack.Has("SQL"))
	assert.Equal(t, model.Unspecified, first.Education)
	assert.Equal(t, 1, sum.Mutated)
	assert.Equal(t, 1, sum.DescriptionCalls)
	assert.Equal(t, 4, sum.Mutations)
}

func TestRun_IdempotentOnEnrichedDataset(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, mock.Anything).Return(&classifier.TitleResult{
		Role: model.RoleOther, Seniority: model.SeniorityJunior,
	}).Once()
	m.On("ClassifyDescription", mock.Anything, mock.Anything, mock.Anything).Return(&classifier.DescriptionResult{
		WorkArrangement: model.ArrangementOnSite,
		TechStack:       []string{"Excel"},
		Education:       model.Unspecified,
	}).Once()

	saver := &recordingSaver{}
	r := newReconciler(m, saver, &pauses{})
	records := []model.JobRecord{{Title: "Consultor de Dados", Description: longDescription}}

	_, err := r.Run(context.Background(), records)
	require.NoError(t, err)
	firstPass := saver.snapshots[len(saver.snapshots)-1]

	sum, err := r.Run(context.Background(), records)
	require.NoError(t, err)
	secondPass := saver.snapshots[len(saver.snapshots)-1]

	assert.Equal(t, firstPass, secondPass)
	assert.Zero(t, sum.Mutations)
	assert.Zero(t, sum.TitleCalls)
	assert.Zero(t, sum.DescriptionCalls)
	m.AssertExpectations(t)
}

func TestRun_Limit(t *testing.T) {
	m := new(mockClassifier)
	m.On("ClassifyTitle", mock.Anything, mock.Anything).Return(nil)
	m.On("ClassifyDescription", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cfg := DefaultConfig()
	cfg.Limit = 2
	saver := &recordingSaver{}
	r := New(DefaultStages(m, nil, cfg), saver, cfg, WithSleeper((&pauses{}).sleep))

	records := make([]model.JobRecord, 4)
	for i := range records {
		records[i] = model.JobRecord{Title: "Consultor de Dados", Description: longDescription}
	}
	sum, err := r.Run(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.TitleCalls)
	require.NotEmpty(t, saver.snapshots)
	assert.Len(t, saver.snapshots[len(saver.snapshots)-1], 4, "snapshots always hold every record")
}

func TestRun_CancelledStillSaves(t *testing.T) {
	m := new(mockClassifier)
	saver := new(mockSaver)
	saver.On("Save", mock.Anything).Return(nil).Once()
	r := newReconciler(m, saver, &pauses{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []model.JobRecord{{Title: "Consultor de Dados", Description: longDescription}}
	sum, err := r.Run(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Checkpoints)
	assert.Zero(t, sum.TitleCalls)
	saver.AssertExpectations(t)
}

func TestRun_SaveErrorIsFatal(t *testing.T) {
	m := new(mockClassifier)
	saver := new(mockSaver)
	saver.On("Save", mock.Anything).Return(errors.New("disk full"))
	r := newReconciler(m, saver, &pauses{})

	records := []model.JobRecord{completeRecord("Data Engineer"), completeRecord("Data Engineer")}
	_, err := r.Run(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich: checkpoint")
	saver.AssertNumberOfCalls(t, "Save", 1)
}

func TestAssess(t *testing.T) {
	records := []model.JobRecord{
		completeRecord("Data Engineer"),
		{Title: "Consultor", Description: "curta"},
		{Title: "Consultor de Dados", Description: longDescription},
		{Title: "Data Engineer", Description: longDescription, Role: model.RoleDataEngineer, Seniority: model.SeniorityJunior},
		{Description: longDescription},
	}
	rep := Assess(records, Config{})
	assert.Equal(t, Report{
		Total:            5,
		Unclassifiable:   1,
		Complete:         1,
		NeedsTitle:       2,
		NeedsDescription: 3,
		MissingRole:      2,
		MissingSeniority: 2,
		MissingArrange:   3,
		MissingTech:      3,
	}, rep)
}
