package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/model"
)

type mockClassifier struct{ mock.Mock }

func (m *mockClassifier) ClassifyTitle(ctx context.Context, title string) *classifier.TitleResult {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*classifier.TitleResult)
}

func (m *mockClassifier) ClassifyDescription(ctx context.Context, title, description string) *classifier.DescriptionResult {
	args := m.Called(ctx, title, description)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*classifier.DescriptionResult)
}

type mockSaver struct{ mock.Mock }

func (m *mockSaver) Save(records []model.JobRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

// recordingSaver keeps a deep copy of every snapshot.
type recordingSaver struct {
	mu        sync.Mutex
	snapshots [][]model.JobRecord
}

func (s *recordingSaver) Save(records []model.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.JobRecord, len(records))
	for i, r := range records {
		r.TechStack = model.NewLabelSet(r.TechStack.Sorted()...)
		r.CloudTools = model.NewLabelSet(r.CloudTools.Sorted()...)
		r.SoftSkills = model.NewLabelSet(r.SoftSkills.Sorted()...)
		r.Languages = model.NewLabelSet(r.Languages.Sorted()...)
		cp[i] = r
	}
	s.snapshots = append(s.snapshots, cp)
	return nil
}

// pauses records requested pacing delays instead of sleeping.
type pauses struct {
	mu sync.Mutex
	d  []time.Duration
}

func (p *pauses) sleep(_ context.Context, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.d = append(p.d, d)
	return nil
}
