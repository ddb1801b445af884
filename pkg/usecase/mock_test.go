package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/relmap/pkg/domain/model"
)

// MockReleaseClient is a mock implementation of ReleaseClient
type MockReleaseClient struct {
	mu sync.Mutex

	createReleaseFunc     func(ctx context.Context, target *model.ReleaseTarget) error
	uploadReleaseFileFunc func(ctx context.Context, target *model.ReleaseTarget, file *model.ReleaseFile) error
	finalizeReleaseFunc   func(ctx context.Context, target *model.ReleaseTarget, releasedAt time.Time) error
	deleteArtifactsFunc   func(ctx context.Context, target *model.ReleaseTarget) error

	createCalls   []*model.ReleaseTarget
	uploadCalls   []*model.ReleaseFile
	finalizeCalls []time.Time
	deleteCalls   []*model.ReleaseTarget
}

func (m *MockReleaseClient) CreateRelease(ctx context.Context, target *model.ReleaseTarget) error {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, target)
	m.mu.Unlock()
	if m.createReleaseFunc != nil {
		return m.createReleaseFunc(ctx, target)
	}
	return nil
}

func (m *MockReleaseClient) UploadReleaseFile(ctx context.Context, target *model.ReleaseTarget, file *model.ReleaseFile) error {
	m.mu.Lock()
	m.uploadCalls = append(m.uploadCalls, file)
	m.mu.Unlock()
	if m.uploadReleaseFileFunc != nil {
		return m.uploadReleaseFileFunc(ctx, target, file)
	}
	return nil
}

func (m *MockReleaseClient) FinalizeRelease(ctx context.Context, target *model.ReleaseTarget, releasedAt time.Time) error {
	m.mu.Lock()
	m.finalizeCalls = append(m.finalizeCalls, releasedAt)
	m.mu.Unlock()
	if m.finalizeReleaseFunc != nil {
		return m.finalizeReleaseFunc(ctx, target, releasedAt)
	}
	return nil
}

func (m *MockReleaseClient) DeleteAllReleaseArtifacts(ctx context.Context, target *model.ReleaseTarget) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, target)
	m.mu.Unlock()
	if m.deleteArtifactsFunc != nil {
		return m.deleteArtifactsFunc(ctx, target)
	}
	return nil
}

func (m *MockReleaseClient) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.createCalls) + len(m.uploadCalls) + len(m.finalizeCalls) + len(m.deleteCalls)
}

// MockArtifactStore is a mock implementation of ArtifactStore
type MockArtifactStore struct {
	files     []*model.ReleaseFile
	scanErr   error
	invalid   map[string]bool
	scanCalls [][]model.IncludeEntry
	written   []*model.ReleaseFile
}

func (m *MockArtifactStore) Scan(ctx context.Context, entries []model.IncludeEntry) ([]*model.ReleaseFile, error) {
	m.scanCalls = append(m.scanCalls, entries)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	out := make([]*model.ReleaseFile, len(m.files))
	for i, f := range m.files {
		copied := *f
		out[i] = &copied
	}
	return out, nil
}

func (m *MockArtifactStore) Validate(file *model.ReleaseFile) error {
	if m.invalid[file.Name] {
		return errors.New("invalid source map")
	}
	return nil
}

func (m *MockArtifactStore) Write(ctx context.Context, file *model.ReleaseFile) error {
	m.written = append(m.written, file)
	return nil
}

// MockSpan records children and how many times each span was finished
type MockSpan struct {
	mu       sync.Mutex
	op       string
	finished int
	children []*MockSpan
}

func (s *MockSpan) StartChild(operation string) model.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	child := &MockSpan{op: operation}
	s.children = append(s.children, child)
	return child
}

func (s *MockSpan) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
}

func (s *MockSpan) finishCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func newBuildContext() (*model.BuildContext, *MockSpan, *bytes.Buffer) {
	var buf bytes.Buffer
	parent := &MockSpan{op: "root"}
	return &model.BuildContext{
		ParentSpan: parent,
		Logger:     slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}, parent, &buf
}

func fullOptions() *model.Options {
	opts := model.DefaultOptions()
	opts.Org = "my-org"
	opts.Project = "my-project"
	opts.AuthToken = "token"
	opts.URL = "https://errors.example.com/"
	opts.Include = []model.IncludeEntry{{Paths: []string{"dist"}}}
	return opts
}
