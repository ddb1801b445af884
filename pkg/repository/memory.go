package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
)

// ErrNotFound is returned when a release does not exist
var ErrNotFound = goerr.New("not found")

type releaseKey struct {
	org     string
	version string
}

type artifactKey struct {
	org     string
	project string
	version string
}

type memory struct {
	mu        sync.RWMutex
	releases  map[releaseKey]*model.Release
	artifacts map[artifactKey]map[string]*model.Artifact
}

// NewMemory creates an in-memory ReleaseRepository
func NewMemory() interfaces.ReleaseRepository {
	return &memory{
		releases:  make(map[releaseKey]*model.Release),
		artifacts: make(map[artifactKey]map[string]*model.Artifact),
	}
}

// PutRelease stores release unless it already exists. Projects of an existing
// release are merged. The stored release is returned.
func (m *memory) PutRelease(ctx context.Context, org string, release *model.Release) (*model.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := releaseKey{org: org, version: release.Version}
	if existing, ok := m.releases[key]; ok {
		existing.Projects = mergeProjects(existing.Projects, release.Projects)
		return copyRelease(existing), nil
	}

	stored := copyRelease(release)
	m.releases[key] = stored
	return copyRelease(stored), nil
}

func (m *memory) GetRelease(ctx context.Context, org, version string) (*model.Release, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.releases[releaseKey{org: org, version: version}]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "release not found", goerr.V("org", org), goerr.V("version", version))
	}
	return copyRelease(r), nil
}

func (m *memory) UpdateRelease(ctx context.Context, org string, release *model.Release) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := releaseKey{org: org, version: release.Version}
	if _, ok := m.releases[key]; !ok {
		return goerr.Wrap(ErrNotFound, "release not found", goerr.V("org", org), goerr.V("version", release.Version))
	}
	m.releases[key] = copyRelease(release)
	return nil
}

// PutArtifact stores an artifact, replacing one with the same name and dist
func (m *memory) PutArtifact(ctx context.Context, org, project, version string, artifact *model.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := artifactKey{org: org, project: project, version: version}
	files, ok := m.artifacts[key]
	if !ok {
		files = make(map[string]*model.Artifact)
		m.artifacts[key] = files
	}

	copied := *artifact
	files[artifact.Dist+"\x00"+artifact.Name] = &copied
	return nil
}

// ListArtifacts returns artifacts of the release ordered by name
func (m *memory) ListArtifacts(ctx context.Context, org, project, version string) ([]*model.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := m.artifacts[artifactKey{org: org, project: project, version: version}]
	out := make([]*model.Artifact, 0, len(files))
	for _, a := range files {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Dist < out[j].Dist
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// DeleteArtifacts removes all artifacts of the release and returns how many were removed
func (m *memory) DeleteArtifacts(ctx context.Context, org, project, version string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := artifactKey{org: org, project: project, version: version}
	n := len(m.artifacts[key])
	delete(m.artifacts, key)
	return n, nil
}

func copyRelease(r *model.Release) *model.Release {
	copied := *r
	copied.Projects = append([]string(nil), r.Projects...)
	if r.DateReleased != nil {
		t := *r.DateReleased
		copied.DateReleased = &t
	}
	return &copied
}

func mergeProjects(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := append([]string(nil), a...)
	for _, p := range a {
		seen[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
