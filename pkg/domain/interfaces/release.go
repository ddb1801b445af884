package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/relmap/pkg/domain/model"
)

// ReleaseClient defines calls to the remote release API
type ReleaseClient interface {
	// CreateRelease creates a release in the project
	CreateRelease(ctx context.Context, target *model.ReleaseTarget) error

	// UploadReleaseFile uploads a single artifact to the release
	UploadReleaseFile(ctx context.Context, target *model.ReleaseTarget, file *model.ReleaseFile) error

	// FinalizeRelease sets the released timestamp of the release
	FinalizeRelease(ctx context.Context, target *model.ReleaseTarget, releasedAt time.Time) error

	// DeleteAllReleaseArtifacts removes every artifact of the release
	DeleteAllReleaseArtifacts(ctx context.Context, target *model.ReleaseTarget) error
}

// ArtifactStore discovers and rewrites artifacts on the local filesystem
type ArtifactStore interface {
	// Scan returns files under the entries' paths matching their extension filters
	Scan(ctx context.Context, entries []model.IncludeEntry) ([]*model.ReleaseFile, error)

	// Validate checks an artifact before upload
	Validate(file *model.ReleaseFile) error

	// Write replaces the content of the artifact on disk
	Write(ctx context.Context, file *model.ReleaseFile) error
}

// ReleaseRepository stores releases and artifacts for the release API emulator
type ReleaseRepository interface {
	PutRelease(ctx context.Context, org string, release *model.Release) (*model.Release, error)
	GetRelease(ctx context.Context, org, version string) (*model.Release, error)
	UpdateRelease(ctx context.Context, org string, release *model.Release) error
	PutArtifact(ctx context.Context, org, project, version string, artifact *model.Artifact) error
	ListArtifacts(ctx context.Context, org, project, version string) ([]*model.Artifact, error)
	DeleteArtifacts(ctx context.Context, org, project, version string) (int, error)
}
