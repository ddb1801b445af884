package interfaces

import (
	"context"

	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
)

// ReleaseUseCase defines the release lifecycle steps. Every step returns a
// status and a nil error when required options are missing.
type ReleaseUseCase interface {
	// CreateNewRelease creates the release on the remote service
	CreateNewRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// UploadSourceMaps uploads every artifact found under the include paths
	UploadSourceMaps(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// FinalizeRelease marks the release as released
	FinalizeRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// CleanArtifacts deletes all artifacts of the release
	CleanArtifacts(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// InjectRelease writes the release identifier into bundle entry points
	InjectRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// SetCommits associates commits with the release
	SetCommits(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

	// AddDeploy records a deployment of the release
	AddDeploy(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)
}
