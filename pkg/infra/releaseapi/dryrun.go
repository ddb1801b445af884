package releaseapi

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
)

type dryRunClient struct{}

// NewDryRunClient creates a client that only logs the calls it would make
func NewDryRunClient() interfaces.ReleaseClient {
	return &dryRunClient{}
}

func (c *dryRunClient) CreateRelease(ctx context.Context, target *model.ReleaseTarget) error {
	ctxlog.From(ctx).Info("[dry-run] create release",
		"org", target.Org,
		"project", target.Project,
		"release", target.Release,
	)
	return nil
}

func (c *dryRunClient) UploadReleaseFile(ctx context.Context, target *model.ReleaseTarget, file *model.ReleaseFile) error {
	ctxlog.From(ctx).Info("[dry-run] upload release file",
		"release", target.Release,
		"name", file.Name,
		"size", len(file.Content),
	)
	return nil
}

func (c *dryRunClient) FinalizeRelease(ctx context.Context, target *model.ReleaseTarget, releasedAt time.Time) error {
	ctxlog.From(ctx).Info("[dry-run] finalize release",
		"release", target.Release,
		"released_at", releasedAt,
	)
	return nil
}

func (c *dryRunClient) DeleteAllReleaseArtifacts(ctx context.Context, target *model.ReleaseTarget) error {
	ctxlog.From(ctx).Info("[dry-run] delete release artifacts", "release", target.Release)
	return nil
}
