package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
)

type stepFunc func(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error)

// Pipeline runs the release steps in order and applies the error policy
type Pipeline struct {
	releaseUC interfaces.ReleaseUseCase
}

// NewPipeline creates a new release pipeline
func NewPipeline(releaseUC interfaces.ReleaseUseCase) *Pipeline {
	return &Pipeline{
		releaseUC: releaseUC,
	}
}

// Run executes inject, create, clean, upload, set commits, finalize and
// deploy. The first failing step stops the run; its error is reported to the
// telemetry hub and then handed to opts.ErrorHandler. Without a handler the
// error is returned.
func (p *Pipeline) Run(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) ([]*model.StepResult, error) {
	logger := bctx.Log()

	steps := []struct {
		name string
		run  stepFunc
	}{
		{OpInjectRelease, p.releaseUC.InjectRelease},
		{OpCreateNewRelease, p.releaseUC.CreateNewRelease},
		{OpCleanArtifacts, p.releaseUC.CleanArtifacts},
		{OpUploadSourceMaps, p.releaseUC.UploadSourceMaps},
		{OpSetCommits, p.releaseUC.SetCommits},
		{OpFinalizeRelease, p.releaseUC.FinalizeRelease},
		{OpAddDeploy, p.releaseUC.AddDeploy},
	}

	results := make([]*model.StepResult, 0, len(steps))
	for _, step := range steps {
		start := time.Now()
		status, err := step.run(ctx, release, opts, bctx)
		results = append(results, &model.StepResult{
			Step:     step.name,
			Status:   status,
			Err:      err,
			Duration: time.Since(start),
		})

		if err != nil {
			logger.Error("Release step failed", "step", step.name, "release", release, "error", err)
			bctx.CaptureError(err)

			if opts.ErrorHandler == nil {
				return results, err
			}
			return results, opts.ErrorHandler(err)
		}

		logger.Debug("Release step finished", "step", step.name, "status", status)
	}

	return results, nil
}
