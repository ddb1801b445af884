package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
	"github.com/m-mizutani/relmap/pkg/utils/async"
)

// Span operation names of the release steps
const (
	OpInjectRelease    = "inject-release"
	OpCreateNewRelease = "create-new-release"
	OpCleanArtifacts   = "clean-artifacts"
	OpUploadSourceMaps = "upload-sourceMaps"
	OpSetCommits       = "set-commits"
	OpFinalizeRelease  = "finalize-release"
	OpAddDeploy        = "add-deploy"
)

// injectionMarker starts every injected release snippet
const injectionMarker = "var _global="

// injectableExtensions are the bundle files that may receive the release snippet
var injectableExtensions = []string{"js", "mjs", "cjs"}

type releaseUseCase struct {
	client interfaces.ReleaseClient
	store  interfaces.ArtifactStore
	now    func() time.Time
}

// ReleaseOption is a functional option for the release use case
type ReleaseOption func(*releaseUseCase)

// WithClock replaces the clock used for the released timestamp
func WithClock(now func() time.Time) ReleaseOption {
	return func(uc *releaseUseCase) {
		uc.now = now
	}
}

// NewRelease creates a new instance of ReleaseUseCase
func NewRelease(client interfaces.ReleaseClient, store interfaces.ArtifactStore, opts ...ReleaseOption) interfaces.ReleaseUseCase {
	uc := &releaseUseCase{
		client: client,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateNewRelease creates the release on the remote service
func (uc *releaseUseCase) CreateNewRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpCreateNewRelease)
	defer model.FinishSpan(span)
	logger := bctx.Log()

	if missing := opts.MissingIdentification(); missing != "" {
		logger.Warn(fmt.Sprintf("Missing %q option. Will not create release.", missing), "option", missing)
		return types.StatusNothingToDo, nil
	}

	if err := uc.client.CreateRelease(ctx, opts.Target(release)); err != nil {
		return types.StatusNothingToDo, err
	}

	logger.Info("Successfully created release.", "release", release)
	return types.StatusNothingToDo, nil
}

// UploadSourceMaps uploads every artifact found under the include paths. All
// uploads run concurrently; any failed upload fails the step.
func (uc *releaseUseCase) UploadSourceMaps(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpUploadSourceMaps)
	defer model.FinishSpan(span)
	logger := bctx.Log()

	if missing := opts.MissingIdentification(); missing != "" {
		logger.Warn(fmt.Sprintf("Missing %q option. Will not upload source maps.", missing), "option", missing)
		return types.StatusNothingToDo, nil
	}

	logger.Info("Uploading Sourcemaps.")

	files, err := uc.store.Scan(ctx, opts.IncludeEntries())
	if err != nil {
		return types.StatusNothingToDo, goerr.Wrap(err, "failed to collect files to upload")
	}

	logger.Info(fmt.Sprintf("Found %d files to upload.", len(files)), "count", len(files))

	if opts.Validate {
		for _, file := range files {
			if err := uc.store.Validate(file); err != nil {
				return types.StatusNothingToDo, goerr.Wrap(err, "source map validation failed, upload cancelled")
			}
		}
	}

	target := opts.Target(release)
	err = async.Gather(ctx, len(files), func(ctx context.Context, i int) error {
		return uc.client.UploadReleaseFile(ctx, target, files[i])
	})
	if err != nil {
		return types.StatusNothingToDo, err
	}

	logger.Info("Successfully uploaded sourcemaps.", "count", len(files))
	return types.StatusDone, nil
}

// FinalizeRelease marks the release as released when the finalize option is set
func (uc *releaseUseCase) FinalizeRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpFinalizeRelease)
	defer model.FinishSpan(span)
	logger := bctx.Log()

	if !opts.Finalize {
		return types.StatusNothingToDo, nil
	}

	if missing := opts.MissingIdentification(); missing != "" {
		logger.Warn("Missing required option. Will not finalize release.", "option", missing)
		return types.StatusNothingToDo, nil
	}

	if err := uc.client.FinalizeRelease(ctx, opts.Target(release), uc.now()); err != nil {
		return types.StatusNothingToDo, err
	}

	logger.Info("Successfully finalized release.", "release", release)
	return types.StatusNothingToDo, nil
}

// CleanArtifacts deletes all artifacts of the release when the cleanArtifacts option is set
func (uc *releaseUseCase) CleanArtifacts(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpCleanArtifacts)
	defer model.FinishSpan(span)
	logger := bctx.Log()

	if !opts.CleanArtifacts {
		return types.StatusNothingToDo, nil
	}

	if missing := opts.MissingIdentification(); missing != "" {
		logger.Warn(fmt.Sprintf("Missing %q option. Will not clean existing artifacts.", missing), "option", missing)
		return types.StatusNothingToDo, nil
	}

	if err := uc.client.DeleteAllReleaseArtifacts(ctx, opts.Target(release)); err != nil {
		return types.StatusNothingToDo, err
	}

	logger.Info("Successfully cleaned previous artifacts.", "release", release)
	return types.StatusNothingToDo, nil
}

// InjectRelease prepends the release snippet to the selected bundle entry
// points. A previously injected snippet is replaced.
func (uc *releaseUseCase) InjectRelease(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpInjectRelease)
	defer model.FinishSpan(span)
	logger := bctx.Log()

	if !opts.InjectRelease {
		return types.StatusNothingToDo, nil
	}

	if release == "" {
		logger.Warn("Missing release identifier. Will not inject release.")
		return types.StatusNothingToDo, nil
	}

	filter, err := model.NewEntryFilter(opts.Entries)
	if err != nil {
		return types.StatusNothingToDo, err
	}

	entries := opts.IncludeEntries()
	for i := range entries {
		entries[i].Ext = injectableExtensions
	}

	files, err := uc.store.Scan(ctx, entries)
	if err != nil {
		return types.StatusNothingToDo, goerr.Wrap(err, "failed to collect entry points")
	}

	snippet := releaseSnippet(release)
	var injected int
	for _, file := range files {
		if !filter.Match(file.Path) {
			continue
		}

		file.Content = append(append([]byte{}, snippet...), stripSnippet(file.Content)...)
		injected++

		if opts.DryRun {
			logger.Info("[dry-run] inject release", "path", file.Path, "release", release)
			continue
		}
		if err := uc.store.Write(ctx, file); err != nil {
			return types.StatusNothingToDo, err
		}
	}

	logger.Info(fmt.Sprintf("Injected release into %d entry points.", injected), "count", injected)
	return types.StatusNothingToDo, nil
}

// SetCommits is a placeholder for commit association
func (uc *releaseUseCase) SetCommits(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpSetCommits)
	defer model.FinishSpan(span)

	return types.StatusNoop, nil
}

// AddDeploy is a placeholder for deployment tracking
func (uc *releaseUseCase) AddDeploy(ctx context.Context, release string, opts *model.Options, bctx *model.BuildContext) (types.StepStatus, error) {
	span := bctx.StartSpan(OpAddDeploy)
	defer model.FinishSpan(span)

	return types.StatusNoop, nil
}

func releaseSnippet(release string) []byte {
	id, _ := json.Marshal(release)
	return []byte(injectionMarker +
		`typeof window!=="undefined"?window:typeof global!=="undefined"?global:typeof self!=="undefined"?self:{};` +
		`_global.SENTRY_RELEASE={id:` + string(id) + "};\n")
}

// stripSnippet removes a snippet injected by a previous run
func stripSnippet(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte(injectionMarker)) {
		return content
	}
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		return content[i+1:]
	}
	return nil
}
