package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/cli/config"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
	"github.com/m-mizutani/relmap/pkg/infra/releaseapi"
	"github.com/m-mizutani/relmap/pkg/infra/sourcemap"
	"github.com/m-mizutani/relmap/pkg/infra/telemetry"
	"github.com/m-mizutani/relmap/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdRelease(loggerCfg *config.Logger) *cli.Command {
	var (
		fileCfg      config.File
		sentryCfg    config.Sentry
		releaseCfg   config.Release
		mapsCfg      config.SourceMaps
		telemetryCfg config.Telemetry
	)

	var flags []cli.Flag
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, releaseCfg.Flags()...)
	flags = append(flags, mapsCfg.Flags()...)
	flags = append(flags, telemetryCfg.Flags()...)

	return &cli.Command{
		Name:    "release",
		Aliases: []string{"upload"},
		Usage:   "Create a release, upload its artifacts and finalize it",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			opts, err := fileCfg.Load()
			if err != nil {
				return err
			}
			if err := sentryCfg.Apply(c, opts); err != nil {
				return err
			}
			releaseCfg.Apply(c, opts)
			mapsCfg.Apply(c, opts)
			telemetryCfg.Apply(c, opts)

			if opts.Debug || opts.Silent {
				loggerCfg.Override(opts.Debug, opts.Silent)
				logger, err := loggerCfg.Configure()
				if err != nil {
					return err
				}
				ctx = ctxlog.With(ctx, logger)
			}

			if err := opts.Check(); err != nil {
				return err
			}

			if opts.Release == "" {
				version, err := usecase.NewVersionProposer().Propose(ctx)
				if err != nil {
					return goerr.Wrap(err, "release is not given and could not be proposed")
				}
				opts.Release = version
			}

			results, err := runRelease(ctx, opts, telemetryCfg.HubConfig(opts.Debug))
			printReport(c.Root().Writer, opts.Release, results)
			return err
		},
	}
}

// runRelease wires the release pipeline for opts and runs it once
func runRelease(ctx context.Context, opts *model.Options, hubCfg telemetry.Config) ([]*model.StepResult, error) {
	logger := ctxlog.From(ctx)

	// With telemetry off no hub exists, so neither spans nor captured errors
	// leave the process.
	var hub *sentry.Hub
	var parent model.Span
	if opts.Telemetry {
		var err error
		hub, err = telemetry.NewHub(hubCfg)
		if err != nil {
			return nil, err
		}
		defer telemetry.Flush(hub)

		var root *telemetry.Span
		ctx, root = telemetry.StartTransaction(ctx, hub, "relmap release")
		defer root.Finish()
		parent = root
	}

	bctx := &model.BuildContext{
		Hub:        hub,
		ParentSpan: parent,
		Logger:     logger,
	}

	var client interfaces.ReleaseClient
	if opts.DryRun {
		client = releaseapi.NewDryRunClient()
	} else {
		var clientOpts []releaseapi.Option
		if hub != nil {
			clientOpts = append(clientOpts, releaseapi.WithHub(hub))
		}
		client = releaseapi.NewClient(clientOpts...)
	}

	logger.Info("Starting release",
		slog.String("release", opts.Release),
		slog.String("org", opts.Org),
		slog.String("project", opts.Project),
		slog.Bool("dry_run", opts.DryRun),
	)

	pipeline := usecase.NewPipeline(usecase.NewRelease(client, sourcemap.NewScanner()))
	return pipeline.Run(ctx, opts.Release, opts, bctx)
}

func printReport(w io.Writer, release string, results []*model.StepResult) {
	if len(results) == 0 {
		return
	}

	bold := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	skipped := color.New(color.FgYellow)
	failed := color.New(color.FgRed)

	_, _ = bold.Fprintf(w, "Release %s\n", release)
	for _, r := range results {
		line := fmt.Sprintf("  %-20s %-20s %s", r.Step, r.Status, r.Duration.Round(time.Millisecond))
		switch {
		case r.Err != nil:
			_, _ = failed.Fprintf(w, "%s  %v\n", line, r.Err)
		case r.Status == types.StatusDone:
			_, _ = ok.Fprintln(w, line)
		default:
			_, _ = skipped.Fprintln(w, line)
		}
	}
}
