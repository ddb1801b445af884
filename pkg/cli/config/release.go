package config

import (
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Release holds per-run release options
type Release struct {
	Release        string
	Dist           string
	Entries        []string
	Finalize       bool
	CleanArtifacts bool
	InjectRelease  bool
	Validate       bool
	DryRun         bool
	Debug          bool
	Silent         bool
}

// Flags returns CLI flags for the release run
func (c *Release) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "release",
			Aliases:     []string{"r"},
			Usage:       "Release identifier (proposed from CI environment or git when empty)",
			Destination: &c.Release,
			Sources:     cli.EnvVars("RELMAP_RELEASE", "SENTRY_RELEASE"),
		},
		&cli.StringFlag{
			Name:        "dist",
			Usage:       "Distribution sent with every uploaded file",
			Destination: &c.Dist,
			Sources:     cli.EnvVars("RELMAP_DIST", "SENTRY_DIST"),
		},
		&cli.StringSliceFlag{
			Name:        "entry",
			Usage:       "Entry point receiving the release injection; '/re/' is a regular expression",
			Destination: &c.Entries,
			Sources:     cli.EnvVars("RELMAP_ENTRIES"),
		},
		&cli.BoolFlag{
			Name:        "finalize",
			Usage:       "Finalize the release after upload",
			Value:       true,
			Destination: &c.Finalize,
			Sources:     cli.EnvVars("RELMAP_FINALIZE"),
		},
		&cli.BoolFlag{
			Name:        "clean-artifacts",
			Usage:       "Delete existing artifacts of the release before upload",
			Destination: &c.CleanArtifacts,
			Sources:     cli.EnvVars("RELMAP_CLEAN_ARTIFACTS"),
		},
		&cli.BoolFlag{
			Name:        "inject-release",
			Usage:       "Prepend the release snippet to bundled JavaScript files",
			Destination: &c.InjectRelease,
			Sources:     cli.EnvVars("RELMAP_INJECT_RELEASE"),
		},
		&cli.BoolFlag{
			Name:        "validate",
			Usage:       "Validate source maps before upload",
			Destination: &c.Validate,
			Sources:     cli.EnvVars("RELMAP_VALIDATE"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Log release API calls instead of sending them",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("RELMAP_DRY_RUN"),
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Enable debug logging",
			Destination: &c.Debug,
			Sources:     cli.EnvVars("RELMAP_DEBUG"),
		},
		&cli.BoolFlag{
			Name:        "silent",
			Usage:       "Only log errors",
			Destination: &c.Silent,
			Sources:     cli.EnvVars("RELMAP_SILENT"),
		},
	}
}

// Apply copies explicitly set flags into opts
func (c *Release) Apply(cmd *cli.Command, opts *model.Options) {
	if cmd.IsSet("release") {
		opts.Release = c.Release
	}
	if cmd.IsSet("dist") {
		opts.Dist = c.Dist
	}
	if cmd.IsSet("entry") {
		opts.Entries = c.Entries
	}
	if cmd.IsSet("finalize") {
		opts.Finalize = c.Finalize
	}
	if cmd.IsSet("clean-artifacts") {
		opts.CleanArtifacts = c.CleanArtifacts
	}
	if cmd.IsSet("inject-release") {
		opts.InjectRelease = c.InjectRelease
	}
	if cmd.IsSet("validate") {
		opts.Validate = c.Validate
	}
	if cmd.IsSet("dry-run") {
		opts.DryRun = c.DryRun
	}
	if cmd.IsSet("debug") {
		opts.Debug = c.Debug
	}
	if cmd.IsSet("silent") {
		opts.Silent = c.Silent
	}
}
