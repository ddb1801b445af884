package config

import (
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/infra/telemetry"
	"github.com/urfave/cli/v3"
)

// Telemetry holds telemetry settings
type Telemetry struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// Flags returns CLI flags for telemetry
func (c *Telemetry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "telemetry",
			Usage:       "Trace the release run",
			Value:       true,
			Destination: &c.Enabled,
			Sources:     cli.EnvVars("RELMAP_TELEMETRY"),
		},
		&cli.StringFlag{
			Name:        "telemetry-dsn",
			Usage:       "DSN receiving traces and errors of relmap itself (empty drops them)",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("RELMAP_TELEMETRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "telemetry-env",
			Usage:       "Environment tag of telemetry events",
			Value:       "production",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("RELMAP_TELEMETRY_ENV"),
		},
		&cli.FloatFlag{
			Name:        "telemetry-sample-rate",
			Usage:       "Trace sample rate between 0 and 1",
			Value:       1.0,
			Destination: &c.SampleRate,
			Sources:     cli.EnvVars("RELMAP_TELEMETRY_SAMPLE_RATE"),
		},
	}
}

// Apply copies explicitly set flags into opts
func (c *Telemetry) Apply(cmd *cli.Command, opts *model.Options) {
	if cmd.IsSet("telemetry") {
		opts.Telemetry = c.Enabled
	}
}

// HubConfig returns settings for telemetry.NewHub
func (c *Telemetry) HubConfig(debug bool) telemetry.Config {
	return telemetry.Config{
		DSN:         c.DSN,
		Environment: c.Environment,
		SampleRate:  c.SampleRate,
		Debug:       debug,
	}
}
