package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Sentry holds identification of the release API
type Sentry struct {
	Org       string
	Project   string
	AuthToken string `masq:"secret"`
	URL       string
	Headers   []string
}

// Flags returns CLI flags for release API identification
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "org",
			Aliases:     []string{"o"},
			Usage:       "Organization slug",
			Destination: &c.Org,
			Sources:     cli.EnvVars("RELMAP_ORG", "SENTRY_ORG"),
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Project slug",
			Destination: &c.Project,
			Sources:     cli.EnvVars("RELMAP_PROJECT", "SENTRY_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "auth-token",
			Usage:       "Auth token of the release API",
			Destination: &c.AuthToken,
			Sources:     cli.EnvVars("RELMAP_AUTH_TOKEN", "SENTRY_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "Base URL of the release API",
			Value:       model.DefaultURL,
			Destination: &c.URL,
			Sources:     cli.EnvVars("RELMAP_URL", "SENTRY_URL"),
		},
		&cli.StringSliceFlag{
			Name:        "header",
			Usage:       "Custom header sent with every request, as 'Name: value'",
			Destination: &c.Headers,
			Sources:     cli.EnvVars("RELMAP_HEADERS"),
		},
	}
}

// Apply copies explicitly set flags into opts
func (c *Sentry) Apply(cmd *cli.Command, opts *model.Options) error {
	if cmd.IsSet("org") {
		opts.Org = c.Org
	}
	if cmd.IsSet("project") {
		opts.Project = c.Project
	}
	if cmd.IsSet("auth-token") {
		opts.AuthToken = c.AuthToken
	}
	if cmd.IsSet("url") {
		opts.URL = c.URL
	}

	if cmd.IsSet("header") {
		headers, err := ParseHeaders(c.Headers)
		if err != nil {
			return err
		}
		if opts.CustomHeaders == nil {
			opts.CustomHeaders = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			opts.CustomHeaders[k] = v
		}
	}

	return nil
}

// ParseHeaders parses 'Name: value' strings
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, goerr.New("invalid header, expected 'Name: value'", goerr.V("header", h))
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
