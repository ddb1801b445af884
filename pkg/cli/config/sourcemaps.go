package config

import (
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// SourceMaps holds artifact collection options
type SourceMaps struct {
	Include    []string
	Ignore     []string
	IgnoreFile string
	Ext        []string
	URLPrefix  string
	URLSuffix  string
}

// Flags returns CLI flags for artifact collection
func (c *SourceMaps) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "include",
			Aliases:     []string{"i"},
			Usage:       "File or directory to upload",
			Destination: &c.Include,
			Sources:     cli.EnvVars("RELMAP_INCLUDE"),
		},
		&cli.StringSliceFlag{
			Name:        "ignore",
			Usage:       "Glob pattern excluded from upload (default: node_modules)",
			Destination: &c.Ignore,
			Sources:     cli.EnvVars("RELMAP_IGNORE"),
		},
		&cli.StringFlag{
			Name:        "ignore-file",
			Usage:       "File with gitignore-style patterns excluded from upload",
			Destination: &c.IgnoreFile,
			Sources:     cli.EnvVars("RELMAP_IGNORE_FILE"),
		},
		&cli.StringSliceFlag{
			Name:        "ext",
			Usage:       "File extension to upload (default: js, map, jsbundle, bundle)",
			Destination: &c.Ext,
			Sources:     cli.EnvVars("RELMAP_EXT"),
		},
		&cli.StringFlag{
			Name:        "url-prefix",
			Usage:       "Prefix of uploaded artifact names",
			Value:       model.DefaultURLPrefix,
			Destination: &c.URLPrefix,
			Sources:     cli.EnvVars("RELMAP_URL_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "url-suffix",
			Usage:       "Suffix of uploaded artifact names",
			Destination: &c.URLSuffix,
			Sources:     cli.EnvVars("RELMAP_URL_SUFFIX"),
		},
	}
}

// Apply copies explicitly set flags into opts. Included paths from flags
// form one extra include entry that uses the top-level defaults.
func (c *SourceMaps) Apply(cmd *cli.Command, opts *model.Options) {
	if cmd.IsSet("include") && len(c.Include) > 0 {
		opts.Include = append(opts.Include, model.IncludeEntry{Paths: c.Include})
	}
	if cmd.IsSet("ignore") {
		opts.Ignore = c.Ignore
	}
	if cmd.IsSet("ignore-file") {
		opts.IgnoreFile = c.IgnoreFile
	}
	if cmd.IsSet("ext") {
		opts.Ext = c.Ext
	}
	if cmd.IsSet("url-prefix") {
		opts.URLPrefix = c.URLPrefix
	}
	if cmd.IsSet("url-suffix") {
		opts.URLSuffix = c.URLSuffix
	}
}
