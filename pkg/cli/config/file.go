package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// File holds the path of an options file
type File struct {
	Path string
}

// Flags returns CLI flags for the options file
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Options file (.toml, .yaml or .yml)",
			Destination: &c.Path,
			Sources:     cli.EnvVars("RELMAP_CONFIG"),
		},
	}
}

// Load returns default options overlaid with the options file. Keys absent
// from the file keep their defaults.
func (c *File) Load() (*model.Options, error) {
	opts := model.DefaultOptions()
	if c.Path == "" {
		return opts, nil
	}

	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read options file", goerr.V("path", c.Path))
	}

	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(opts); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML options file", goerr.V("path", c.Path))
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(err, "failed to parse YAML options file", goerr.V("path", c.Path))
		}
	default:
		return nil, goerr.New("unsupported options file format", goerr.V("path", c.Path))
	}

	return opts, nil
}
