package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/relmap/pkg/cli/config"
	"github.com/m-mizutani/relmap/pkg/domain/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestFile_Load_Default(t *testing.T) {
	opts, err := (&config.File{}).Load()
	gt.NoError(t, err)
	gt.Equal(t, opts, model.DefaultOptions())
}

func TestFile_Load_TOML(t *testing.T) {
	p := writeFile(t, "relmap.toml", `
org = "my-org"
project = "web"
auth_token = "token"
finalize = false
ext = ["js", "map"]

[custom_headers]
X-Env = "ci"

[[include]]
paths = ["dist"]
url_prefix = "~/static/"
`)

	opts, err := (&config.File{Path: p}).Load()
	gt.NoError(t, err)
	gt.Equal(t, opts.Org, "my-org")
	gt.Equal(t, opts.Project, "web")
	gt.Equal(t, opts.AuthToken, "token")
	gt.False(t, opts.Finalize)
	gt.A(t, opts.Ext).Length(2)
	gt.Equal(t, opts.CustomHeaders["X-Env"], "ci")
	gt.A(t, opts.Include).Length(1)
	gt.Equal(t, opts.Include[0].URLPrefix, "~/static/")

	// untouched keys keep defaults
	gt.Equal(t, opts.URL, model.DefaultURL)
	gt.True(t, opts.Telemetry)
}

func TestFile_Load_YAML(t *testing.T) {
	p := writeFile(t, "relmap.yml", `
org: my-org
project: web
clean_artifacts: true
include:
  - paths: [dist, build]
    ignore: ["*.test.js"]
deploy:
  env: production
`)

	opts, err := (&config.File{Path: p}).Load()
	gt.NoError(t, err)
	gt.Equal(t, opts.Org, "my-org")
	gt.True(t, opts.CleanArtifacts)
	gt.A(t, opts.Include).Length(1)
	gt.A(t, opts.Include[0].Paths).Length(2)
	gt.Equal(t, opts.Deploy.Env, "production")
	gt.True(t, opts.Finalize)
}

func TestFile_Load_EmptyYAML(t *testing.T) {
	opts, err := (&config.File{Path: writeFile(t, "relmap.yaml", "")}).Load()
	gt.NoError(t, err)
	gt.Equal(t, opts, model.DefaultOptions())
}

func TestFile_Load_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.toml") },
		},
		{
			name: "unsupported extension",
			path: func(t *testing.T) string { return writeFile(t, "relmap.json", "{}") },
		},
		{
			name: "unknown TOML key",
			path: func(t *testing.T) string { return writeFile(t, "relmap.toml", `orgs = "x"`) },
		},
		{
			name: "unknown YAML key",
			path: func(t *testing.T) string { return writeFile(t, "relmap.yaml", "orgs: x\n") },
		},
		{
			name: "broken TOML",
			path: func(t *testing.T) string { return writeFile(t, "relmap.toml", `org = `) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&config.File{Path: tt.path(t)}).Load()
			gt.Error(t, err)
		})
	}
}
