package sourcemap_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/infra/sourcemap"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		gt.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		gt.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func names(files []*model.ReleaseFile) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

func entriesFor(opts *model.Options, paths ...string) []model.IncludeEntry {
	opts.Include = []model.IncludeEntry{{Paths: paths}}
	return opts.IncludeEntries()
}

func TestScanner_Scan(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.js":                   "console.log(1)",
		"main.js.map":               `{"version":3}`,
		"static/chunk.js":           "chunk",
		"static/style.css":          "body{}",
		"README.md":                 "readme",
		"node_modules/lib/index.js": "lib",
	})

	t.Run("default extensions and ignore", func(t *testing.T) {
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(model.DefaultOptions(), root))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/main.js", "~/main.js.map", "~/static/chunk.js"})
	})

	t.Run("content and absolute path are kept", func(t *testing.T) {
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(model.DefaultOptions(), root))
		gt.NoError(t, err)
		for _, f := range files {
			gt.True(t, filepath.IsAbs(f.Path))
			if f.Name == "~/main.js" {
				gt.Equal(t, string(f.Content), "console.log(1)")
			}
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		opts := model.DefaultOptions()
		opts.Ext = []string{"css", ".md"}
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(opts, root))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/README.md", "~/static/style.css"})
	})

	t.Run("explicit ignore replaces default", func(t *testing.T) {
		opts := model.DefaultOptions()
		opts.Ignore = []string{"static", "*.map"}
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(opts, root))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/main.js", "~/node_modules/lib/index.js"})
	})

	t.Run("ignore file", func(t *testing.T) {
		ignoreFile := filepath.Join(t.TempDir(), ".gitignore")
		gt.NoError(t, os.WriteFile(ignoreFile, []byte("# comment\nnode_modules/\nstatic\n"), 0644))

		opts := model.DefaultOptions()
		opts.IgnoreFile = ignoreFile
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(opts, root))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/main.js", "~/main.js.map"})
	})

	t.Run("url prefix and suffix", func(t *testing.T) {
		opts := model.DefaultOptions()
		opts.URLPrefix = "~/assets"
		opts.URLSuffix = "?v=2"
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(opts, filepath.Join(root, "static")))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/assets/chunk.js?v=2"})
	})

	t.Run("overlapping paths are deduplicated", func(t *testing.T) {
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(model.DefaultOptions(), root, filepath.Join(root, "static")))
		gt.NoError(t, err)
		gt.A(t, files).Length(3)
	})

	t.Run("single file path", func(t *testing.T) {
		files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(model.DefaultOptions(), filepath.Join(root, "main.js")))
		gt.NoError(t, err)
		gt.Equal(t, names(files), []string{"~/main.js"})
	})

	t.Run("missing path fails", func(t *testing.T) {
		_, err := sourcemap.NewScanner().Scan(ctx, entriesFor(model.DefaultOptions(), filepath.Join(root, "nope")))
		gt.Error(t, err)
	})
}

func TestArtifactName(t *testing.T) {
	gt.Equal(t, sourcemap.ArtifactName("~/", "a/b.js", ""), "~/a/b.js")
	gt.Equal(t, sourcemap.ArtifactName("~/static", "b.js", ""), "~/static/b.js")
	gt.Equal(t, sourcemap.ArtifactName("", "b.js", "?x"), "b.js?x")
}

func TestScanner_Write(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.js": "old"})

	store := sourcemap.NewScanner()
	files, err := store.Scan(ctx, entriesFor(model.DefaultOptions(), root))
	gt.NoError(t, err)
	gt.A(t, files).Length(1)

	files[0].Content = []byte("new")
	gt.NoError(t, store.Write(ctx, files[0]))

	content, err := os.ReadFile(filepath.Join(root, "main.js"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "new")

	gt.Error(t, store.Write(ctx, &model.ReleaseFile{Path: filepath.Join(root, "missing.js")}))
}

func TestScanner_Write_KeepsModeAndLeavesNoTempFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	target := filepath.Join(root, "main.js")
	gt.NoError(t, os.WriteFile(target, []byte("old"), 0o640))

	store := sourcemap.NewScanner()
	gt.NoError(t, store.Write(ctx, &model.ReleaseFile{Name: "~/main.js", Path: target, Content: []byte("new content")}))

	info, err := os.Stat(target)
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0o640))

	entries, err := os.ReadDir(root)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0].Name(), "main.js")

	content, err := os.ReadFile(target)
	gt.NoError(t, err)
	gt.Equal(t, string(content), "new content")
}

func TestScanner_Scan_GitignoreRules(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/b/x.map": `{"version":3}`,
		"a/b/x.js":  "x",
		"keep.js":   "keep",
		"drop.js":   "drop",
	})

	tests := []struct {
		name  string
		rules string
		want  []string
	}{
		{
			name:  "double star and negation",
			rules: "**/*.map\n*.js\n!keep.js\n",
			want:  []string{"~/keep.js"},
		},
		{
			name:  "double star directory",
			rules: "a/**\n",
			want:  []string{"~/drop.js", "~/keep.js"},
		},
		{
			name:  "negation re-includes a file ignored earlier",
			rules: "# drop everything in a\na/\n*.js\n!drop.js\n",
			want:  []string{"~/drop.js"},
		},
		{
			name:  "anchored pattern only applies at the root",
			rules: "/x.js\n*.map\n",
			want:  []string{"~/a/b/x.js", "~/drop.js", "~/keep.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ignoreFile := filepath.Join(t.TempDir(), ".gitignore")
			gt.NoError(t, os.WriteFile(ignoreFile, []byte(tt.rules), 0o644))

			opts := model.DefaultOptions()
			opts.IgnoreFile = ignoreFile
			files, err := sourcemap.NewScanner().Scan(ctx, entriesFor(opts, root))
			gt.NoError(t, err)
			gt.Equal(t, names(files), tt.want)
		})
	}
}

func TestScanner_Scan_MissingIgnoreFile(t *testing.T) {
	opts := model.DefaultOptions()
	opts.IgnoreFile = filepath.Join(t.TempDir(), "none")
	_, err := sourcemap.NewScanner().Scan(context.Background(), entriesFor(opts, t.TempDir()))
	gt.Error(t, err)
}
