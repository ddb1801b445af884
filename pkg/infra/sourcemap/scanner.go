package sourcemap

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	ignore "github.com/sabhiram/go-gitignore"
)

type scanner struct{}

// NewScanner creates an ArtifactStore walking the local filesystem
func NewScanner() interfaces.ArtifactStore {
	return &scanner{}
}

// Validate checks source maps; other files are accepted as is
func (s *scanner) Validate(file *model.ReleaseFile) error {
	return Validate(file)
}

// Write replaces the file content keeping its permissions. The content goes
// to a temporary file in the same directory first and is renamed over the
// original, so an interrupted write leaves the original intact.
func (s *scanner) Write(ctx context.Context, file *model.ReleaseFile) error {
	info, err := os.Stat(file.Path)
	if err != nil {
		return goerr.Wrap(err, "failed to stat artifact", goerr.V("path", file.Path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(file.Path), "."+filepath.Base(file.Path)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", file.Path))
	}
	tmpPath := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(file.Content); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write artifact", goerr.V("path", file.Path))
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to set artifact permissions", goerr.V("path", file.Path))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close artifact", goerr.V("path", file.Path))
	}

	if err := os.Rename(tmpPath, file.Path); err != nil {
		return goerr.Wrap(err, "failed to replace artifact", goerr.V("path", file.Path))
	}

	ctxlog.From(ctx).Debug("Rewrote artifact", "path", file.Path, "size", len(file.Content))
	return nil
}

// Scan walks every path of every entry and returns the files whose extension
// is listed in the entry. A file reachable from several entries is returned once.
func (s *scanner) Scan(ctx context.Context, entries []model.IncludeEntry) ([]*model.ReleaseFile, error) {
	logger := ctxlog.From(ctx)

	seen := make(map[string]struct{})
	var files []*model.ReleaseFile

	for _, entry := range entries {
		ignored, err := loadIgnorePatterns(entry)
		if err != nil {
			return nil, err
		}

		for _, root := range entry.Paths {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to resolve include path", goerr.V("path", root))
			}

			info, err := os.Stat(absRoot)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to stat include path", goerr.V("path", root))
			}

			if !info.IsDir() {
				base := filepath.Dir(absRoot)
				file, err := collect(absRoot, base, entry, ignored, seen)
				if err != nil {
					return nil, err
				}
				if file != nil {
					files = append(files, file)
				}
				continue
			}

			walkErr := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return goerr.Wrap(walkErr, "failed to walk include path", goerr.V("path", p))
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				rel := relSlash(absRoot, p)
				if d.IsDir() {
					if p != absRoot && ignored.match(rel, true) {
						logger.Debug("Skipping ignored directory", "path", p)
						return fs.SkipDir
					}
					return nil
				}

				file, err := collect(p, absRoot, entry, ignored, seen)
				if err != nil {
					return err
				}
				if file != nil {
					files = append(files, file)
				}
				return nil
			})
			if walkErr != nil {
				return nil, walkErr
			}
		}
	}

	return files, nil
}

func collect(p, root string, entry model.IncludeEntry, ignored *ignoreMatcher, seen map[string]struct{}) (*model.ReleaseFile, error) {
	if _, ok := seen[p]; ok {
		return nil, nil
	}

	rel := relSlash(root, p)
	if ignored.match(rel, false) || !hasExtension(p, entry.Ext) {
		return nil, nil
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read artifact", goerr.V("path", p))
	}

	seen[p] = struct{}{}
	return &model.ReleaseFile{
		Name:    ArtifactName(entry.URLPrefix, rel, entry.URLSuffix),
		Path:    p,
		Content: content,
	}, nil
}

// ArtifactName builds the remote name of an artifact from its slash-separated
// path relative to the include root
func ArtifactName(prefix, rel, suffix string) string {
	if prefix == "" {
		return rel + suffix
	}
	if strings.HasSuffix(prefix, "/") {
		return prefix + rel + suffix
	}
	return prefix + "/" + rel + suffix
}

func hasExtension(p string, exts []string) bool {
	name := filepath.Base(p)
	for _, ext := range exts {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}

func relSlash(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// ignoreMatcher applies gitignore rules to paths relative to an include root
type ignoreMatcher struct {
	gi *ignore.GitIgnore
}

func loadIgnorePatterns(entry model.IncludeEntry) (*ignoreMatcher, error) {
	lines := make([]string, 0, len(entry.Ignore))
	for _, p := range entry.Ignore {
		lines = append(lines, filepath.ToSlash(strings.TrimSpace(p)))
	}

	if entry.IgnoreFile != "" {
		raw, err := os.ReadFile(entry.IgnoreFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read ignore file", goerr.V("path", entry.IgnoreFile))
		}
		lines = append(lines, strings.Split(string(raw), "\n")...)
	}

	return &ignoreMatcher{gi: ignore.CompileIgnoreLines(lines...)}, nil
}

// match reports whether the slash-separated relative path is ignored.
// Directories are also tried with a trailing slash so "dir/" patterns apply.
func (m *ignoreMatcher) match(rel string, dir bool) bool {
	if m.gi.MatchesPath(rel) {
		return true
	}
	return dir && m.gi.MatchesPath(rel+"/")
}
