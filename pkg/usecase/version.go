package usecase

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// versionEnvVars are CI variables holding the commit being built, in lookup order
var versionEnvVars = []string{
	"SOURCE_VERSION",
	"HEROKU_SLUG_COMMIT",
	"CODEBUILD_RESOLVED_SOURCE_VERSION",
	"CIRCLE_SHA1",
	"GITHUB_SHA",
	"VERCEL_GIT_COMMIT_SHA",
}

// VersionProposer detects a release identifier from the build environment
type VersionProposer struct {
	getenv  func(string) string
	gitHead func(ctx context.Context) (string, error)
}

// ProposerOption is a functional option for VersionProposer
type ProposerOption func(*VersionProposer)

// WithGetenv replaces environment lookup
func WithGetenv(getenv func(string) string) ProposerOption {
	return func(p *VersionProposer) {
		p.getenv = getenv
	}
}

// WithGitHead replaces HEAD commit resolution
func WithGitHead(gitHead func(ctx context.Context) (string, error)) ProposerOption {
	return func(p *VersionProposer) {
		p.gitHead = gitHead
	}
}

// NewVersionProposer creates a VersionProposer reading the process environment and git
func NewVersionProposer(opts ...ProposerOption) *VersionProposer {
	p := &VersionProposer{
		getenv:  os.Getenv,
		gitHead: gitRevParseHead,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propose returns the first CI commit variable that is set, otherwise the HEAD commit SHA
func (p *VersionProposer) Propose(ctx context.Context) (string, error) {
	logger := ctxlog.From(ctx)

	for _, key := range versionEnvVars {
		if v := strings.TrimSpace(p.getenv(key)); v != "" {
			logger.Debug("Proposed release version from environment", "env", key, "version", v)
			return v, nil
		}
	}

	head, err := p.gitHead(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to propose release version")
	}
	if head == "" {
		return "", goerr.New("failed to propose release version: empty HEAD commit")
	}

	logger.Debug("Proposed release version from git", "version", head)
	return head, nil
}

func gitRevParseHead(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", goerr.Wrap(err, "failed to run git rev-parse HEAD")
	}
	return strings.TrimSpace(string(out)), nil
}
