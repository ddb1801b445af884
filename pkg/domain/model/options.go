package model

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultURL is the base URL of the SaaS release API
	DefaultURL = "https://sentry.io/"
	// DefaultURLPrefix is prepended to uploaded artifact names
	DefaultURLPrefix = "~/"
	// DefaultVCSRemote is the git remote used for commit association
	DefaultVCSRemote = "origin"
)

// DefaultExtensions lists file extensions collected for upload when none are configured
var DefaultExtensions = []string{"js", "map", "jsbundle", "bundle"}

// DefaultIgnore is applied when neither ignore nor ignoreFile is configured
var DefaultIgnore = []string{"node_modules"}

// Options holds every recognized relmap option. Top-level Ignore, IgnoreFile,
// Ext, URLPrefix, URLSuffix, StripPrefix, StripCommonPrefix,
// SourceMapReference and Rewrite act as defaults for each include entry.
type Options struct {
	Org       string `toml:"org" yaml:"org"`
	Project   string `toml:"project" yaml:"project"`
	AuthToken string `toml:"auth_token" yaml:"auth_token" masq:"secret"`
	URL       string `toml:"url" yaml:"url"`

	Release  string   `toml:"release" yaml:"release"`
	Dist     string   `toml:"dist" yaml:"dist"`
	Entries  []string `toml:"entries" yaml:"entries"`
	Finalize bool     `toml:"finalize" yaml:"finalize"`

	Include  []IncludeEntry `toml:"include" yaml:"include"`
	Validate bool           `toml:"validate" yaml:"validate"`

	Ignore             []string `toml:"ignore" yaml:"ignore"`
	IgnoreFile         string   `toml:"ignore_file" yaml:"ignore_file"`
	Ext                []string `toml:"ext" yaml:"ext"`
	URLPrefix          string   `toml:"url_prefix" yaml:"url_prefix"`
	URLSuffix          string   `toml:"url_suffix" yaml:"url_suffix"`
	StripPrefix        []string `toml:"strip_prefix" yaml:"strip_prefix"`
	StripCommonPrefix  bool     `toml:"strip_common_prefix" yaml:"strip_common_prefix"`
	SourceMapReference bool     `toml:"source_map_reference" yaml:"source_map_reference"`
	Rewrite            bool     `toml:"rewrite" yaml:"rewrite"`

	VCSRemote     string            `toml:"vcs_remote" yaml:"vcs_remote"`
	CustomHeaders map[string]string `toml:"custom_headers" yaml:"custom_headers"`

	DryRun         bool `toml:"dry_run" yaml:"dry_run"`
	Debug          bool `toml:"debug" yaml:"debug"`
	Silent         bool `toml:"silent" yaml:"silent"`
	CleanArtifacts bool `toml:"clean_artifacts" yaml:"clean_artifacts"`
	Telemetry      bool `toml:"telemetry" yaml:"telemetry"`
	InjectRelease  bool `toml:"inject_release" yaml:"inject_release"`

	SetCommits *SetCommitsOptions `toml:"set_commits" yaml:"set_commits"`
	Deploy     *DeployOptions     `toml:"deploy" yaml:"deploy"`

	// ErrorHandler receives errors raised by the release pipeline. When nil
	// the error aborts the run. A handler returning nil lets the run finish.
	ErrorHandler func(err error) error `toml:"-" yaml:"-"`
}

// IncludeEntry describes one group of paths to scan for artifacts
type IncludeEntry struct {
	Paths              []string `toml:"paths" yaml:"paths"`
	Ignore             []string `toml:"ignore" yaml:"ignore"`
	IgnoreFile         string   `toml:"ignore_file" yaml:"ignore_file"`
	Ext                []string `toml:"ext" yaml:"ext"`
	URLPrefix          string   `toml:"url_prefix" yaml:"url_prefix"`
	URLSuffix          string   `toml:"url_suffix" yaml:"url_suffix"`
	StripPrefix        []string `toml:"strip_prefix" yaml:"strip_prefix"`
	StripCommonPrefix  *bool    `toml:"strip_common_prefix" yaml:"strip_common_prefix"`
	SourceMapReference *bool    `toml:"source_map_reference" yaml:"source_map_reference"`
	Rewrite            *bool    `toml:"rewrite" yaml:"rewrite"`
}

// SetCommitsOptions configures commit association. Declarative only for now.
type SetCommitsOptions struct {
	Auto           bool   `toml:"auto" yaml:"auto"`
	Repo           string `toml:"repo" yaml:"repo"`
	Commit         string `toml:"commit" yaml:"commit"`
	PreviousCommit string `toml:"previous_commit" yaml:"previous_commit"`
	IgnoreMissing  bool   `toml:"ignore_missing" yaml:"ignore_missing"`
}

// DeployOptions configures deploy tracking. Declarative only for now.
type DeployOptions struct {
	Env      string `toml:"env" yaml:"env"`
	Started  int64  `toml:"started" yaml:"started"`
	Finished int64  `toml:"finished" yaml:"finished"`
	Time     int64  `toml:"time" yaml:"time"`
	Name     string `toml:"name" yaml:"name"`
	URL      string `toml:"url" yaml:"url"`
}

// DefaultOptions returns options populated with default values
func DefaultOptions() *Options {
	return &Options{
		URL:                DefaultURL,
		Finalize:           true,
		URLPrefix:          DefaultURLPrefix,
		SourceMapReference: true,
		Rewrite:            true,
		VCSRemote:          DefaultVCSRemote,
		Telemetry:          true,
	}
}

// MissingIdentification returns the name of the first identification option
// that is not set, checked in the order authToken, org, url, project. An empty
// string means all of them are present.
func (o *Options) MissingIdentification() string {
	switch {
	case o.AuthToken == "":
		return "authToken"
	case o.Org == "":
		return "org"
	case o.URL == "":
		return "url"
	case o.Project == "":
		return "project"
	}
	return ""
}

// Target builds the remote identifiers for release calls
func (o *Options) Target(release string) *ReleaseTarget {
	return &ReleaseTarget{
		Org:       o.Org,
		Project:   o.Project,
		Release:   release,
		AuthToken: o.AuthToken,
		URL:       o.URL,
		Dist:      o.Dist,
		Headers:   o.CustomHeaders,
	}
}

// IncludeEntries returns include entries with unset fields filled from the
// top-level options and built-in defaults. Entries without paths are dropped.
func (o *Options) IncludeEntries() []IncludeEntry {
	var entries []IncludeEntry
	for _, src := range o.Include {
		if len(src.Paths) == 0 {
			continue
		}

		e := src
		e.Paths = append([]string(nil), src.Paths...)

		if len(e.Ignore) == 0 {
			e.Ignore = o.Ignore
		}
		if e.IgnoreFile == "" {
			e.IgnoreFile = o.IgnoreFile
		}
		if len(e.Ignore) == 0 && e.IgnoreFile == "" {
			e.Ignore = DefaultIgnore
		}

		if len(e.Ext) == 0 {
			e.Ext = o.Ext
		}
		if len(e.Ext) == 0 {
			e.Ext = DefaultExtensions
		}
		e.Ext = normalizeExtensions(e.Ext)

		if e.URLPrefix == "" {
			e.URLPrefix = o.URLPrefix
		}
		if e.URLSuffix == "" {
			e.URLSuffix = o.URLSuffix
		}
		if len(e.StripPrefix) == 0 {
			e.StripPrefix = o.StripPrefix
		}
		if e.StripCommonPrefix == nil {
			e.StripCommonPrefix = boolPtr(o.StripCommonPrefix)
		}
		if e.SourceMapReference == nil {
			e.SourceMapReference = boolPtr(o.SourceMapReference)
		}
		if e.Rewrite == nil {
			e.Rewrite = boolPtr(o.Rewrite)
		}

		entries = append(entries, e)
	}

	return entries
}

// Check verifies option values that would otherwise fail late in the pipeline
func (o *Options) Check() error {
	if o.URL != "" {
		u, err := url.Parse(o.URL)
		if err != nil {
			return goerr.Wrap(err, "invalid url option", goerr.V("url", o.URL))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return goerr.New("url option must be http or https", goerr.V("url", o.URL))
		}
	}

	if _, err := NewEntryFilter(o.Entries); err != nil {
		return err
	}

	if o.Deploy != nil && o.Deploy.Env == "" {
		return goerr.New("deploy option requires env")
	}

	if o.SetCommits != nil && !o.SetCommits.Auto && (o.SetCommits.Repo == "" || o.SetCommits.Commit == "") {
		return goerr.New("setCommits option requires repo and commit unless auto is set")
	}

	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func boolPtr(v bool) *bool { return &v }

// EntryFilter decides which bundle entry points receive the release
// injection. Plain strings require a full match with the absolute path,
// strings wrapped in slashes are regular expressions.
type EntryFilter struct {
	exact   map[string]struct{}
	regexps []*regexp.Regexp
}

// NewEntryFilter compiles entries. An empty list matches every path.
func NewEntryFilter(entries []string) (*EntryFilter, error) {
	f := &EntryFilter{exact: make(map[string]struct{})}
	for _, entry := range entries {
		if len(entry) > 2 && strings.HasPrefix(entry, "/") && strings.HasSuffix(entry, "/") {
			re, err := regexp.Compile(entry[1 : len(entry)-1])
			if err != nil {
				return nil, goerr.Wrap(err, "invalid entries pattern", goerr.V("entry", entry))
			}
			f.regexps = append(f.regexps, re)
			continue
		}
		f.exact[entry] = struct{}{}
	}
	return f, nil
}

// Match reports whether absPath is a selected entry point
func (f *EntryFilter) Match(absPath string) bool {
	if len(f.exact) == 0 && len(f.regexps) == 0 {
		return true
	}
	if _, ok := f.exact[absPath]; ok {
		return true
	}
	for _, re := range f.regexps {
		if re.MatchString(absPath) {
			return true
		}
	}
	return false
}
