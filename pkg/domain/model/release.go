package model

import (
	"time"

	"github.com/m-mizutani/relmap/pkg/domain/types"
)

// ReleaseTarget identifies a release on the remote release API
type ReleaseTarget struct {
	Org       string
	Project   string
	Release   string
	AuthToken string `masq:"secret"`
	URL       string
	Dist      string
	Headers   map[string]string
}

// ReleaseFile is a local artifact discovered under the include paths
type ReleaseFile struct {
	Name    string // Artifact name on the remote side, e.g. ~/static/main.js
	Path    string // Absolute local path
	Content []byte
}

// StepResult records the outcome of one pipeline step
type StepResult struct {
	Step     string
	Status   types.StepStatus
	Err      error
	Duration time.Duration
}

// Release is a release as stored by the release API emulator
type Release struct {
	Version      string     `json:"version"`
	Projects     []string   `json:"projects"`
	DateCreated  time.Time  `json:"dateCreated"`
	DateReleased *time.Time `json:"dateReleased"`
}

// Artifact is an uploaded release file as stored by the release API emulator
type Artifact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Dist        string    `json:"dist,omitempty"`
	Size        int       `json:"size"`
	SHA1        string    `json:"sha1"`
	DateCreated time.Time `json:"dateCreated"`
}
