package sourcemap

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/model"
)

type rawSourceMap struct {
	Version  *int              `json:"version"`
	Sources  []string          `json:"sources"`
	Mappings *string           `json:"mappings"`
	Sections []json.RawMessage `json:"sections"`
}

// IsSourceMap reports whether the file is treated as a source map
func IsSourceMap(file *model.ReleaseFile) bool {
	return strings.HasSuffix(file.Path, ".map") || strings.HasSuffix(file.Name, ".map")
}

// Validate checks that a source map is a version 3 map with either mappings
// or sections. Files that are not source maps are accepted as is.
func Validate(file *model.ReleaseFile) error {
	if !IsSourceMap(file) {
		return nil
	}

	var sm rawSourceMap
	if err := json.Unmarshal(file.Content, &sm); err != nil {
		return goerr.Wrap(err, "source map is not valid JSON", goerr.V("file", file.Name))
	}

	if sm.Version == nil || *sm.Version != 3 {
		return goerr.New("unsupported source map version", goerr.V("file", file.Name))
	}

	if len(sm.Sections) > 0 {
		return nil
	}

	if sm.Mappings == nil {
		return goerr.New("source map has no mappings", goerr.V("file", file.Name))
	}
	if len(sm.Sources) == 0 && *sm.Mappings != "" {
		return goerr.New("source map has mappings but no sources", goerr.V("file", file.Name))
	}

	return nil
}
