package catalog

// catalogFile is the top-level structure of a catalog document.
// Each document carries a "sources" array; JSON and YAML share the layout.
type catalogFile struct {
	Sources []catalogSource `json:"sources" yaml:"sources"`
}

// catalogSource is the intermediate struct for one catalog entry.
// Maps document fields to types.PatternElement.
type catalogSource struct {
	Name        string         `json:"name" yaml:"name"`
	Category    string         `json:"category" yaml:"category"`
	Patterns    []string       `json:"patterns" yaml:"patterns"`
	Tags        map[string]any `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsSensitive bool           `json:"isSensitive,omitempty" yaml:"isSensitive,omitempty"`
	Sensitivity string         `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty"`
}
