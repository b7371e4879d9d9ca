package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/truconsent/truscanner/pkg/types"
)

// PersonalCategories are the categories kept by a personal-data-only scan.
// A finding qualifies when its category contains any of these names.
var PersonalCategories = []string{
	"Personal Identifiable Information",
	"PII",
	"Contact Information",
	"Government-Issued Identifiers",
	"Authentication & Credentials",
	"Health & Biometric Data",
	"Sensitive Personal Data",
}

// FilterConfig specifies include and exclude patterns for element filtering.
type FilterConfig struct {
	Include    []string // Regex patterns over element names - only matching elements included
	Exclude    []string // Regex patterns over element names - matching elements excluded
	Categories []string // Category substrings - when set, only elements in these categories
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter returns a new catalog holding the elements allowed by config.
// Include is applied first, then exclude, then the category restriction.
// Empty include means "include all".
// Returns error if any pattern is invalid regex.
func Filter(cat *types.Catalog, config FilterConfig) (*types.Catalog, error) {
	if cat.Len() == 0 {
		return cat, nil
	}

	includeRegexes, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	out := &types.Catalog{
		Elements:    make([]*types.PatternElement, 0, len(cat.Elements)),
		Diagnostics: cat.Diagnostics,
	}
	for _, e := range cat.Elements {
		if len(includeRegexes) > 0 && !matchesAny(e.Name, includeRegexes) {
			continue
		}
		if len(excludeRegexes) > 0 && matchesAny(e.Name, excludeRegexes) {
			continue
		}
		if len(config.Categories) > 0 && !InCategories(e.Category, config.Categories) {
			continue
		}
		out.Elements = append(out.Elements, e)
	}
	return out, nil
}

// InCategories reports whether category contains any of the given names.
func InCategories(category string, names []string) bool {
	for _, n := range names {
		if strings.Contains(category, n) {
			return true
		}
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(name string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
