// Package report renders scan results as text, markdown, JSON, SARIF and
// colored terminal output, and names the files they are saved to.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/truconsent/truscanner/pkg/types"
)

// Scan is a finished source scan ready for rendering.
type Scan struct {
	Record   types.ScanRecord
	Findings []types.Finding
	Catalog  *types.Catalog // optional; SARIF rules are built from it
}

// Count is a named tally.
type Count struct {
	Name  string
	Count int
}

// CategorySummary tallies findings of one category.
type CategorySummary struct {
	Category string
	Total    int
	Elements []Count // per element, most frequent first
}

// FileGroup holds the findings of one file in scan order.
type FileGroup struct {
	Name     string
	Findings []types.Finding
}

// SummarizeCategories groups findings by category, largest first.
func SummarizeCategories(findings []types.Finding) []CategorySummary {
	byCategory := make(map[string]map[string]int)
	for _, f := range findings {
		elements, ok := byCategory[f.ElementCategory]
		if !ok {
			elements = make(map[string]int)
			byCategory[f.ElementCategory] = elements
		}
		elements[f.ElementName]++
	}

	out := make([]CategorySummary, 0, len(byCategory))
	for category, elements := range byCategory {
		s := CategorySummary{Category: category, Elements: sortedCounts(elements)}
		for _, c := range s.Elements {
			s.Total += c.Count
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SummarizeSensitivity counts findings per sensitivity level, by name.
func SummarizeSensitivity(findings []types.Finding) []Count {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Sensitivity]++
	}
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GroupByFile groups findings by file in order of first appearance.
func GroupByFile(findings []types.Finding) []FileGroup {
	var groups []FileGroup
	index := make(map[string]int)
	for _, f := range findings {
		name := fileOf(f)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, FileGroup{Name: name})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}
	return groups
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func fileOf(f types.Finding) string {
	switch {
	case f.Filename != "":
		return f.Filename
	case f.Context != "":
		return f.Context
	}
	return "Unknown"
}

// formatTags renders tags as "k: v" pairs in key order.
func formatTags(tags map[string]any) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, tags[k])
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}
