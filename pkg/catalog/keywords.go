package catalog

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// escapeSeqRe matches a backslash and the single character it escapes.
	escapeSeqRe = regexp.MustCompile(`\\.`)

	// alphaRunRe matches alphabetic runs long enough to be useful hints.
	alphaRunRe = regexp.MustCompile(`[A-Za-z]{3,}`)
)

// ExtractKeywords derives lowercase hint words from a pattern string.
//
// Escape sequences are dropped first so that \b, \s, \w and friends do not
// glue onto neighbouring letters, then every alphabetic run of three or more
// characters becomes a keyword. A literal "@" anywhere in the pattern is
// added as its own keyword.
//
// This is a speed heuristic, not an exact reading of the regex: quantified
// letters (colou?r), character classes and case alternations can yield a
// keyword the matched text does not contain, and the pattern is then skipped
// for that text. Those misses are accepted in exchange for not running every
// pattern against every file.
func ExtractKeywords(pattern string) []string {
	stripped := escapeSeqRe.ReplaceAllString(pattern, "")

	seen := make(map[string]bool)
	var keywords []string
	for _, run := range alphaRunRe.FindAllString(stripped, -1) {
		k := strings.ToLower(run)
		if !seen[k] {
			seen[k] = true
			keywords = append(keywords, k)
		}
	}
	if strings.Contains(pattern, "@") && !seen["@"] {
		keywords = append(keywords, "@")
	}

	sort.Strings(keywords)
	return keywords
}
