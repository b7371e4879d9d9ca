package fpfilter

import (
	"regexp"
	"strings"
	"unicode"
)

// Heuristic is a named predicate that reports whether a candidate is noise.
type Heuristic struct {
	Name  string
	Check func(c Candidate) bool
}

// Heuristic names, as reported by Filter.Check.
const (
	CommentLine       = "comment-line"
	TrailingComment   = "trailing-comment"
	OpenBlockComment  = "open-block-comment"
	MarkupNoise       = "markup-noise"
	GenericLayoutWord = "generic-layout-word"
	SchemaDescription = "schema-description"
	SQLFieldList      = "sql-field-list"
	IdentifierOnly    = "identifier-only"
	GenericWord       = "generic-word"
	EmptyAssignment   = "empty-assignment"
)

// DefaultHeuristics returns the standard heuristic chain in evaluation order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		{Name: CommentLine, Check: isCommentLine},
		{Name: TrailingComment, Check: hasTrailingComment},
		{Name: OpenBlockComment, Check: inOpenBlockComment},
		{Name: MarkupNoise, Check: isMarkupNoise},
		{Name: GenericLayoutWord, Check: isGenericLayoutWord},
		{Name: SchemaDescription, Check: isSchemaDescription},
		{Name: SQLFieldList, Check: inSQLFieldList},
		{Name: IdentifierOnly, Check: isIdentifierOnly},
		{Name: GenericWord, Check: isGenericWord},
		{Name: EmptyAssignment, Check: isEmptyAssignment},
	}
}

var commentPrefixes = []string{"//", "#", "/*", "*/", "*"}

var markupMarkers = []string{
	"device-width",
	"viewport",
	"content=",
	"font-family",
	"initial-scale",
	"@media",
	"@font-face",
	"stylesheet",
}

// genericWords are catalog hits that are usually brand or layout terms.
var genericWords = map[string]bool{
	"device": true,
	"google": true,
	"apple":  true,
}

var layoutVocabulary = []string{
	"font",
	"typography",
	"layout",
	"width",
	"height",
	"margin",
	"padding",
	"display",
	"flex",
	"grid",
	"icon",
	"logo",
	"button",
	"style",
	"class=",
	"classname",
	"sans-serif",
	"serif",
	"monospace",
	"badge",
	"responsive",
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	digitRunRe   = regexp.MustCompile(`\d{6,}`)

	sqlStatementRe = regexp.MustCompile(`(?is)\b(?:select\b.+\bfrom|insert\s+into|update\b.+\bset)\b`)
	sqlFieldsRe    = regexp.MustCompile(`^[\w\s,().*=?$:]+$`)

	funcParamOpenRe  = regexp.MustCompile(`\b(?:function|def|func|fn)\b[^()]*\(([^()]*,)?\s*$`)
	arrowParamsRe    = regexp.MustCompile(`^[^()]*\)\s*=>`)
	paramTailRe      = regexp.MustCompile(`^\s*(?:[:=][^,()]*)?\s*[,)]`)
	placeholderValRe = regexp.MustCompile(`^["']?\s*:\s*(?:,|\}|""|''|null\b|undefined\b|None\b|nil\b)`)
	returnHeadRe     = regexp.MustCompile(`(?:^|[^\w.])return\s+$`)
	declHeadRe       = regexp.MustCompile(`\b(?:const|let|var)\s+$`)
	statementEndRe   = regexp.MustCompile(`^\s*;`)
)

func isCommentLine(c Candidate) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(c.Trimmed, p) {
			return true
		}
	}
	return false
}

// hasTrailingComment walks the text before the match tracking string
// literals, and reports a // or # comment opener outside of them.
func hasTrailingComment(c Candidate) bool {
	before := []rune(c.Before)
	line := []rune(c.Line)

	var quote rune
	for i := 0; i < len(before); i++ {
		r := before[i]
		if quote != 0 {
			switch r {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch r {
		case '"', '`':
			quote = r
		case '\'':
			// an apostrophe inside a word is prose, not a literal
			if i == 0 || !isLetterOrDigit(before[i-1]) {
				quote = r
			}
		case '/':
			if i+1 < len(line) && line[i+1] == '/' && (i == 0 || line[i-1] != ':') {
				return true
			}
		case '#':
			if (i == 0 || unicode.IsSpace(line[i-1])) && (i+1 >= len(line) || line[i+1] != '{') {
				return true
			}
		}
	}
	return false
}

func isLetterOrDigit(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func inOpenBlockComment(c Candidate) bool {
	idx := strings.LastIndex(c.Before, "/*")
	if idx < 0 {
		return false
	}
	return !strings.Contains(c.Before[idx+2:], "*/")
}

func isMarkupNoise(c Candidate) bool {
	return containsAny(strings.ToLower(c.Line), markupMarkers)
}

func isGenericLayoutWord(c Candidate) bool {
	if !genericWords[strings.ToLower(c.Matched)] {
		return false
	}
	return containsAny(strings.ToLower(c.Line), layoutVocabulary)
}

func isSchemaDescription(c Candidate) bool {
	if strings.TrimSpace(c.Matched) == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)["'][^"'\n]*` + literal(c.Matched) +
		`\s+(?:field|column|attribute|property)s?\b[^"'\n]*["']`)
	if err != nil {
		return false
	}
	return re.MatchString(c.Line)
}

// inSQLFieldList reports a match inside a quoted SQL statement that only
// names fields.
func inSQLFieldList(c Candidate) bool {
	for _, q := range []string{`"`, `'`, "`"} {
		if strings.Count(c.Before, q)%2 == 0 {
			continue
		}
		open := strings.LastIndex(c.Before, q)
		end := strings.Index(c.After, q)
		if end < 0 {
			continue
		}
		region := c.Before[open+1:] + c.Matched + c.After[:end]
		if strings.Contains(region, "@") {
			return false
		}
		return sqlStatementRe.MatchString(region) && sqlFieldsRe.MatchString(region)
	}
	return false
}

func isIdentifierOnly(c Candidate) bool {
	if !identifierRe.MatchString(c.Matched) {
		return false
	}

	// function parameter
	if funcParamOpenRe.MatchString(c.Before) && paramTailRe.MatchString(c.After) {
		return true
	}
	if strings.HasSuffix(strings.TrimRight(c.Before, " \t"), "(") && arrowParamsRe.MatchString(c.After) {
		return true
	}

	// property key with an empty or placeholder value
	if placeholderValRe.MatchString(c.After) {
		return true
	}

	// return <name>;
	if returnHeadRe.MatchString(c.Before) {
		if tail := strings.TrimSpace(c.After); tail == ";" || tail == "" {
			return true
		}
	}

	// const|let|var <name>;
	if declHeadRe.MatchString(c.Before) && statementEndRe.MatchString(c.After) {
		return true
	}
	return false
}

func isGenericWord(c Candidate) bool {
	switch strings.ToLower(c.Matched) {
	case "email":
		return !strings.Contains(c.Line, "@")
	case "phone", "mobile":
		return !digitRunRe.MatchString(c.Line)
	}
	return false
}

func isEmptyAssignment(c Candidate) bool {
	if strings.TrimSpace(c.Matched) == "" {
		return false
	}
	re, err := regexp.Compile(literal(c.Matched) + `["']?\s*=\s*[;,]`)
	if err != nil {
		return false
	}
	return re.MatchString(c.Line)
}

// =============================================================================
// HELPERS
// =============================================================================

// literal quotes s for embedding in a pattern, with word boundaries on the
// sides that start or end in a word character.
func literal(s string) string {
	out := regexp.QuoteMeta(s)
	runes := []rune(s)
	if isWordRune(runes[0]) {
		out = `\b` + out
	}
	if isWordRune(runes[len(runes)-1]) {
		out += `\b`
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
