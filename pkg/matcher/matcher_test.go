package matcher

import (
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/fpfilter"
	"github.com/truconsent/truscanner/pkg/types"
)

const testCatalog = `{
  "sources": [
    {
      "name": "Email Address",
      "category": "Contact Information",
      "isSensitive": true,
      "sensitivity": "medium",
      "patterns": ["[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\\.[A-Za-z]{2,}", "(?i)\\bemail\\b"],
      "tags": {"gdpr": true}
    },
    {
      "name": "Phone Number",
      "category": "Contact Information",
      "patterns": ["\\b\\d{3}-\\d{3}-\\d{4}\\b"]
    },
    {
      "name": "Social Security Number",
      "category": "Government-Issued Identifiers",
      "patterns": ["\\b\\d{3}-\\d{2}-\\d{4}\\b"]
    }
  ]
}`

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	elements, diags := catalog.NewLoader().Parse("test.json", []byte(testCatalog))
	require.Empty(t, diags)
	return New(Config{Catalog: &types.Catalog{Elements: elements}})
}

func byElement(findings []types.Finding, name string) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if f.ElementName == name {
			out = append(out, f)
		}
	}
	return out
}

func TestMatch_Empty(t *testing.T) {
	m := newTestMatcher(t)
	assert.Empty(t, m.Match("", "empty.txt"))
	assert.Empty(t, m.Match("   \n\t\n", "blank.txt"))
}

func TestMatch_Idempotent(t *testing.T) {
	m := newTestMatcher(t)
	text := "email = 'alice@example.com'\nssn = '123-45-6789'\nphone = '555-123-4567'\nbob@example.org\n"

	first := m.Match(text, "app.py")
	second := m.Match(text, "app.py")
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestMatch_AtMostOnePerLinePerElement(t *testing.T) {
	m := newTestMatcher(t)

	res := m.MatchWithStats("to = [a@x.com, b@y.com, c@z.com]", "mail.js")
	emails := byElement(res.Findings, "Email Address")
	require.Len(t, emails, 1)
	assert.Equal(t, "a@x.com", emails[0].MatchedText)
	assert.Equal(t, 2, res.Summary.Duplicates)
}

func TestMatch_ElementsReportIndependently(t *testing.T) {
	m := newTestMatcher(t)

	findings := m.Match("call 555-123-4567 or write alice@example.com", "contact.py")
	require.Len(t, findings, 2)
	assert.Equal(t, "Email Address", findings[0].ElementName)
	assert.Equal(t, "Phone Number", findings[1].ElementName)
	assert.Equal(t, 1, findings[0].LineNumber)
	assert.Equal(t, 1, findings[1].LineNumber)
}

func TestMatch_CommentSuppression(t *testing.T) {
	m := newTestMatcher(t)

	res := m.MatchWithStats("// email: alice@example.com", "a.go")
	assert.Empty(t, byElement(res.Findings, "Email Address"))
	assert.Equal(t, 1, res.Summary.Suppressed[fpfilter.CommentLine])
	assert.Equal(t, 1, res.Summary.Duplicates)

	findings := byElement(m.Match("email: alice@example.com", "a.go"), "Email Address")
	require.Len(t, findings, 1)
	assert.Equal(t, "alice@example.com", findings[0].MatchedText)
}

func TestMatch_SuppressedMatchClaimsLine(t *testing.T) {
	m := newTestMatcher(t)

	// the address sits in a trailing comment; the bare word must not report instead
	res := m.MatchWithStats("email = user_email // old bob@x.com", "a.go")
	assert.Empty(t, byElement(res.Findings, "Email Address"))
	assert.Equal(t, 1, res.Summary.Suppressed[fpfilter.TrailingComment])
	assert.Equal(t, 1, res.Summary.Duplicates)

	// the next line is still open to the element
	findings := byElement(m.Match("email = user_email // old bob@x.com\nowner = 'carol@x.com'", "a.go"), "Email Address")
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].LineNumber)
}

func TestMatch_BareDeclarationSuppression(t *testing.T) {
	m := newTestMatcher(t)

	assert.Empty(t, m.Match("const email;", "a.js"))

	findings := m.Match(`const email = "alice@example.com";`, "a.js")
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].MatchedText, "alice@example.com")
}

func TestMatch_LineNumbers(t *testing.T) {
	m := newTestMatcher(t)

	text := "\n\nuser = 'alice@example.com'\n\n"
	findings := m.Match(text, "users.py")
	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].LineNumber)
	assert.Equal(t, "user = 'alice@example.com'", findings[0].LineContent)

	// rune offsets keep multibyte lines aligned
	findings = m.Match("naïve = 1\r\nüser = 'alice@example.com'\r\n", "users.py")
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].LineNumber)
	assert.Equal(t, "üser = 'alice@example.com'", findings[0].LineContent)
}

func TestMatch_FindingFields(t *testing.T) {
	m := newTestMatcher(t)

	findings := m.Match("  owner = 'alice@example.com'  ", "src/app.py")
	require.Len(t, findings, 1)
	f := findings[0]

	assert.Equal(t, "owner = 'alice@example.com'", f.LineContent)
	assert.Equal(t, "Contact Information", f.ElementCategory)
	assert.True(t, f.IsSensitive)
	assert.Equal(t, types.SensitivityMedium, f.Sensitivity)
	assert.Equal(t, "src/app.py", f.Context)
	assert.Equal(t, types.SourceRegex, f.Source)

	// tags are copied, not shared with the catalog
	f.Tags["gdpr"] = false
	e, ok := m.Catalog().Lookup("Email Address")
	require.True(t, ok)
	assert.Equal(t, true, e.Tags["gdpr"])
}

func TestMatch_PrefilterSkipsElements(t *testing.T) {
	m := newTestMatcher(t)

	res := m.MatchWithStats("no contact data in here", "x.go")
	assert.Empty(t, res.Findings)
	assert.Equal(t, 3, res.Summary.Elements)
	assert.Equal(t, 1, res.Summary.ElementsSkipped)
	assert.Equal(t, 2, res.Summary.PatternsRun)
}

func TestMatch_PatternTimeoutSkipsOnlyThatPattern(t *testing.T) {
	slow := regexp2.MustCompile(`^(a+)+$`, regexp2.None)
	slow.MatchTimeout = time.Millisecond

	fast, err := catalog.CompilePattern(`\bssn\b`, 0)
	require.NoError(t, err)

	cat := &types.Catalog{Elements: []*types.PatternElement{
		{Name: "Slow", Category: "Test", Patterns: []*types.Pattern{{Source: slow.String(), Regexp: slow}}},
		{Name: "SSN", Category: "Test", Patterns: []*types.Pattern{{Source: `\bssn\b`, Regexp: fast}}},
	}}
	m := New(Config{Catalog: cat})

	text := strings.Repeat("a", 40) + "!\nrecord.ssn = '123-45-6789'"
	res := m.MatchWithStats(text, "slow.txt")

	require.Len(t, res.Stats, 2)
	assert.Equal(t, PatternTimedOut, res.Stats[0].Status)
	assert.Error(t, res.Stats[0].Error)
	assert.Equal(t, PatternCompleted, res.Stats[1].Status)
	assert.Equal(t, 1, res.Summary.TimedOut)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "SSN", res.Findings[0].ElementName)
	assert.Equal(t, 2, res.Findings[0].LineNumber)
}

func TestNew_LogsPrefilterSize(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	elements, diags := catalog.NewLoader().Parse("test.json", []byte(testCatalog))
	require.Empty(t, diags)

	New(Config{Catalog: &types.Catalog{Elements: elements}, Logger: zap.New(core)})

	entries := logs.FilterMessage("matcher ready").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 3, fields["elements"])
	assert.EqualValues(t, 2, fields["keywords"]) // "@" and "email"
}

func TestMatch_NilConfig(t *testing.T) {
	m := New(Config{})
	assert.Empty(t, m.Match("alice@example.com", "x"))
	assert.Equal(t, 0, m.Catalog().Len())
}

func TestMatch_ConcurrentUse(t *testing.T) {
	m := newTestMatcher(t)
	text := "a = 'alice@example.com'\nb = '555-123-4567'\n"
	want := m.Match(text, "c.py")

	done := make(chan []types.Finding, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- m.Match(text, "c.py") }()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}

func TestPatternStatus_String(t *testing.T) {
	assert.Equal(t, "completed", PatternCompleted.String())
	assert.Equal(t, "timeout", PatternTimedOut.String())
	assert.Equal(t, "error", PatternError.String())
	assert.Equal(t, "unknown", PatternStatus(42).String())
}
