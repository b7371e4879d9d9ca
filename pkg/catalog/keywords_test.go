package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		pattern  string
		expected []string
	}{
		{`\bemail\b`, []string{"email"}},
		{`(?i)\b(?:phone|mobile)\b`, []string{"mobile", "phone"}},
		{`\d{3}-\d{2}-\d{4}`, nil},
		{`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`, []string{"@"}},
		{`\bSSN\b|\bssn\b`, []string{"ssn"}},
		{`\wpassword\s*=`, []string{"password"}},
		{`ab|cd`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractKeywords(tt.pattern))
		})
	}
}

func TestExtractKeywords_EscapesDoNotGlue(t *testing.T) {
	// \bname\b must not produce "bname" or "nameb"
	kw := ExtractKeywords(`\bname\b`)
	assert.Equal(t, []string{"name"}, kw)
}
