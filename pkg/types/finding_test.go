package types

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFinding_CopiesElementData(t *testing.T) {
	e := &PatternElement{
		Name:        "Email Address",
		Category:    "Contact Information",
		Tags:        map[string]any{"gdpr": true},
		IsSensitive: true,
		Sensitivity: SensitivityHigh,
	}

	f := NewFinding(e, 3, "email = 'a@b.co'", "a@b.co", "app.py")

	assert.Equal(t, 3, f.LineNumber)
	assert.Equal(t, "Email Address", f.ElementName)
	assert.Equal(t, "Contact Information", f.ElementCategory)
	assert.Equal(t, SourceRegex, f.Source)
	assert.Equal(t, "app.py", f.Context)
	assert.True(t, f.IsSensitive)

	// Mutating the finding's tags must not leak into the catalog.
	f.Tags["gdpr"] = false
	assert.Equal(t, true, e.Tags["gdpr"])
}

func TestUnionKeywords(t *testing.T) {
	e := &PatternElement{
		Patterns: []*Pattern{
			{Keywords: []string{"phone", "mobile"}},
			{Keywords: []string{"mobile", "cell"}},
			{},
		},
	}
	e.UnionKeywords()
	assert.Equal(t, []string{"cell", "mobile", "phone"}, e.Keywords)
}

func TestCatalogLookup(t *testing.T) {
	var empty *Catalog
	assert.Equal(t, 0, empty.Len())

	c := &Catalog{Elements: []*PatternElement{{Name: "SSN"}, {Name: "Email Address"}}}
	e, ok := c.Lookup("Email Address")
	require.True(t, ok)
	assert.Equal(t, "Email Address", e.Name)

	_, ok = c.Lookup("Passport")
	assert.False(t, ok)
}

func TestErrorsUnwrap(t *testing.T) {
	ce := &CatalogLoadError{Path: "a.json", Source: "Email", Pattern: "(", Err: errors.New("missing )")}
	assert.Contains(t, ce.Error(), `invalid pattern "("`)

	fe := &FileReadError{Path: "x.py", Err: fs.ErrPermission}
	assert.True(t, errors.Is(fe, fs.ErrPermission))

	var target *FileReadError
	assert.True(t, errors.As(error(fe), &target))
}
