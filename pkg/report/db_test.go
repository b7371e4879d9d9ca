package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truconsent/truscanner/pkg/types"
)

func testDBScan() DBScan {
	return DBScan{
		ID:        "feedfacefeedfacefeedfacefeedface",
		Database:  "sqlite:app.db",
		StartedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Duration:  250 * time.Millisecond,
		Findings: []types.ColumnFinding{
			{SchemaName: "main", TableName: "users", ColumnName: "phone", ElementName: "Phone Number", ElementCategory: "Contact Information", Source: types.SourceMetadata},
			{SchemaName: "main", TableName: "users", ColumnName: "email", ElementName: "Email Address", ElementCategory: "Contact Information", Source: types.SourceMetadata},
			{SchemaName: "audit", TableName: "a_very_long_table_name_that_will_be_clipped", ColumnName: "note", ElementName: "Social Security Number", ElementCategory: "Government-Issued Identifiers", Source: types.SourceContent},
		},
	}
}

func TestWriteDBText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDBText(&buf, testDBScan()))
	out := buf.String()

	assert.Contains(t, out, "Scan Report ID: feedfacefeedfacefeedfacefeedface")
	assert.Contains(t, out, "Database: sqlite:app.db")
	assert.Contains(t, out, "Total Findings: 3")
	assert.Contains(t, out, "Time Taken: 0.25 seconds")
	assert.Contains(t, out, "Schemas with data elements: 2")
	assert.Contains(t, out, "Tables with data elements: 2")
	assert.Contains(t, out, "Contact Information: 2")
	assert.Contains(t, out, "a_very_long_table_name_that_..")

	// sorted by schema, table, column
	audit := strings.Index(out, "audit ")
	email := strings.Index(out, "email ")
	phone := strings.Index(out, "phone ")
	assert.Less(t, audit, email)
	assert.Less(t, email, phone)
}

func TestWriteDBText_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDBText(&buf, DBScan{Database: "x"}))
	assert.Contains(t, buf.String(), "No data elements found in database.")
}

func TestWriteDBJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDBJSON(&buf, testDBScan()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "database_schema", doc["report_type"])
	assert.Equal(t, "sqlite:app.db", doc["database_info"])
	assert.Equal(t, float64(3), doc["total_findings"])
	assert.Len(t, doc["findings"], 3)
}

func TestRenderDB(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDB(&buf, FormatHuman, testDBScan()))
	assert.Contains(t, buf.String(), "Detailed Findings")

	buf.Reset()
	assert.Error(t, RenderDB(&buf, FormatSARIF, testDBScan()))
}

func TestSortColumnFindings_DoesNotMutate(t *testing.T) {
	in := testDBScan().Findings
	out := SortColumnFindings(in)
	assert.Equal(t, "phone", in[0].ColumnName)
	assert.Equal(t, "audit", out[0].SchemaName)
}
