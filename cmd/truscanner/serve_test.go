package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truconsent/truscanner/pkg/serve"
)

func TestRunServe(t *testing.T) {
	serveCatalog = ""
	cmd, stdout, _ := newTestCmd()
	cmd.SetIn(strings.NewReader(`{"type":"scan","payload":{"content":"user_email = \"alice@corp.io\"","source":"mail.go"}}` + "\n"))

	require.NoError(t, runServe(cmd, nil))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)

	var resp serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), "Email Address")
}
