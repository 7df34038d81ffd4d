package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reportd/internal/project"
)

func TestDemoReportPassesBothGates(t *testing.T) {
	r := demoReport("u-demo")

	assert.Empty(t, r.ValidateDraft())
	assert.Empty(t, r.ValidatePublish())
}

func TestGateIssuesReportsDraftFailuresOnce(t *testing.T) {
	r := demoReport("u-demo")
	r.Scope = ""

	issues := gateIssues(r, true)
	scopeIssues := 0
	for _, issue := range issues {
		if issue.Field == "scope" {
			scopeIssues++
		}
	}
	assert.Equal(t, 1, scopeIssues, "publish gate reports each draft issue once")

	assert.Empty(t, gateIssues(demoReport("u-demo"), false))
	assert.Empty(t, gateIssues(demoReport("u-demo"), true))
}

func TestDemoUserGetsAllKnownProjects(t *testing.T) {
	u := demoUser("demo@example.com", "hash")

	want := project.NewRegistry(project.Defaults()).IDs()
	require.NotEmpty(t, want)
	assert.Equal(t, want, u.Projects)
}

func TestReadReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scope":"PROJECT","projectId":"p-checkout"}`), 0o600))

	r, err := readReport([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "p-checkout", r.ProjectID)

	_, err = readReport([]string{filepath.Join(dir, "missing.json")})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	_, err = readReport([]string{path})
	assert.Error(t, err)
}
