package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/argus-labs/ecsquery/internal/sim"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeysCommand(t *testing.T) {
	out, err := execute(t, "keys")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"movement", "0,1||3|"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"damageable", "|2,4|3|"}, strings.Fields(lines[3]))
}

func TestRunCommand_JSON(t *testing.T) {
	out, err := execute(t, "run", "--entities", "50", "--ticks", "5", "--churn", "10", "--json")
	require.NoError(t, err)

	var report sim.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 5, report.Ticks)
	assert.Equal(t, 4, report.DistinctQueries)
	assert.Len(t, report.Queries, 5)
}

func TestRunCommand_Table(t *testing.T) {
	out, err := execute(t, "run", "--entities", "20", "--ticks", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "queries=4")
	assert.Contains(t, out, "movement_split")
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--profile", "gpu")
	require.Error(t, err)

	_, err = execute(t, "run", "--ticks", "0")
	require.Error(t, err)
}
