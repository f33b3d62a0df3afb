package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sales-engine/forecast"
)

// run executes the CLI against a database in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: error\nforecast:\n  trees: 10\n"), 0o644))
	}

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg, "--db", filepath.Join(dir, "ventes.db")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema up to date (0 sales)\n", out)
	assert.FileExists(t, filepath.Join(dir, "ventes.db"))
}

func TestSeedThenExport(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "seed")
	require.NoError(t, err)
	assert.Equal(t, "loaded seed: 20 sales\n", out)

	out, err = run(t, dir, "export", "--from", "2025-04-08", "--category", "Bureau")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2025-04-08 00:00:00,Tableau blanc,Bureau,Isabelle Fontaine,1,25.00", lines[1])
	assert.Equal(t, "2025-04-08 00:00:00,Tapis de souris,Bureau,Hugo Bernard,1,6.00", lines[2])
}

func TestExport_ToFile(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	path := filepath.Join(dir, "ventes.csv")
	_, err = run(t, dir, "export", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 21, strings.Count(string(data), "\n"))
}

func TestForecast_InsufficientHistory(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	_, err = run(t, dir, "forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast unavailable")
}

func TestForecast_JSON(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed", "--scenario", "forecast-history")
	require.NoError(t, err)

	out, err := run(t, dir, "forecast", "--horizon", "4", "--json")
	require.NoError(t, err)

	var res forecast.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK())
	assert.Len(t, res.Points, 4)
}

func TestBadConfigFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 0\n"), 0o644))

	_, err := run(t, dir, "migrate")
	assert.ErrorContains(t, err, "server.port")
}

func TestZeroMinHistoryRejectedByEveryCommand(t *testing.T) {
	// GIVEN: A config with forecast.min_history set to 0
	// WHEN: Running serve or forecast
	// THEN: Both refuse the config before doing any work

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("forecast:\n  min_history: 0\n"), 0o644))

	for _, sub := range []string{"serve", "forecast"} {
		_, err := run(t, dir, sub)
		assert.ErrorContains(t, err, "forecast.min_history", sub)
	}
}
