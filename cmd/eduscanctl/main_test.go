package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"eduscan-api/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_DRIVER", "none")
	t.Setenv("REDIS_HOST", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummaryOnEmptyDataDir(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--data-dir", dir, "summary")
	require.NoError(t, err)

	var summary services.DataSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 0, summary.TotalPredictions)
	assert.Equal(t, 3, summary.TotalUsers)
}

func TestExportWithoutRecords(t *testing.T) {
	_, err := run(t, "--data-dir", t.TempDir(), "export", "--type", "observations", "--format", "csv")
	assert.True(t, errors.Is(err, services.ErrNoData))
}

func TestPurgeRejectsNegativeDays(t *testing.T) {
	_, err := run(t, "--data-dir", t.TempDir(), "purge", "--days=-1")
	assert.Error(t, err)
}

func TestTrainRequiresCSV(t *testing.T) {
	_, err := run(t, "--data-dir", t.TempDir(), "train", "--variant", "screening", "--csv", "")
	assert.Error(t, err)
}
