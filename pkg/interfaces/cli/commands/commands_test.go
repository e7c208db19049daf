package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/application/dto"
	testhelpers "github.com/vsinha/lineage/pkg/application/services/testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInput(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeScenario(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	files := map[string]string{
		"orders.csv": "order_id,date,terms,notes,reference_number\n" +
			"SO-C1,2023-01-01,,,\n" +
			"SO-2,2023-06-05,,,\n",
		"order_lines.csv": "order_id,sku,name,quantity,rate\n" +
			"SO-C1,HIFCSA-1YR,1 Year CSA Prepaid,1,1100\n",
		"shipments.csv": "order_id,package_id,ship_date,delivery_date,sku,serial\n" +
			"SO-C1,PKG-C1,2023-01-01,,P313N00,S1\n" +
			"SO-2,PKG-2,2023-06-05,,P313N00,S2\n",
		"returns.csv": "rma_id,receipt_id,date,serial\n" +
			"RMA-1,R-1,2023-06-01,S1\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestResolve_JSONInput(t *testing.T) {
	path := writeInput(t, t.TempDir(), "acme.json", testhelpers.ReplacementScenario().Build())

	out, err := run(t, "resolve", "--input", path, "--format", "json")
	require.NoError(t, err)

	var result dto.LineageResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Chains, 1)
	assert.Equal(t, []string{"S1", "S2"}, result.Chains[0].Serials)
}

func TestResolve_ScenarioText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "acme")
	writeScenario(t, dir)

	out, err := run(t, "resolve", "--scenario", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "[SO-C1] S1 → S2 → In Field")
	assert.Contains(t, out, "Suspected In Field: S2")
}

func TestResolve_EngineFlagsOverrideConfig(t *testing.T) {
	path := writeInput(t, t.TempDir(), "acme.json", testhelpers.ReplacementScenario().Build())

	out, err := run(t, "resolve", "--input", path, "--format", "json", "--strategy", "greedy", "--as-of", "2024-01-01")
	require.NoError(t, err)

	var result dto.LineageResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "2024-01-01", result.Summary.AsOf)
	assert.Equal(t, "1", result.Cohorts[0].Metrics.AccruedYears.String())

	_, err = run(t, "resolve", "--input", path, "--window-days", "0")
	assert.ErrorContains(t, err, "validation error")
}

func TestResolve_Errors(t *testing.T) {
	_, err := run(t, "resolve")
	assert.Error(t, err)

	_, err = run(t, "resolve", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "error loading input")

	path := writeInput(t, t.TempDir(), "acme.json", testhelpers.ReplacementScenario().Build())
	_, err = run(t, "resolve", "--input", path, "--strategy", "random")
	assert.ErrorContains(t, err, "validation error")
}

func TestBatch_Scenarios(t *testing.T) {
	root := t.TempDir()
	writeScenario(t, filepath.Join(root, "acme"))
	writeScenario(t, filepath.Join(root, "beta"))
	outDir := t.TempDir()

	_, err := run(t, "batch", "--scenarios", root, "--format", "csv", "--output", outDir, "--workers", "2")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "acme_lineage_cohorts.csv"))
	assert.FileExists(t, filepath.Join(outDir, "beta_lineage_chains.csv"))
}

func TestBatch_ReportsFailedGroups(t *testing.T) {
	good := testhelpers.ReplacementScenario().Build()
	good.GroupID = "good"
	path := writeInput(t, t.TempDir(), "groups.json", []dto.BatchInput{good, {GroupID: "bad"}})

	out, err := run(t, "batch", "--input", path)
	assert.ErrorContains(t, err, "1 of 2 groups failed")
	assert.Contains(t, out, "=== good (run ")
	assert.Contains(t, out, "❌ bad")
}
