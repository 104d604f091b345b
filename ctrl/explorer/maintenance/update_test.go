package maintenance

import (
	"testing"

	"github.com/podlake/explorer/ctrl/explorer/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSQLFile(t *testing.T) {
	scripts := getSQLFile(sql.CumeScript)
	require.Len(t, scripts, 1)
	assert.NotContains(t, scripts[0], "##")
	assert.NotContains(t, scripts[0], ";")
}

func TestRenderCumeScripts(t *testing.T) {
	env := templateEnv("podlake", "", false, Options{HorizonDays: 3650})
	req, err := render(getSQLFile(sql.CumeScript)[0], env)
	require.NoError(t, err)
	assert.Contains(t, req, "CREATE TABLE IF NOT EXISTS `podlake`.cume_windows")
	assert.Contains(t, req, "ENGINE = ReplacingMergeTree() ORDER BY window_number")

	fill, err := render(sql.FillScript, env)
	require.NoError(t, err)
	assert.Contains(t, fill, "numbers(3651)")
	assert.Contains(t, fill, "(SELECT count() FROM `podlake`.cume_windows FINAL)")
}

func TestRenderOnCluster(t *testing.T) {
	env := templateEnv("podlake", "main", false, Options{WindowsTable: "windows", HorizonDays: 10})
	req, err := render(getSQLFile(sql.CumeScript)[0], env)
	require.NoError(t, err)
	assert.Contains(t, req, "`podlake`.windows ON CLUSTER `main`")
	assert.Contains(t, req, "ReplicatedReplacingMergeTree()")
}
