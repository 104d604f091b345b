package maintenance

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/Masterminds/sprig"
	"github.com/grafana/regexp"
	"github.com/podlake/explorer/ctrl/explorer/sql"
	"github.com/podlake/explorer/ctrl/maintenance"
)

const cumeScriptsKey = 1

var (
	blankLines   = regexp.MustCompile(`(?m)^\s+$`)
	commentLines = regexp.MustCompile(`(?m)^##.*$`)
)

// Update applies the versioned scripts that are not applied yet and tops up
// the cume windows table.
func Update(db clickhouse.Conn, dbname string, clusterName string, cloud bool, opts Options,
	logger maintenance.ILogger) error {
	env := templateEnv(dbname, clusterName, cloud, opts)
	exec := getDBExec(db, env, logger)
	if err := updateScripts(db, exec, clusterName, cumeScriptsKey, sql.CumeScript, logger); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Filling %s up to %d windows", env["WindowsTable"], opts.HorizonDays))
	return exec(sql.FillScript)
}

func templateEnv(dbname string, clusterName string, cloud bool, opts Options) map[string]string {
	table := opts.WindowsTable
	if table == "" {
		table = "cume_windows"
	}
	env := map[string]string{
		"DB":                 "`" + dbname + "`",
		"CLUSTER":            clusterName,
		"OnCluster":          " ",
		"WindowsTable":       table,
		"Horizon":            strconv.Itoa(opts.HorizonDays + 1),
		"ReplacingMergeTree": "ReplacingMergeTree",
	}
	if clusterName != "" {
		env["OnCluster"] = "ON CLUSTER `" + clusterName + "`"
	}
	if cloud || clusterName != "" {
		env["ReplacingMergeTree"] = "ReplicatedReplacingMergeTree"
	}
	return env
}

func getSQLFile(strContents string) []string {
	var res []string
	strContents = blankLines.ReplaceAllString(strContents, "")
	strContents = commentLines.ReplaceAllString(strContents, "")
	for _, req := range strings.Split(strContents, ";\n\n") {
		req = strings.Trim(req, "\n ;")
		if req == "" {
			continue
		}
		res = append(res, req)
	}
	return res
}

func render(query string, env map[string]string) (string, error) {
	tpl, err := template.New("maintenance").Funcs(sprig.TxtFuncMap()).Parse(query)
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, env); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func getDBExec(db clickhouse.Conn, env map[string]string, logger maintenance.ILogger) func(query string) error {
	return func(query string) error {
		req, err := render(query, env)
		if err != nil {
			logger.Error(query)
			return err
		}
		ctx, cancel := maintenance.MakeTimeout()
		defer cancel()
		if err := db.Exec(ctx, req); err != nil {
			logger.Error(req)
			return err
		}
		return nil
	}
}

func updateScripts(db clickhouse.Conn, exec func(string) error, clusterName string, k uint64, file string,
	logger maintenance.ILogger) error {
	scripts := getSQLFile(file)
	err := exec("CREATE TABLE IF NOT EXISTS {{.DB}}.explorer_ver {{.OnCluster}} (k UInt64, ver UInt64) " +
		"ENGINE={{.ReplacingMergeTree}}(ver) ORDER BY k")
	if err != nil {
		return err
	}
	var ver uint64
	rows, err := db.Query(context.Background(), "SELECT max(ver) AS ver FROM explorer_ver WHERE k = $1", k)
	if err != nil {
		return err
	}
	for rows.Next() {
		if err := rows.Scan(&ver); err != nil {
			rows.Close()
			return err
		}
	}
	rows.Close()
	for i := ver; i < uint64(len(scripts)); i++ {
		logger.Info(fmt.Sprintf("Upgrade v.%d to v.%d ", i, i+1))
		if err := exec(scripts[i]); err != nil {
			return err
		}
		if err := db.Exec(context.Background(), "INSERT INTO explorer_ver (k, ver) VALUES ($1, $2)", k, i+1); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Upgrade v.%d to v.%d ok", i, i+1))
	}
	return nil
}
