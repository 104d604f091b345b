package maintenance

import (
	"fmt"

	"github.com/metrico/cloki-config/config"
	"github.com/podlake/explorer/ctrl/maintenance"
)

// Options are the explorer specific inputs of the schema upgrade.
type Options struct {
	WindowsTable string
	HorizonDays  int
}

func InitDB(dbObject *config.ClokiBaseDataBase, logger maintenance.ILogger) error {
	if dbObject.Name == "" || dbObject.Name == "default" {
		return nil
	}
	conn, err := maintenance.ConnectV2(dbObject, false, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	return maintenance.InitDBTry(conn, dbObject.ClusterName, dbObject.Name, logger)
}

func upgradeDB(dbObject *config.ClokiBaseDataBase, opts Options, logger maintenance.ILogger) error {
	conn, err := maintenance.ConnectV2(dbObject, true, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	return Update(conn, dbObject.Name, dbObject.ClusterName, dbObject.Cloud, opts, logger)
}

func UpgradeAll(config []config.ClokiBaseDataBase, opts Options, logger maintenance.ILogger) error {
	for i := range config {
		dbObject := &config[i]
		logger.Info(fmt.Sprintf("Upgrading %s:%d/%s", dbObject.Host, dbObject.Port, dbObject.Name))
		if err := upgradeDB(dbObject, opts, logger); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Upgrading %s:%d/%s: OK", dbObject.Host, dbObject.Port, dbObject.Name))
	}
	return nil
}
