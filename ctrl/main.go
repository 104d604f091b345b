package ctrl

import (
	"fmt"

	clconfig "github.com/metrico/cloki-config"
	"github.com/metrico/cloki-config/config"
	"github.com/podlake/explorer/ctrl/explorer/maintenance"
	shared "github.com/podlake/explorer/ctrl/maintenance"
)

type Options = maintenance.Options

var projects = map[string]struct {
	init    func(*config.ClokiBaseDataBase, shared.ILogger) error
	upgrade func([]config.ClokiBaseDataBase, Options, shared.ILogger) error
}{
	"explorer": {
		maintenance.InitDB,
		maintenance.UpgradeAll,
	},
}

// Init creates the databases and the precomputed tables the explorer reads.
func Init(config *clconfig.ClokiConfig, project string, opts Options, logger shared.ILogger) error {
	proj, ok := projects[project]
	if !ok {
		return fmt.Errorf("project %s not found", project)
	}
	for i := range config.Setting.DATABASE_DATA {
		if err := proj.init(&config.Setting.DATABASE_DATA[i], logger); err != nil {
			return err
		}
	}
	return proj.upgrade(config.Setting.DATABASE_DATA, opts, logger)
}
