package plugins

import (
	"context"
	"errors"
	"net/http"

	"github.com/podlake/explorer/explorer/model"
)

var ErrPluginNotApplicable = errors.New("plugin not applicable")

// PreRequestPlugin may enrich the request context before a handler runs.
// Returning ErrPluginNotApplicable skips the plugin.
type PreRequestPlugin func(ctx context.Context, req *http.Request) (context.Context, error)

var preRequestPlugins []PreRequestPlugin

func RegisterPreRequestPlugin(name string, plugin PreRequestPlugin) {
	preRequestPlugins = append(preRequestPlugins, plugin)
}

func GetPreRequestPlugins() []PreRequestPlugin {
	return preRequestPlugins
}

type DatabaseRegistryPlugin func() model.IDBRegistry

var databaseRegistryPlugin *DatabaseRegistryPlugin

func RegisterDatabaseRegistryPlugin(plugin DatabaseRegistryPlugin) {
	databaseRegistryPlugin = &plugin
}

func GetDatabaseRegistryPlugin() *DatabaseRegistryPlugin {
	return databaseRegistryPlugin
}
