package explorer

import (
	"net"
	"net/http"
	"runtime"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	clconfig "github.com/metrico/cloki-config"
	"github.com/podlake/explorer/explorer/config"
	"github.com/podlake/explorer/explorer/dbRegistry"
	"github.com/podlake/explorer/explorer/model"
	"github.com/podlake/explorer/explorer/plugins"
	apirouterv1 "github.com/podlake/explorer/explorer/router"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/service"
	"github.com/podlake/explorer/explorer/utils/logger"
	"github.com/podlake/explorer/explorer/utils/middleware"
	"github.com/podlake/explorer/explorer/watchdog"
)

var ownHttpServer = false

func Init(cnf *clconfig.ClokiConfig, app *mux.Router) {
	config.Cloki = cnf

	if config.Cloki.Setting.SYSTEM_SETTINGS.CPUMaxProcs == 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(config.Cloki.Setting.SYSTEM_SETTINGS.CPUMaxProcs)
	}

	logger.InitLogger()

	if app == nil {
		app = mux.NewRouter()
		ownHttpServer = true
	}

	configureAsHTTPServer(app)
}

func configureAsHTTPServer(acc *mux.Router) {
	httpURL := func() string {
		stream := jsoniter.ConfigFastest.BorrowStream(nil)
		defer jsoniter.ConfigFastest.ReturnStream(stream)
		stream.WriteRaw(config.Cloki.Setting.HTTP_SETTINGS.Host)
		stream.WriteRaw(":")
		stream.WriteInt64(int64(config.Cloki.Setting.HTTP_SETTINGS.Port))
		return string(stream.Buffer())
	}()
	applyMiddlewares(acc)

	performV1APIRouting(acc)

	if ownHttpServer {
		httpStart(acc, httpURL)
	}
}

func applyMiddlewares(acc *mux.Router) {
	if !ownHttpServer {
		return
	}
	if config.Cloki.Setting.AUTH_SETTINGS.BASIC.Username != "" &&
		config.Cloki.Setting.AUTH_SETTINGS.BASIC.Password != "" {
		acc.Use(middleware.BasicAuthMiddleware(config.Cloki.Setting.AUTH_SETTINGS.BASIC.Username,
			config.Cloki.Setting.AUTH_SETTINGS.BASIC.Password))
	}
	acc.Use(middleware.AcceptEncodingMiddleware)
	if config.Cloki.Setting.HTTP_SETTINGS.Cors.Enable {
		acc.Use(middleware.CorsMiddleware(config.Cloki.Setting.HTTP_SETTINGS.Cors.Origin,
			config.Explorer.AuthorizedHeader, config.Explorer.UserHeader))
	}
	acc.Use(middleware.LoggingMiddleware("[{{.status}}] {{.method}} {{.url}} {{.user}} - LAT:{{.latency}}"))
}

func httpStart(server *mux.Router, httpURL string) {
	logger.Info("Starting service")
	listener, err := net.Listen("tcp", httpURL)
	if err != nil {
		logger.Error("Error creating listener:", err)
		panic(err)
	}
	logger.Info("Server is listening on", httpURL)
	if err := http.Serve(listener, server); err != nil {
		logger.Error("Error serving:", err)
		panic(err)
	}
}

func loadSchema() *schema.Registry {
	if config.Explorer.SchemaPath == "" {
		return schema.Default()
	}
	reg, err := schema.LoadFile(config.Explorer.SchemaPath)
	if err != nil {
		logger.Error("Unable to load schema: ", err)
		panic(err)
	}
	return reg
}

func performV1APIRouting(acc *mux.Router) {
	plugins.RegisterPreRequestPlugin("authorization",
		plugins.AuthorizationPlugin(config.Explorer.AuthorizedHeader, config.Explorer.UserHeader))

	dbRegistry.Init()
	watchdog.Init(&model.ServiceData{Session: dbRegistry.Registry})

	svc := service.NewExplorerService(dbRegistry.NewWarehouse(dbRegistry.Registry, config.Explorer.Warehouse),
		loadSchema(), config.Explorer.LookupTTL, nil)

	apirouterv1.RouteExplorer(acc, svc)
	apirouterv1.RouteSchema(acc, svc)
}
