package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	clconfig "github.com/metrico/cloki-config"
	"github.com/metrico/cloki-config/config"
	"github.com/podlake/explorer/ctrl"
	ctrlexplorer "github.com/podlake/explorer/ctrl/explorer/maintenance"
	"github.com/podlake/explorer/explorer"
	explorerconfig "github.com/podlake/explorer/explorer/config"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/utils/logger"
	"github.com/podlake/explorer/explorer/utils/middleware"
	"github.com/podlake/explorer/shared/commonroutes"
)

var appFlags CommandLineFlags

type CommandLineFlags struct {
	InitializeDB    *bool   `json:"initialize_db"`
	ShowHelpMessage *bool   `json:"help"`
	ShowVersion     *bool   `json:"version"`
	ConfigPath      *string `json:"config_path"`
}

func initFlags() {
	appFlags.InitializeDB = flag.Bool("initialize_db", false, "initialize the database and create all tables")
	appFlags.ShowHelpMessage = flag.Bool("help", false, "show help")
	appFlags.ShowVersion = flag.Bool("version", false, "show version")
	appFlags.ConfigPath = flag.String("config", "", "the path to the config file")
	flag.Parse()
}

func boolEnv(key string) (bool, error) {
	val := os.Getenv(key)
	for _, v := range []string{"true", "1", "yes", "y"} {
		if v == val {
			return true, nil
		}
	}
	for _, v := range []string{"false", "0", "no", "n", ""} {
		if v == val {
			return false, nil
		}
	}
	return false, fmt.Errorf("%s value must be one of [no, n, false, 0, yes, y, true, 1]", key)
}

func maintenanceOptions() ctrl.Options {
	opts := ctrl.Options{HorizonDays: explorerconfig.Explorer.CumeHorizonDays}
	reg := schema.Default()
	if explorerconfig.Explorer.SchemaPath != "" {
		var err error
		if reg, err = schema.LoadFile(explorerconfig.Explorer.SchemaPath); err != nil {
			panic(err)
		}
	}
	opts.WindowsTable = reg.Cume.WindowsTable
	return opts
}

func initDB(cfg *clconfig.ClokiConfig) {
	bVal, err := boolEnv("OMIT_CREATE_TABLES")
	if err != nil {
		panic(err)
	}
	if bVal {
		return
	}
	if explorerconfig.Explorer.Warehouse == explorerconfig.WarehouseDuckDB {
		err = ctrlexplorer.InitDuckDB(explorerconfig.Explorer.DuckDBPath, maintenanceOptions(), logger.Logger)
	} else {
		err = ctrl.Init(cfg, "explorer", maintenanceOptions(), logger.Logger)
	}
	if err != nil {
		panic(err)
	}
}

func portCHEnv(cfg *clconfig.ClokiConfig) error {
	if len(cfg.Setting.DATABASE_DATA) > 0 {
		return nil
	}
	cfg.Setting.DATABASE_DATA = []config.ClokiBaseDataBase{{
		ReadTimeout:  30,
		WriteTimeout: 30,
		Node:         "default",
	}}
	db := "podlake"
	if os.Getenv("CLICKHOUSE_DB") != "" {
		db = os.Getenv("CLICKHOUSE_DB")
	}
	cfg.Setting.DATABASE_DATA[0].Name = db
	if os.Getenv("CLUSTER_NAME") != "" {
		cfg.Setting.DATABASE_DATA[0].ClusterName = os.Getenv("CLUSTER_NAME")
	}
	server := "localhost"
	if os.Getenv("CLICKHOUSE_SERVER") != "" {
		server = os.Getenv("CLICKHOUSE_SERVER")
	}
	cfg.Setting.DATABASE_DATA[0].Host = server
	strPort := "9000"
	if os.Getenv("CLICKHOUSE_PORT") != "" {
		strPort = os.Getenv("CLICKHOUSE_PORT")
	}
	port, err := strconv.ParseUint(strPort, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}
	cfg.Setting.DATABASE_DATA[0].Port = uint32(port)
	if os.Getenv("CLICKHOUSE_AUTH") != "" {
		auth := strings.SplitN(os.Getenv("CLICKHOUSE_AUTH"), ":", 2)
		cfg.Setting.DATABASE_DATA[0].User = auth[0]
		if len(auth) > 1 {
			cfg.Setting.DATABASE_DATA[0].Password = auth[1]
		}
	}
	secure := false
	if os.Getenv("CLICKHOUSE_PROTO") == "https" || os.Getenv("CLICKHOUSE_PROTO") == "tls" {
		secure = true
	}
	cfg.Setting.DATABASE_DATA[0].Secure = secure
	insecureSkipVerify, err := boolEnv("SELF_SIGNED_CERT")
	if err != nil {
		return fmt.Errorf("invalid self_signed_cert value: %w", err)
	}
	cfg.Setting.DATABASE_DATA[0].InsecureSkipVerify = insecureSkipVerify
	return nil
}

func portExplorerEnv() error {
	settings := &explorerconfig.Explorer
	if os.Getenv("EXPLORER_SCHEMA") != "" {
		settings.SchemaPath = os.Getenv("EXPLORER_SCHEMA")
	}
	if os.Getenv("EXPLORER_WAREHOUSE") != "" {
		settings.Warehouse = os.Getenv("EXPLORER_WAREHOUSE")
	}
	switch settings.Warehouse {
	case explorerconfig.WarehouseClickHouse, explorerconfig.WarehouseDuckDB:
	default:
		return fmt.Errorf("unsupported warehouse `%s`", settings.Warehouse)
	}
	if os.Getenv("DUCKDB_PATH") != "" {
		settings.DuckDBPath = os.Getenv("DUCKDB_PATH")
	}
	if os.Getenv("EXPLORER_AUTHORIZED_HEADER") != "" {
		settings.AuthorizedHeader = os.Getenv("EXPLORER_AUTHORIZED_HEADER")
	}
	if os.Getenv("EXPLORER_USER_HEADER") != "" {
		settings.UserHeader = os.Getenv("EXPLORER_USER_HEADER")
	}
	if os.Getenv("LOOKUP_TTL") != "" {
		ttl, err := time.ParseDuration(os.Getenv("LOOKUP_TTL"))
		if err != nil {
			return fmt.Errorf("invalid lookup ttl value: %w", err)
		}
		settings.LookupTTL = ttl
	}
	if os.Getenv("CUME_HORIZON_DAYS") != "" {
		days, err := strconv.Atoi(os.Getenv("CUME_HORIZON_DAYS"))
		if err != nil {
			return fmt.Errorf("invalid cume horizon value: %w", err)
		}
		settings.CumeHorizonDays = days
	}
	return nil
}

func portEnv(cfg *clconfig.ClokiConfig) error {
	if err := portCHEnv(cfg); err != nil {
		return err
	}
	if err := portExplorerEnv(); err != nil {
		return err
	}
	if os.Getenv("EXPLORER_LOGIN") != "" {
		cfg.Setting.AUTH_SETTINGS.BASIC.Username = os.Getenv("EXPLORER_LOGIN")
	}
	if os.Getenv("EXPLORER_PASSWORD") != "" {
		cfg.Setting.AUTH_SETTINGS.BASIC.Password = os.Getenv("EXPLORER_PASSWORD")
	}
	if os.Getenv("CORS_ALLOW_ORIGIN") != "" {
		cfg.Setting.HTTP_SETTINGS.Cors.Enable = true
		cfg.Setting.HTTP_SETTINGS.Cors.Origin = os.Getenv("CORS_ALLOW_ORIGIN")
	}
	if os.Getenv("PORT") != "" {
		port, err := strconv.Atoi(os.Getenv("PORT"))
		if err != nil {
			return fmt.Errorf("invalid port number: %w", err)
		}
		cfg.Setting.HTTP_SETTINGS.Port = port
	}
	if os.Getenv("HOST") != "" {
		cfg.Setting.HTTP_SETTINGS.Host = os.Getenv("HOST")
	}
	if cfg.Setting.HTTP_SETTINGS.Host == "" {
		cfg.Setting.HTTP_SETTINGS.Host = "0.0.0.0"
	}
	if os.Getenv("LOG_LEVEL") != "" {
		cfg.Setting.LOG_SETTINGS.Level = os.Getenv("LOG_LEVEL")
	}
	mode := "all"
	if os.Getenv("MODE") != "" {
		mode = os.Getenv("MODE")
	}
	cfg.Setting.SYSTEM_SETTINGS.Mode = mode
	return nil
}

func main() {
	initFlags()
	if *appFlags.ShowHelpMessage {
		flag.Usage()
		return
	}
	if *appFlags.ShowVersion {
		fmt.Println(commonroutes.Version)
		return
	}
	var configPaths []string
	if _, err := os.Stat(*appFlags.ConfigPath); err == nil {
		configPaths = append(configPaths, *appFlags.ConfigPath)
	}
	cfg := clconfig.New(clconfig.CLOKI_READER, configPaths, "", "")

	cfg.ReadConfig()

	err := portEnv(cfg)
	if err != nil {
		panic(err)
	}
	if cfg.Setting.HTTP_SETTINGS.Port == 0 {
		cfg.Setting.HTTP_SETTINGS.Port = 3200
	}
	cfg.Setting.LOG_SETTINGS.Stdout = true
	explorerconfig.Cloki = cfg
	logger.InitLogger()

	if *appFlags.InitializeDB || cfg.Setting.SYSTEM_SETTINGS.Mode == "all" ||
		cfg.Setting.SYSTEM_SETTINGS.Mode == "init_only" {
		initDB(cfg)
	}
	if cfg.Setting.SYSTEM_SETTINGS.Mode == "init_only" {
		return
	}

	app := mux.NewRouter()
	if cfg.Setting.AUTH_SETTINGS.BASIC.Username != "" &&
		cfg.Setting.AUTH_SETTINGS.BASIC.Password != "" {
		app.Use(middleware.BasicAuthMiddleware(cfg.Setting.AUTH_SETTINGS.BASIC.Username,
			cfg.Setting.AUTH_SETTINGS.BASIC.Password))
	}
	app.Use(middleware.AcceptEncodingMiddleware)
	if cfg.Setting.HTTP_SETTINGS.Cors.Enable {
		app.Use(middleware.CorsMiddleware(cfg.Setting.HTTP_SETTINGS.Cors.Origin,
			explorerconfig.Explorer.AuthorizedHeader, explorerconfig.Explorer.UserHeader))
	}
	app.Use(middleware.LoggingMiddleware("[{{.status}}] {{.method}} {{.url}} {{.user}} - LAT:{{.latency}}"))
	commonroutes.RegisterCommonRoutes(app)
	explorer.Init(cfg, app)

	httpURL := fmt.Sprintf("%s:%d", cfg.Setting.HTTP_SETTINGS.Host, cfg.Setting.HTTP_SETTINGS.Port)
	httpStart(app, httpURL)
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
