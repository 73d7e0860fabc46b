package main

import (
	"cmp"
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"erdgraph/internal/dialect"
	"erdgraph/internal/logger"
	"erdgraph/pkg/config"
)

const (
	defaultPort   = 8080
	defaultSchema = "public"
)

func main() {
	// flags
	cfgPath := flag.String("config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	driverFlag := flag.String("driver", "", "db driver override (postgres,pgx,mysql,sqlserver)")
	dsnFlag := flag.String("dsn", "", "dsn override")
	port := flag.Int("port", 0, "http port (overrides config, default"+fmt.Sprintf(" %d)", defaultPort))
	timeout := flag.Duration("timeout", 10*time.Second, "db connect timeout")
	webdir := flag.String("web", filepath.Join(".", "web"), "web ui directory")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("error loading .env: %v", err)
	}

	// attempt to load config file (optional)
	var appCfg config.AppConfig
	logger.Info("config file %s", *cfgPath)
	if c, err := config.LoadFile(*cfgPath); err == nil {
		appCfg = c
	} else {
		logger.Error("error reading config file: %v", err)
	}
	if err := config.ApplyEnv(&appCfg); err != nil {
		logger.Error("error reading environment: %v", err)
	}
	if appCfg.Log.Level != "" {
		if err := logger.SetLevel(appCfg.Log.Level); err != nil {
			logger.Error("%v", err)
		}
	}

	to := *timeout
	if appCfg.Introspect.TimeoutSeconds > 0 {
		to = time.Duration(appCfg.Introspect.TimeoutSeconds) * time.Second
	}
	st := &state{timeout: to, schema: cmp.Or(appCfg.Introspect.Schema, defaultSchema)}

	// allow CLI overrides
	if *driverFlag != "" && *dsnFlag != "" {
		st.setActive(*driverFlag, *dsnFlag)
		appCfg.Database = config.DBConfig{Type: *driverFlag, DSN: *dsnFlag}
	} else if appCfg.Database.Type != "" {
		drv, dsn, err := config.BuildDriverAndDSN(appCfg.Database)
		if err == nil {
			st.setActive(drv, dsn)
		} else {
			logger.Error("error building DSN: %v", err)
		}
	}
	st.cfg = appCfg.Database

	*port = cmp.Or(*port, appCfg.Server.Port, defaultPort)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(st, *webdir)

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Info("listening on %s, serving %s", addr, *webdir)
	logger.Info("introspectable dialects: %v", introspectable())
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("%v", err)
	}
}

func introspectable() []dialect.ID {
	var ids []dialect.ID
	for _, id := range dialect.IDs() {
		if dialect.SupportsIntrospection(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
