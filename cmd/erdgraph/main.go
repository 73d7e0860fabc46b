package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"erdgraph/internal/introspect"
	"erdgraph/internal/logger"
	"erdgraph/pkg/config"
)

func main() {
	err := newApp().Run(context.Background(), os.Args)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "erdgraph",
		Usage: "introspect a database schema and draw it as a graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config YAML",
				Value:   "configs/example.yaml",
			},
			&cli.StringFlag{
				Name:    "driver",
				Usage:   "db driver override (postgres,pgx,mysql,sqlserver)",
				Sources: cli.EnvVars("ERDGRAPH_DRIVER"),
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "dsn override",
				Sources: cli.EnvVars("ERDGRAPH_DSN"),
			},
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "schema name or LIKE pattern",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "db connect timeout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			tablesCommand(),
			dotCommand(),
		},
	}
}

const (
	defaultSchema  = "public"
	defaultTimeout = 10 * time.Second
)

// settings is the merged result of config file, .env, environment and flags.
type settings struct {
	driver  string
	dsn     string
	schema  string
	output  string
	timeout time.Duration
}

func loadSettings(cmd *cli.Command) (settings, error) {
	var s settings
	if err := config.LoadDotEnv(); err != nil {
		return s, fmt.Errorf("load .env: %w", err)
	}

	var appCfg config.AppConfig
	if path := cmd.String("config"); path != "" {
		if c, err := config.LoadFile(path); err == nil {
			appCfg = c
		} else if !errors.Is(err, os.ErrNotExist) || cmd.IsSet("config") {
			return s, fmt.Errorf("read config file: %w", err)
		}
	}
	if err := config.ApplyEnv(&appCfg); err != nil {
		return s, err
	}

	if lvl := firstNonEmpty(cmd.String("log-level"), appCfg.Log.Level); lvl != "" {
		if err := logger.SetLevel(lvl); err != nil {
			return s, err
		}
	}

	if d, dsn := cmd.String("driver"), cmd.String("dsn"); d != "" && dsn != "" {
		s.driver, s.dsn = d, dsn
	} else if appCfg.Database.Type != "" {
		drv, dsn, err := config.BuildDriverAndDSN(appCfg.Database)
		if err != nil {
			return s, fmt.Errorf("build DSN: %w", err)
		}
		s.driver, s.dsn = drv, dsn
	} else {
		return s, errors.New("no database configured; use --driver and --dsn or a config file")
	}

	s.schema = firstNonEmpty(cmd.String("schema"), appCfg.Introspect.Schema, defaultSchema)
	s.output = appCfg.Introspect.Output
	s.timeout = defaultTimeout
	if appCfg.Introspect.TimeoutSeconds > 0 {
		s.timeout = time.Duration(appCfg.Introspect.TimeoutSeconds) * time.Second
	}
	if cmd.IsSet("timeout") {
		s.timeout = cmd.Duration("timeout")
	}
	return s, nil
}

func extract(ctx context.Context, cmd *cli.Command) ([]introspect.Table, settings, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, s, err
	}
	logger.Debug("introspecting schema %q with driver %s", s.schema, s.driver)
	tables, err := introspect.ConnectAndExtract(ctx, s.driver, s.dsn, s.timeout, s.schema)
	return tables, s, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
