/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the payroll engine: runs the HTTP server and the
  maintenance commands that share its configuration.

COMMANDS:
  serve    Start the HTTP API (default when no command is given)
  migrate  Apply, revert or inspect schema migrations
  rebuild  Extend every ledger to today once and exit
  seed     Reset the database and load a demo scenario

CONFIGURATION (increasing precedence):
  1. Defaults (config/config.go)
  2. .env file in the working directory
  3. --config file (yaml, json or toml)
  4. Environment: PORT, DATABASE_PATH, LOG_LEVEL, SCHEDULER_ENABLED, ...
  5. Flags

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the rebuild scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server serve --db ./data/payroll.db

  # Run with in-memory database and a demo scenario
  ./server seed --db ":memory:" --scenario team

  # Run on different port with hourly catch-up
  PORT=3000 ./server serve --scheduler

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings and defaults
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs after configuration is loaded.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:          "server",
		Short:        "Payroll ledger engine",
		Long:         `Derives daily pay ledgers from salaries, department hours and holidays, and serves them over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("db", "", "SQLite database path (\":memory:\" for in-memory)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json or console)")
	_ = a.v.BindPFlag("database.path", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	serve := newServeCmd(a)
	root.AddCommand(serve, newMigrateCmd(a), newRebuildCmd(a), newSeedCmd(a))
	root.RunE = serve.RunE
	return root
}

// openService opens the configured store and wraps it in a service on the
// system clock.
func (a *app) openService() (*payroll.Service, *sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return payroll.NewService(store, payroll.SystemClock{}), store, nil
}
