/*
main.go - Application entry point

PURPOSE:
  Builds the budgetbot CLI. Loads configuration, creates the logger and the
  SQLite store, and hands them to the selected subcommand.

COMMANDS:
  serve             Run the HTTP server (default when no subcommand is given)
  exec <words...>   Run one chat command and print the reply
  seed <scenario>   Reset the database and load a demo scenario

FLAGS (override config file and environment):
  --config     YAML config file
  --port       HTTP server port (default: 5000)
  --db         SQLite database path (default: budget.db)
               Use ":memory:" for an in-memory database
  --log-level  debug, info, warn or error

ENVIRONMENT:
  BUDGETBOT_PORT, BUDGETBOT_DB, BUDGETBOT_LOG_LEVEL

EXAMPLES:
  # Run with file database
  budgetbot --db=./data/budget.db

  # One-off command
  budgetbot exec add cost center code eng name '"Engineering"'

SEE ALSO:
  - serve.go: Server lifecycle
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/budgetbot/command"
	"github.com/warp/budgetbot/config"
	"github.com/warp/budgetbot/logging"
	"github.com/warp/budgetbot/store/sqlite"
)

var (
	configPath string
	flagPort   int
	flagDB     string
	flagLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "budgetbot",
	Short:         "Budget management chat service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.IntVar(&flagPort, "port", 0, "HTTP server port")
	pf.StringVar(&flagDB, "db", "", "SQLite database path")
	pf.StringVar(&flagLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, execCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, applies any flags the
// user set explicitly, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = flagPort
	}
	if flags.Changed("db") {
		cfg.Database.Path = flagDB
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLevel
	}
	return cfg, cfg.Validate()
}

// app is the set of dependencies shared by every subcommand.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	store *sqlite.Store
	bot   *command.Bot
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bot := command.New(store, command.WithLogger(log))
	return &app{cfg: cfg, log: log, store: store, bot: bot}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	a.log.Sync()
}
