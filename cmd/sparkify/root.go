package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sparkify/internal/config"
	"sparkify/internal/logging"
)

const defaultEnvFile = ".env"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sparkify",
		Short: "Load song metadata and listening logs into the Sparkify star schema",
		Long: `sparkify reads every *.json file under the song directory into the songs and
artists tables, then every *.json file under the log directory into the time,
users and songplays tables. Each file is committed in its own transaction; the
first failing file is rolled back and stops the run.

Settings come from the environment (optionally seeded from an env file) and
are overridden by flags.

Exit Codes:
  0  - Success
  1  - Any error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	f := cmd.Flags()
	f.String("env-file", defaultEnvFile, "Env file loaded before reading the environment (missing default is ignored)")
	f.String("song-dir", "", "Root of the song metadata files (env SONG_DIR)")
	f.String("log-dir", "", "Root of the event log files (env LOG_DIR)")
	f.String("db-host", "", "Database host (env DB_HOST)")
	f.Int("db-port", 0, "Database port (env DB_PORT)")
	f.String("db-name", "", "Database name (env DB_NAME)")
	f.String("db-user", "", "Database user (env DB_USER)")
	f.String("db-password", "", "Database password (env DB_PASSWORD)")
	f.String("db-sslmode", "", "Database sslmode (env DB_SSLMODE)")
	f.String("database-url", "", "Full connection URL, overrides the db-* flags (env DATABASE_URL)")
	f.String("lookup", "", "Song lookup strategy: direct or preload (env LOOKUP_MODE)")
	f.Bool("create-schema", false, "Create the star-schema tables if missing (env CREATE_SCHEMA)")
	f.String("log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	f.String("log-format", "", "Log format: json or text (env LOG_FORMAT)")
	f.String("metrics-textfile", "", "Write Prometheus metrics to this file after the run (env METRICS_TEXTFILE)")

	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	}).With("run_id", uuid.NewString())
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return runPipeline(ctx, cfg, db, cmd.OutOrStdout(), logger)
}

// loadConfig layers the env file, the environment, and explicitly set flags.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := loadEnvFile(envFile, flags.Changed("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile seeds the environment without overriding variables that are
// already set. A missing file is only an error when it was asked for.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	strs := map[string]*string{
		"song-dir":         &cfg.Paths.SongDir,
		"log-dir":          &cfg.Paths.LogDir,
		"db-host":          &cfg.Database.Host,
		"db-name":          &cfg.Database.Name,
		"db-user":          &cfg.Database.User,
		"db-password":      &cfg.Database.Password,
		"db-sslmode":       &cfg.Database.SSLMode,
		"database-url":     &cfg.Database.URL,
		"lookup":           &cfg.Loader.Lookup,
		"log-level":        &cfg.Logging.Level,
		"log-format":       &cfg.Logging.Format,
		"metrics-textfile": &cfg.Metrics.Textfile,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("db-port") {
		port, err := flags.GetInt("db-port")
		if err != nil {
			return err
		}
		cfg.Database.Port = port
	}
	if flags.Changed("create-schema") {
		create, err := flags.GetBool("create-schema")
		if err != nil {
			return err
		}
		cfg.Loader.CreateSchema = create
	}

	return nil
}
