package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"brankas/internal/backend"
	"brankas/internal/cli"
	"brankas/internal/config"
	"brankas/internal/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the root has loaded
// configuration.
type app struct {
	v      *viper.Viper
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:           "brankasctl",
		Short:         "Operate a brankas installation",
		Long:          `brankasctl runs maintenance tasks against the brankas store: schema migrations, balance reconciliation, period summaries, ledger backfills and outbox inspection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./brankas.yaml or $HOME/.config/brankas/brankas.yaml)")
	root.PersistentFlags().String("backend", "", "data backend (sqlite, memory)")
	root.PersistentFlags().String("db", "", "SQLite database path")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("data_backend", root.PersistentFlags().Lookup("backend"))
	_ = a.v.BindPFlag("sqlite_db_path", root.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.reconcileCmd())
	root.AddCommand(a.summaryCmd())
	root.AddCommand(a.mirrorCmd())
	root.AddCommand(a.outboxCmd())
	return root
}

func (a *app) initConfig(cmd *cobra.Command, cfgFile string) error {
	cli.LoadEnvFile()

	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("brankas")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home + "/.config/brankas")
		}
	}
	a.v.SetEnvPrefix("BRANKAS")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.logger = log.New(log.Config{
		Level:     log.ParseLevel(a.v.GetString("log_level")),
		Format:    a.v.GetString("log_format"),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	return nil
}

// config starts from the environment the server reads and lets the config
// file, BRANKAS_* variables and flags override it. The broker is never
// dialled from the CLI.
func (a *app) config() (*config.Config, error) {
	cfg := config.Load()
	override := func(key string, dst *string) {
		if s := a.v.GetString(key); s != "" {
			*dst = s
		}
	}
	override("data_backend", &cfg.DataBackend)
	override("sqlite_db_path", &cfg.SQLiteDBPath)
	override("object_store", &cfg.ObjectStore)
	override("object_store_dir", &cfg.ObjectStoreDir)
	override("object_store_base_url", &cfg.ObjectStoreBaseURL)
	override("gcs_bucket", &cfg.GCSBucket)
	override("google_spreadsheet_id", &cfg.GoogleSpreadsheetID)
	override("google_sheet_name", &cfg.GoogleSheetName)
	cfg.AMQPURL = ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) openBackend(ctx context.Context) (*backend.Resources, *config.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	return res, cfg, nil
}

func (a *app) closeBackend(res *backend.Resources) {
	if err := res.Cleanup(); err != nil {
		a.logger.Warn("Backend cleanup failed", log.FieldError, err)
	}
}

func requireUser(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
