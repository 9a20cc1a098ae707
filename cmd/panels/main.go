package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/panels/internal/config"
	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/engine"
	"github.com/jask/panels/internal/logging"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/store"
)

var (
	dbPath   string
	dbDriver string
	verbose  bool
)

// env is everything a command needs, built once per invocation.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	db    *sql.DB
	types *paneltype.Registry
	store *store.Store
	eng   *engine.Manager
}

func (e *env) Close() {
	if e.eng != nil {
		e.eng.Shutdown()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	e := &env{cfg: cfg}
	if e.log, err = logging.New(cfg.Log); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	var extra []paneltype.Type
	if cfg.Types.File != "" {
		if extra, err = paneltype.LoadFile(cfg.Types.File); err != nil {
			e.Close()
			return nil, err
		}
	}
	if e.types, err = paneltype.Builtin(extra...); err != nil {
		e.Close()
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		e.Close()
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if e.db, err = database.Open(cfg.Database.Driver, cfg.Database.Path); err != nil {
		e.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrations(e.db); err != nil {
		e.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	e.store = store.New(e.db, e.types, store.WithLogger(e.log.Named("store")))
	if err := database.SeedDefaults(ctx, e.store, cfg.UI.Root); err != nil {
		e.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	e.eng = engine.New(e.store, e.types,
		engine.WithLogger(e.log.Named("engine")),
		engine.WithMaxDepth(cfg.Resolver.MaxDepth))
	e.log.Info("started",
		zap.String("db", cfg.Database.Path),
		zap.String("driver", cfg.Database.Driver),
		zap.Int("types", len(e.types.Tags())))
	return e, nil
}

var rootCmd = &cobra.Command{
	Use:   "panels",
	Short: "Nested panels of tasks, numbers, notes and calendars",
	Long: `panels keeps a graph of panels in sqlite. A panel can sit in any number
of places at once; every open view showing it is updated on each change.

Run without arguments to open the configured root panel.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOpen(cmd.Context(), "", "")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "sqlite driver: sqlite3 or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	openCmd.Flags().StringVar(&openType, "type", "", "create the panel with this type if it does not exist")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm")
	rootCmd.AddCommand(openCmd, createCmd, pathsCmd, typesCmd, exportCmd, generateMonthCmd, resetCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
