// Package cmd holds the awe command line: serve (the default) and migrate.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/awe/config"
	"github.com/cppla/awe/routes"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

var configPath string

// RootCommand serves the wiki when run without a subcommand.
var RootCommand = &cobra.Command{
	Use:          "awe",
	Short:        "Run the AWE wiki",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	RootCommand.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the JSON config file")

	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed and serve HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCommand := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and seed an empty database, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, closeDB, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			stats := st.Stats(cmd.Context())
			utils.Logger.Info("schema up to date",
				zap.Int64("users", stats.Users),
				zap.Int64("articles", stats.Articles))
			return nil
		},
	}

	RootCommand.AddCommand(serveCommand, migrateCommand)
}

// Execute runs the command line.
func Execute() error {
	return RootCommand.ExecuteContext(context.Background())
}

// bootstrap loads config, starts logging, opens the database, migrates and seeds.
func bootstrap(ctx context.Context) (config.AppConfig, *store.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}
	if err := utils.InitLogger(cfg); err != nil {
		return config.AppConfig{}, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = utils.Logger.Sync()
	}

	st := store.New(db, store.Options{
		BusyTimeout: time.Duration(cfg.BusyTimeoutMS) * time.Millisecond,
		Logger:      utils.Named("store"),
	})
	if err := st.Migrate(ctx); err != nil {
		closeDB()
		return config.AppConfig{}, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if err := seed(ctx, st, cfg); err != nil {
		closeDB()
		return config.AppConfig{}, nil, nil, fmt.Errorf("seed: %w", err)
	}
	return cfg, st, closeDB, nil
}

func seed(ctx context.Context, st *store.Store, cfg config.AppConfig) error {
	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	seeded, err := st.Seed(ctx, store.SeedData{
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: hash,
		WelcomeSlug:       cfg.HomeSlug(),
		WelcomeTitle:      cfg.HomeSlug(),
		WelcomeContent:    wiki.WelcomeContent(cfg.AppTitle),
	})
	if err != nil {
		return err
	}
	if seeded && generated {
		utils.Logger.Warn("admin account created with a generated password, change it after first login",
			zap.String("username", cfg.AdminUsername),
			zap.String("password", password))
	}
	return nil
}

func serve(ctx context.Context) error {
	cfg, st, closeDB, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	rc := utils.NewRedis(cfg)
	if rc != nil {
		defer rc.Close()
	}
	accessLog, err := utils.NewRollingFileLogger(cfg)
	if err != nil {
		utils.Sugar.Warnf("gin access log unavailable, using main logger: %v", err)
		accessLog = utils.Logger
	}

	var (
		mu     sync.Mutex
		swap   *routes.SwapHandler
		reload func(config.AppConfig) error
	)
	blacklist := utils.NewTokenBlacklist(rc)
	build := func(c config.AppConfig) http.Handler {
		return routes.SetupRouter(routes.Deps{
			Config:     c,
			ConfigPath: configPath,
			Store:      st,
			Redis:      rc,
			Blacklist:  blacklist,
			AccessLog:  accessLog,
			Reload:     reload,
		})
	}
	reload = func(next config.AppConfig) error {
		mu.Lock()
		defer mu.Unlock()
		if next.AppPort != cfg.AppPort || next.DBPath != cfg.DBPath || next.DBDriver != cfg.DBDriver {
			utils.Sugar.Warn("listener and database settings take effect after a restart")
		}
		swap.Swap(build(next))
		utils.Sugar.Infof("handler rebuilt title=%s", next.AppTitle)
		return nil
	}
	swap = routes.NewSwapHandler(build(cfg))

	onSignal := func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return reload(next)
	}

	addr := ":" + cfg.AppPort
	if cfg.TLSEnabled() {
		utils.Sugar.Infof("Starting server on %s with TLS (graceful)", addr)
		return utils.GraceServerTLS(ctx, addr, cfg.TLSCertFile, cfg.TLSKeyFile, swap, onSignal)
	}
	utils.Sugar.Infof("Starting server on %s (graceful)", addr)
	return utils.GraceServer(ctx, addr, swap, onSignal)
}
