package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/arena/config"
	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/pnl"
	"github.com/rustyeddy/arena/pricing"
	"github.com/rustyeddy/arena/store"
)

// app holds the wiring shared by the subcommands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.SQLite
}

// loadConfig resolves settings with precedence flag > env > file > default.
func (rc *RootConfig) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		loaded, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(rc.EnvFile); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = rc.DBPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = rc.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (rc *RootConfig) open(cmd *cobra.Command) (*app, error) {
	cfg, err := rc.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	log.Debug("database opened", zap.String("path", cfg.Database.Path))
	return &app{cfg: cfg, log: log, store: st}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.log.Sync()
}

// priceService builds the cached price service. Without an API key the
// service has no upstream and every lookup reports the missing key.
func (a *app) priceService() (*pricing.Service, error) {
	ttl, err := a.cfg.Pricing.CacheTTLDuration()
	if err != nil {
		return nil, err
	}
	cache := pricing.NewCache(ttl, pricing.SystemClock{})

	if a.cfg.Pricing.APIKey == "" {
		a.log.Warn("no pricing API key configured, price lookups will fail")
		return pricing.NewService(cache, nil, a.log), nil
	}

	timeout, err := a.cfg.Pricing.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	td, err := pricing.NewTwelveData(pricing.TwelveDataConfig{
		BaseURL:       a.cfg.Pricing.BaseURL,
		APIKey:        a.cfg.Pricing.APIKey,
		Timeout:       timeout,
		RatePerMinute: a.cfg.Pricing.RatePerMinute,
		MaxRetries:    a.cfg.Pricing.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return pricing.NewService(cache, td, a.log), nil
}

func (a *app) engine(opts ...pnl.Option) *pnl.Engine {
	opts = append([]pnl.Option{pnl.WithJournal(a.store)}, opts...)
	return pnl.NewEngine(a.store, a.store, a.store, a.log, opts...)
}
