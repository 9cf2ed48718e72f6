package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/events"
	"sfcars-engine/internal/httpapi"
	"sfcars-engine/internal/scheduler"
	"sfcars-engine/internal/secrets"
	"sfcars-engine/internal/store"
)

func main() {
	_ = godotenv.Load()

	dataDir := os.Getenv("SFCARS_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("data dir")
	}

	// Single instance per data dir.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatal().Err(err).Msg("lock failed")
	}
	if !locked {
		log.Fatal().Str("dir", dataDir).Msg("another engine is already running")
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config bootstrap failed")
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		config.OverlayEnv(&cfg)
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatal().Err(err).Str("path", userCfgPath).Msg("config load failed")
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "sfcars.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	jwtSecret, err := secrets.JWTSecret(cfg.Auth.KeyringAccount)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt secret")
	}

	hub := events.NewHub()

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		JWTSecret:   jwtSecret,
	})

	middlewares := []httpapi.Middleware{
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	}
	if cfg.RateLimit.PerSecond > 0 {
		middlewares = append(middlewares, httpapi.RateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	}
	handler := httpapi.Chain(mux, middlewares...)

	addr := net.JoinHostPort(cfg.App.Host, fmt.Sprint(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listen failed")
	}
	log.Info().Str("addr", ln.Addr().String()).Str("db", dbPath).Msg("engine listening")

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		interval := time.Duration(cfg.Billing.SweepSeconds) * time.Second
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		scheduler.Every(ctx, interval, "billing_sweep", func(ctx context.Context) error {
			if pruned, err := store.PruneOrphanBills(ctx, db.Pool); err != nil {
				return err
			} else if pruned > 0 {
				log.Info().Int("bills", pruned).Msg("pruned orphan bills")
			}
			n, err := store.IssueAllBills(ctx, db.Pool)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info().Int("bills", n).Msg("billing sweep")
				hub.Publish(events.MakeEvent("", events.TypeBillIssued, 1, map[string]any{"count": n}))
			}
			return nil
		})
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("engine stopped")
	}
	log.Info().Msg("engine stopped")
}
