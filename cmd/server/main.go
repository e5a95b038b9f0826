package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/meqenet/meqenet-back/internal/api"
	"github.com/meqenet/meqenet-back/internal/auth"
	"github.com/meqenet/meqenet-back/internal/config"
	"github.com/meqenet/meqenet-back/internal/cron"
	"github.com/meqenet/meqenet-back/internal/db"
	"github.com/meqenet/meqenet-back/internal/excel"
	"github.com/meqenet/meqenet-back/internal/identity"
	"github.com/meqenet/meqenet-back/internal/ledger"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logg.Sync()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(cfg, logg)
	defer closeStore()
	if err := store.SeedSchools(ctx, st); err != nil {
		logg.Fatal("Seeding schools failed", "err", err)
	}

	revoker, closeRevoker := openRevoker(ctx, cfg, logg)
	defer closeRevoker()

	keys, err := auth.NewKeyring(cfg.JWTSecret, cfg.JWTPreviousSecrets...)
	if err != nil {
		logg.Fatal("Keyring init failed", "err", err)
	}
	hasher := auth.Hasher{Memory: cfg.Argon2MemoryKiB, Iterations: cfg.Argon2Iterations, Parallelism: cfg.Argon2Parallelism}
	gate := auth.NewGate(st, hasher, auth.NewTokenManager(keys, cfg.JWTIssuer, cfg.AccessTokenTTL), revoker, logg)

	var google *auth.Google
	if cfg.GoogleLoginEnabled() {
		google = auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirectURL)
	}

	ids := identity.NewService(st, logg)
	importer := excel.NewImporter(ids, logg)

	router := api.SetupRouter(api.Deps{
		Config:   cfg,
		DB:       st,
		Gate:     gate,
		Auth:     auth.NewHandler(gate, google, logg),
		Handlers: api.NewHandlers(ids, ledger.NewService(st, logg), gate, importer, logg),
		Log:      logg,
	})

	scheduler, err := cron.Start(cfg.RosterImportSchedule, cfg.RosterImportPath, importer, logg)
	if err != nil {
		logg.Fatal("Cron init failed", "err", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logg.Info("Server listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "db_driver", cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("HTTP server error", "err", err)
		}
	}()

	<-ctx.Done()
	logg.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("Shutdown error", "err", err)
	}
}

func openStore(cfg *config.Config, logg *logger.Logger) (store.Store, func()) {
	if cfg.DBDriver == "memory" {
		logg.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}
	}

	st, err := db.Open(cfg.DBDriver, cfg.DBUrl, logg)
	if err != nil {
		logg.Fatal("Database connection failed", "err", err)
	}
	if cfg.AutoMigrate {
		if err := st.Migrate(); err != nil {
			logg.Fatal("Database migration failed", "err", err)
		}
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logg.Error("Database close error", "err", err)
		}
	}
}

func openRevoker(ctx context.Context, cfg *config.Config, logg *logger.Logger) (auth.Revoker, func()) {
	if cfg.RedisAddr == "" {
		return auth.NewMemoryRevoker(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logg.Fatal("Redis ping failed", "err", err)
	}
	logg.Info("Token revocation backed by redis", "addr", cfg.RedisAddr)
	return auth.NewRedisRevoker(client), func() {
		if err := client.Close(); err != nil {
			logg.Error("Redis close error", "err", err)
		}
	}
}
