package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/httpserver"
	"identity-manager/internal/platform/logger"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	redisplatform "identity-manager/internal/platform/redis"
	httptransport "identity-manager/internal/transport/http"
	"identity-manager/internal/verifier"
	"identity-manager/internal/verifier/adapters"
)

// main wires the standalone verifier. It reaches the registry only through
// the HTTP registry adapter.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err.Error())
		os.Exit(1)
	}
	var tokens verifier.TokenStore
	if rdb != nil {
		defer rdb.Close()
		tokens = verifier.NewRedisTokenStore(rdb.Client)
	} else {
		tokens = verifier.NewMemoryTokenStore()
	}

	registry := adapters.NewHTTPRegistryAdapter(cfg.RegistryURL)
	svc := verifier.NewService(tokens, verifier.NewMemoryCredentialStore(), registry, cfg.Operator, m, log)

	auth := middleware.NewAuthenticator(cfg.JWTSigningKey, cfg.DevMode, log)
	handler := httptransport.NewVerifierHandler(svc, auth, m, log)
	srv := httpserver.New(cfg.VerifierAddr, handler.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("verifier listening", "addr", cfg.VerifierAddr, "registry", cfg.RegistryURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("verifier stopped", "error", err.Error())
		os.Exit(1)
	}
	log.Info("verifier stopped")
}
