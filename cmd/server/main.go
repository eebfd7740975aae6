package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	accountservice "identity-manager/internal/account/service"
	accountstore "identity-manager/internal/account/store"
	"identity-manager/internal/application"
	"identity-manager/internal/audit"
	"identity-manager/internal/phone"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/httpserver"
	"identity-manager/internal/platform/logger"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	redisplatform "identity-manager/internal/platform/redis"
	"identity-manager/internal/pubsub"
	"identity-manager/internal/replica"
	httptransport "identity-manager/internal/transport/http"
)

// main wires the registry's dependencies and keeps the lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	runtime := config.NewRuntime()
	if cfg.Operator != "" {
		runtime.Apply(config.ConfigureRequest{Operator: &cfg.Operator})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var accStore accountstore.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		pg := accountstore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure schema", "error", err.Error())
			os.Exit(1)
		}
		accStore = pg
	} else {
		accStore = accountstore.NewMemory()
		log.Warn("no POSTGRES_DSN configured, accounts are in-memory only")
	}

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err.Error())
		os.Exit(1)
	}
	var tokens phone.TokenStore
	if rdb != nil {
		defer rdb.Close()
		tokens = phone.NewRedisTokenStore(rdb.Client)
	} else {
		tokens = phone.NewMemoryTokenStore()
	}

	auditStore := audit.NewMemoryStore()
	auditSvc := audit.NewService(auditStore)
	var publisher audit.Publisher
	if cfg.KafkaBrokers != "" {
		kafka, err := audit.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err.Error())
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	auth := middleware.NewAuthenticator(cfg.JWTSigningKey, cfg.DevMode, log)
	phoneSvc := phone.NewService(tokens, accStore, runtime, []byte(cfg.PhoneHashKey), m, log)
	apps := application.NewService(application.NewMemoryStore())
	accounts := accountservice.NewService(
		accStore, phoneSvc, apps, auth, replica.NewHTTPBackup(),
		runtime, auditSvc, m, log,
	)
	pubsubSvc := pubsub.NewService(log)

	var replicaPort replica.ReplicaPort
	if cfg.ReplicaURL != "" {
		replicaPort = replica.NewHTTPReplica(cfg.ReplicaURL)
	}
	replicator := replica.NewReplicator(accounts, replicaPort, runtime, pubsubSvc, m, log)

	handler := httptransport.NewHandler(accounts, phoneSvc, apps, pubsubSvc, auditSvc, runtime, auth, m, log)
	srv := httpserver.New(cfg.Addr, handler.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audit.NewWorker(auditStore, publisher, auditSvc.Inbox(), log).Run(gctx)
	})
	g.Go(func() error {
		return replicator.Run(gctx)
	})
	g.Go(func() error {
		log.Info("registry listening", "addr", cfg.Addr)
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
		log.Error("registry stopped", "error", err.Error())
		os.Exit(1)
	}
	log.Info("registry stopped")
}
