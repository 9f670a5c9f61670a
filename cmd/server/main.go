package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"vendorgate/internal/audit"
	"vendorgate/internal/importer"
	importermetrics "vendorgate/internal/importer/metrics"
	"vendorgate/internal/platform/config"
	"vendorgate/internal/platform/httpserver"
	"vendorgate/internal/platform/logger"
	platformredis "vendorgate/internal/platform/redis"
	"vendorgate/internal/secrets"
	"vendorgate/internal/source"
	httptransport "vendorgate/internal/transport/http"
	"vendorgate/internal/vendor"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services; everything here is construction and
// shutdown ordering.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cipher, err := secrets.New(cfg.MasterKey)
	if err != nil {
		log.Error("refusing to start without a field encryption key", "error", err)
		os.Exit(1)
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
	}

	var vendorStore vendor.Store
	var auditStore audit.Store
	if db != nil {
		vendorStore = vendor.NewPostgresStore(db, cipher)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		vendorStore = vendor.NewInMemoryStore(cipher)
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory stores; data will not survive restarts")
	}

	var typeCache source.TypeCache
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		typeCache = source.NewRedisTypeCache(redisClient, config.SourceTypeTTL)
		log.Info("using redis source-type cache")
	} else {
		typeCache = source.NewMemoryTypeCache(config.SourceTypeTTL)
	}

	var inbox chan audit.Entry
	var sink *audit.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err = audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		inbox = make(chan audit.Entry, auditInboxSize)
		log.Info("audit fan-out enabled", "topic", cfg.KafkaTopic)
	}

	recorder := audit.NewRecorder(auditStore, inbox, log)

	clients := source.NewClientFactory(cfg.SourceTimeout)
	tester := source.NewTester(clients, typeCache, recorder, log)
	importService := importer.NewService(
		clients, typeCache, vendorStore, recorder, importermetrics.New(), log,
	)

	handler := httptransport.NewHandler(tester, importService, vendorStore, recorder, log)
	router := httptransport.NewRouter(handler, httptransport.NewJWTVerifier(cfg.JWTSigningKey), log)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	if sink != nil {
		worker := audit.NewWorker(sink, inbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting vendorgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
