// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	certhandler "coursecert/internal/certification/handler"
	certmetrics "coursecert/internal/certification/metrics"
	certservice "coursecert/internal/certification/service"
	certstore "coursecert/internal/certification/store"
	"coursecert/internal/certification/workers"
	"coursecert/internal/contentstore"
	cwstore "coursecert/internal/coursework/store"
	"coursecert/internal/eligibility"
	"coursecert/internal/ledger"
	"coursecert/internal/platform/config"
	"coursecert/internal/platform/database"
	"coursecert/internal/platform/health"
	"coursecert/internal/platform/httpserver"
	"coursecert/internal/platform/logger"
	"coursecert/internal/platform/redis"
	"coursecert/internal/platform/tracer"
	"coursecert/internal/seeder"
	httptransport "coursecert/internal/transport/http"
	"coursecert/internal/verification"
	verifyhandler "coursecert/internal/verification/handler"
	verifymetrics "coursecert/internal/verification/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing coursecert",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	pool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var coursework cwstore.Store
	var certifications certstore.Store
	if pool != nil {
		coursework = cwstore.NewPostgres(pool.DB())
		certifications = certstore.NewPostgres(pool.DB())
	} else {
		// No database: run on seeded in-memory stores for local development.
		log.Warn("DATABASE_URL not set, using seeded in-memory stores")
		mem := cwstore.NewInMemoryStore()
		if err := seeder.New(mem, log).SeedAll(context.Background()); err != nil {
			log.Error("demo data seeding failed", "error", err)
			os.Exit(1)
		}
		coursework = mem
		certifications = certstore.NewInMemoryStore()
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	if cache == nil {
		log.Warn("redis not configured, ledger reads are uncached")
	}

	tr := tracer.NewOTel()

	evm, err := ledger.NewEVM(cfg.Ledger,
		ledger.WithLogger(log),
		ledger.WithTracer(tr),
	)
	if err != nil {
		log.Error("ledger client initialization failed", "error", err)
		os.Exit(1)
	}
	defer evm.Close()
	ledgerClient := ledger.NewCached(evm, cache, cfg.Redis.CacheTTL, log, tr)

	publisher := contentstore.NewIPFS(cfg.Content,
		contentstore.WithLogger(log),
		contentstore.WithTracer(tr),
	)

	issuanceMetrics := certmetrics.New()
	certService := certservice.NewService(
		certifications,
		coursework,
		eligibility.NewService(coursework, eligibility.WithLogger(log)),
		publisher,
		ledgerClient,
		cfg.VerificationURL,
		certservice.WithLogger(log),
		certservice.WithMetrics(issuanceMetrics),
	)
	verifyService := verification.NewService(certifications, coursework, ledgerClient, cfg.Ledger.ContractAddress,
		verification.WithLogger(log),
		verification.WithMetrics(verifymetrics.New()),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	healthHandler.RegisterCheck("ledger", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return evm.Health(ctx)
	})
	healthHandler.RegisterCheck("content_store", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return publisher.Health(ctx)
	})
	if cache != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return cache.Health(ctx)
		})
	}

	adminTimeout := cfg.Ledger.MiningWait + 30*time.Second
	router := httptransport.NewRouter(httptransport.Deps{
		Certification: certhandler.New(certService, log),
		Verification:  verifyhandler.New(verifyService, log),
		Health:        healthHandler,
		Logger:        log,
		JWTSigningKey: cfg.JWTSigningKey,
		AdminTimeout:  adminTimeout,
	})

	reconciler := workers.NewReconciler(certifications, ledgerClient,
		workers.WithLogger(log),
		workers.WithMetrics(issuanceMetrics),
	)
	if cfg.ReconcileSchedule != "" {
		if err := reconciler.Start(cfg.ReconcileSchedule); err != nil {
			log.Error("reconciler start failed", "schedule", cfg.ReconcileSchedule, "error", err)
			os.Exit(1)
		}
		defer reconciler.Stop()
	}

	srv := httpserver.New(cfg.Addr, router, adminTimeout+15*time.Second)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
