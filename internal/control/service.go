// Package control wires the application together and manages its
// lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/iwangdonghui/tsconv-sub005/internal/api"
	"github.com/iwangdonghui/tsconv-sub005/internal/core/config"
	"github.com/iwangdonghui/tsconv-sub005/internal/core/worker"
	"github.com/iwangdonghui/tsconv-sub005/internal/health"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/cache"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage/memory"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage/postgres"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"
)

// Service is the assembled application.
type Service struct {
	cfg          *config.AppConfig
	coord        *recovery.Coordinator
	apiServer    *api.Server
	healthServer *health.Server
	pruner       *worker.Pruner
	cacheClient  *cache.Client
	db           *postgres.DB
	log          *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a Service with all dependencies initialized.
func NewService(cfg *config.AppConfig, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{cfg: cfg, log: log}

	// 1. Domain cache (optional)
	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		s.cacheClient = client
		log.Info("Using Redis domain cache")
	} else {
		log.Info("No Redis configured, domain caching disabled")
	}

	// 2. Failure archive (postgres or in-memory)
	var archive storage.FailureArchiveRepository
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		s.db = db

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		archive = postgres.NewArchiveRepo(db)
		log.Info("Using PostgreSQL failure archive")
	} else {
		archive = memory.NewArchiveRepo(cfg.Recovery.History.Limit)
		log.Info("Using in-memory failure archive")
	}

	// 3. Recovery coordinator
	s.coord = recovery.New(recoveryConfig(cfg.Recovery), archive, log)

	// 4. History pruner
	s.pruner = worker.NewPruner(s.coord.History(), cfg.Recovery.History.PruneInterval)

	// 5. HTTP surfaces
	s.apiServer = api.NewServer(s.coord, s.cacheClient, archive, cfg.Server.Port, log)

	probes := map[string]health.Pinger{}
	if s.cacheClient != nil {
		probes["redis"] = s.cacheClient
	}
	if s.db != nil {
		probes["database"] = health.PingerFunc(s.db.PingContext)
	}
	monitor := health.NewMonitor(s.coord, probes)
	s.healthServer = health.NewServer(monitor, cfg.Server.HealthPort)

	return s, nil
}

// Coordinator exposes the recovery coordinator, mainly for tests.
func (s *Service) Coordinator() *recovery.Coordinator {
	return s.coord
}

// Start launches the HTTP servers and background workers.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pruner.Start(ctx)
	}()

	go func() {
		s.log.Info("API server listening", "port", s.cfg.Server.Port)
		if err := s.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			s.log.Error("API server stopped", "error", err)
		}
	}()

	go func() {
		s.log.Info("Health server listening", "port", s.cfg.Server.HealthPort)
		if err := s.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			s.log.Error("Health server stopped", "error", err)
		}
	}()

	return nil
}

// Stop shuts everything down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	var firstErr error
	if err := s.apiServer.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.healthServer.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.cacheClient != nil {
		if err := s.cacheClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// recoveryConfig maps file configuration onto the coordinator config,
// falling back to package defaults for anything unset.
func recoveryConfig(rc config.RecoveryConfig) recovery.Config {
	cfg := recovery.DefaultConfig()

	if rc.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = rc.Retry.MaxAttempts
	}
	if rc.Retry.BaseDelay > 0 {
		cfg.Retry.BaseDelay = rc.Retry.BaseDelay
	}
	if rc.Retry.MaxDelay > 0 {
		cfg.Retry.MaxDelay = rc.Retry.MaxDelay
	}
	if rc.Retry.Exponential != nil {
		cfg.Retry.Exponential = *rc.Retry.Exponential
	}
	if rc.Retry.Jitter != nil {
		cfg.Retry.Jitter = *rc.Retry.Jitter
	}

	if rc.CircuitBreaker.FailureThreshold > 0 {
		cfg.Breaker.FailureThreshold = rc.CircuitBreaker.FailureThreshold
	}
	if rc.CircuitBreaker.RecoveryTimeout > 0 {
		cfg.Breaker.RecoveryTimeout = rc.CircuitBreaker.RecoveryTimeout
	}
	if rc.CircuitBreaker.HalfOpenMaxCalls > 0 {
		cfg.Breaker.HalfOpenMaxCalls = rc.CircuitBreaker.HalfOpenMaxCalls
	}

	if rc.Fallback.Enabled != nil {
		cfg.Fallback.Enabled = *rc.Fallback.Enabled
	}
	if rc.Fallback.Timeout > 0 {
		cfg.Fallback.Timeout = rc.Fallback.Timeout
	}
	if rc.Fallback.CacheValidity > 0 {
		cfg.Fallback.CacheValidity = rc.Fallback.CacheValidity
	}

	if rc.Bulkhead.MaxConcurrent > 0 {
		cfg.Bulkhead.MaxConcurrent = rc.Bulkhead.MaxConcurrent
	}
	if rc.Bulkhead.QueueSize > 0 {
		cfg.Bulkhead.QueueSize = rc.Bulkhead.QueueSize
	}
	if rc.Bulkhead.QueueTimeout > 0 {
		cfg.Bulkhead.QueueTimeout = rc.Bulkhead.QueueTimeout
	}

	if rc.History.Limit > 0 {
		cfg.History.Limit = rc.History.Limit
	}
	if rc.History.MaxAge > 0 {
		cfg.History.MaxAge = rc.History.MaxAge
	}

	if rc.Health.DegradedErrorsPerHour > 0 {
		cfg.DegradedErrorsPerHour = rc.Health.DegradedErrorsPerHour
	}
	if rc.Health.UnhealthyErrorsPerHour > 0 {
		cfg.UnhealthyErrorsPerHour = rc.Health.UnhealthyErrorsPerHour
	}

	return cfg
}
