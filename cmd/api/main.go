package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/quantum-vault/internal/application"
	appai "github.com/bryanwahyu/quantum-vault/internal/application/ai"
	"github.com/bryanwahyu/quantum-vault/internal/application/dashboard"
	"github.com/bryanwahyu/quantum-vault/internal/config"
	domai "github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
	"github.com/bryanwahyu/quantum-vault/internal/infra/ai/heuristic"
	aiopenai "github.com/bryanwahyu/quantum-vault/internal/infra/ai/openai"
	"github.com/bryanwahyu/quantum-vault/internal/infra/catalog"
	mysqlp "github.com/bryanwahyu/quantum-vault/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/quantum-vault/internal/infra/db/postgres"
	"github.com/bryanwahyu/quantum-vault/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/quantum-vault/internal/infra/storage"
	"github.com/bryanwahyu/quantum-vault/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}

	log := newLogger(cfg)
	ctx := context.Background()

	provider, checkers, closeFn, err := openProvider(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("kind", cfg.Provider.Kind).Fatal("data provider init error")
	}
	defer closeFn()

	scope := vulns.CriticalInSubset
	if cfg.Provider.CriticalScope == "collection" {
		scope = vulns.CriticalInCollection
	}

	dashSvc := dashboard.NewService(provider, scope)
	aiSvc := appai.NewService(newAIClient(cfg, log), provider, application.SystemClock{}, log)

	var ready atomic.Bool
	handler := httpserver.NewRouter(dashSvc, aiSvc, httpserver.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimitCapacity: cfg.RateLimit.Capacity,
		RateLimitRefill:   cfg.RateLimit.RefillRate,
		HealthCheckers:    checkers,
		Ready:             ready.Load,
		Log:               log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "provider": cfg.Provider.Kind}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()
	ready.Store(true)

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ready.Store(false)
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func newLogger(cfg *config.Config) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if strings.EqualFold(cfg.Log.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		l.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return logrus.NewEntry(l).WithField("service", "quantum-vault")
}

// openProvider builds the read-only data source selected by provider.kind,
// the health checkers that watch it and a close function.
func openProvider(ctx context.Context, cfg *config.Config, log *logrus.Entry) (vulns.Provider, map[string]middleware.HealthChecker, func(), error) {
	checkers := map[string]middleware.HealthChecker{}
	noop := func() {}

	switch cfg.Provider.Kind {
	case config.ProviderFile:
		c, err := catalog.LoadFile(cfg.Provider.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		log.WithField("path", cfg.Provider.Path).Info("catalog loaded from file")
		return c, checkers, noop, nil

	case config.ProviderMySQL, config.ProviderPostgres:
		var (
			db       *sql.DB
			provider vulns.Provider
			err      error
		)
		if cfg.Provider.Kind == config.ProviderMySQL {
			db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err == nil {
				provider = mysqlp.NewVulnRepository(db)
			}
		} else {
			db, err = pgp.Connect(ctx, cfg.PostgresDSN())
			if err == nil {
				provider = pgp.NewVulnRepository(db)
			}
		}
		if err != nil {
			return nil, nil, nil, err
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		log.WithField("host", cfg.Database.Host).Info("database provider connected")
		return provider, checkers, func() { db.Close() }, nil

	case config.ProviderMinio:
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, nil, nil, err
		}
		data, err := store.Fetch(ctx, cfg.Provider.ObjectKey)
		if err != nil {
			return nil, nil, nil, err
		}
		c, err := catalog.Parse(data)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("catalog %s: %w", cfg.Provider.ObjectKey, err)
		}
		checkers["bucket"] = store
		log.WithFields(logrus.Fields{"bucket": cfg.Minio.BucketName, "key": cfg.Provider.ObjectKey}).Info("catalog loaded from bucket")
		return c, checkers, noop, nil

	default:
		c, err := catalog.Default()
		if err != nil {
			return nil, nil, nil, err
		}
		return c, checkers, noop, nil
	}
}

// newAIClient returns the OpenAI-backed client when a key is configured and
// the offline heuristic client otherwise.
func newAIClient(cfg *config.Config, log *logrus.Entry) domai.Client {
	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured, using offline heuristic client")
		return heuristic.NewClient()
	}
	c := aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.MaxTokens, log)
	c.Timeout = cfg.AI.Timeout
	return c
}
