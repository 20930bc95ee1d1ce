package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/school-report-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/school-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/school-report-service/internal/admin"
	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/config"
	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/observability"
	"github.com/couchcryptid/school-report-service/internal/reportstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	schools := loadCatalog(cfg.SchoolsFile, logger)
	metrics.SchoolsLoaded.Set(float64(schools.Len()))

	store := reportstore.New(cfg.ReportsFile, logger, metrics)
	if err := loadReports(store, cfg.ReportsAllowCorrupt, logger); err != nil {
		logger.Error("failed to load reports", "path", cfg.ReportsFile, "error", err)
		os.Exit(1)
	}

	if cfg.UsingDefaultAdminPassword() {
		logger.Warn("ADMIN_PASSWORD not set, using the built-in default admin password")
	}
	gate := admin.NewGate(cfg.AdminPassword)

	// Report events are optional (enabled via KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	deps := httpadapter.Dependencies{
		Reports: store,
		Schools: schools,
		Gate:    gate,
		Ready:   httpadapter.AllReady(store, schools),
		Metrics: metrics,
	}
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		deps.Publisher = publisher
		logger.Info("report events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.ReportEventsTopic)
	} else {
		logger.Info("report events disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, deps, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadCatalog reads the school dataset. A missing or unreadable file leaves the
// catalog empty; the service keeps serving reports and reports not-ready.
func loadCatalog(path string, logger *slog.Logger) *catalog.Catalog {
	c, err := catalog.Load(path)
	if err != nil {
		logger.Error("school data unavailable, starting with an empty catalog", "path", path, "error", err)
		return catalog.New(nil)
	}
	logger.Info("school catalog loaded", "path", path, "schools", c.Len())
	return c
}

// loadReports loads the durable report file. An unparseable file is fatal
// unless allowCorrupt is set, in which case it is moved aside and the store
// starts empty.
func loadReports(store *reportstore.Store, allowCorrupt bool, logger *slog.Logger) error {
	err := store.Load()
	var parseErr *domain.LoadParseError
	if err == nil || !errors.As(err, &parseErr) || !allowCorrupt {
		return err
	}

	quarantine := fmt.Sprintf("%s.corrupt-%d", store.Path(), domain.Now().Unix())
	if rerr := os.Rename(store.Path(), quarantine); rerr != nil {
		return fmt.Errorf("move unreadable report file aside: %w", rerr)
	}
	logger.Warn("report file unreadable, moved aside and starting empty",
		"path", store.Path(),
		"moved_to", quarantine,
		"error", parseErr.Err,
	)
	return nil
}
