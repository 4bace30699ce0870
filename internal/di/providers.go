package di

import (
	"context"
	"fmt"
	"time"

	models "CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
	"CrossImpact/internal/handler/api"
	internalrepo "CrossImpact/internal/repository"
	"CrossImpact/internal/service/ingest"
	"CrossImpact/internal/usecase"
	"CrossImpact/pkg/cache"
	pkgch "CrossImpact/pkg/clickhouse"
	"CrossImpact/pkg/config"
	xhttp "CrossImpact/pkg/http"
	pkgkafka "CrossImpact/pkg/kafka"
	applogger "CrossImpact/pkg/logger"
	"CrossImpact/pkg/metrics"
	"CrossImpact/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideSnapshotSource creates the CSV snapshot source.
func ProvideSnapshotSource(cfg *config.Config, l *applogger.Logger) drepo.SnapshotSource {
	return ingest.NewCSVSource(cfg.Data.Dir, cfg.Data.Symbols, l)
}

// sinkWithCloser overrides Close to also release the owning client.
type sinkWithCloser struct {
	drepo.ResultSink
	closeFn func() error
}

func (s sinkWithCloser) Close() error {
	if err := s.ResultSink.Close(); err != nil {
		return err
	}
	return s.closeFn()
}

// ProvideResultSink creates the configured result sink. The sink owns its
// backend connection and releases it on Close.
func ProvideResultSink(cfg *config.Config, l *applogger.Logger) (drepo.ResultSink, error) {
	switch cfg.Backend.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}

		sink := internalrepo.NewClickHouseResults(client.DB(), cfg.ClickHouse.Database, l)
		return sinkWithCloser{ResultSink: sink, closeFn: client.Close}, nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaResults(producer, cfg.Kafka.Topic), nil

	default:
		return internalrepo.NewNopResults(), nil
	}
}

// ProvideCacheService creates the response cache, Redis when enabled and
// in-process memory otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideReportStore creates the in-memory report store for the API.
func ProvideReportStore() *usecase.ReportStore {
	return usecase.NewReportStore()
}

// ProvidePipeline creates the batch pipeline use case.
func ProvidePipeline(
	source drepo.SnapshotSource,
	m drepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Pipeline {
	modes := make([]models.RegressionMode, 0, len(cfg.Pipeline.Modes))
	for _, s := range cfg.Pipeline.Modes {
		modes = append(modes, models.RegressionMode(s))
	}
	return usecase.NewPipeline(source, m, usecase.PipelineConfig{
		Bin:          cfg.Returns.Bin,
		Horizons:     cfg.HorizonDurations(),
		Modes:        modes,
		Workers:      cfg.Pipeline.Workers,
		MinObs:       cfg.PCA.MinObservations,
		MinExplained: cfg.PCA.MinExplainedVariance,
	}, l)
}

// ProvideResultsHandler creates the HTTP handler for the results API.
func ProvideResultsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store *usecase.ReportStore,
	c cache.Service,
) xhttp.Handler {
	h := api.NewResultsEchoHandler(l, store)
	h.SetCache(c, cfg.Cache.TTL)
	return h
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	sink drepo.ResultSink,
	store *usecase.ReportStore,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, pipeline, sink, store, handler)
}
