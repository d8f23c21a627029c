package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/surgecast/internal/bootstrap"
	"github.com/yanqian/surgecast/internal/domain/alert"
	"github.com/yanqian/surgecast/internal/domain/arearisk"
	"github.com/yanqian/surgecast/internal/domain/auth"
	"github.com/yanqian/surgecast/internal/domain/facility"
	"github.com/yanqian/surgecast/internal/domain/history"
	"github.com/yanqian/surgecast/internal/infra/artifact"
	"github.com/yanqian/surgecast/internal/infra/config"
	"github.com/yanqian/surgecast/internal/infra/events"
	"github.com/yanqian/surgecast/internal/infra/historyrepo"
	"github.com/yanqian/surgecast/internal/infra/operatorrepo"
	"github.com/yanqian/surgecast/internal/infra/predictor/linear"
	"github.com/yanqian/surgecast/internal/infra/predictor/remote"
	"github.com/yanqian/surgecast/internal/infra/queue"
)

func provideFacilityConfig(cfg *config.Config) facility.Config {
	return facility.Config{
		DefaultScenario: cfg.Facility.DefaultScenario,
		PredictTimeout:  cfg.Predictor.Timeout,
	}
}

func provideAreaRiskConfig(cfg *config.Config) arearisk.Config {
	return arearisk.Config{NightWindow: arearisk.NightWindow(cfg.Scoring.NightWindow)}
}

func provideHistoryConfig(cfg *config.Config) history.Config {
	return history.Config{
		DefaultLimit:  cfg.History.DefaultLimit,
		MaxLimit:      cfg.History.MaxLimit,
		AnalyticsDays: cfg.History.AnalyticsDays,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

// predictorSet carries the active predictor and, for hot-reloadable linear
// models, the loop that watches its artifact.
type predictorSet struct {
	predictor facility.Predictor
	watch     func(ctx context.Context) error
}

func providePredictorSet(cfg *config.Config, logger *slog.Logger) (predictorSet, error) {
	switch cfg.Predictor.Mode {
	case "remote":
		client, err := remote.NewClient(cfg.Predictor.Remote.BaseURL, cfg.Predictor.Timeout)
		if err != nil {
			return predictorSet{}, err
		}
		logger.Info("remote predictor enabled", "base_url", cfg.Predictor.Remote.BaseURL)
		return predictorSet{predictor: client}, nil
	default:
		src, err := provideModelSource(cfg.Predictor.Linear)
		if err != nil {
			return predictorSet{}, err
		}
		if src == nil {
			logger.Info("linear predictor using built-in model")
			return predictorSet{predictor: linear.New(linear.DefaultModel(), logger)}, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, err := linear.NewFromSource(ctx, src, logger)
		if err != nil {
			return predictorSet{}, fmt.Errorf("load model from %s: %w", src.Location(), err)
		}
		logger.Info("linear predictor loaded", "location", src.Location(), "version", p.Version())
		set := predictorSet{predictor: p}
		if cfg.Predictor.Linear.Watch {
			set.watch = p.Watch
		}
		return set, nil
	}
}

func provideModelSource(cfg config.LinearConfig) (artifact.Source, error) {
	if cfg.ObjectStore.Enabled {
		store := cfg.ObjectStore
		return artifact.NewObjectSource(artifact.ObjectConfig{
			Endpoint:  store.Endpoint,
			AccessKey: store.AccessKey,
			SecretKey: store.SecretKey,
			Bucket:    store.Bucket,
			Region:    store.Region,
			Key:       store.Key,
		})
	}
	if path := strings.TrimSpace(cfg.ModelPath); path != "" {
		return artifact.NewFileSource(path), nil
	}
	return nil, nil
}

func providePredictor(set predictorSet) facility.Predictor {
	return set.predictor
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) (history.Repository, func()) {
	fallback := historyrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback, func() {}
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, func() {}
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, func() {}
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback, func() {}
	}
	logger.Info("history postgres repository enabled")
	return repo, pool.Close
}

// jobQueue carries the history job queue and, when it is backed by valkey,
// the consumer loop.
type jobQueue struct {
	queue history.JobQueue
	run   func(ctx context.Context) error
}

func provideJobQueue(cfg *config.Config, historySvc history.Service, logger *slog.Logger) (jobQueue, func()) {
	inline := jobQueue{queue: queue.NewInlineQueue(historySvc.HandleJob)}
	if !cfg.Queue.Valkey.Enabled {
		return inline, func() {}
	}
	opt, err := buildValkeyOptions(cfg.Queue.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, recording history inline", "error", err)
		return inline, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, recording history inline", "error", err)
		return inline, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, recording history inline", "error", err)
		client.Close()
		return inline, func() {}
	}
	q := queue.NewValkeyQueue(client, cfg.Queue.Valkey.Key, historySvc.HandleJob, logger)
	logger.Info("valkey history queue enabled", "addr", cfg.Queue.Valkey.Addr)
	return jobQueue{queue: q, run: q.Run}, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideRecorder(q jobQueue) facility.Recorder {
	return history.NewQueueRecorder(q.queue)
}

func provideHub(cfg *config.Config, logger *slog.Logger) *events.Hub {
	return events.NewHub(cfg.Events.Replay, cfg.HTTP.AllowedOrigins, logger)
}

func provideNotifier(cfg *config.Config, hub *events.Hub, logger *slog.Logger) (alert.Notifier, func()) {
	natsCfg := cfg.Events.NATS
	if strings.TrimSpace(natsCfg.URL) == "" {
		return hub, func() {}
	}
	publisher, err := events.NewNATSPublisher(events.NATSConfig{
		URL:           natsCfg.URL,
		SubjectPrefix: natsCfg.SubjectPrefix,
		ReconnectWait: natsCfg.ReconnectWait,
		MaxReconnects: natsCfg.MaxReconnects,
		Timeout:       natsCfg.Timeout,
	}, logger)
	if err != nil {
		logger.Error("nats unavailable, alerts go to websocket subscribers only", "error", err)
		return hub, func() {}
	}
	logger.Info("nats alert publisher enabled", "url", natsCfg.URL)
	return events.Multi{hub, publisher}, publisher.Close
}

func provideOperatorDirectory(cfg *config.Config) (auth.Directory, error) {
	ops := make([]auth.Operator, 0, len(cfg.Auth.Operators))
	for _, op := range cfg.Auth.Operators {
		ops = append(ops, auth.Operator{
			Username:     op.Username,
			PasswordHash: op.PasswordHash,
			Role:         auth.Role(op.Role),
		})
	}
	return operatorrepo.NewMemoryDirectory(ops)
}

func provideWorkers(hub *events.Hub, predictors predictorSet, jobs jobQueue) []bootstrap.Worker {
	workers := []bootstrap.Worker{{Name: "alert-hub", Run: hub.Run}}
	if predictors.watch != nil {
		workers = append(workers, bootstrap.Worker{Name: "model-watch", Run: predictors.watch})
	}
	if jobs.run != nil {
		workers = append(workers, bootstrap.Worker{Name: "history-queue", Run: jobs.run})
	}
	return workers
}
