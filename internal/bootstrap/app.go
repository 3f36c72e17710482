package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"papermind/internal/ai"
	"papermind/internal/app"
	"papermind/internal/cache"
	"papermind/internal/config"
	"papermind/internal/pkg/logger"
	"papermind/internal/pkg/metrics"
	mysqlClient "papermind/internal/platform/mysql"
	rabbitmqClient "papermind/internal/platform/rabbitmq"
	redisClient "papermind/internal/platform/redis"
	"papermind/internal/repository"
	"papermind/internal/summarizer"
	"papermind/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	PersistWorker *worker.DocumentPersistWorker

	Documents *app.DocumentService
	Summaries *app.SummaryService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.connectStores(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.buildServices(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connectStores(ctx context.Context) error {
	cfg := a.Config
	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.PoolOptions{
			MaxIdleConns: cfg.MySQL.MaxIdleConns,
			MaxOpenConns: cfg.MySQL.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		a.MySQL = db
		if err := mysqlClient.Migrate(db); err != nil {
			return err
		}
		log.Info().Str("db", cfg.MySQL.DB).Msg("mysql connected")
	}

	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.Redis = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	if cfg.RabbitMQ.Enabled {
		if a.MySQL == nil {
			log.Warn().Msg("rabbitmq enabled without mysql, persist jobs would have no consumer; skipping rabbitmq")
			return nil
		}
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = conn
		log.Info().Str("queue", cfg.RabbitMQ.PersistQueue).Msg("rabbitmq connected")
	}
	return nil
}

func (a *App) buildServices(ctx context.Context) error {
	cfg := a.Config

	initialBackend, err := summarizer.ParseBackend(cfg.Summarizer.Backend)
	if err != nil {
		return fmt.Errorf("invalid summarizer backend in config: %w", err)
	}

	client := ai.NewOpenAICompatibleClient()
	gate := ai.NewGate(cfg.Backend.MaxInFlight, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	embedder := ai.NewEmbedder(client, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, cfg.Embedding.BatchSize, gate)

	loader := ai.NewSummarizerLoader(client, ai.SummarizerConfig{
		BaseURL: cfg.Summarizer.BaseURL,
		APIKey:  cfg.Summarizer.APIKey,
		Models: map[summarizer.Backend]string{
			summarizer.BackendBART:    cfg.Summarizer.BARTModel,
			summarizer.BackendT5:      cfg.Summarizer.T5Model,
			summarizer.BackendPegasus: cfg.Summarizer.PegasusModel,
		},
	}, gate)

	styles := summarizer.NewStyleRegistry()
	manager := summarizer.NewManager(initialBackend, loader)
	assembler := summarizer.NewAssembler(styles, manager, cfg.Chunking.MaxSummaryChunk)
	assembler.OnFallback(func(b summarizer.Backend, reason summarizer.FailureReason) {
		metrics.ChunkFallbacksTotal.WithLabelValues(string(b), reason.String()).Inc()
	})

	var (
		publisher app.DocumentPublisher
		archive   app.DocumentArchive
		sumCache  app.SummaryCache
	)
	if a.MySQL != nil {
		docRepo := repository.NewDocumentRepository(a.MySQL)
		archive = docRepo
		if a.MQConn != nil {
			a.PersistWorker = worker.NewDocumentPersistWorker(a.MQConn, docRepo, cfg.RabbitMQ.PersistQueue)
			if err := a.PersistWorker.Start(ctx); err != nil {
				return fmt.Errorf("start persist worker failed: %w", err)
			}
			publisher = rabbitmqClient.NewDocumentPublisher(a.MQConn, cfg.RabbitMQ.PersistQueue)
		}
	}
	if a.Redis != nil {
		sumCache = cache.NewSummaryCache(a.Redis, time.Duration(cfg.Redis.SummaryTTLSeconds)*time.Second)
	}

	a.Documents = app.NewDocumentService(
		app.NewDocumentStore(cfg.App.MaxDocuments),
		embedder,
		publisher,
		archive,
		cfg.Chunking.MaxPassageLength,
	)
	a.Summaries = app.NewSummaryService(assembler, styles, manager, sumCache)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.PersistWorker != nil {
		a.PersistWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
