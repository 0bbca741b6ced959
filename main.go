package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/terrainnova-ai/server/internal/catalog"
	"github.com/terrainnova-ai/server/internal/chat"
	"github.com/terrainnova-ai/server/internal/conversations"
	"github.com/terrainnova-ai/server/internal/core"
	"github.com/terrainnova-ai/server/internal/documents"
	"github.com/terrainnova-ai/server/internal/health"
	"github.com/terrainnova-ai/server/internal/llm"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/internal/repo"
	"github.com/terrainnova-ai/server/internal/server"
	"github.com/terrainnova-ai/server/internal/whatsapp"
	logx "github.com/terrainnova-ai/server/pkg/logger"
	"github.com/terrainnova-ai/server/pkg/postgres"
	pkgredis "github.com/terrainnova-ai/server/pkg/redis"
)

// AppConfig defines every configurable parameter of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Server model.ServerConfig

	// Infrastructure
	Redis    pkgredis.Config
	Postgres postgres.Config
	Vector   model.VectorConfig

	// Chat
	Conversation model.ConversationConfig
	Gemini       model.GeminiConfig
	Prompt       model.PromptConfig

	WhatsApp model.WhatsAppConfig
	Document model.DocumentConfig
	Health   model.HealthConfig
}

func main() {
	for _, f := range []string{".env", "config.env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", f, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	env := core.ParseEnvironment(cfg.Server.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.Server.LogLevel})
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	// ====================================================
	// Conversation context
	memory := repo.NewMemoryContextRepository(cfg.Conversation.TTL, cfg.Conversation.MaxTurns)
	defer memory.Close()

	var (
		rdb       *redis.Client
		redisRepo *repo.RedisContextRepository
		cache     model.ContextRepository
		err       error
	)
	if cfg.Redis.IsConfigured() {
		rdb, err = cfg.Redis.New(ctx)
		if rdb == nil {
			return fmt.Errorf("initialise redis client: %w", err)
		}
		if err != nil {
			logx.Warn().Err(err).Msg("redis unreachable at startup, using in-memory context until it recovers")
		}
		defer rdb.Close()
		redisRepo = repo.NewRedisContextRepository(rdb, cfg.Conversation.TTL, cfg.Conversation.MaxTurns)
		cache = redisRepo
	} else {
		logx.Warn().Msg("REDIS_URL not set, conversation context is kept in memory only")
	}
	store := conversations.NewStore(cache, memory)

	// ====================================================
	// Catalog
	var catalogRepo catalog.Repository
	if cfg.Postgres.IsConfigured() {
		db, err := cfg.Postgres.Open()
		if err != nil {
			return fmt.Errorf("open catalog database: %w", err)
		}
		defer closeDB(db, "catalog")
		catalogRepo = repo.NewCatalogRepository(db)
	} else {
		logx.Warn().Msg("database not configured, catalog endpoints are disabled")
	}
	catalogSvc := catalog.NewService(catalogRepo, cfg.Prompt.Currency)

	// ====================================================
	// Model gateway and embeddings
	var (
		chatModel einomodel.BaseChatModel
		embedder  embedding.Embedder
		probe     *llm.ModelProbe
	)
	if cfg.Gemini.IsConfigured() {
		client, err := llm.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return err
		}
		cm, err := llm.NewChatModel(ctx, client, cfg.Gemini)
		if err != nil {
			return err
		}
		chatModel = cm
		embedder = llm.NewEmbedder(client, cfg.Gemini)
		probe = llm.NewModelProbe(client, cfg.Gemini.Model)
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, replies use the out-of-service text")
	}

	gateway, err := llm.NewGateway(ctx, chatModel, llm.GatewayConfig{
		ModelName:   cfg.Gemini.Model,
		Prompt:      cfg.Prompt,
		PromptTurns: cfg.Conversation.PromptTurns,
		Timeout:     cfg.Gemini.Timeout,
		Catalog:     catalogSvc,
	})
	if err != nil {
		return err
	}

	// ====================================================
	// Documents
	var vectors documents.VectorStore
	if cfg.Vector.IsConfigured() {
		db, err := postgres.OpenDSN(cfg.Vector.DatabaseURL, postgres.Pool{
			MaxOpen: cfg.Postgres.MaxOpen,
			MaxIdle: cfg.Postgres.MaxIdle,
			MaxLife: cfg.Postgres.MaxLife,
		})
		if err != nil {
			return fmt.Errorf("open vector database: %w", err)
		}
		defer closeDB(db, "vector")
		vr, err := repo.NewVectorRepository(db, cfg.Vector.Table, cfg.Vector.Dimensions)
		if err != nil {
			return err
		}
		vectors = vr
	} else {
		logx.Warn().Msg("VECTOR_DATABASE_URL not set, document endpoints are disabled")
	}
	docSvc := documents.NewService(documents.PDFExtractor{}, embedder, vectors, documents.Config{
		ChunkSize:      cfg.Document.ChunkSize,
		DefaultTopK:    cfg.Document.DefaultTopK,
		MaxTopK:        cfg.Document.MaxTopK,
		ScoreThreshold: cfg.Vector.ScoreThreshold,
	})

	// ====================================================
	// Messaging and chat
	messenger := whatsapp.NewClient(cfg.WhatsApp)
	if !messenger.IsConfigured() {
		logx.Warn().Msg("whatsapp not configured, webhook replies are not delivered")
	}
	chatSvc := chat.NewService(store, gateway, catalogSvc, messenger, chat.Config{
		MaxTurns:     cfg.Conversation.MaxTurns,
		ReplyTimeout: cfg.WhatsApp.ReplyTimeout,
	})
	defer chatSvc.Wait()

	// ====================================================
	// Health
	aggregator := health.NewAggregator(cfg.Health.ProbeTimeout,
		health.Dependency{
			Name:     model.ServiceCache,
			Checker:  redisRepo,
			Required: true,
		},
		health.Dependency{Name: model.ServiceDatabase, Checker: catalogSvc, Required: true},
		health.Dependency{
			Name:    model.ServiceVectorIndex,
			Checker: health.Probe{Configured: vectors != nil, PingFunc: docSvc.Ping},
		},
		health.Dependency{Name: model.ServiceModel, Checker: probe, Passive: !cfg.Health.ActiveProbes},
		health.Dependency{Name: model.ServiceMessaging, Checker: messenger, Passive: !cfg.Health.ActiveProbes},
	)

	router := server.NewRouter(server.Deps{
		Chat:           chatSvc,
		Catalog:        catalogSvc,
		Documents:      docSvc,
		Messenger:      messenger,
		Health:         aggregator,
		MaxUploadBytes: int64(cfg.Document.MaxUploadMB) << 20,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logx.Info().
		Str("addr", addr).
		Str("env", cfg.Server.Environment).
		Bool("redis", rdb != nil).
		Bool("catalog", catalogSvc.IsConfigured()).
		Bool("documents", docSvc.IsConfigured()).
		Bool("model", gateway.IsConfigured()).
		Bool("whatsapp", messenger.IsConfigured()).
		Msg("starting server")

	return server.New(addr, router, cfg.Server.ShutdownTimeout).Run(ctx)
}

func closeDB(db *gorm.DB, name string) {
	if err := postgres.Close(db); err != nil {
		logx.Warn().Err(err).Str("db", name).Msg("close database")
	}
}
