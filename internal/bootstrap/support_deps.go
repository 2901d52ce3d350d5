package bootstrap

import (
	"context"
	"time"

	"support_server/adapter/out/cache"
	"support_server/adapter/out/llm"
	"support_server/adapter/out/mongodb"
	"support_server/adapter/out/notify"
	"support_server/adapter/out/persistence"
	"support_server/adapter/out/provider"
	"support_server/adapter/out/shopify"
	"support_server/config"
	"support_server/core/port/in"
	"support_server/core/port/out"
	"support_server/core/service/classification"
	"support_server/core/service/orders"
	"support_server/core/service/pipeline"
	"support_server/core/service/policy"
	"support_server/core/service/review"
	"support_server/core/service/senderfilter"
	"support_server/core/service/summary"
	"support_server/infra/database"
	"support_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	LedgerRepo out.LedgerRepository
	ReviewRepo out.ReviewQueueRepository
	Archive    out.ArchiveRepository
	Seen       out.SeenCache

	// Outbound adapters
	Mailbox    out.MailboxPort
	OrderStore out.OrderStorePort
	LLMClient  *llm.Client
	Notifier   out.NotifierPort

	// Services
	PipelineService in.PipelineService
	ReviewService   in.ReviewService
	SummaryService  in.SummaryService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the row-struct adapters)
	sqlDB, err := database.NewSQLx(cfg.DatabaseURL)
	if err != nil {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	if err := persistence.EnsureSchema(context.Background(), sqlDB); err != nil {
		logger.WithError(err).Warn("Schema migration failed")
	}

	deps.LedgerRepo = persistence.NewLedgerRepository(sqlDB)
	deps.ReviewRepo = persistence.NewReviewQueueRepository(sqlDB)

	// Redis (seen cache, optional)
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis connection failed, dedup falls back to the ledger: %v", err)
	} else {
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })
		deps.Seen = cache.NewSeenCache(redisClient, cfg.SeenCacheTTL)
	}

	// MongoDB (message archive, optional)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.Warn("MongoDB connection failed, archiving disabled: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			archive := mongodb.NewArchiveAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := archive.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure archive indexes: %v", err)
			}
			deps.Archive = archive
		}
	}

	// Mailbox provider
	switch cfg.MailboxProvider {
	case "outlook":
		if cfg.MicrosoftClientID != "" && cfg.MicrosoftClientSecret != "" {
			deps.Mailbox = provider.NewOutlookAdapter(context.Background(), provider.OutlookConfig{
				ClientID:     cfg.MicrosoftClientID,
				ClientSecret: cfg.MicrosoftClientSecret,
				TenantID:     cfg.MicrosoftTenantID,
				Mailbox:      cfg.SupportEmail,
			})
			logger.Info("Outlook mailbox adapter initialized for %s", cfg.SupportEmail)
		}
	case "gmail":
		if cfg.GoogleClientID != "" && cfg.GoogleRefreshToken != "" {
			oauthConfig := &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
				Scopes:       []string{"https://mail.google.com/"},
				Endpoint:     google.Endpoint,
			}
			ts := oauthConfig.TokenSource(context.Background(), &oauth2.Token{
				RefreshToken: cfg.GoogleRefreshToken,
			})
			gmailAdapter, err := provider.NewGmailAdapter(context.Background(), ts)
			if err != nil {
				logger.WithError(err).Warn("Gmail mailbox adapter failed to initialize")
			} else {
				deps.Mailbox = gmailAdapter
				logger.Info("Gmail mailbox adapter initialized")
			}
		}
	default:
		logger.Warn("Unknown mailbox provider: %s", cfg.MailboxProvider)
	}
	if deps.Mailbox == nil {
		logger.Warn("No mailbox configured, the intake pipeline is disabled")
	}

	// Shopify order store
	if cfg.ShopifyStoreURL != "" && cfg.ShopifyAccessToken != "" {
		deps.OrderStore = shopify.NewAdapter(shopify.Config{
			StoreURL:    cfg.ShopifyStoreURL,
			AccessToken: cfg.ShopifyAccessToken,
		})
		logger.Info("Shopify adapter initialized for %s", cfg.ShopifyStoreURL)
	}

	// LLM client for reply generation
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
		})
	}

	// Slack notifier (optional)
	if cfg.SlackWebhookURL != "" {
		deps.Notifier = notify.NewSlackNotifier(cfg.SlackWebhookURL)
		logger.Info("Slack notifier initialized")
	}

	// Services
	deps.ReviewService = review.NewService(deps.ReviewRepo, deps.LedgerRepo, deps.OrderStore)
	deps.SummaryService = summary.NewService(deps.LedgerRepo, deps.ReviewRepo, deps.Mailbox, deps.Notifier, summary.Options{
		Recipient: cfg.SummaryRecipient,
		Hour:      cfg.SummaryHour,
		StoreName: cfg.StoreName,
	})

	if deps.Mailbox != nil && deps.LLMClient != nil {
		deps.PipelineService = pipeline.NewService(
			deps.Mailbox,
			senderfilter.NewDefaultFilter(),
			classification.NewDefaultClassifier(),
			orders.NewResolver(deps.OrderStore),
			policy.NewEngine(deps.LLMClient),
			deps.LedgerRepo,
			deps.ReviewRepo,
			pipeline.Options{
				Archive:    deps.Archive,
				Seen:       deps.Seen,
				Notifier:   deps.Notifier,
				FetchLimit: cfg.FetchLimit,
			},
		)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}

	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	return nil
}
