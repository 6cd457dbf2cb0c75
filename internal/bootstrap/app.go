package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"skincare-backend/internal/imageanalysis"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/services/health"
	"skincare-backend/internal/sessions"
	"skincare-backend/internal/shared/config"
	"skincare-backend/internal/shared/server"
	"skincare-backend/internal/shared/storage/db"
	"skincare-backend/internal/shared/storage/object"
	localstore "skincare-backend/internal/shared/storage/object/local"
	s3store "skincare-backend/internal/shared/storage/object/s3"
	"skincare-backend/internal/wizard"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	SQLite          *sqlx.DB
	Store           object.ObjectStore
	Flows           *wizard.Catalog
	Recommender     *recommendation.Client
	Analyzer        imageanalysis.Analyzer
	SessionsRepo    sessions.Repo
	SessionsService *sessions.Service
	SessionsHandler *sessions.Handler
	Health          *health.Service
}

// Build prepares every dependency and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	flows, err := wizard.LoadCatalogFile(cfg.FlowsFile)
	if err != nil {
		return nil, fmt.Errorf("load wizard flows: %w", err)
	}
	app.Flows = flows

	recommender, err := BuildRecommender(cfg)
	if err != nil {
		return nil, err
	}
	app.Recommender = recommender

	analyzer, err := imageanalysis.New(imageanalysis.Config{
		Provider:        cfg.ImageAnalyzer,
		Model:           cfg.ImageModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Timeout:         cfg.ImageTimeout,
	})
	if err != nil {
		return nil, err
	}
	app.Analyzer = analyzer

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if err := buildRepo(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	app.SessionsService = sessions.NewService(app.SessionsRepo, flows, recommender, analyzer, store, cfg.RecommendationTimeout)
	app.SessionsHandler = sessions.NewHandler(app.SessionsService)
	app.SessionsHandler.Currency = cfg.Currency

	app.Health = health.NewService()
	if app.DB != nil {
		app.Health.Register("postgres", app.DB.PingContext)
	}
	if app.SQLite != nil {
		app.Health.Register("sqlite", app.SQLite.PingContext)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		SessionHandler: app.SessionsHandler,
		Health:         app.Health,
	})

	return app, nil
}

// BuildRecommender constructs the recommendation client from configuration.
func BuildRecommender(cfg config.Config) (*recommendation.Client, error) {
	var opts []recommendation.Option
	if cfg.RecommendationInsecureTLS {
		log.Printf("bootstrap: TLS verification disabled for %s", cfg.RecommendationURL)
		opts = append(opts, recommendation.WithInsecureTLS())
	}
	endpoint := cfg.RecommendationURL
	if strings.TrimSpace(endpoint) == "" {
		endpoint = recommendation.DefaultEndpoint
	}
	return recommendation.NewClient(endpoint, recommendation.ClampTimeout(cfg.RecommendationTimeout), opts...)
}

// Close releases database handles.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.SQLite != nil {
		_ = a.SQLite.Close()
	}
}

func buildRepo(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.SessionStore {
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return err
		}
		if sqlDB == nil {
			app.SessionsRepo = sessions.NewMemoryRepo()
			return nil
		}
		app.DB = sqlDB
		app.SessionsRepo = &sessions.PGRepo{DB: sqlDB}
	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		app.SQLite = conn
		app.SessionsRepo = &sessions.SQLiteRepo{DB: conn}
	default:
		app.SessionsRepo = sessions.NewMemoryRepo()
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory sessions")
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory sessions: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
