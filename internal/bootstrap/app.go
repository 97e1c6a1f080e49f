package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"studio-backend/internal/analysis"
	googleauth "studio-backend/internal/auth"
	"studio-backend/internal/deliverables"
	"studio-backend/internal/llm"
	openai "studio-backend/internal/llm/openai"
	"studio-backend/internal/notify"
	"studio-backend/internal/queue"
	"studio-backend/internal/requests"
	"studio-backend/internal/roles"
	"studio-backend/internal/services/health"
	"studio-backend/internal/shared/config"
	"studio-backend/internal/shared/server"
	"studio-backend/internal/shared/storage/db"
	"studio-backend/internal/shared/storage/object"
	localstore "studio-backend/internal/shared/storage/object/local"
	miniostore "studio-backend/internal/shared/storage/object/minio"
	s3store "studio-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	RequestsRepo     requests.Repo
	AnalysisRepo     analysis.Repo
	DeliverablesRepo deliverables.Repo
	RolesRepo        roles.Repo

	RoleResolver       *roles.Resolver
	RequestService     *requests.Service
	AnalysisService    *analysis.Service
	DeliverableService *deliverables.Service
	Dispatcher         *notify.Dispatcher
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		Health:             health.NewService(app.DB),
		RequestHandler:     requests.NewHandler(app.RequestService, app.Dispatcher),
		AnalysisHandler:    analysis.NewHandler(app.AnalysisService, app.RequestService, app.RoleResolver),
		DeliverableHandler: deliverables.NewHandler(app.DeliverableService),
		RoleHandler:        roles.NewHandler(app.RolesRepo, app.RoleResolver),
		GoogleAuth:         app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("ANALYSIS_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.RequestsRepo = &requests.PGRepo{DB: app.DB}
		app.AnalysisRepo = &analysis.PGRepo{DB: app.DB}
		app.DeliverablesRepo = &deliverables.PGRepo{DB: app.DB}
		app.RolesRepo = &roles.PGRepo{DB: app.DB}
	} else {
		app.RequestsRepo = requests.NewMemoryRepo()
		app.AnalysisRepo = analysis.NewMemoryRepo()
		app.DeliverablesRepo = deliverables.NewMemoryRepo()
		app.RolesRepo = roles.NewMemoryRepo()
	}

	app.RoleResolver = &roles.Resolver{Repo: app.RolesRepo}

	app.RequestService = &requests.Service{
		Repo:         app.RequestsRepo,
		Roles:        app.RoleResolver,
		Deliverables: app.DeliverablesRepo,
		Jobs:         app.Queue,
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			if !isDevLike(app.Config.Env) {
				return err
			}
			log.Printf("bootstrap: openai client unavailable, using placeholder: %v", err)
		} else {
			llmClient = openaiClient
		}
	}

	app.AnalysisService = &analysis.Service{
		Repo:     app.AnalysisRepo,
		Requests: app.RequestsRepo,
		Client:   llmClient,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
	}

	app.DeliverableService = &deliverables.Service{
		Repo:     app.DeliverablesRepo,
		Requests: app.RequestsRepo,
		Roles:    app.RoleResolver,
		Store:    app.Store,
	}

	var mailer notify.Mailer
	if strings.TrimSpace(app.Config.MailAPIURL) != "" {
		httpMailer, err := notify.NewHTTPMailer(app.Config.MailAPIURL, app.Config.MailAPIKey)
		if err != nil {
			return err
		}
		mailer = httpMailer
	} else {
		log.Printf("bootstrap: MAIL_API_URL empty; notifications logged only")
		mailer = &notify.LogMailer{}
	}
	app.Dispatcher = notify.NewDispatcher(mailer, app.Config.MailFromAddress)

	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
