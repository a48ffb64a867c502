package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/clients/readme"
	"github.com/rotabull/supportsync/internal/clients/zendesk"
	"github.com/rotabull/supportsync/internal/db"
	"github.com/rotabull/supportsync/internal/handlers"
	"github.com/rotabull/supportsync/internal/jobs"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/server"
	syncpkg "github.com/rotabull/supportsync/internal/sync"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Router    *gin.Engine
	Cfg       Config
	Orch      *syncpkg.Orchestrator
	Scheduler *jobs.Scheduler
	cancel    context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	ticketRepo := repos.NewTicketRepo(theDB, log)
	userRepo := repos.NewUserRepo(theDB, log)
	docRepo := repos.NewSupportDocRepo(theDB, log)
	refRepo := repos.NewCollectionRefRepo(theDB, log)

	zendeskClient, err := zendesk.New(log, zendesk.Config{
		Subdomain:    cfg.ZendeskSubdomain,
		UserEmail:    cfg.ZendeskUserEmail,
		APIToken:     cfg.ZendeskAPIToken,
		RequestDelay: cfg.RequestDelay,
		MaxRetries:   cfg.MaxRetries,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init zendesk client: %w", err)
	}
	readmeClient, err := readme.New(log, readme.Config{
		APIToken:   cfg.ReadmeAPIToken,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init readme client: %w", err)
	}
	forgeClient, err := forge.New(log, forge.Config{
		APIKey:  cfg.ForgeAPIKey,
		BaseURL: cfg.ForgeBaseURL,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init forge client: %w", err)
	}

	collections := &syncpkg.CollectionSyncer{Log: log, Forge: forgeClient, Refs: refRepo}
	writer := &syncpkg.BatchWriter{DB: theDB, Log: log, BatchSize: cfg.BatchSize, TxTimeout: cfg.TxTimeout}

	orch := &syncpkg.Orchestrator{
		Log: log,
		Users: func(ctx context.Context) (int, error) {
			return syncpkg.SyncUsers(ctx, syncpkg.UsersDeps{
				DB:      theDB,
				Log:     log,
				Zendesk: zendeskClient,
				Users:   userRepo,
			})
		},
		Docs: func(ctx context.Context) (int, error) {
			return syncpkg.SyncDocs(ctx, syncpkg.DocsDeps{
				DB:          theDB,
				Log:         log,
				Readme:      readmeClient,
				Forge:       forgeClient,
				Docs:        docRepo,
				Collections: collections,
				Writer:      writer,
			})
		},
		Tickets: func(ctx context.Context) (int, error) {
			return syncpkg.SyncTickets(ctx, syncpkg.TicketsDeps{
				DB:                 theDB,
				Log:                log,
				Zendesk:            zendeskClient,
				Forge:              forgeClient,
				Tickets:            ticketRepo,
				Users:              userRepo,
				Collections:        collections,
				Writer:             writer,
				Paging:             cfg.Paging,
				LookbackDays:       cfg.LookbackDays,
				CommentConcurrency: cfg.CommentConcurrency,
				TeamEmailSuffix:    cfg.TeamEmailSuffix,
			})
		},
		Parallel:      cfg.Parallel,
		AbortSiblings: cfg.AbortSiblings,
		Alert: func(res syncpkg.Result) {
			log.Error("ALERT: support data sync did not fully succeed",
				"run_id", res.RunID,
				"state", res.State,
				"failed_steps", res.FailedSteps,
			)
		},
	}

	suggestHandler := handlers.NewSuggestHandler(log, forgeClient, docRepo, refRepo)
	syncJobHandler := handlers.NewSyncJobHandler(log, orch)
	router := server.NewRouter(server.RouterConfig{
		SuggestHandler: suggestHandler,
		SyncJobHandler: syncJobHandler,
	})

	scheduler := jobs.NewScheduler(log, orch, cfg.SyncInterval)

	return &App{
		Log:       log,
		DB:        theDB,
		Router:    router,
		Cfg:       cfg,
		Orch:      orch,
		Scheduler: scheduler,
	}, nil
}

func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	return a.Scheduler.Start(ctx)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
