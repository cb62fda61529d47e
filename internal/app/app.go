package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/controller"
	"scout_crm_backend/internal/repository"
	"scout_crm_backend/internal/service"
	"scout_crm_backend/pkg/database"
	"scout_crm_backend/pkg/logger"
	"scout_crm_backend/pkg/monitoring"
	"scout_crm_backend/pkg/security"
	"scout_crm_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	prospect     *repository.ProspectRepository
	outreach     *repository.OutreachRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	notification *service.NotificationService
	remoteStore  *service.RemoteStoreService
	syncQueue    *service.SyncQueueService
	prospect     *service.ProspectService
	pipeline     *service.PipelineService
	transition   *service.TransitionService
	ai           *service.AIService
	extraction   *service.ExtractionService
	outreach     *service.OutreachService
}

type controllers struct {
	auth         *controller.AuthController
	prospect     *controller.ProspectController
	pipeline     *controller.PipelineController
	activity     *controller.ActivityController
	extraction   *controller.ExtractionController
	outreach     *controller.OutreachController
	sync         *controller.SyncController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		prospect:     repository.NewProspectRepository(db),
		outreach:     repository.NewOutreachRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.notification = service.NewNotificationService(repos.notification)
	s.remoteStore = service.NewRemoteStoreService(cfg.RemoteStore)
	s.syncQueue = service.NewSyncQueueService(
		service.NewRedisQueueStore(rdb),
		s.remoteStore,
		repos.prospect,
		s.notification,
	)
	s.prospect = service.NewProspectService(repos.prospect, s.remoteStore, s.syncQueue, s.notification)
	s.pipeline = service.NewPipelineService(repos.prospect)
	s.transition = service.NewTransitionService(repos.prospect, s.notification, s.remoteStore, s.syncQueue)
	s.ai = service.NewAIService(cfg.AI)
	s.extraction = service.NewExtractionService(
		s.ai,
		repos.prospect,
		s.prospect,
		service.NewRedisImportCounter(rdb, cfg.Import.DailyLimit),
	)
	s.outreach = service.NewOutreachService(repos.outreach, repos.prospect, s.ai)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		prospect:     controller.NewProspectController(s.prospect),
		pipeline:     controller.NewPipelineController(s.pipeline, s.transition),
		activity:     controller.NewActivityController(s.transition),
		extraction:   controller.NewExtractionController(s.extraction, s.storage),
		outreach:     controller.NewOutreachController(s.outreach, s.auth),
		sync:         controller.NewSyncController(s.syncQueue, s.pipeline),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db, rdb, s.remoteStore, s.syncQueue),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks keeps the sync queue moving even when nobody
// touches the API: a periodic probe notices the store coming back and
// the edge-triggered SetOnline takes it from there. The queue service
// boots offline, so the immediate first probe doubles as the edge that
// resumes a backlog left behind by a previous process.
func (a *App) startBackgroundTasks(s *services) {
	probe := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.remoteStore.Ping(ctx)
		cancel()
		s.syncQueue.SetOnline(context.Background(), err == nil)
	}

	go func() {
		probe()
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			probe()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("scout-crm", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
