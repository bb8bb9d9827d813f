package app

import (
	"basebuilder_backend/internal/config"
	"basebuilder_backend/internal/controller"
	"basebuilder_backend/internal/repository"
	"basebuilder_backend/internal/service"
	"basebuilder_backend/pkg/database"
	"basebuilder_backend/pkg/logger"
	"basebuilder_backend/pkg/monitoring"
	"basebuilder_backend/pkg/security"
	"basebuilder_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	item        *repository.ItemRepository
	proficiency *repository.ProficiencyRepository
	attempt     *repository.AttemptRepository
	session     *repository.SessionRepository
	user        *repository.UserRepository
}

type services struct {
	auth       *service.AuthService
	aggregator *service.AggregatorService
	scheduler  *service.SchedulerService
	presenter  *service.PresenterService
	session    *service.SessionService
}

type controllers struct {
	auth        *controller.AuthController
	session     *controller.SessionController
	proficiency *controller.ProficiencyController
	catalog     *controller.CatalogController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		item:        repository.NewItemRepository(db),
		proficiency: repository.NewProficiencyRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		session:     repository.NewSessionRepository(rdb),
		user:        repository.NewUserRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.aggregator = service.NewAggregatorService(db, repos.item, repos.proficiency)
	s.scheduler = service.NewSchedulerService(db, s.aggregator)
	s.presenter = service.NewPresenterService(repos.item)
	s.session = service.NewSessionService(
		&cfg.Engine,
		repos.session,
		repos.item,
		repos.proficiency,
		repos.attempt,
		s.scheduler,
		s.presenter,
	)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		session:     controller.NewSessionController(s.session),
		proficiency: controller.NewProficiencyController(s.aggregator),
		catalog:     controller.NewCatalogController(repos.item),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
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

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
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

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db)
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("basebuilder", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

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

	// 等待中断信号优雅地关闭服务器
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
