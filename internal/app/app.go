package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"owl_eval_backend/internal/config"
	"owl_eval_backend/internal/controller"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/service"
	"owl_eval_backend/pkg/configwatcher"
	"owl_eval_backend/pkg/database"
	"owl_eval_backend/pkg/logger"
	"owl_eval_backend/pkg/monitoring"
	"owl_eval_backend/pkg/security"
	"owl_eval_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	experiment  *repository.ExperimentRepository
	comparison  *repository.ComparisonRepository
	singleVideo *repository.SingleVideoRepository
	participant *repository.ParticipantRepository
	evaluation  *repository.EvaluationRepository
	video       *repository.VideoRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	experiment  *service.ExperimentService
	comparison  *service.ComparisonService
	submission  *service.SubmissionService
	participant *service.ParticipantService
	stats       *service.StatsService
	video       *service.VideoService
}

type controllers struct {
	auth        *controller.AuthController
	experiment  *controller.ExperimentController
	comparison  *controller.ComparisonController
	submission  *controller.SubmissionController
	participant *controller.ParticipantController
	stats       *controller.StatsController
	video       *controller.VideoController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		experiment:  repository.NewExperimentRepository(db),
		comparison:  repository.NewComparisonRepository(db),
		singleVideo: repository.NewSingleVideoRepository(db),
		participant: repository.NewParticipantRepository(db),
		evaluation:  repository.NewEvaluationRepository(db),
		video:       repository.NewVideoRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.experiment = service.NewExperimentService(repos.experiment)
	s.comparison = service.NewComparisonService(repos.comparison, repos.singleVideo, repos.evaluation, repos.experiment, s.storage)
	s.submission = service.NewSubmissionService(repos.comparison, repos.participant, repos.evaluation, repos.singleVideo, db)
	s.participant = service.NewParticipantService(repos.participant)
	s.stats = service.NewStatsService(db, rdb)
	s.video = service.NewVideoService(repos.video, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		experiment:  controller.NewExperimentController(s.experiment),
		comparison:  controller.NewComparisonController(s.comparison),
		submission:  controller.NewSubmissionController(s.submission),
		participant: controller.NewParticipantController(s.participant),
		stats:       controller.NewStatsController(s.stats),
		video:       controller.NewVideoController(s.video),
		health:      controller.NewHealthController(db),
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

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) watchConfig() {
	configFile := filepath.Join("configs", "config.yaml")
	go configwatcher.WatchConfig(configFile, a.Config, func(newCfg interface{}) {
		cfg, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("Config reloaded")
		a.Config = cfg
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release模式默认不动表结构，带-migrate/-migrate-only时才迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Log.Info("Database migration completed")
	}
	if cfg.MigrateOnly {
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis只用于统计缓存，不可用时降级为直查数据库
		logger.Log.Warn("Redis unavailable, stats caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("owl-eval-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.watchConfig()

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

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
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
