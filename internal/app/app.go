package app

import (
	"context"
	"errors"
	"learning_cloud_backend/internal/config"
	"learning_cloud_backend/internal/controller"
	"learning_cloud_backend/internal/jobs"
	"learning_cloud_backend/internal/middleware"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/service"
	"learning_cloud_backend/pkg/configwatcher"
	"learning_cloud_backend/pkg/database"
	"learning_cloud_backend/pkg/logger"
	"learning_cloud_backend/pkg/monitoring"
	"learning_cloud_backend/pkg/security"
	"learning_cloud_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services        *services
	analyticsJob    *jobs.AnalyticsJob
	tracer          *sdktrace.TracerProvider
	current         atomic.Pointer[config.Config]
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	quiz         *repository.QuizRepository
	attempt      *repository.QuizAttemptRepository
	session      *repository.QuizSessionRepository
	result       *repository.QuizResultRepository
	analytics    *repository.AnalyticsRepository
	notification *repository.NotificationRepository
}

type services struct {
	policy     *service.QuizPolicy
	dispatcher *service.CollaboratorDispatcher
	quiz       *service.QuizService
	attempt    *service.QuizAttemptService
	analytics  *service.QuizAnalyticsService
}

type controllers struct {
	quiz      *controller.QuizController
	session   *controller.QuizSessionController
	analytics *controller.QuizAnalyticsController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// CurrentConfig 返回最近一次加载的配置
func (a *App) CurrentConfig() *config.Config {
	return a.current.Load()
}

// ApplyConfig 替换当前配置并通知已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	// 运行时标志不随配置文件变化
	cfg.ForceMigrate = a.Config.ForceMigrate
	cfg.MigrateOnly = a.Config.MigrateOnly
	a.current.Store(cfg)

	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		quiz:         repository.NewQuizRepository(db),
		attempt:      repository.NewQuizAttemptRepository(db),
		session:      repository.NewQuizSessionRepository(db),
		result:       repository.NewQuizResultRepository(db),
		analytics:    repository.NewAnalyticsRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.policy = service.NewQuizPolicy(cfg.Quiz)
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.policy.Update(newCfg.Quiz)
	})

	s.analytics = service.NewQuizAnalyticsService(repos.quiz, repos.analytics, rdb, s.policy, db)
	s.dispatcher = service.NewCollaboratorDispatcher(repos.notification, repos.analytics)
	s.dispatcher.Cache = s.analytics

	s.quiz = service.NewQuizService(repos.quiz, db)
	s.attempt = service.NewQuizAttemptService(
		repos.quiz,
		repos.attempt,
		repos.session,
		repos.result,
		s.dispatcher,
		s.policy,
		db,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		quiz:      controller.NewQuizController(s.quiz, s.attempt),
		session:   controller.NewQuizSessionController(s.attempt),
		analytics: controller.NewQuizAnalyticsController(s.analytics),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.ConfigMiddleware(a.CurrentConfig))
}

// New 基于已建立的数据库与 Redis 连接组装应用，rdb 可为空
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}
	app.current.Store(cfg)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("learning-cloud", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.tracer = tp
	app.startBackgroundTasks()
	return app
}

func (a *App) startBackgroundTasks() {
	job, err := jobs.NewAnalyticsJob(a.services.analytics, a.Config.Quiz.AnalyticsRefreshCron)
	if err != nil {
		logger.Log.Error("Invalid analytics refresh schedule, job disabled",
			zap.String("spec", a.Config.Quiz.AnalyticsRefreshCron),
			zap.Error(err))
	} else {
		a.analyticsJob = job
		job.Start()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	go func() {
		if err := configwatcher.WatchConfig(watchCtx, filepath.Join(configDir, "config.yaml"), a.ApplyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.analyticsJob != nil {
		a.analyticsJob.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
}
