package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/controller"
	"adaptive_tutor/internal/i18n"
	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/service"
	"adaptive_tutor/pkg/database"
	"adaptive_tutor/pkg/filewatcher"
	"adaptive_tutor/pkg/lock"
	"adaptive_tutor/pkg/logger"
	"adaptive_tutor/pkg/monitoring"
	"adaptive_tutor/pkg/security"
	"adaptive_tutor/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *ml.Registry

	tracer *sdktrace.TracerProvider
	cancel context.CancelFunc
}

type repositories struct {
	student    *repository.StudentRepository
	competency *repository.CompetencyRepository
	exercise   *repository.ExerciseRepository
	attempt    *repository.AttemptRepository
	score      *repository.ScoreRepository
	mastery    *repository.MasteryRepository
}

type services struct {
	mastery  *service.MasteryService
	progress *service.ProgressService
	selector *service.SelectorService
	tutor    *service.TutorService
}

type controllers struct {
	tutor  *controller.TutorController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		student:    repository.NewStudentRepository(db),
		competency: repository.NewCompetencyRepository(db),
		exercise:   repository.NewExerciseRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		score:      repository.NewScoreRepository(db),
		mastery:    repository.NewMasteryRepository(db),
	}
}

// newLocker 多实例部署时用 Redis 锁，否则用进程内锁
func newLocker(cfg *config.Config, rdb *redis.Client) lock.Locker {
	if rdb != nil {
		return lock.NewRedisLocker(rdb, "tutor:student:", cfg.Tutor.StudentLockTTL, cfg.Tutor.StudentLockWait)
	}
	return lock.NewLocalLocker(cfg.Tutor.StudentLockWait)
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, classifier service.Classifier, locker lock.Locker) *services {
	s := &services{}

	s.mastery = service.NewMasteryService(repos.attempt, repos.student, repos.competency, repos.mastery, classifier, cfg.Tutor)
	s.progress = service.NewProgressService(db, repos.attempt, repos.exercise, repos.competency, repos.score, repos.student, cfg.Tutor)
	s.selector = service.NewSelectorService(repos.attempt, repos.exercise, service.NewRandPicker(cfg.Tutor.RandomSeed), cfg.Tutor)
	s.tutor = service.NewTutorService(
		db,
		repos.student,
		repos.competency,
		repos.exercise,
		repos.attempt,
		repos.score,
		s.mastery,
		s.progress,
		s.selector,
		locker,
		cfg,
	)

	return s
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		tutor: controller.NewTutorController(s.tutor, controller.TutorLimits{
			SuggestionLimit:    cfg.Tutor.SuggestionLimit,
			SuggestionMaxLimit: cfg.Tutor.SuggestionMaxLimit,
			HistoryLimit:       cfg.Tutor.HistoryLimit,
			HistoryMaxLimit:    cfg.Tutor.HistoryMaxLimit,
		}),
		health: controller.NewHealthController(a.DB, a.Redis, a.Registry),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(i18n.Middleware())
}

// loadModel 加载分类器；失败时只告警，掌握度退回基线估计
func (a *App) loadModel(ctx context.Context, cfg *config.Config) {
	source, err := ml.NewSource(cfg)
	if err != nil {
		logger.Log.Warn("Classifier source unavailable, using baseline estimates", zap.Error(err))
		return
	}
	a.Registry = ml.NewRegistry(source)
	a.Registry.PassingScore = cfg.Tutor.PassingScore
	if err := a.Registry.Reload(ctx); err != nil {
		logger.Log.Warn("Failed to load classifier", zap.String("source", source.String()), zap.Error(err))
	}

	if cfg.Model.Watch && cfg.Model.Source == "file" {
		go func() {
			err := filewatcher.Watch(ctx, cfg.Model.Path, 500*time.Millisecond, func() {
				if err := a.Registry.Reload(ctx); err != nil {
					logger.Log.Warn("Classifier reload failed, keeping previous model", zap.Error(err))
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Error("Model watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		if rdb, err = database.InitRedis(&cfg.Redis); err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
	}

	if err := i18n.Init(cfg.I18n.DefaultLanguage); err != nil {
		return nil, fmt.Errorf("initialize i18n: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		cancel: cancel,
	}

	// 监控初始化
	monitoring.Init()
	app.loadModel(ctx, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	// 避免把 nil *ml.Registry 包装成非 nil 接口
	var classifier service.Classifier
	if app.Registry != nil {
		classifier = app.Registry
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, classifier, newLocker(cfg, rdb))
	controllers := app.initControllers(services, cfg)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app, nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close 停止模型监听并释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Log.Sync()
}
