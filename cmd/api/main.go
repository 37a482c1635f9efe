package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-academic-api/api/swagger"
	"github.com/noah-isme/school-academic-api/internal/repository"
	"github.com/noah-isme/school-academic-api/internal/service"
	"github.com/noah-isme/school-academic-api/pkg/cache"
	"github.com/noah-isme/school-academic-api/pkg/config"
	"github.com/noah-isme/school-academic-api/pkg/database"
	"github.com/noah-isme/school-academic-api/pkg/jobs"
	"github.com/noah-isme/school-academic-api/pkg/logger"
	"github.com/noah-isme/school-academic-api/pkg/storage"
)

// @title School Academic API
// @version 1.0.0
// @description Weighted grading, report cards and study year progression
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report card cache disabled", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
	}

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.shutdown()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// application holds every wired service the router needs.
type application struct {
	db          *sqlx.DB
	metrics     *service.MetricsService
	auth        *service.AuthService
	assignments *service.AssignmentService
	grades      *service.GradeEntryService
	records     *service.ReportCardService
	enrollments *service.EnrollmentService
	reports     *service.ReportService
	queue       *jobs.Queue
}

func (a *application) shutdown() {
	if a.queue != nil {
		a.queue.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	years := repository.NewStudyYearRepository(db)
	courses := repository.NewCourseRepository(db)
	lapses := repository.NewLapseRepository(db)
	periods := repository.NewAcademicPeriodRepository(db)
	sections := repository.NewSectionRepository(db)
	loads := repository.NewAcademicLoadRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Grading.ReportCardCacheTTL, logr, cfg.Grading.CacheEnabled && redisClient != nil)

	aggregator := service.NewGradeAggregator(gradeRepo, lapses)
	resolver := service.NewProgressionResolver(years, courses, enrollmentRepo, periods, aggregator, service.ProgressionOptions{
		StrictNextYear: cfg.Progression.StrictNextYear,
	})
	access := service.NewAccessPolicy(students, teachers)

	app := &application{
		db:      db,
		metrics: metrics,
		auth: service.NewAuthService(users, validate, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
		assignments: service.NewAssignmentService(assignmentRepo, loads, lapses, gradeRepo, access, cacheSvc, validate, logr),
		grades:      service.NewGradeEntryService(assignmentRepo, loads, enrollmentRepo, gradeRepo, access, cacheSvc, validate, logr),
	}
	app.records = service.NewReportCardService(service.ReportCardDeps{
		Scorer:      aggregator,
		Courses:     courses,
		Enrollments: enrollmentRepo,
		Years:       years,
		Lapses:      lapses,
		Progression: resolver,
		Access:      access,
		Cache:       cacheSvc,
		Metrics:     metrics,
		CacheTTL:    cfg.Grading.ReportCardCacheTTL,
		Logger:      logr,
	})
	app.enrollments = service.NewEnrollmentService(service.EnrollmentDeps{
		Repo:        enrollmentRepo,
		Students:    students,
		Periods:     periods,
		Years:       years,
		Sections:    sections,
		Progression: resolver,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})

	if !cfg.Reports.Enabled {
		return app, nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	exporter := service.NewExportService(service.ExportDeps{
		Roster:      enrollmentRepo,
		Students:    students,
		ReportCards: app.records,
		Progression: resolver,
		Storage:     fileStore,
		Signer:      storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		Config:      service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
		Logger:      logr,
	})
	worker := service.NewReportWorker(reportRepo, exporter, metrics, logr)
	app.queue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		OnFailure:  worker.Fail,
		Logger:     logr,
	})
	app.queue.Start(ctx)

	app.reports = service.NewReportService(reportRepo, periods, app.queue, exporter, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	app.reports.RecoverPendingJobs(ctx)
	app.reports.StartCleanup(ctx)

	return app, nil
}
