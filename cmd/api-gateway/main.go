package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/alexander-vyh/student-information-system-sub004/api/swagger"
	"github.com/alexander-vyh/student-information-system-sub004/internal/handler"
	internalmiddleware "github.com/alexander-vyh/student-information-system-sub004/internal/middleware"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/repository"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/cache"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/config"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/database"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/jobs"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/logger"
	corsmiddleware "github.com/alexander-vyh/student-information-system-sub004/pkg/middleware/cors"
	reqidmiddleware "github.com/alexander-vyh/student-information-system-sub004/pkg/middleware/requestid"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/storage"
)

// @title Academic Progress & Eligibility API
// @version 1.0.0
// @description GPA, satisfactory academic progress, graduation and honors evaluation for student records
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, policy caching disabled", "error", err)
		redisClient = nil
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsService := service.NewMetricsService(cfg.Metrics.Namespace)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Policies.CacheTTL, logr, true)
	}

	studentRepo := repository.NewStudentRepository(db)
	attemptRepo := repository.NewCourseAttemptRepository(db)
	gradeScaleRepo := repository.NewGradeScaleRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	sapResultRepo := repository.NewSapResultRepository(db)
	gpaSnapshotRepo := repository.NewGpaSnapshotRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	userRepo := repository.NewUserRepository(db)

	gpaService := service.NewGpaService(logr)
	sapService := service.NewSapService(logr)
	graduationService := service.NewGraduationService(logr)
	honorsService := service.NewHonorsService(logr)

	studentService := service.NewStudentService(studentRepo, attemptRepo, gradeScaleRepo, validate, logr)
	gradeScaleService := service.NewGradeScaleService(gradeScaleRepo, validate, logr)
	policyService := service.NewPolicyService(policyRepo, cacheService, cfg.Policies.CacheTTL, logr)
	standingService := service.NewStandingService(studentService, sapResultRepo, policyService, gpaService, honorsService, graduationService, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sis-progress-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)

	var evaluationWorker *service.EvaluationWorker
	queue := jobs.NewQueue("evaluations", func(ctx context.Context, job jobs.Job) error {
		return evaluationWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Evaluation.WorkerConcurrency,
		BufferSize: cfg.Evaluation.QueueBuffer,
		MaxRetries: cfg.Evaluation.WorkerRetries,
		RetryDelay: cfg.Evaluation.RetryDelay,
		Logger:     logr,
	})

	evaluationService := service.NewEvaluationService(
		evaluationRepo,
		studentService,
		sapResultRepo,
		gpaSnapshotRepo,
		studentRepo,
		policyService,
		gpaService,
		sapService,
		queue,
		metricsService,
		logr,
		service.EvaluationServiceConfig{
			SubBatchSize:    cfg.Evaluation.SubBatchSize,
			ErrorCap:        cfg.Evaluation.ErrorCap,
			Retention:       cfg.Evaluation.Retention,
			CleanupInterval: cfg.Evaluation.CleanupInterval,
		},
	)
	evaluationWorker = service.NewEvaluationWorker(evaluationService, cfg.Evaluation.WorkerRetries, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		artifactStore, err := storage.NewLocalStorage(cfg.Exports.ArtifactsDir)
		if err != nil {
			logr.Sugar().Fatalw("artifact storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService = service.NewExportService(
			evaluationRepo,
			sapResultRepo,
			gpaSnapshotRepo,
			artifactStore,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			logr,
			nil,
			nil,
		)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	studentHandler := handler.NewStudentHandler(studentService)
	standingHandler := handler.NewStandingHandler(standingService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, exportService)
	policyHandler := handler.NewPolicyHandler(policyService)
	gradeScaleHandler := handler.NewGradeScaleHandler(gradeScaleService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// The download token carries its own authentication.
	api.GET("/exports/:token", evaluationHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authService))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.GET("/auth/me", authHandler.Me)

	adminOnly := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	registrarWrite := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleRegistrar)
	staffRead := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleRegistrar, models.RoleAdvisor)
	staffOrSelf := internalmiddleware.RBAC(
		string(models.RoleSuperAdmin), string(models.RoleAdmin),
		string(models.RoleRegistrar), string(models.RoleAdvisor), "SELF",
	)

	users := secured.Group("/users", adminOnly)
	users.GET("", userHandler.List)
	users.POST("", internalmiddleware.Audit(userRepo, models.AuditActionUserCreate, "users"), userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", internalmiddleware.Audit(userRepo, models.AuditActionUserUpdate, "users"), userHandler.Update)
	users.DELETE("/:id", internalmiddleware.Audit(userRepo, models.AuditActionUserDelete, "users"), userHandler.Delete)

	students := secured.Group("/students")
	students.GET("", staffRead, studentHandler.List)
	students.POST("", registrarWrite, internalmiddleware.Audit(userRepo, models.AuditActionStudentCreate, "students"), studentHandler.Create)
	students.GET("/:id", staffOrSelf, studentHandler.Get)
	students.PUT("/:id", registrarWrite, internalmiddleware.Audit(userRepo, models.AuditActionStudentUpdate, "students"), studentHandler.Update)
	students.DELETE("/:id", adminOnly, internalmiddleware.Audit(userRepo, models.AuditActionStudentDelete, "students"), studentHandler.Delete)
	students.GET("/:id/attempts", staffOrSelf, studentHandler.Attempts)
	students.POST("/:id/attempts", registrarWrite, studentHandler.RecordAttempt)
	students.POST("/:id/attempts/bulk", registrarWrite, studentHandler.LoadAttempts)
	students.GET("/:id/gpa", staffOrSelf, standingHandler.Gpa)
	students.GET("/:id/sap", staffOrSelf, standingHandler.LatestSap)
	students.GET("/:id/sap/history", staffOrSelf, standingHandler.SapHistory)
	students.GET("/:id/honors", staffOrSelf, standingHandler.Honors)
	students.POST("/:id/evaluate", registrarWrite, evaluationHandler.EvaluateStudent)

	secured.POST("/graduation/validate", staffRead, standingHandler.ValidateGraduation)

	evaluations := secured.Group("/evaluations")
	evaluations.POST("", registrarWrite, internalmiddleware.Audit(userRepo, models.AuditActionEvaluationRun, "evaluations"), evaluationHandler.Create)
	evaluations.GET("", staffRead, evaluationHandler.List)
	evaluations.GET("/:id", staffRead, evaluationHandler.Get)
	evaluations.GET("/:id/status", staffRead, evaluationHandler.Status)
	evaluations.POST("/:id/cancel", registrarWrite, internalmiddleware.Audit(userRepo, models.AuditActionEvaluationCancel, "evaluations"), evaluationHandler.Cancel)
	evaluations.GET("/:id/export", staffRead, evaluationHandler.Export)

	policies := secured.Group("/policies")
	policies.GET("/sap", staffRead, policyHandler.EffectiveSapPolicy)
	policies.GET("/sap/all", staffRead, policyHandler.ListSapPolicies)
	policies.PUT("/sap", adminOnly, internalmiddleware.Audit(userRepo, models.AuditActionPolicyUpdate, "policies"), policyHandler.SaveSapPolicy)
	policies.GET("/honors", staffRead, policyHandler.HonorsConfig)
	policies.PUT("/honors", adminOnly, internalmiddleware.Audit(userRepo, models.AuditActionPolicyUpdate, "policies"), policyHandler.SaveHonorsConfig)
	policies.GET("/graduation", staffRead, policyHandler.GraduationConfig)
	policies.PUT("/graduation", adminOnly, internalmiddleware.Audit(userRepo, models.AuditActionPolicyUpdate, "policies"), policyHandler.SaveGraduationConfig)

	scale := secured.Group("/grade-scale")
	scale.GET("", staffRead, gradeScaleHandler.List)
	scale.GET("/:code", staffRead, gradeScaleHandler.Get)
	scale.PUT("", adminOnly, gradeScaleHandler.Save)

	queue.Start(rootCtx)
	defer queue.Stop()

	evaluationService.RecoverUnfinished(rootCtx)
	evaluationService.StartCleanup(rootCtx)
	if exportService != nil {
		exportService.StartCleanup(rootCtx, cfg.Exports.CleanupInterval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
}
