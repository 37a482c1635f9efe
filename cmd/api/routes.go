package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/handler"
	"github.com/noah-isme/school-academic-api/internal/middleware"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/pkg/config"
	"github.com/noah-isme/school-academic-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-academic-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(app.metrics, app.db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authHandler := handler.NewAuthHandler(app.auth)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth))
	secured.GET("/auth/me", authHandler.Me)

	gradingStaff := middleware.RBAC(models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher)

	assignments := handler.NewAssignmentHandler(app.assignments)
	grades := handler.NewGradeHandler(app.grades)
	assignmentRoutes := secured.Group("/assignments", gradingStaff)
	assignmentRoutes.GET("", assignments.List)
	assignmentRoutes.POST("", assignments.Create)
	assignmentRoutes.GET("/:id", assignments.Get)
	assignmentRoutes.PUT("/:id", assignments.Update)
	assignmentRoutes.DELETE("/:id", assignments.Delete)
	assignmentRoutes.GET("/:id/grades", grades.List)
	assignmentRoutes.POST("/:id/grades", grades.Bulk)
	assignmentRoutes.PUT("/:id/grades/:studentId", grades.Upsert)

	records := handler.NewStudentRecordHandler(app.records)
	studentRoutes := secured.Group("/students/:id")
	studentRoutes.GET("/scores", records.LapseScore)
	studentRoutes.GET("/courses/:courseId/final", records.CourseFinal)
	studentRoutes.GET("/report-card", records.ReportCard)
	studentRoutes.GET("/progression", records.Progression)

	enrollments := handler.NewEnrollmentHandler(app.enrollments)
	enrollmentRoutes := secured.Group("/enrollments", middleware.StaffOnly())
	enrollmentRoutes.GET("", enrollments.List)
	enrollmentRoutes.POST("", enrollments.Enroll)

	if app.reports != nil {
		reports := handler.NewReportHandler(app.reports, logr)
		reportRoutes := secured.Group("/reports", gradingStaff)
		reportRoutes.POST("", reports.GenerateReport)
		reportRoutes.GET("/:id", reports.ReportStatus)
		api.GET("/export/:token", reports.DownloadReport)
	}

	return r
}
