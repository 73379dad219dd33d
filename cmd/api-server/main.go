package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sis-enroll-api/api/swagger"
	"github.com/noah-isme/sis-enroll-api/internal/handler"
	"github.com/noah-isme/sis-enroll-api/internal/middleware"
	"github.com/noah-isme/sis-enroll-api/internal/models"
	"github.com/noah-isme/sis-enroll-api/internal/repository"
	"github.com/noah-isme/sis-enroll-api/internal/service"
	"github.com/noah-isme/sis-enroll-api/pkg/cache"
	"github.com/noah-isme/sis-enroll-api/pkg/config"
	"github.com/noah-isme/sis-enroll-api/pkg/database"
	"github.com/noah-isme/sis-enroll-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sis-enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sis-enroll-api/pkg/middleware/requestid"
)

// @title SIS Enroll API
// @version 0.1.0
// @description Enrollment workflow backend for the school information system
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureEnrollmentSchema(ctx, db); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to bootstrap enrollment schema", "error", err)
	}
	cancel()

	// Redis only backs the classroom advisory lock; the server runs without it.
	var redisClient *redis.Client
	if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, classroom creation runs lock-free", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	periodRepo := repository.NewPeriodRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	prereqRepo := repository.NewPrerequisiteRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := validator.New()

	auditSvc := service.NewAuditService(auditRepo, logr)
	metricsSvc := service.NewMetricsService()
	periodSvc := service.NewPeriodService(periodRepo, auditSvc, validate, logr)
	approvalSvc := service.NewApprovalService(db, requestRepo, sectionRepo, classroomRepo, scheduleRepo, gradeRepo, studentRepo, auditSvc, logr)
	prereqSvc := service.NewPrerequisiteService(prereqRepo, logr)
	// An explicit nil keeps the locker interface nil when redis is down; a
	// typed nil *redis.Client would slip past the service's nil check.
	var classroomSvc *service.ClassroomService
	if redisClient != nil {
		classroomSvc = service.NewClassroomService(sectionRepo, courseRepo, classroomRepo, redisClient, cfg.Enrollment.ClassroomLockTTL, cfg.Enrollment.DefaultClassroomCapacity, logr)
	} else {
		classroomSvc = service.NewClassroomService(sectionRepo, courseRepo, classroomRepo, nil, cfg.Enrollment.ClassroomLockTTL, cfg.Enrollment.DefaultClassroomCapacity, logr)
	}
	membershipSvc := service.NewMembershipService(db, classroomSvc, classroomRepo, sectionRepo, scheduleRepo, gradeRepo, studentRepo, prereqSvc, auditSvc, logr)

	periodHandler := handler.NewPeriodHandler(periodSvc)
	requestHandler := handler.NewRequestHandler(approvalSvc, metricsSvc)
	sectionHandler := handler.NewSectionHandler(membershipSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := r.Group(cfg.APIPrefix)
	admin.Use(middleware.JWT(cfg.JWT.Secret))
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.Use(middleware.Sweep(periodSvc, cfg.Enrollment.SweepEnabled))
	{
		admin.GET("/enrollment/periods", periodHandler.List)
		admin.POST("/enrollment/periods", periodHandler.Create)
		admin.GET("/enrollment/periods/:id", periodHandler.Get)
		admin.PUT("/enrollment/periods/:id", periodHandler.Update)
		admin.DELETE("/enrollment/periods/:id", periodHandler.Delete)

		admin.GET("/enrollment/requests", requestHandler.List)
		admin.GET("/enrollment/requests/:id", requestHandler.Get)
		admin.POST("/enrollment/requests/:id/approve", requestHandler.Approve)
		admin.POST("/enrollment/requests/:id/reject", requestHandler.Reject)
		admin.POST("/enrollment/requests/:id/void", requestHandler.Void)

		admin.GET("/sections/:id/students", sectionHandler.Roster)
		admin.POST("/sections/:id/students", sectionHandler.AddStudent)
		admin.DELETE("/sections/:id/students/:studentId", sectionHandler.RemoveStudent)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
