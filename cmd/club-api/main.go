package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/swimlab-mx/club-api/api/swagger"
	"github.com/swimlab-mx/club-api/internal/handler"
	"github.com/swimlab-mx/club-api/internal/middleware"
	"github.com/swimlab-mx/club-api/internal/repository"
	"github.com/swimlab-mx/club-api/internal/service"
	"github.com/swimlab-mx/club-api/pkg/cache"
	"github.com/swimlab-mx/club-api/pkg/config"
	"github.com/swimlab-mx/club-api/pkg/database"
	"github.com/swimlab-mx/club-api/pkg/logger"
	corsmiddleware "github.com/swimlab-mx/club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/swimlab-mx/club-api/pkg/middleware/requestid"
)

// @title Swim Club API
// @version 1.0.0
// @description Enrollment, billing and attendance backend for a swim facility
// @BasePath /api/v1
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The board cache is an optimization; the API works without it.
		logr.Sugar().Warnw("redis unavailable, schedule board cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	service.RegisterPaymentValidations(validate)
	service.RegisterScheduleValidations(validate)

	levelRepo := repository.NewLevelRepository(db)
	planRepo := repository.NewPlanRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	billingSvc := service.NewBillingService(paymentRepo, memberRepo, planRepo, validate, logr, nil, service.BillingServiceConfig{
		CurrentMaxDays: cfg.Billing.CurrentMaxDays,
		DueMaxDays:     cfg.Billing.DueMaxDays,
		ReceiptPrefix:  cfg.Billing.ReceiptPrefix,
	})
	scheduleSvc := service.NewScheduleService(sessionRepo, cacheRepo, metricsSvc, validate, logr, nil, cfg.Schedule.BoardCacheTTL)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, billingSvc, scheduleSvc, validate, logr, nil)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, billingSvc, sessionRepo, validate, logr, nil)
	memberSvc := service.NewMemberService(memberRepo, levelRepo, planRepo, paymentRepo, attendanceRepo, enrollmentRepo, billingSvc, validate, logr, cfg.Members.FolioPrefix)
	catalogSvc := service.NewCatalogService(levelRepo, planRepo, validate, logr)

	memberHandler := handler.NewMemberHandler(memberSvc)
	billingHandler := handler.NewBillingHandler(billingSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/levels", catalogHandler.ListLevels)
		api.POST("/levels", catalogHandler.CreateLevel)
		api.PUT("/levels/:id", catalogHandler.UpdateLevel)
		api.DELETE("/levels/:id", catalogHandler.DeleteLevel)

		api.GET("/plans", catalogHandler.ListPlans)
		api.POST("/plans", catalogHandler.CreatePlan)
		api.PUT("/plans/:id", catalogHandler.UpdatePlan)

		api.GET("/rates", catalogHandler.ListRates)
		api.POST("/rates", catalogHandler.CreateRate)
		api.PUT("/rates/:id", catalogHandler.UpdateRate)

		api.GET("/members", memberHandler.List)
		api.POST("/members", memberHandler.Create)
		api.GET("/members/:id", memberHandler.Get)
		api.PUT("/members/:id", memberHandler.Update)
		api.GET("/members/:id/profile", memberHandler.Profile)
		api.GET("/members/:id/billing", billingHandler.Status)
		api.GET("/members/:id/billing/quote", billingHandler.Quote)
		api.GET("/members/:id/payments", billingHandler.History)
		api.GET("/members/:id/enrollments", enrollmentHandler.ListByMember)
		api.GET("/members/:id/attendance", attendanceHandler.History)

		api.POST("/payments", billingHandler.Create)
		api.GET("/payments/:id/receipt", billingHandler.Receipt)

		api.GET("/schedule/board", scheduleHandler.Board)
		api.GET("/schedule/today", scheduleHandler.Today)

		api.POST("/sessions", scheduleHandler.Create)
		api.GET("/sessions/:id", scheduleHandler.Get)
		api.PUT("/sessions/:id", scheduleHandler.Update)
		api.DELETE("/sessions/:id", scheduleHandler.Delete)
		api.GET("/sessions/:id/enrollments", enrollmentHandler.ListBySession)
		api.GET("/sessions/:id/roster", attendanceHandler.Roster)

		api.POST("/enrollments", enrollmentHandler.Create)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.DELETE("/enrollments/:id", enrollmentHandler.Withdraw)

		api.POST("/attendance", attendanceHandler.Mark)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
