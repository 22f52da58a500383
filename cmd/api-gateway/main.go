package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusplan/timetable-api/api/swagger"
	"github.com/campusplan/timetable-api/internal/handler"
	"github.com/campusplan/timetable-api/internal/middleware"
	"github.com/campusplan/timetable-api/internal/models"
	"github.com/campusplan/timetable-api/internal/repository"
	"github.com/campusplan/timetable-api/internal/service"
	"github.com/campusplan/timetable-api/pkg/cache"
	"github.com/campusplan/timetable-api/pkg/config"
	"github.com/campusplan/timetable-api/pkg/database"
	"github.com/campusplan/timetable-api/pkg/logger"
	corsmiddleware "github.com/campusplan/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusplan/timetable-api/pkg/middleware/requestid"
)

// @title CampusPlan Timetable API
// @version 1.0.0
// @description Course scheduling backend: planner sessions, conflict evaluation and greedy auto-scheduling
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	termRepo := repository.NewTermRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	hallRepo := repository.NewHallRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	offeringRepo := repository.NewCourseOfferingRepository(db)
	entryRepo := repository.NewScheduleEntryRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Planner.SnapshotTTL, logr, true)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campusplan-timetable",
	})
	userSvc := service.NewUserService(userRepo, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, logr)
	termSvc := service.NewTermService(termRepo, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, timeSlotRepo, validate, logr)
	hallSvc := service.NewHallService(hallRepo, validate, logr)
	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, logr)
	offeringSvc := service.NewCourseOfferingService(offeringRepo, instructorRepo, validate, logr)
	entrySvc := service.NewScheduleEntryService(entryRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(entryRepo, termRepo, cacheSvc, logr)

	plannerSessions := service.NewPlannerSessionService(
		termRepo, departmentRepo, hallRepo, timeSlotRepo,
		offeringRepo, entryRepo, instructorRepo,
		validate, logr,
		service.PlannerSessionConfig{SessionTTL: cfg.Planner.SessionTTL},
	)
	placementSvc := service.NewPlacementService(plannerSessions, entryRepo, validate, logr)
	autoScheduleSvc := service.NewAutoScheduleService(plannerSessions, entryRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	termHandler := handler.NewTermHandler(termSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	hallHandler := handler.NewHallHandler(hallSvc)
	timeSlotHandler := handler.NewTimeSlotHandler(timeSlotSvc)
	offeringHandler := handler.NewCourseOfferingHandler(offeringSvc)
	entryHandler := handler.NewScheduleEntryHandler(entrySvc)
	plannerHandler := handler.NewPlannerHandler(plannerSessions, placementSvc, autoScheduleSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	users := protected.Group("/users", middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)
		departments.POST("", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Create)
		departments.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Update)
		departments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Delete)
	}

	terms := protected.Group("/terms")
	{
		terms.GET("", termHandler.List)
		terms.GET("/active", termHandler.GetActive)
		terms.GET("/:id", termHandler.Get)
		terms.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), termHandler.Create)
		terms.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), termHandler.Update)
	}

	instructors := protected.Group("/instructors")
	{
		instructors.GET("", instructorHandler.List)
		instructors.GET("/:id", instructorHandler.Get)
		instructors.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), instructorHandler.Create)
		instructors.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), instructorHandler.Update)
		instructors.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), instructorHandler.Delete)
		instructors.GET("/:id/unavailability", instructorHandler.Unavailability)
		instructors.PUT("/:id/unavailability", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), instructorHandler.SetUnavailability)
	}

	halls := protected.Group("/halls")
	{
		halls.GET("", hallHandler.List)
		halls.GET("/:id", hallHandler.Get)
		halls.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), hallHandler.Create)
		halls.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), hallHandler.Update)
		halls.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), hallHandler.Delete)
	}

	timeSlots := protected.Group("/time-slots")
	{
		timeSlots.GET("", timeSlotHandler.List)
		timeSlots.GET("/:id", timeSlotHandler.Get)
		timeSlots.POST("", middleware.RequireRoles(models.RoleAdmin), timeSlotHandler.Create)
		timeSlots.POST("/seed", middleware.RequireRoles(models.RoleAdmin), timeSlotHandler.SeedGrid)
		timeSlots.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), timeSlotHandler.Delete)
	}

	offerings := protected.Group("/offerings")
	{
		offerings.GET("", offeringHandler.List)
		offerings.GET("/unplaced", offeringHandler.ListUnplaced)
		offerings.GET("/:id", offeringHandler.Get)
		offerings.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), offeringHandler.Create)
		offerings.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), offeringHandler.Update)
		offerings.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), offeringHandler.Delete)
	}

	schedule := protected.Group("/schedule")
	{
		schedule.GET("", entryHandler.List)
		schedule.GET("/:id", entryHandler.Get)
		schedule.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep), entryHandler.Delete)
	}

	if cfg.Planner.Enabled {
		planner := protected.Group("/planner", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleDepartmentRep))
		{
			planner.POST("/sessions", plannerHandler.OpenSession)
			planner.GET("/sessions/:sessionId", plannerHandler.GetSession)
			planner.GET("/sessions/:sessionId/options", plannerHandler.Options)
			planner.GET("/sessions/:sessionId/room-options", plannerHandler.RoomOptions)
			planner.POST("/sessions/:sessionId/refresh", plannerHandler.RefreshSession)
			planner.DELETE("/sessions/:sessionId", plannerHandler.CloseSession)
			planner.POST("/sessions/:sessionId/placements", plannerHandler.Place)
			planner.POST("/sessions/:sessionId/evaluate", plannerHandler.Evaluate)
			planner.DELETE("/sessions/:sessionId/placements/:entryId", plannerHandler.RemovePlacement)
			planner.POST("/sessions/:sessionId/auto-schedule", plannerHandler.AutoSchedule)
		}
	}

	if cfg.Exports.Enabled {
		exports := protected.Group("/exports")
		{
			exports.GET("/timetable.csv", exportHandler.ExportCSV)
			exports.GET("/timetable.pdf", exportHandler.ExportPDF)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
