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

	_ "github.com/glowpoint/studio-api/api/swagger"
	"github.com/glowpoint/studio-api/internal/handler"
	"github.com/glowpoint/studio-api/internal/middleware"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/repository"
	"github.com/glowpoint/studio-api/internal/service"
	"github.com/glowpoint/studio-api/migrations"
	"github.com/glowpoint/studio-api/pkg/cache"
	"github.com/glowpoint/studio-api/pkg/config"
	"github.com/glowpoint/studio-api/pkg/database"
	"github.com/glowpoint/studio-api/pkg/logger"
	corsmiddleware "github.com/glowpoint/studio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/glowpoint/studio-api/pkg/middleware/requestid"
)

// @title Glowpoint Studio API
// @version 1.0.0
// @description Class schedule, bookings and events for the studio
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

	if err := migrations.Up(db.DB); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, calendar cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	contentRepo := repository.NewContentRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studio-api",
	})
	sessionSvc := service.NewSessionService(sessionRepo, catalogRepo, validate, logr)
	recurrenceSvc := service.NewRecurrenceService(sessionRepo, validate, logr, cfg.Recurrence).
		WithMetrics(metricsSvc)
	bookingSvc := service.NewBookingService(bookingRepo, sessionRepo, validate, logr, cfg.Bookings).
		WithMetrics(metricsSvc)
	eventSvc := service.NewEventService(eventRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, eventRepo, validate, logr, cfg.Bookings).
		WithMetrics(metricsSvc)
	inquirySvc := service.NewInquiryService(inquiryRepo, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, validate, logr)
	contentSvc := service.NewContentService(contentRepo, validate, logr)

	var calendarSvc *service.CalendarService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		calendarSvc = service.NewCalendarService(sessionRepo, cacheRepo, logr, cfg.Calendar, cfg.PublicURL)
	} else {
		calendarSvc = service.NewCalendarService(sessionRepo, nil, logr, cfg.Calendar, cfg.PublicURL)
	}

	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc, recurrenceSvc)
	bookingH := handler.NewBookingHandler(bookingSvc)
	eventH := handler.NewEventHandler(eventSvc, registrationSvc, inquirySvc)
	calendarH := handler.NewCalendarHandler(calendarSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	contentH := handler.NewContentHandler(contentSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/signup", authH.Signup)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/refresh", authH.Refresh)

	api.GET("/sessions", middleware.OptionalJWT(authSvc), sessionH.List)
	api.GET("/sessions/:id", sessionH.Get)
	api.GET("/sessions/:id/spots", bookingH.SpotsLeft)
	api.GET("/calendar/feed", calendarH.Feed)

	api.GET("/events", middleware.OptionalJWT(authSvc), eventH.List)
	api.GET("/events/:slug", eventH.GetBySlug)
	api.POST("/inquiries", eventH.CreateInquiry)

	api.GET("/class-types", catalogH.ListClassTypes)
	api.GET("/class-types/:id", catalogH.GetClassType)
	api.GET("/instructors", catalogH.ListInstructors)
	api.GET("/locations", catalogH.ListLocations)

	api.GET("/content/items", middleware.OptionalJWT(authSvc), contentH.ListItems)
	api.GET("/content/categories", contentH.ListCategories)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authH.Me)
	authed.POST("/auth/logout", authH.Logout)
	authed.PUT("/auth/password", authH.ChangePassword)

	authed.POST("/bookings", bookingH.Create)
	authed.GET("/bookings", bookingH.List)
	authed.GET("/bookings/:id", bookingH.Get)

	authed.POST("/registrations", eventH.Register)
	authed.GET("/me/registrations", eventH.MyRegistrations)

	admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	admin.POST("/sessions", sessionH.Create)
	admin.PUT("/sessions/:id", sessionH.Update)
	admin.DELETE("/sessions/:id", sessionH.Delete)
	admin.POST("/sessions/:id/generate", sessionH.Generate)
	admin.POST("/recurrences/generate", sessionH.GenerateBatch)
	admin.GET("/exports/sessions.csv", sessionH.ExportCSV)
	admin.GET("/exports/sessions.pdf", sessionH.ExportPDF)

	admin.PUT("/bookings/:id/status", bookingH.UpdateStatus)

	admin.POST("/events", eventH.Create)
	admin.PUT("/events/:id", eventH.Update)
	admin.GET("/registrations", eventH.ListRegistrations)
	admin.PUT("/registrations/:id/status", eventH.UpdateRegistrationStatus)
	admin.GET("/inquiries", eventH.ListInquiries)
	admin.PUT("/inquiries/:id/status", eventH.UpdateInquiryStatus)

	admin.POST("/class-types", catalogH.CreateClassType)
	admin.POST("/instructors", catalogH.CreateInstructor)
	admin.POST("/locations", catalogH.CreateLocation)

	admin.POST("/content/items", contentH.CreateItem)
	admin.POST("/content/categories", contentH.CreateCategory)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
