package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/roadready/drive-booking-api/api/swagger"
	"github.com/roadready/drive-booking-api/internal/handler"
	"github.com/roadready/drive-booking-api/internal/middleware"
	"github.com/roadready/drive-booking-api/internal/repository"
	"github.com/roadready/drive-booking-api/internal/service"
	"github.com/roadready/drive-booking-api/pkg/cache"
	"github.com/roadready/drive-booking-api/pkg/config"
	"github.com/roadready/drive-booking-api/pkg/database"
	"github.com/roadready/drive-booking-api/pkg/jobs"
	"github.com/roadready/drive-booking-api/pkg/logger"
	corsmiddleware "github.com/roadready/drive-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/roadready/drive-booking-api/pkg/middleware/requestid"
)

// @title Drive Booking API
// @version 0.1.0
// @description Driving school lesson booking platform
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, window caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	bookingRepo := repository.NewBookingRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	priceRepo := repository.NewPriceRepository(db)

	metricsSvc := service.NewMetricsService()
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, instructorRepo, redisClient, cfg.Booking.WindowCacheTTL, nil, logr)
	checker := service.NewConflictChecker(cfg.Booking.BufferMinutes)
	valuator := service.NewPackageValuator(priceRepo, cfg.Booking, logr)
	bookingSvc := service.NewBookingService(db, bookingRepo, instructorRepo, availabilitySvc, checker, valuator, cfg.Booking, nil, logr, metricsSvc)
	instructorSvc := service.NewInstructorService(instructorRepo, nil, logr)
	exportSvc := service.NewExportService(bookingRepo, instructorRepo, logr)

	bookingHandler := handler.NewBookingHandler(bookingSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc, exportSvc)
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
	{
		bookings := api.Group("/bookings")
		bookings.POST("", bookingHandler.Create)
		bookings.GET("", bookingHandler.List)
		bookings.POST("/sweep", bookingHandler.Sweep)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.PATCH("/:id/status", bookingHandler.ChangeStatus)
		bookings.PATCH("/:id/payment-status", bookingHandler.ChangePaymentStatus)
		bookings.POST("/:id/cancel", bookingHandler.Cancel)
		bookings.POST("/:id/reschedule", bookingHandler.Reschedule)

		instructors := api.Group("/instructors")
		instructors.GET("", instructorHandler.List)
		instructors.POST("", instructorHandler.Create)
		instructors.GET("/:id", instructorHandler.Get)
		instructors.GET("/:id/availability/window", availabilityHandler.ResolveWindow)
		instructors.GET("/:id/availability/weekly", availabilityHandler.ListWeekly)
		instructors.PUT("/:id/availability/weekly", availabilityHandler.PutWeekly)
		instructors.GET("/:id/absences", availabilityHandler.ListAbsences)
		instructors.POST("/:id/absences", availabilityHandler.CreateAbsence)
		instructors.DELETE("/:id/absences/:absenceId", availabilityHandler.DeleteAbsence)
		if cfg.Export.Enabled {
			instructors.GET("/:id/roster/export", instructorHandler.ExportRoster)
		}

		availability := api.Group("/availability")
		availability.GET("/global", availabilityHandler.ListGlobal)
		availability.PUT("/global", availabilityHandler.PutGlobalDefault)
		availability.POST("/special", availabilityHandler.CreateSpecial)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sweep.Enabled {
		queue := jobs.NewQueue("booking-maintenance", func(ctx context.Context, job jobs.Job) error {
			_, err := bookingSvc.SweepExpired(ctx, time.Now().UTC())
			return err
		}, jobs.QueueConfig{Logger: logr})
		queue.Start(ctx)
		defer queue.Stop()
		queue.EnqueueEvery(cfg.Sweep.Interval, "sweep")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
