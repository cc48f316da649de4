package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rapidaid/internal/config"
	"rapidaid/internal/handlers"
	"rapidaid/internal/middleware"
	"rapidaid/internal/repositories/mongodb"
	"rapidaid/internal/services"
	"rapidaid/pkg/cache"
	"rapidaid/pkg/database"
	"rapidaid/pkg/logger"
	"rapidaid/pkg/maps"
	"rapidaid/pkg/push"
	"rapidaid/pkg/sms"
	"rapidaid/pkg/websocket"
	"rapidaid/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.EnsureIndexes(db.Database); err != nil {
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Routing provider. The engine degrades to straight-line estimates when
	// no API key is configured.
	var mapsProvider maps.MapsProvider
	if cfg.Maps.GoogleMaps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			appLogger.Fatalf("Failed to initialize maps provider: %v", err)
		}
		mapsProvider = provider
	} else {
		appLogger.Warn("No maps API key configured, routing falls back to straight-line estimates")
	}

	// Push notifications
	var pushProvider push.PushProvider
	switch cfg.Push.Provider {
	case "apns":
		if cfg.Push.APNS.KeyFile != "" {
			provider, err := push.NewAPNSProvider(cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID, cfg.Push.APNS.TeamID, cfg.Push.APNS.BundleID, cfg.Push.APNS.Production)
			if err != nil {
				appLogger.WithError(err).Warn("Failed to initialize APNS, push notifications disabled")
			} else {
				pushProvider = provider
			}
		}
	default:
		if cfg.Push.FCM.Credentials != "" {
			provider, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
			if err != nil {
				appLogger.WithError(err).Warn("Failed to initialize FCM, push notifications disabled")
			} else {
				pushProvider = provider
			}
		}
	}

	// SMS alerts
	var smsProvider sms.SMSProvider
	switch cfg.SMS.Provider {
	case "sns":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize SNS, SMS alerts disabled")
		} else {
			smsProvider = provider
		}
	default:
		if cfg.SMS.Twilio.AccountSID != "" {
			smsProvider = sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
		}
	}

	// WebSocket hub
	wsHandler := websocket.NewHandler()

	// Repositories
	accountRepo := mongodb.NewAccountRepository(db.Database)
	caseRepo := mongodb.NewCaseRepository(db.Database, redisCache)
	ambulanceRepo := mongodb.NewAmbulanceRepository(db.Database, redisCache)
	hospitalRepo := mongodb.NewHospitalRepository(db.Database, redisCache)

	// Services
	matchingService := services.NewMatchingService(hospitalRepo, mapsProvider, appLogger)
	notificationService := services.NewNotificationService(pushProvider, smsProvider, hospitalRepo, wsHandler, appLogger)
	fleetService := services.NewFleetService(ambulanceRepo, redisCache, appLogger)
	dispatchService := services.NewDispatchService(caseRepo, ambulanceRepo, hospitalRepo, matchingService, notificationService, appLogger)
	trackingService := services.NewTrackingService(ambulanceRepo, caseRepo, redisCache, mapsProvider, wsHandler, appLogger, cfg.Dispatch.LocationUpdateInterval)
	authService := services.NewAuthService(accountRepo, ambulanceRepo, hospitalRepo, cfg.Security.JWTSecret, appLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	caseHandler := handlers.NewCaseHandler(dispatchService, accountRepo)
	ambulanceHandler := handlers.NewAmbulanceHandler(fleetService, trackingService, accountRepo)
	hospitalHandler := handlers.NewHospitalHandler(hospitalRepo, matchingService, accountRepo)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler)
		routes.SetupCaseRoutes(v1, caseHandler, cfg.Security.JWTSecret)
		routes.SetupAmbulanceRoutes(v1, ambulanceHandler, cfg.Security.JWTSecret)
		routes.SetupHospitalRoutes(v1, hospitalHandler, cfg.Security.JWTSecret)
		routes.SetupWebSocketRoutes(v1, wsHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live tracking feed
	go trackingService.StartFeed(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Graceful shutdown failed: %v", err)
	}
}
