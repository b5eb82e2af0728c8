package main

import (
	"context"
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

	_ "github.com/noah-isme/campus-gatepass-api/api/swagger"
	"github.com/noah-isme/campus-gatepass-api/internal/face"
	"github.com/noah-isme/campus-gatepass-api/internal/handler"
	"github.com/noah-isme/campus-gatepass-api/internal/middleware"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/repository"
	"github.com/noah-isme/campus-gatepass-api/internal/service"
	"github.com/noah-isme/campus-gatepass-api/pkg/cache"
	"github.com/noah-isme/campus-gatepass-api/pkg/config"
	"github.com/noah-isme/campus-gatepass-api/pkg/database"
	"github.com/noah-isme/campus-gatepass-api/pkg/jobs"
	"github.com/noah-isme/campus-gatepass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-gatepass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-gatepass-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-gatepass-api/pkg/storage"
)

// @title Campus Gate Pass API
// @version 1.0.0
// @description Leave-pass issuance and gate verification backend
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	} else {
		logr.Sugar().Infow("redis disabled, pass list caching off")
	}

	images, err := storage.NewLocalStorage(cfg.Storage.ImagesDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init image storage", "error", err)
	}
	proofs, err := storage.NewLocalStorage(cfg.Storage.ProofsDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init proof storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	identityRepo := repository.NewIdentityRepository(db)
	passRepo := repository.NewPassRepository(db)
	scanRepo := repository.NewScanRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var detector face.Detector
	var matcher face.Matcher
	if cfg.Face.Enabled {
		remote := face.NewRemoteDetector(cfg.Face.ServiceURL, cfg.Face.RequestTimeout)
		detector = remote
		matcher = remote
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.Pass.TokenSecret, cfg.Pass.GracePeriod)

	identitySvc := service.NewIdentityService(identityRepo, images, detector, validate, logr, service.IdentityConfig{
		JWTSecret:     cfg.JWT.Secret,
		JWTExpiration: cfg.JWT.Expiration,
		Issuer:        cfg.JWT.Issuer,
		FaceEnabled:   cfg.Face.Enabled,
	}, repository.IsUniqueViolation)

	passSvc := service.NewPassService(passRepo, identityRepo, cacheRepo, proofs, tokenSvc, signer, validate, logr, service.PassServiceConfig{
		GracePeriod:        cfg.Pass.GracePeriod,
		SingleUse:          cfg.Pass.SingleUse,
		AutoApprove:        cfg.Pass.AutoApprove,
		MyPassesCacheTTL:   cfg.Pass.MyPassesCacheTTL,
		OperationalDaySpan: cfg.Pass.OperationalDaySpan,
		MaxUploadBytes:     cfg.Storage.MaxUploadBytes,
		AllowedProofMIMEs:  cfg.Storage.AllowedProofMIMEs,
	}, repository.IsUniqueViolation)

	gateSvc := service.NewGateService(passRepo, scanRepo, identityRepo, tokenSvc, matcher, images, metricsSvc, logr, service.GateConfig{
		GracePeriod:    cfg.Pass.GracePeriod,
		SingleUse:      cfg.Pass.SingleUse,
		FaceEnabled:    cfg.Face.Enabled,
		MatchThreshold: cfg.Face.MatchThreshold,
	})

	deviceSvc := service.NewDeviceService(deviceRepo, validate, logr)
	telemetrySvc := service.NewTelemetryService(telemetryRepo, validate, logr)

	userHandler := handler.NewUserHandler(identitySvc, images, cfg.Storage.MaxUploadBytes)
	passHandler := handler.NewPassHandler(passSvc, gateSvc, cfg.Storage.MaxUploadBytes)
	gateHandler := handler.NewGateHandler(gateSvc, cfg.Storage.MaxUploadBytes)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	telemetryHandler := handler.NewTelemetryHandler(telemetrySvc)

	sweepQueue := jobs.NewQueue("pass-expiry-sweep", func(ctx context.Context, job jobs.Job) error {
		expired, err := passSvc.SweepExpired(ctx)
		if err != nil {
			return err
		}
		metricsSvc.RecordSweep(expired)
		return nil
	}, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Second, Logger: logr})

	if cfg.Pass.SweepEnabled {
		sweepQueue.Start(ctx)
		defer sweepQueue.Stop()
		sweepQueue.Every(cfg.Pass.SweepInterval, "sweep")
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
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

	api := r.Group(cfg.APIPrefix)

	users := api.Group("/users")
	{
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
		users.GET("/me", middleware.JWT(identitySvc), userHandler.Me)
	}
	api.GET("/images/:filename", userHandler.Image)

	passes := api.Group("/gate-pass")
	{
		// signed download link carries its own authorization
		passes.GET("/proofs", passHandler.Proof)

		authed := passes.Group("", middleware.JWT(identitySvc))
		authed.POST("/request", passHandler.Request)
		authed.GET("/my-passes/:reg_no", passHandler.MyPasses)
		authed.GET("/:id", passHandler.Get)
		authed.POST("/:id/cancel", passHandler.Cancel)
		authed.GET("/:id/token", passHandler.Token)
		authed.GET("/:id/qr.png", passHandler.QRImage)
		authed.GET("/:id/pdf", passHandler.PDF)
		authed.GET("/:id/proof-url", passHandler.ProofURL)

		admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
		admin.POST("/:id/review", passHandler.Review)
		admin.POST("/:id/remint", passHandler.Remint)
		admin.GET("/:id/scans", passHandler.Scans)
	}

	api.POST("/verify", middleware.DeviceKey(deviceSvc), gateHandler.Verify)
	api.POST("/telemetry", middleware.DeviceKey(deviceSvc), telemetryHandler.Ingest)

	devices := api.Group("/devices", middleware.JWT(identitySvc), middleware.RequireRoles(models.RoleAdmin))
	{
		devices.POST("", deviceHandler.Create)
		devices.GET("", deviceHandler.List)
		devices.PATCH("/:id", deviceHandler.Update)
		devices.DELETE("/:id", deviceHandler.Delete)
		devices.GET("/:id/telemetry", telemetryHandler.Readings)
		devices.GET("/:id/telemetry/latest", telemetryHandler.Latest)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Warnw("graceful shutdown failed", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
