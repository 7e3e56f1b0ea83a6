// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"showroom-service/internal/cache"
	"showroom-service/internal/config"
	"showroom-service/internal/db"
	domainanalytics "showroom-service/internal/domain/analytics"
	activityHandler "showroom-service/internal/handlers/activity"
	analyticsHandler "showroom-service/internal/handlers/analytics"
	authHandler "showroom-service/internal/handlers/auth"
	customerHandler "showroom-service/internal/handlers/customer"
	vehicleHandler "showroom-service/internal/handlers/vehicle"
	wsHandler "showroom-service/internal/handlers/websocket"
	"showroom-service/internal/metrics"
	"showroom-service/internal/middleware"
	"showroom-service/internal/pkg/jwt"
	"showroom-service/internal/pkg/response"
	"showroom-service/internal/pkg/session"
	"showroom-service/internal/repository/postgres"
	activitysvc "showroom-service/internal/service/activity"
	analyticssvc "showroom-service/internal/service/analytics"
	authsvc "showroom-service/internal/service/auth"
	customersvc "showroom-service/internal/service/customer"
	revenuesvc "showroom-service/internal/service/revenue"
	vehiclesvc "showroom-service/internal/service/vehicle"
	"showroom-service/internal/websocket"
	wsHandlers "showroom-service/internal/websocket/handler"
	"showroom-service/migrations"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger

	pool    *pgxpool.Pool
	redis   *redis.Client
	stopHub context.CancelFunc
}

func NewServer() (*Server, error) {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.SetProduction(cfg.IsProduction())

	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Start wires every component and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx := context.Background()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: s.cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := postgres.ApplyMigrations(ctx, sqlDB, migrations.Files); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	sqlDB.Close()
	logger.Info("migrations applied")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- Metrics -----
	m := metrics.Registry(s.cfg.MetricsNamespace)

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	customerRepo := postgres.NewCustomerRepository(pool)
	vehicleRepo := postgres.NewVehicleRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool, customerRepo)
	readers := []domainanalytics.InteractionReader{
		postgres.NewEmbeddedInteractionReader(pool),
		postgres.NewLegacyInteractionReader(pool),
	}

	// ----- Auth & WebSocket Hub -----
	account, err := authsvc.BootstrapAccount(s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminPasswordHash, logger)
	if err != nil {
		return fmt.Errorf("failed to configure admin account: %w", err)
	}
	authService := authsvc.NewAuthService(
		account,
		jwtManager.Generator,
		jwtManager.Verifier,
		sessionManager,
		rateLimiter,
		nil,
		logger,
	)

	hub := websocket.NewHub(authService, logger)
	authService.AttachDisconnector(hub)

	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services -----
	recorder := activitysvc.NewRecorder(customerRepo, vehicleRepo, activityRepo, hub, m, logger)
	recorder.SetMaxCashDiscountPercent(s.cfg.MaxCashDiscountPercent)
	analyticsService := analyticssvc.NewAnalyticsService(
		readers,
		analyticsRepo,
		cache.New(redisClient, "analytics:"),
		s.cfg.AnalyticsCacheTTL,
		m,
		logger,
	)
	analyticsService.AttachAlerter(hub)
	customerService := customersvc.NewCustomerService(customerRepo, analyticsService, logger)
	vehicleService := vehiclesvc.NewVehicleService(
		vehicleRepo,
		recorder,
		customerRepo,
		hub,
		m,
		vehiclesvc.Options{
			MaxCashDiscountPercent: s.cfg.MaxCashDiscountPercent,
			CreditFlatRatePercent:  s.cfg.CreditFlatRatePercent,
		},
		logger,
	)
	revenueService := revenuesvc.NewRevenueService(analyticsService, analyticsRepo, m, logger)

	hub.RegisterHandler(wsHandlers.NewFollowUpHandler(customerService))

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:      authHandler.NewAuthHandler(authService, logger),
		ActivityHandler:  activityHandler.NewActivityHandler(recorder),
		VehicleHandler:   vehicleHandler.NewVehicleHandler(vehicleService),
		CustomerHandler:  customerHandler.NewCustomerHandler(customerService),
		AnalyticsHandler: analyticsHandler.NewAnalyticsHandler(analyticsService, revenueService),
		WSHandler:        wsHandler.NewWebSocketHandler(hub, s.cfg.CORSAllowedOrigins, logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(authService),
		LeadLimiter:      middleware.NewLeadRateLimiter(rateLimiter, s.cfg.LeadRateLimit, logger),
		Health:           s.health,
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.MetricsMiddleware(m),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.Env))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// health pings both stores.
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "postgres": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := s.pool.Ping(ctx); err != nil {
		status["postgres"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		status["redis"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Shutdown stops accepting requests, then closes the hub and both stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	_ = s.logger.Sync()
	return err
}
