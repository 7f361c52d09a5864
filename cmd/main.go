// Package main runs the spot annotator API as either the public gateway or
// the handler service that owns the database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/auth"
	"github.com/spot-annotator/backend/internal/cache"
	"github.com/spot-annotator/backend/internal/config"
	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/gateway"
	"github.com/spot-annotator/backend/internal/handler"
)

func main() {
	role := flag.String("role", "", "Service role: gateway or handler (overrides SERVICE_ROLE env var)")
	port := flag.String("port", "", "Server port (overrides SERVER_PORT env var)")
	flag.Parse()

	if *role != "" {
		os.Setenv("SERVICE_ROLE", *role)
	}
	if *port != "" {
		os.Setenv("SERVER_PORT", *port)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	fx.New(options(cfg)...).Run()
}

// options assembles the fx graph for the configured role. Only the handler
// role connects to PostgreSQL and Redis.
func options(cfg *config.Config) []fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(newLogger, newGinEngine),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
	}

	if cfg.IsHandler() {
		opts = append(opts,
			fx.Provide(
				newRepository,
				fx.Annotate(newCache, fx.As(new(cache.Cache))),
				auth.NewService,
				handler.NewHandler,
				fx.Annotate(asRepository, fx.As(new(database.Repository))),
				fx.Annotate(asUserStore, fx.As(new(database.UserStore))),
			),
			fx.Invoke(registerHandlerRoutes),
		)
	} else {
		opts = append(opts,
			fx.Provide(gateway.NewGateway),
			fx.Invoke(registerGatewayRoutes),
		)
	}

	return append(opts, fx.Invoke(startServer))
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRepository(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*database.PostgresRepository, error) {
	repo, err := database.NewPostgresRepository(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	lc.Append(fx.StopHook(repo.Close))
	return repo, nil
}

func asRepository(r *database.PostgresRepository) *database.PostgresRepository {
	return r
}

func asUserStore(r *database.PostgresRepository) *database.PostgresRepository {
	return r
}

func newCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*cache.RedisCache, error) {
	c, err := cache.NewRedisCache(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	lc.Append(fx.StopHook(c.Close))
	return c, nil
}

// newGinEngine creates the router with recovery, request logging and CORS.
func newGinEngine(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(cors())

	return engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func registerHandlerRoutes(engine *gin.Engine, cfg *config.Config, authService *auth.Service, h *handler.Handler, logger *zap.Logger) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"role":    cfg.Role,
			"service": gateway.ServiceName,
		})
	})

	apiV1 := engine.Group("/api/v1")
	authService.RegisterRoutes(apiV1)
	h.RegisterRoutes(apiV1, authService.Middleware())

	logger.Info("Handler routes registered")
}

func registerGatewayRoutes(engine *gin.Engine, gw *gateway.Gateway, cfg *config.Config, logger *zap.Logger) {
	engine.GET("/health", gw.HealthCheck)
	gw.RegisterRoutes(engine.Group("/api/v1"))

	logger.Info("Gateway routes registered", zap.String("handler_url", cfg.HandlerURL))
}

func startServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, engine *gin.Engine) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting service",
				zap.String("role", cfg.Role),
				zap.String("addr", server.Addr),
			)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Server shutting down")
			return server.Shutdown(ctx)
		},
	})
}
