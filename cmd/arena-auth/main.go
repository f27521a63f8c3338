package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tourneyarena/arena-auth/api"
	"github.com/tourneyarena/arena-auth/config"
	"github.com/tourneyarena/arena-auth/dispatch"
	"github.com/tourneyarena/arena-auth/flow"
	"github.com/tourneyarena/arena-auth/logger"
	"github.com/tourneyarena/arena-auth/persistence"
	"github.com/tourneyarena/arena-auth/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting Arena Auth Service",
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.DBType),
		zap.String("dsn", cfg.DSN),
	)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Log.Warn("JWT_SECRET is unset, using the development default")
	}

	repo, err := persistence.NewStorage(cfg.DBType, cfg.DSN, nil)
	if err != nil {
		logger.Log.Fatal("failed to initialize repository", zap.Error(err))
	}

	sessions := session.NewManager(cfg.JWTSecret, session.TokenValidity)

	dispatcher := dispatch.New(dispatch.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger.Log)
	if cfg.SMTPHost == "" {
		logger.Log.Warn("SMTP transport not configured, OTP dispatch will be skipped")
	}

	auth := flow.NewService(repo, sessions, dispatcher, cfg.OTPDiscloseFallback)
	h := api.NewHandler(auth, sessions)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	h.RegisterRoutes(e)

	logger.Log.Info("Server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
