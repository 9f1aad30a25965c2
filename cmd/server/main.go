package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/auraplan/api/handler"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/app"
	"github.com/fastygo/auraplan/internal/config"
	"github.com/fastygo/auraplan/internal/middleware"
	"github.com/fastygo/auraplan/internal/router"
	"github.com/fastygo/auraplan/pkg/httpcontext"
	"github.com/fastygo/auraplan/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		FilePath:   cfg.Logger.FilePath,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	planner, err := app.Build(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to build planner", zap.Error(err))
	}
	manager := planner.Lifecycle
	manager.Listen(cancel)

	if err := planner.Start(appCtx); err != nil {
		_ = planner.Shutdown(context.Background())
		zapLogger.Fatal("failed to start planner", zap.Error(err))
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	issueToken := func(session *domain.Session) (string, error) {
		return middleware.IssueToken(cfg.JWT.Secret, cfg.JWT.Issuer, session)
	}

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(planner.Auth, issueToken, ctxAdapter, zapLogger, cfg.Redis.SessionTTL),
		Task:      apiHandler.NewTaskHandler(planner.TaskUC, ctxAdapter, zapLogger),
		Goal:      apiHandler.NewGoalHandler(planner.GoalUC, ctxAdapter, zapLogger),
		Reminder:  apiHandler.NewReminderHandler(planner.Reminders, ctxAdapter, zapLogger),
		Settings:  apiHandler.NewSettingsHandler(planner.Settings, ctxAdapter, zapLogger),
		Analytics: apiHandler.NewAnalyticsHandler(planner.Analytics, ctxAdapter, zapLogger),
		Sync:      apiHandler.NewSyncHandler(planner.Sync, planner.Store, planner.Monitor.IsOnline, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(planner.Monitor, ctxAdapter, zapLogger),
	}

	r := router.New(handlers,
		middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger),
		middleware.IdentityGuard(planner.Auth),
	)

	server := &fasthttp.Server{
		Handler:            middleware.AccessLog(zapLogger)(r.Handler),
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: cfg.Local.MaxBytes,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := planner.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
