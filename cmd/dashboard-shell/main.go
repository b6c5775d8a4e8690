package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-dashboard-shell/api/swagger"
	"github.com/noah-isme/sma-dashboard-shell/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-dashboard-shell/internal/middleware"
	"github.com/noah-isme/sma-dashboard-shell/internal/repository"
	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	"github.com/noah-isme/sma-dashboard-shell/pkg/cache"
	"github.com/noah-isme/sma-dashboard-shell/pkg/config"
	"github.com/noah-isme/sma-dashboard-shell/pkg/database"
	"github.com/noah-isme/sma-dashboard-shell/pkg/httpclient"
	"github.com/noah-isme/sma-dashboard-shell/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-dashboard-shell/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-dashboard-shell/pkg/middleware/requestid"
)

// @title SMA Dashboard Shell
// @version 1.0.0
// @description Role-based navigation, view dispatch and session shell for the school dashboard
// @BasePath /api/v1
// @schemes http

type kvBackend struct {
	scope func(deviceID string) service.KVStore
	ping  handler.Pinger
	close func() error
}

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	features := service.FeaturesFromConfig(cfg.Features)
	navigation, err := service.NewNavigationRegistry(features)
	if err != nil {
		logr.Fatal("navigation registry", zap.Error(err))
	}
	dispatch, err := service.NewDispatchTable(features, metrics)
	if err != nil {
		logr.Fatal("dispatch table", zap.Error(err))
	}
	if err := dispatch.Verify(navigation); err != nil {
		logr.Fatal("dispatch table does not cover navigation", zap.Error(err))
	}

	calendar, db, err := loadCalendar(ctx, cfg, metrics, logr)
	if err != nil {
		logr.Fatal("calendar", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	kv, err := openKVBackend(ctx, cfg, metrics)
	if err != nil {
		logr.Fatal("session store", zap.Error(err))
	}
	defer kv.close() //nolint:errcheck

	fetcher := httpclient.New(
		httpclient.WithTimeout(cfg.Backend.FetchTimeout),
		httpclient.WithRetries(cfg.Backend.MaxRetries),
		httpclient.WithBackoffStep(cfg.Backend.BackoffStep),
		httpclient.WithLogger(logr),
		httpclient.WithRetryHook(metrics.RecordFetchRetry),
	)
	auth := service.NewAuthClient(fetcher, service.ResolveAPIBase(cfg.Backend.APIURL, cfg.Backend.ProxyOrigin), validator.New(), logr, metrics)

	shells := service.NewShellRegistry(service.ShellDeps{
		Navigation:    navigation,
		Dispatch:      dispatch,
		Calendar:      calendar,
		UpcomingLimit: cfg.Calendar.UpcomingLimit,
		Accounts:      auth,
		Logger:        logr,
	}, kv.scope, metrics)

	tokens, err := service.NewDeviceTokens(cfg.Device.TokenSecret, cfg.Device.TokenTTL, cfg.Device.Issuer)
	if err != nil {
		logr.Fatal("device tokens", zap.Error(err))
	}

	sweeper := service.NewShellSweeper(shells, service.ShellSweeperConfig{
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      logr,
	})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	var upstream handler.UpstreamStatus
	if cfg.HealthMonitor.Enabled {
		monitor := service.NewHealthMonitor(auth, shells, service.HealthMonitorConfig{
			Interval: cfg.HealthMonitor.Interval,
			Logger:   logr,
		})
		monitor.Start(ctx)
		defer monitor.Stop()
		upstream = monitor
	}

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(logger.Recovery(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	system := handler.NewMetricsHandler(metrics, kv.ping, upstream, auth, calendar)
	r.GET("/health", system.Health)
	r.GET("/ready", system.Ready)
	r.GET("/health/upstream", system.Upstream)
	r.GET("/metrics", system.Prometheus)
	r.GET("/metrics/snapshot", system.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), tokens, shells, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", auth.Base())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerRoutes(api *gin.RouterGroup, tokens *service.DeviceTokens, shells *service.ShellRegistry, logr *zap.Logger) {
	sessionHandler := handler.NewSessionHandler()
	shellHandler := handler.NewShellHandler()
	calendarHandler := handler.NewCalendarHandler()

	api.Use(internalmiddleware.Device(tokens, shells, logr))

	session := api.Group("/session")
	session.GET("", sessionHandler.Current)
	session.POST("/login", sessionHandler.Login)
	session.POST("/register", sessionHandler.Register)
	session.POST("/logout", sessionHandler.Logout)

	shell := api.Group("/shell")
	shell.GET("/state", shellHandler.State)
	shell.PUT("/preferences", shellHandler.SetPreferences)
	shell.POST("/preferences/dark-mode/toggle", shellHandler.ToggleDarkMode)

	shell.GET("/calendar", calendarHandler.Get)
	shell.POST("/calendar/month", calendarHandler.ShiftMonth)
	shell.POST("/calendar/select", calendarHandler.Select)
	shell.DELETE("/calendar/select", calendarHandler.ClearSelection)
	shell.GET("/calendar/export", calendarHandler.Export)

	signedIn := shell.Group("", internalmiddleware.RequireSession())
	signedIn.GET("/navigation", shellHandler.Navigation)
	signedIn.GET("/view", shellHandler.View)
	signedIn.POST("/tab", shellHandler.SetTab)
	signedIn.GET("/notifications", shellHandler.Notifications)
	signedIn.POST("/notifications/open", shellHandler.OpenNotifications)
	signedIn.POST("/notifications/pointer", shellHandler.Pointer)
	signedIn.POST("/notifications/:id/read", shellHandler.MarkRead)
	signedIn.POST("/notifications/read-all", shellHandler.MarkAllRead)
}

func loadCalendar(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CalendarCatalog, *sqlx.DB, error) {
	if cfg.Calendar.Source != config.CalendarSourcePostgres {
		catalog, err := service.NewCalendarCatalog(service.SeedCalendarEvents())
		return catalog, nil, err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := service.LoadCalendarCatalog(ctx, repository.NewCalendarRepository(db, metrics), cfg.Calendar.EventTypes, logr)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return catalog, db, nil
}

func openKVBackend(ctx context.Context, cfg *config.Config, metrics *service.MetricsService) (kvBackend, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return kvBackend{}, err
		}
		root := repository.NewRedisKVStore(client, cfg.Session.KeyPrefix, cfg.Session.KeyTTL, metrics)
		return kvBackend{
			scope: func(id string) service.KVStore { return root.Scope(id) },
			ping:  root,
			close: client.Close,
		}, nil
	case config.SessionStoreMemory, "":
		root := repository.NewMemoryKVStore()
		return kvBackend{
			scope: func(id string) service.KVStore { return root.Scope(id) },
			ping:  root,
			close: func() error { return nil },
		}, nil
	default:
		return kvBackend{}, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
