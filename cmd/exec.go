package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"test12/config"
	"test12/internal/handlers"
	"test12/internal/services"
	"test12/internal/store"
	_ "test12/migrations"
	"test12/monitoring"
	"test12/security"
	"test12/utils"
)

func Start() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	app := pocketbase.New()

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			if cfg.StateStore == config.StoreRedis {
				return err
			}
			slog.Warn("Redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	st, err := newStore(cfg, app, redisClient)
	if err != nil {
		return err
	}

	// Initialize services
	monitor := monitoring.NewMonitor()
	matchService := services.NewMatchService(st, monitor, cfg)

	// Initialize handlers
	matchHandler := handlers.NewMatchHandler(matchService, redisClient)
	adminHandler := handlers.NewAdminHandler(matchService)
	adminAuth := security.NewAdminAuth(cfg.AdminToken, cfg.AdminTokenHash)
	if !adminAuth.Enabled() {
		slog.Warn("No admin token configured, admin routes will refuse every request")
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})
	app.RootCmd.AddCommand(newSweepCommand(matchService))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if redisClient != nil {
			e.Router.BindFunc(security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute).Middleware())
		}

		// pocketbase already serves GET /api/health as plain liveness
		e.Router.GET("/api/ready", matchHandler.Health)
		e.Router.POST("/api/submit", matchHandler.Submit)
		e.Router.GET("/api/user/{userId}", matchHandler.GetUser)
		e.Router.POST("/api/heartbeat", matchHandler.Heartbeat)
		e.Router.POST("/api/tests", matchHandler.RecordTest)

		// Admin endpoints
		admin := e.Router.Group("/api/admin")
		admin.BindFunc(adminAuth.Middleware())
		admin.GET("/state", adminHandler.GetState)
		admin.DELETE("/apps/{appId}", adminHandler.RemoveApp)
		admin.POST("/bundles", adminHandler.CreateBundle)

		if cfg.EnableMetrics {
			go serveMetrics(ctx, cfg.MetricsPort, monitor)
		}
		if cfg.SweepInterval > 0 {
			go matchService.RunSweeper(ctx, cfg.SweepInterval)
		}

		slog.Info("Server routes registered", "store", cfg.StateStore, "room_size", cfg.RoomSize)
		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		slog.Info("Shutdown signal received, cleaning up...")
		cancel()
		return e.Next()
	})

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve", "--http", "0.0.0.0:"+cfg.Port)
	}
	return app.Start()
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func newStore(cfg *config.Config, app core.App, redisClient *redis.Client) (store.Store, error) {
	switch cfg.StateStore {
	case config.StoreFile:
		return store.NewFileStore(cfg.StatePath), nil
	case config.StoreRedis:
		if redisClient == nil {
			return nil, errors.New("redis store selected but REDIS_URL is not set")
		}
		return store.NewRedisStore(redisClient, cfg.RedisStateKey), nil
	case config.StorePocketBase:
		return store.NewPocketBaseStore(app, ""), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.StateStore)
}

func newSweepCommand(matchService *services.MatchService) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile the matching state once: mark stale entries, close expired rooms, open full ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := matchService.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("Sweep finished",
				"changed", res.Changed,
				"opened", len(res.OpenedSessionIDs),
				"concluded", len(res.CompletedAppIDs),
				"chained", len(res.ChainedAppIDs),
			)
			return nil
		},
	}
}

func serveMetrics(ctx context.Context, port string, monitor *monitoring.Monitor) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitor.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
