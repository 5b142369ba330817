package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/handlers"
	"github.com/insightboard/insightboard/internal/app"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/github"
	"github.com/insightboard/insightboard/internal/login"
	"github.com/insightboard/insightboard/internal/metricscache"
	"github.com/insightboard/insightboard/internal/oauthstate"
	"github.com/insightboard/insightboard/internal/secrets"
	"github.com/insightboard/insightboard/internal/tokens"
	"github.com/insightboard/insightboard/internal/worker"
	"github.com/insightboard/insightboard/pkg/logger"
	"github.com/insightboard/insightboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		logger.SetJSON(true)
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: log_level=%s driver=%s redis=%v worker=%v interval=%s secure_cookie=%v",
		logger.LevelString(), cfg.Database.Driver, cfg.Redis.Host != "", cfg.Worker.Enabled, cfg.Worker.Interval, cfg.Session.CookieSecure)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("persistence unavailable: %v", err)
	}
	defer stores.Close()

	cipher, err := secrets.NewCipher(cfg.Secrets.TokenSecretKey)
	if err != nil {
		logger.Fatalf("failed to initialize credential cipher: %v", err)
	}
	sessions, err := tokens.NewManagerFromConfig(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize session tokens: %v", err)
	}
	gh := github.NewClient(cfg.GitHub)

	// Redis is optional; it backs the shared rate limiter and OAuth state.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			defer rdb.Close()
		}
	}

	var states oauthstate.Store
	if cfg.OAuth.StateCheck {
		if rdb != nil {
			states = oauthstate.NewRedisStore(rdb, cfg.OAuth.StateTTL)
		} else {
			states = oauthstate.NewMemoryStore(cfg.OAuth.StateTTL)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	deps := map[string]handlers.Pinger{"database": handlers.PingFunc(stores.Ping)}
	if rdb != nil {
		deps["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	r := newRouter(routerDeps{
		cfg:       cfg,
		login:     login.NewService(gh, cipher, stores.Accounts, sessions),
		authorize: gh,
		states:    states,
		metrics:   metricscache.NewService(stores.Metrics),
		sessions:  sessions,
		pingers:   deps,
		redis:     rdb,
		startedAt: startTime,
	})

	workerDone := make(chan struct{})
	if cfg.Worker.Enabled {
		job := worker.NewJob(stores.Accounts, cipher, gh, stores.Metrics, worker.Options{
			PageSize:     cfg.Worker.PageSize,
			FetchTimeout: cfg.GitHub.HTTPTimeout,
		})
		go func() {
			defer close(workerDone)
			logger.Infof("aggregation worker scheduled every %s", cfg.Worker.Interval)
			worker.NewScheduler(job, cfg.Worker.Interval).Start(ctx)
		}()
	} else {
		close(workerDone)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warnf("worker did not stop before shutdown deadline")
	}
}
