// Command worker runs only the aggregation scheduler, for deployments that
// keep the API and the worker in separate processes. Both read the same
// environment, and WORKER_ENABLED=false keeps the API server from running
// its own scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/insightboard/insightboard/internal/app"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/github"
	"github.com/insightboard/insightboard/internal/secrets"
	"github.com/insightboard/insightboard/internal/worker"
	"github.com/insightboard/insightboard/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		logger.SetJSON(true)
	}
	if err := cfg.CheckDedicatedWorker(); err != nil {
		logger.Fatalf("refusing to start: %v", err)
	}

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

	job := worker.NewJob(stores.Accounts, cipher, github.NewClient(cfg.GitHub), stores.Metrics, worker.Options{
		PageSize:     cfg.Worker.PageSize,
		FetchTimeout: cfg.GitHub.HTTPTimeout,
	})
	logger.Infof("worker process started; running every %s", cfg.Worker.Interval)
	worker.NewScheduler(job, cfg.Worker.Interval).Start(ctx)
	logger.Infof("worker process stopped")
}
