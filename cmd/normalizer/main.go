package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/tenaworks/proximity/internal/adapters/postgres"
	"github.com/tenaworks/proximity/internal/pkg/config"
	"github.com/tenaworks/proximity/internal/pkg/logging"
	"github.com/tenaworks/proximity/internal/workflows"
)

func main() {
	start := flag.Bool("start", false, "start a NormalizeLocationsWorkflow run and exit")
	pageSize := flag.Int("page-size", 200, "providers per page when used with -start")
	flag.Parse()

	cfg, err := config.Load("proximity-normalizer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if *start {
		startRun(c, cfg.Temporal.TaskQueue, *pageSize)
		return
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.NormalizeLocationsWorkflow)
	w.RegisterActivity(&workflows.NormalizeActivities{
		Providers: postgres.NewProviderRepo(db),
	})

	slog.Info("normalizer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startRun(c client.Client, taskQueue string, pageSize int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "normalize-locations-" + time.Now().UTC().Format("20060102T150405"),
		TaskQueue: taskQueue,
	}, workflows.NormalizeLocationsWorkflow, workflows.NormalizeInput{PageSize: pageSize})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("normalization started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
}
