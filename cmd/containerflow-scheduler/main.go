// Package main provides the Containerflow scheduler daemon, which runs
// stored container definitions on their cron schedules.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/reporunner/containerflow/pkg/cmd"
	"github.com/reporunner/containerflow/pkg/eventbus"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/log"
	"github.com/reporunner/containerflow/pkg/scheduler"
	"github.com/reporunner/containerflow/pkg/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "containerflow-scheduler",
		Usage:                 "Run scheduled container definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "scheduler-" + uuid.New().String()[:8]
			}

			logger := logger.With("workerId", workerID)

			logger.InfoContext(ctx, "Initializing Containerflow Scheduler")

			persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			exec := executor.NewExecutor(logger)

			bridge := eventbus.NewBridge(eventBus, logger, workerID)
			detach := bridge.Attach(exec)
			defer detach()

			runner := services.NewRunner(exec, cmd.NewRegistry(logger), persist, logger)

			sched := scheduler.NewScheduler(runner, persist, logger)
			if err := sched.Load(ctx); err != nil {
				return err
			}

			sched.Start()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-signals:
				logger.InfoContext(ctx, "Received shutdown signal", "signal", sig.String())
			case <-ctx.Done():
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return sched.Stop(stopCtx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
