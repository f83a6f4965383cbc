// Package main provides the SLA escalation sweeper daemon. It periodically
// scans for approval steps that have breached their SLA target and escalates
// them to the escalation chain.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/talentbase/signoff/pkg/cmd"
	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/log"
)

func main() {
	logger := log.WithModule("sweeper")

	command := &cli.Command{
		Name:                  "signoff-sweeper",
		Usage:                 "Escalate approval steps that breached their SLA",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron schedule for escalation sweeps",
				Value:   "@every 15m",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider for escalation notifications (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sweep and exit",
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

			logger.InfoContext(ctx, "Initializing Signoff sweeper")

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := store.Close(ctx)
				if err != nil {
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

			dir, err := cmd.NewDirectory(store, "", logger)
			if err != nil {
				return err
			}

			statusWriter := cmd.NewStatusWriter(store, logger)

			approvalEngine := engine.New(logger, store, dir, statusWriter, eventBus)

			sweep := func() {
				report, err := approvalEngine.RunEscalationSweep(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Escalation sweep failed", "error", err)

					return
				}

				logger.InfoContext(ctx, "Escalation sweep completed",
					"scanned", report.Scanned,
					"escalated", report.Escalated,
					"skipped", report.Skipped,
					"failures", len(report.Failures))
			}

			if command.Bool("once") {
				sweep()

				return nil
			}

			scheduler := cron.New()

			_, err = scheduler.AddFunc(command.String("schedule"), sweep)
			if err != nil {
				return err
			}

			scheduler.Start()
			defer scheduler.Stop()

			logger.InfoContext(ctx, "Sweeper started", "schedule", command.String("schedule"))

			signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-signalCtx.Done()

			logger.InfoContext(ctx, "Sweeper shutting down")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
