package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"famfin/internal/amqp"
	"famfin/internal/cli"
	"famfin/internal/log"
	"famfin/internal/notify"
	"famfin/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentRecurring)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Auto-paid expenses are exported like any other transaction.
	var opts []services.Option
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without exports", log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithEvents(client))
		}
	}
	svc := services.New(repo, opts...)

	var reminder services.Reminder
	if cfg.MailEnabled() {
		reminder = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		})
		logger.Info("Overdue reminders enabled", "smtp_host", cfg.SMTPHost)
	} else {
		logger.Info("SMTP not configured, overdue expenses will only be logged")
	}
	processor := services.NewRecurringProcessor(svc, reminder)

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), logger))
	defer cancel()

	run := func() {
		if _, err := processor.ProcessDueExpenses(ctx, time.Now()); err != nil && ctx.Err() == nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
		}
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(cfg.RecurringSchedule, run); err != nil {
		logger.Error("Invalid recurring schedule", log.FieldError, err, "schedule", cfg.RecurringSchedule)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		cancel()
		<-scheduler.Stop().Done()
	})

	logger.Info("Starting recurring-worker", "schedule", cfg.RecurringSchedule)
	run()
	scheduler.Start()

	cli.WaitForShutdown(shutdownCtx, done)
}
