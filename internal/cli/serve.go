package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"routine-tracker/internal/bot"
	"routine-tracker/internal/service"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the daily summary scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, load)
		},
	}
}

func runServe(ctx context.Context, load loader) error {
	a, err := openApp(load)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireToken(); err != nil {
		return err
	}
	if err := a.categories.SeedDefaults(ctx); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, a.users, a.planner, a.categories, a.reminder, &a.cfg)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(a.cfg.Location)
	if _, err := scheduler.ScheduleDaily(a.cfg.ReportTime, runJob("daily report", telegramBot.SendDailyReports)); err != nil {
		return err
	}
	if a.cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(a.cfg.ReportInterval, runJob("reminder", telegramBot.SendPendingReminders)); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("[info] routine tracker bot started, daily report at %s %s", a.cfg.ReportTime, a.cfg.Location)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Shutdown complete.")
	return nil
}

func runJob(name string, job func(context.Context) error) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := job(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s: %v", name, err)
		}
	}
}
