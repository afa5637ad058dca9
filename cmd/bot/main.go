package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"slotbot/internal/auth"
	"slotbot/internal/config"
	"slotbot/internal/scheduler"
	"slotbot/internal/scheduling"
	"slotbot/internal/storage"
	"slotbot/internal/telegram"
	"slotbot/internal/telemetry"
)

const serviceName = "slotbot"

var version = "dev"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	if err := run(cfg); err != nil {
		slog.Error("bot stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(cfg.OTLPEndpoint, serviceName, version)
	if err != nil {
		slog.Warn("tracing disabled", slog.Any("err", err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	kv, err := storage.Open(ctx, string(cfg.StorageDriver), cfg.StoragePath, cfg.DBDsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Warn("failed to close store", slog.Any("err", err))
		}
	}()
	slog.Info("storage ready", slog.String("driver", string(cfg.StorageDriver)))

	var opts []scheduling.RepositoryOption
	if cfg.SerializeGuildUpdates {
		opts = append(opts, scheduling.WithGuildLocks())
	}
	repo := scheduling.NewRepository(kv, opts...)
	authSvc := auth.NewWithRepo(auth.NewStoreRepository(kv), cfg.AdminUsers)

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Deps{
		Auth:       authSvc,
		Repo:       repo,
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	sched := scheduler.New()
	if cfg.ReminderSchedule != "" {
		reminder := scheduling.NewReminder(repo, bot.Messenger(), cfg.ReminderLead)
		if err := sched.AddJob("reminders", cfg.ReminderSchedule, reminder.Run); err != nil {
			return err
		}
	}
	if err := sched.AddJob("session-sweep", "@every 1m", bot.SweepSessions); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Start(ctx) })

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: telemetry.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("metrics listening", slog.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
