package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haramapp/lottery-backend/api/routes"
	"github.com/haramapp/lottery-backend/internal/config"
	"github.com/haramapp/lottery-backend/internal/handlers"
	"github.com/haramapp/lottery-backend/internal/repositories"
	mongorepo "github.com/haramapp/lottery-backend/internal/repositories/mongodb"
	"github.com/haramapp/lottery-backend/internal/scheduler"
	"github.com/haramapp/lottery-backend/internal/services"
	"github.com/haramapp/lottery-backend/internal/timewindow"
	"github.com/haramapp/lottery-backend/pkg/jwt"
	"github.com/haramapp/lottery-backend/pkg/mongodb"
	"github.com/haramapp/lottery-backend/pkg/smsgateway"
	"golang.org/x/exp/slog"
)

// Cron specs are evaluated in the lottery timezone: the draw fires when
// registration closes on Wednesday, the sweep at the Thursday deadline.
const (
	drawSpec    = "0 20 * * 3"
	sweepSpec   = "0 8 * * 4"
	cleanupSpec = "30 3 * * *"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	cal, err := timewindow.NewCalendar(cfg.Lottery.Timezone)
	if err != nil {
		slog.Error("Failed to load lottery timezone", "error", err, "timezone", cfg.Lottery.Timezone)
		os.Exit(1)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	var userRepo repositories.UserRepository = mongorepo.NewUserRepository(db)
	var otpRepo repositories.OTPRepository = mongorepo.NewOTPRepository(db)
	var ticketRepo repositories.TicketRepository = mongorepo.NewTicketRepository(db)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	for _, repo := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{userRepo, otpRepo, ticketRepo} {
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			slog.Error("Failed to ensure indexes", "error", err)
			os.Exit(1)
		}
	}

	tokens := jwt.NewTokenService(cfg)
	gateway := smsgateway.New(cfg)

	otpService := services.NewOTPService(otpRepo, cfg)
	authService := services.NewAuthService(userRepo, otpService, tokens, gateway, cfg)
	lotteryService := services.NewLotteryService(ticketRepo, userRepo, gateway, cal, cfg)

	deps := routes.HandlerDependencies{
		Auth:    handlers.NewAuthHandler(authService),
		Lottery: handlers.NewLotteryHandler(lotteryService, cal),
		Admin:   handlers.NewAdminHandler(lotteryService, otpService),
		Tokens:  tokens,
	}
	router := routes.SetupRouter(cfg, deps)

	if cfg.Lottery.SchedulerEnabled {
		sched := scheduler.New(cal.Location())
		jobs := []struct {
			spec string
			name string
			job  scheduler.Job
		}{
			{drawSpec, "weekly-draw", func(ctx context.Context) error {
				_, err := lotteryService.RunDraw(ctx, time.Now())
				return err
			}},
			{sweepSpec, "winner-sweep", func(ctx context.Context) error {
				_, err := lotteryService.SweepIncompleteWinners(ctx, time.Now())
				return err
			}},
			{cleanupSpec, "otp-cleanup", func(ctx context.Context) error {
				_, err := otpService.CleanupExpired(ctx, time.Now())
				return err
			}},
		}
		for _, j := range jobs {
			if err := sched.Schedule(j.spec, j.name, j.job); err != nil {
				slog.Error("Failed to schedule job", "error", err, "job", j.name)
				os.Exit(1)
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupLogger installs the process-wide slog default at the configured level
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
