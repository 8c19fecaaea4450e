package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nonthapat/dosebot-api/config"
	"github.com/nonthapat/dosebot-api/conversation"
	"github.com/nonthapat/dosebot-api/data"
	"github.com/nonthapat/dosebot-api/formulary"
	"github.com/nonthapat/dosebot-api/handlers"
	"github.com/nonthapat/dosebot-api/health"
	"github.com/nonthapat/dosebot-api/linebot"
	"github.com/nonthapat/dosebot-api/logging"
	"github.com/nonthapat/dosebot-api/scheduler"
	"github.com/nonthapat/dosebot-api/server"
	"github.com/nonthapat/dosebot-api/session"
)

func main() {
	// A missing .env is fine, real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.SlogLevel(), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	// The drug catalog is embedded, a load failure is a build defect
	catalog, err := formulary.Load()
	if err != nil {
		logging.Error("Failed to load drug catalog", "error", err)
		os.Exit(1)
	}
	container := data.NewContainer(catalog)
	logging.Info("Drug catalog loaded", "drug_count", container.DrugCount())

	sessions := session.NewMemoryStore()
	engine := conversation.NewEngine(container, sessions)
	sender := linebot.NewClient(cfg.ChannelAccessToken)
	checker := health.NewHealthChecker(container, sessions)
	handler := handlers.NewHandler(engine, sender, checker, cfg.ChannelSecret)

	sched := scheduler.NewScheduler(sessions, time.Duration(cfg.SessionTTLHours)*time.Hour)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
