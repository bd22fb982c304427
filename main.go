package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/confirm"
	"github.com/giygas/prescriptions-api/data"
	"github.com/giygas/prescriptions-api/handlers"
	"github.com/giygas/prescriptions-api/health"
	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser"
	"github.com/giygas/prescriptions-api/scheduler"
	"github.com/giygas/prescriptions-api/secureview"
	"github.com/giygas/prescriptions-api/server"
	"github.com/giygas/prescriptions-api/validation"
	"github.com/joho/godotenv"
)

func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	// Fall back to the executable directory when started from elsewhere
	ex, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	if err := os.Chdir(filepath.Dir(ex)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to change directory: %v\n", err)
		os.Exit(1)
	}
	_ = godotenv.Load()
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	store := data.NewRecordContainer()
	store.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()

	var source interfaces.RecordSource
	if cfg.RecordsSource != "" {
		source = recordsparser.NewRecordsParser(cfg.RecordsSource)
	}

	sessions := confirm.NewRegistry()
	confirmer := confirm.NewConfirmer(confirm.LogReporter{})

	audit := secureview.AuditLog{}
	gate := secureview.NewGate(audit, audit)

	healthChecker := health.NewHealthChecker(store, cfg.RefreshTimes, source != nil)

	sched := scheduler.NewScheduler(store, source, validator, sessions, scheduler.Options{
		RefreshSpec:   cfg.RefreshSpec(),
		SessionMaxAge: cfg.SessionMaxAge,
	})
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	httpHandler := handlers.NewHTTPHandler(store, validator, healthChecker, gate, confirmer, sessions,
		handlers.RemovalOptions{
			ConfirmPhrase: cfg.ConfirmPhrase,
			RequireTyping: cfg.RequireTyping,
		})

	srv := server.NewServer(cfg, httpHandler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed", "error", err)
			return
		}
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}
}
