package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/directory"
	"github.com/formworks/intake-api/internal/handler"
	"github.com/formworks/intake-api/internal/mailer"
	"github.com/formworks/intake-api/internal/questionnaire"
	"github.com/formworks/intake-api/internal/render"
	"github.com/formworks/intake-api/internal/service"
	"github.com/formworks/intake-api/pkg/config"
	"github.com/formworks/intake-api/pkg/logger"
	"github.com/formworks/intake-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("refusing to start: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	validate := validator.New()

	q, err := questionnaire.Load(cfg.QuestionnairePath, validate)
	if err != nil {
		logr.Fatal("failed to load questionnaire", zap.Error(err))
	}

	store, err := storage.NewLocalStorage(cfg.DataDir)
	if err != nil {
		logr.Fatal("failed to prepare data directory", zap.Error(err))
	}

	clients := directory.New(cfg.ClientDirectoryPath)
	renderer := render.New()
	sender := mailer.NewMailgun(cfg.Mail, logr)
	metricsSvc := service.NewMetricsService()

	assembler := service.NewAssembler(q, store, validate, logr)
	pipeline := service.NewPipeline(q, store, clients, renderer, sender, metricsSvc, logr,
		service.PipelineConfig{Subject: cfg.Mail.Subject, Recipient: cfg.Mail.Recipient})

	form, err := handler.NewFormHandler(q, cfg.Mail.Subject, logr)
	if err != nil {
		logr.Fatal("failed to build form handler", zap.Error(err))
	}
	submissions := handler.NewSubmissionHandler(assembler, pipeline, cfg.MaxBodyBytes, logr)

	r := handler.NewRouter(cfg, logr, metricsSvc, form, submissions)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logr.Info("shutting down, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown incomplete", zap.Error(err))
		return
	}
	logr.Info("server stopped")
}
