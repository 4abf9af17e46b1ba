// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/capitalize-ai/workspace-assistant/internal/assistant"
	"github.com/capitalize-ai/workspace-assistant/internal/config"
	"github.com/capitalize-ai/workspace-assistant/internal/credentials"
	"github.com/capitalize-ai/workspace-assistant/internal/google"
	"github.com/capitalize-ai/workspace-assistant/internal/handler"
	"github.com/capitalize-ai/workspace-assistant/internal/llm"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	natsclient "github.com/capitalize-ai/workspace-assistant/internal/nats"
	"github.com/capitalize-ai/workspace-assistant/internal/service"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
	"github.com/capitalize-ai/workspace-assistant/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "workspace-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Credential store
	store, err := credentials.Open(cfg.CredentialsDBPath)
	if err != nil {
		log.Fatal("failed to open credential store", zap.String("path", cfg.CredentialsDBPath), zap.Error(err))
	}
	defer store.Close()

	gmailClient := google.NewGmailClient()
	calendarClient := google.NewCalendarClient()

	provider := credentials.NewProvider(store, oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     googleoauth.Endpoint,
	}, log)
	provider.RegisterResolver(model.ServiceGmail, gmailClient)
	provider.RegisterResolver(model.ServiceCalendar, calendarClient)
	if cfg.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID not set, service connections will fail")
	}

	// Optional action audit log
	dispatcherOpts := []assistant.Option{assistant.WithLocation(cfg.Location())}
	var natsClient *natsclient.Client
	var auditLog *natsclient.AuditLog
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		auditLog = natsclient.NewAuditLog(natsClient)
		if err := auditLog.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		dispatcherOpts = append(dispatcherOpts, assistant.WithRecorder(auditLog))
	} else {
		log.Info("NATS_URL not set, action audit log disabled")
	}

	// LLM client
	providerName, apiKey := cfg.LLMAPIKey()
	llmClient, err := llm.NewClient(llm.Provider(providerName), apiKey)
	if err != nil {
		log.Warn("LLM client unavailable, chat requests will fail", zap.String("provider", providerName), zap.Error(err))
	}

	// Services
	dispatcher := assistant.NewDispatcher(provider, gmailClient, calendarClient, log, dispatcherOpts...)
	chatSvc := service.NewChatService(dispatcher, llmClient, service.ChatConfig{
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	}, log)
	connSvc := service.NewConnectionService(provider, cfg.JWTSecret, log)

	deps := routerDeps{
		cfg:         cfg,
		health:      handler.NewHealthHandler(store, nil),
		chat:        handler.NewChatHandler(chatSvc, log),
		connections: handler.NewConnectionsHandler(connSvc, cfg.OAuthSuccessRedirect, log),
		logger:      log,
	}
	if natsClient != nil {
		deps.health = handler.NewHealthHandler(store, natsClient)
		deps.actions = handler.NewActionsHandler(auditLog, log)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newRouter(deps),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
