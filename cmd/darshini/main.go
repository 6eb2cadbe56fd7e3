package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comigor/darshini/internal/calllog"
	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/dialogue"
	"github.com/comigor/darshini/internal/llm"
	"github.com/comigor/darshini/internal/logger"
	"github.com/comigor/darshini/internal/server"
	"github.com/comigor/darshini/internal/session"
	"github.com/comigor/darshini/internal/telephony"
	"github.com/comigor/darshini/internal/voice"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	knowledgeBase := dialogue.LoadKnowledgeBase(cfg.Assistant.KnowledgeBasePath)
	engine := dialogue.New(llm.NewClient(cfg.LLM), *cfg, knowledgeBase)

	calls := calllog.Open(cfg.CallLog.Path)
	defer calls.Close()

	table := session.NewTable()
	ctrl := session.NewController(table, engine, *cfg, calls)

	dialer := telephony.NewTwilioDialer(cfg.Twilio, cfg.Server.BaseURL)
	srv := server.New(ctrl, voice.NewRenderer(cfg.Voice), dialer, calls)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go table.RunSweeper(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout, ctrl.Expire)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a reply waits on the model, so leave room past its timeout
		WriteTimeout: cfg.LLM.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("starting server", "address", httpServer.Addr, "base_url", cfg.Server.BaseURL, "model", cfg.LLM.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("graceful shutdown error", "error", err)
		_ = httpServer.Close()
	}
	logger.L.Info("server stopped", "sessions", table.Len())
}
