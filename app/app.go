package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/config"
	"github.com/vmarchetti/library-console/internal/relation"
	"github.com/vmarchetti/library-console/internal/store"
	"github.com/vmarchetti/library-console/internal/ui"
	"github.com/vmarchetti/library-console/internal/view"
	"github.com/vmarchetti/library-console/pkg/logger"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "console")

	client := &http.Client{Timeout: cfg.Client.Timeout}
	baseURL := cfg.API.BaseURL()

	books := store.NewBooks(log, client, baseURL)
	users := store.NewUsers(log, client, baseURL)
	loans := store.NewLoans(log, client, baseURL)
	resolver := relation.New(log, users, books)

	term := ui.New(os.Stdin, os.Stdout, log)
	vc := view.New(log, books, users, loans, resolver, term, term)
	term.Bind(vc)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	log.Info("console start", zap.String("api", baseURL))
	term.Run(ctx)
	log.Info("console exit")
}
