package main

import (
	"context"
	stdLog "log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/config"
	"github.com/vmarchetti/library-console/internal/stub"
	"github.com/vmarchetti/library-console/pkg/logger"
)

// stub-server runs the in-memory library API for local development of the
// console, on the same contract as the real backend.
func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println(".env not found")
	}
	cfg := config.NewConfig()
	log := logger.NewLogger(cfg.Log, "stub-server")

	h := stub.New(stub.NewRepository(), log)
	e := h.NewRouter()

	addr := net.JoinHostPort(cfg.Stub.Host, cfg.Stub.Port)
	log.Info("http server start ON: ", zap.String("addr", addr))
	go func() {
		if err := e.Start(addr); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := e.Shutdown(closeCtx); err != nil {
		log.DPanic("server shutdown", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
