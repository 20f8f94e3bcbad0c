package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/pkg/clients"
	"gocatalog_api/pkg/logger"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "catalog service base URL")
	connection := flag.String("connection", "", "connection id to sync")
	force := flag.Bool("force", false, "overwrite locally edited descriptions")
	token := flag.String("token", os.Getenv("CATALOGSYNC_TOKEN"), "admin bearer token")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	timeout := flag.Duration("timeout", clients.DefaultPollTimeout, "give up waiting after this long")
	stop := flag.Bool("stop", false, "request a stop of the running sync instead of starting one")
	flag.Parse()

	if *connection == "" {
		flag.Usage()
		os.Exit(2)
	}

	zapLog, err := logger.NewLogger("development", "info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLog.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := clients.NewSyncAPIClient(*addr, *token, 30*time.Second, zapLog)

	if *stop {
		found, err := api.Stop(ctx, *connection)
		if err != nil {
			zapLog.Fatal("stop request failed", zap.Error(err))
		}
		if !found {
			zapLog.Fatal("no sync run for connection", zap.String("connection_id", *connection))
		}
		zapLog.Info("stop requested", zap.String("connection_id", *connection))
		return
	}

	total, err := api.Start(ctx, *connection, *force)
	if err != nil {
		zapLog.Fatal("sync not started", zap.Error(err))
	}
	zapLog.Info("sync started", zap.String("connection_id", *connection), zap.Int("total", total))

	final, err := api.WaitForCompletion(ctx, *connection, *interval, *timeout, func(p models.SyncProgress) {
		fmt.Printf("\r%s: %d/%d synced, %d errors", p.Status, p.Synced, p.Total, p.Errors)
	})
	fmt.Println()

	switch {
	case errors.Is(err, clients.ErrPollTimeout):
		zapLog.Warn("stopped waiting, the sync keeps running on the server", zap.Duration("timeout", *timeout))
		os.Exit(1)
	case err != nil:
		zapLog.Fatal("polling failed", zap.Error(err))
	}

	zapLog.Info("sync finished",
		zap.String("status", string(final.Status)),
		zap.Int("synced", final.Synced),
		zap.Int("errors", final.Errors),
		zap.String("message", final.Message))
	if final.Status != models.RunCompleted {
		os.Exit(1)
	}
}
