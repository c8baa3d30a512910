package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/marketplace-items/internal/config"
	"github.com/iyhunko/marketplace-items/internal/csrf"
	httpAPI "github.com/iyhunko/marketplace-items/internal/http"
	"github.com/iyhunko/marketplace-items/internal/http/controller"
	"github.com/iyhunko/marketplace-items/internal/http/form"
	"github.com/iyhunko/marketplace-items/internal/logger"
	"github.com/iyhunko/marketplace-items/internal/metrics"
	"github.com/iyhunko/marketplace-items/internal/repository/sql"
	"github.com/iyhunko/marketplace-items/internal/service"
	sqspkg "github.com/iyhunko/marketplace-items/internal/sqs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	store := sql.NewStore(db)

	// Item notifications are optional; without SQS_QUEUE_URL nothing is published.
	var notifier service.Notifier
	publisher, err := sqspkg.NewItemPublisher(ctx, conf.AWS)
	handleErr("initializing SQS publisher", err)
	if publisher != nil {
		notifier = publisher
	} else {
		slog.Info("SQS_QUEUE_URL not set, item notifications disabled")
	}

	guard := csrf.New([]byte(conf.Security.CSRFSecret), csrf.DefaultMaxAge, !conf.DebugMode)
	itemService := service.NewItemService(store, notifier)

	ctr := controller.New(db)
	itemCtr := controller.NewItemController(itemService, form.NewBinder(guard))
	engine := httpAPI.InitRouter(conf, store.Users(), guard, gin.New(), ctr, itemCtr)

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("err", err))
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("error while "+msg, slog.Any("err", err))
		os.Exit(1)
	}
}
