package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradesync/src/auth"
	"tradesync/src/copytrade"
	"tradesync/src/handler"
	"tradesync/src/ingest"
	"tradesync/src/repository"
	"tradesync/src/routing"
	"tradesync/src/stream"
)

func StartServer(port string) {
	cfg := GetConfig()
	if port == "" {
		port = cfg.Port
	}

	r := buildRouter(cfg)

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// buildRouter wires the full pipeline: ingestion feeds the routing engine
// through the signal sink, and the copy engine feeds executed copies back
// into ingestion.
func buildRouter(cfg *Config) chi.Router {
	users := repository.NewUserRepository()
	signals := repository.NewSignalRepository()
	notifications := repository.NewNotificationRepository()

	routingEngine := routing.NewEngine(
		repository.NewRoutingRuleRepository(),
		signals,
		routing.NewActionExecutor(notifications, repository.NewJournalRepository()),
	)

	processor := ingest.NewProcessor(
		ingest.NewLedger(repository.NewEventLogRepository()),
		repository.NewTradeRepository(),
		repository.NewSnapshotRepository(),
		signals,
		routingEngine,
	)

	copyEngine := copytrade.NewEngine(
		repository.NewCopyParamsRepository(),
		repository.NewTradeRepository(),
		repository.NewCopiedTradeRepository(),
		notifications,
		newBroker(cfg),
		processor,
	).WithExceptions(repository.NewExceptionRepository())

	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})
	r.Post("/webhooks/events", handler.DefaultEventsWebhookHandler(processor))
	r.Post("/webhooks/signal", handler.DefaultSignalWebhookHandler(processor))
	r.Post("/api/login", handler.DefaultLoginHandler())

	// Session routes
	r.Group(func(pr chi.Router) {
		pr.Use(auth.SessionMiddleware(users))
		pr.Post("/api/copy/execute", handler.CopyExecuteHandler(copyEngine))
		pr.Post("/api/signals/route", handler.RouteSignalHandler(signals, routingEngine))
		pr.Get("/api/notifications", handler.ListNotificationsHandler(notifications))
		pr.Post("/api/notifications/{id}/read", handler.MarkNotificationReadHandler(notifications))
		pr.Post("/api/webhook-token", handler.DefaultRotateWebhookTokenHandler())
		pr.Get("/ws/notifications", stream.DefaultNotificationsStreamHandler())
	})

	return r
}

func newBroker(cfg *Config) copytrade.BrokerAdapter {
	switch cfg.Broker {
	case "bridge":
		logger.WithField("url", cfg.BridgeURL).Info("Using bridge broker adapter")
		return copytrade.NewBridgeBroker(cfg.BridgeURL, cfg.BridgeAPIKey)
	case "binance":
		logger.Info("Using binance broker adapter")
		return copytrade.NewBinanceBroker(cfg.BinanceAPIKey, cfg.BinanceAPISecret, cfg.BinanceEndpoint)
	default:
		logger.Info("Using simulated broker adapter")
		return copytrade.NewSimulatedBroker()
	}
}
