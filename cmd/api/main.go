package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stagepass-live/boxoffice-backend/api/routes"
	"github.com/stagepass-live/boxoffice-backend/internal/mailer"
	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/internal/paygate"
	"github.com/stagepass-live/boxoffice-backend/internal/tickets"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/metrics"
	"github.com/stagepass-live/boxoffice-backend/pkg/migrate"
	"github.com/stagepass-live/boxoffice-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	ticketingMetrics := metrics.NewTicketingMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	gateway := paygate.NewClient(cfg.Paygate)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    ordersRepo,
		Gateway: gateway,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	mailClient, err := mailer.New(cfg.SMTP, logg)
	if err != nil {
		// The webhook flow degrades to paid-without-email; startup continues.
		logg.Warn(logg.WithField(context.Background(), "mailer_error", err.Error()), "mailer not configured, ticket emails disabled")
		mailClient = nil
	}

	issuerParams := tickets.IssuerParams{
		Config:  cfg.Tickets,
		Logger:  logg,
		Metrics: ticketingMetrics,
	}
	if mailClient != nil {
		issuerParams.Mailer = mailClient
	}
	issuer, err := tickets.NewIssuer(issuerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create ticket issuer", err)
		os.Exit(1)
	}

	gate, err := tickets.NewGate(tickets.GateParams{
		Repo:    ordersRepo,
		Logger:  logg,
		Metrics: ticketingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create redemption gate", err)
		os.Exit(1)
	}

	webhookService, err := paygate.NewWebhookService(paygate.WebhookParams{
		Secrets:       cfg.Paygate.SigningSecrets(),
		SuccessStatus: cfg.Paygate.SuccessStatus,
		Orders:        ordersRepo,
		Tickets:       issuer,
		Logger:        logg,
		Metrics:       ticketingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Orders:   orderService,
			Issuer:   issuer,
			Gate:     gate,
			Webhook:  webhookService,
			Gatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
