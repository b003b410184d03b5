package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flowbridge/internal/bus"
	"flowbridge/internal/channel"
	"flowbridge/internal/config"
	"flowbridge/internal/dispatch"
	"flowbridge/internal/flow"
	"flowbridge/internal/order"
	"flowbridge/internal/server"
	"flowbridge/internal/store"
	"flowbridge/internal/transport"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.General.LogLevel),
	}))

	// Graceful shutdown on signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderStore, err := store.NewSQLiteStore(cfg.Orders.DBPath, logger)
	if err != nil {
		return err
	}
	defer orderStore.Close()

	deliveryBus := bus.New(cfg.General.BusBuffer, logger)
	defer deliveryBus.Close()

	httpClient := transport.NewClient(time.Duration(cfg.Flow.TimeoutSeconds) * time.Second)

	whatsapp := channel.NewWhatsApp(channel.WhatsAppChannelConfig{
		Config: cfg.WhatsApp,
		Bus:    deliveryBus,
		Logger: logger,
		Client: httpClient,
	})

	flowClient := flow.NewClient(flow.ClientConfig{
		Config: cfg.Flow,
		Logger: logger,
		Client: httpClient,
	})

	orderService := order.NewService(order.ServiceConfig{
		Store:  orderStore,
		Logger: logger,
	})

	dispatcher := dispatch.New(dispatch.DispatcherConfig{
		Flow:    flowClient,
		Sender:  whatsapp,
		Orders:  orderService,
		Logger:  logger,
		Workers: cfg.General.DispatchWorkers,
	})
	go dispatcher.Run(ctx, deliveryBus)

	srv := server.New(server.ServerConfig{
		Config:      cfg.Server,
		WebhookPath: cfg.WhatsApp.WebhookPath,
		WhatsApp:    whatsapp,
		Sender:      whatsapp,
		Orders:      orderService,
		Logger:      logger,
	})

	return srv.Start(ctx)
}
