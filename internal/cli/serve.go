package cli

import (
	"os"
	"os/signal"
	"syscall"

	"smarterd/internal/config"
	"smarterd/internal/events"
	"smarterd/internal/handlers"
	"smarterd/internal/health"
	"smarterd/internal/metrics"
	"smarterd/internal/services"
	"smarterd/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

// ServeCmd returns the command running the HTTP API.
func ServeCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Migrate the database and serve the API under /api/v1.
Lifecycle events are published to RabbitMQ when RABBITMQ_URL is set.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(load())
		},
	}
}

func serve(cfg config.Config) error {
	// Left as untyped nils when no broker is configured.
	var (
		publisher events.Publisher
		broker    health.Broker
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.DefaultConfig(cfg.RabbitMQURL))
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher, broker = mqClient, mqClient

		if err := mqClient.ConsumeEvents(logEvent); err != nil {
			log.Errorf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Warn("RABBITMQ_URL is empty, lifecycle events are disabled")
	}

	m := metrics.New(nil)
	rt, err := openRuntime(cfg, publisher, m)
	if err != nil {
		return err
	}
	defer rt.Close()

	sqlDB, err := rt.db.DB()
	if err != nil {
		return err
	}

	app := handlers.NewApp(handlers.AppOptions{
		Services:  rt.svc,
		Auth:      services.NewAuthService(rt.store.Users(), nil, cfg.JWTSecret, cfg.JWTTTL),
		Health:    health.NewChecker(sqlDB, broker),
		Metrics:   m,
		AccessLog: true,
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %s", cfg.AppPort)
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during Fiber shutdown: %v", err)
	}
	log.Info("Server gracefully stopped")
	return nil
}

// logEvent is the consumer of the lifecycle queue: it records every event in
// the service log.
func logEvent(msg amqp.Delivery) error {
	e, err := events.Decode(msg.Body)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"resource": e.Resource,
		"action":   e.Action,
		"slug":     e.Slug,
		"parent":   e.Parent,
		"actor":    e.Actor,
	}).Info("Lifecycle event")
	return nil
}
