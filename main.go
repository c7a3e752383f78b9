package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediquick-backend/handlers"
	"mediquick-backend/internal/auth"
	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/chatbot"
	"mediquick-backend/internal/consul"
	"mediquick-backend/internal/medicines"
	"mediquick-backend/internal/notify"
	"mediquick-backend/internal/orders"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/stores/kafka"
	"mediquick-backend/internal/stores/postgres"
	"mediquick-backend/internal/users"
	"mediquick-backend/pkg/logkey"
)

func main() {
	if err := startApp(); err != nil {
		slog.Error("service failed to start", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	keys, err := loadAuthKeys()
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.RunMigrations(db); err != nil {
		return err
	}
	slog.Info("database ready")

	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	medicinesConf, err := medicines.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	chatConf, err := chatbot.NewConf(db)
	if err != nil {
		return err
	}

	minOrderPaise := int64(0)
	if raw := os.Getenv("MIN_ORDER_PAISE"); raw != "" {
		minOrderPaise, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing MIN_ORDER_PAISE: %w", err)
		}
	}
	gateway, err := payments.NewConf(
		os.Getenv("STRIPE_API_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
		os.Getenv("CHECKOUT_SUCCESS_URL"),
		os.Getenv("CHECKOUT_CANCEL_URL"),
		minOrderPaise,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var producer handlers.EventProducer
	if brokers := kafkaBrokers(); len(brokers) > 0 {
		producerConf, err := kafka.NewConf(brokers)
		if err != nil {
			return err
		}
		defer producerConf.Close()
		producer = producerConf

		consumerConf, err := kafka.NewConsumerConf(brokers, "mediquick-notify", kafka.TopicOrderPlaced)
		if err != nil {
			return err
		}
		defer consumerConf.Close()

		mailer, err := notify.NewConf(
			os.Getenv("SMTP_HOST"),
			os.Getenv("SMTP_PORT"),
			os.Getenv("SMTP_USERNAME"),
			os.Getenv("SMTP_PASSWORD"),
			os.Getenv("SMTP_FROM"),
		)
		if err != nil {
			slog.Error("smtp not configured, confirmations disabled",
				slog.String(logkey.ERROR, err.Error()))
		} else {
			go notify.RunWorker(ctx, consumerConf, mailer)
			slog.Info("notification worker started")
		}
	} else {
		slog.Info("KAFKA_BROKERS not set, event publishing disabled")
	}

	api, err := handlers.API(handlers.Config{
		Users:     usersConf,
		Medicines: medicinesConf,
		Carts:     cartConf,
		Orders:    ordersConf,
		Chats:     chatConf,
		Gateway:   gateway,
		Producer:  producer,
		Keys:      keys,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("CONSUL_ADDR") != "" {
		portNum, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("parsing APP_PORT: %w", err)
		}
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		host := os.Getenv("SERVICE_HOST")
		if host == "" {
			host = "localhost"
		}
		serviceID := "mediquick-backend-" + port
		if err := consul.RegisterService(client, "mediquick-backend", serviceID, host, portNum); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceID); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("service_id", serviceID))
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

func loadAuthKeys() (*auth.Keys, error) {
	privatePath := os.Getenv("AUTH_PRIVATE_KEY_FILE")
	publicPath := os.Getenv("AUTH_PUBLIC_KEY_FILE")
	if privatePath == "" || publicPath == "" {
		return nil, fmt.Errorf("AUTH_PRIVATE_KEY_FILE and AUTH_PUBLIC_KEY_FILE must be set")
	}
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	return auth.NewKeys(privatePEM, publicPEM)
}

func kafkaBrokers() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
