package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iscore-hr/helpdesk-backend/api/routes"
	"github.com/iscore-hr/helpdesk-backend/internal/analytics"
	"github.com/iscore-hr/helpdesk-backend/internal/authn"
	"github.com/iscore-hr/helpdesk-backend/internal/chatbot"
	"github.com/iscore-hr/helpdesk-backend/internal/mailer"
	"github.com/iscore-hr/helpdesk-backend/internal/surveys"
	"github.com/iscore-hr/helpdesk-backend/internal/users"
	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/db"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/metrics"
	"github.com/iscore-hr/helpdesk-backend/pkg/migrate"
	"github.com/iscore-hr/helpdesk-backend/pkg/redis"
	"github.com/iscore-hr/helpdesk-backend/pkg/sendgrid"
)

const shutdownTimeout = 15 * time.Second

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
		WarnStack:   cfg.App.LogWarnStack,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mailerMetrics := metrics.NewMailerMetrics(registry)

	sendgridClient, err := sendgrid.NewClient(cfg.SendGrid.APIKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create sendgrid client", err)
		os.Exit(1)
	}

	mailerService, err := mailer.NewService(mailer.ServiceParams{
		Sender:   sendgridClient,
		Logs:     mailer.NewRepository(dbClient.DB()),
		Renderer: mailer.NewRenderer(cfg.Company),
		Logger:   logg,
		Metrics:  mailerMetrics,
		Email:    cfg.Email,
		SendGrid: cfg.SendGrid,
		Company:  cfg.Company,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer service", err)
		os.Exit(1)
	}

	queue, err := mailer.NewQueue(mailer.QueueParams{
		Deliver:      mailerService,
		Logger:       logg,
		Metrics:      mailerMetrics,
		MaxRetries:   cfg.Email.QueueMaxRetries,
		PollInterval: cfg.Email.QueuePollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification queue", err)
		os.Exit(1)
	}
	notifier := mailer.NewNotifier(queue, logg, cfg.Company)

	usersRepo := users.NewRepository(dbClient.DB())
	usersService, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		Notifier:       notifier,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	surveysRepo := surveys.NewRepository(dbClient.DB())
	surveysService, err := surveys.NewService(surveys.ServiceParams{
		Repo:     surveysRepo,
		Users:    usersRepo,
		Notifier: notifier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create surveys service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	authService, err := authn.NewService(authn.ServiceParams{
		Store:          usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	chatbotClient := chatbot.NewClient(
		chatbot.WithBaseURL(cfg.Chatbot.BaseURL),
		chatbot.WithTimeout(cfg.Chatbot.Timeout),
	)

	queue.Start(context.Background())
	defer queue.Stop()

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
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			Gatherer:         registry,
			AuthService:      authService,
			UsersService:     usersService,
			SurveysService:   surveysService,
			SurveysRepo:      surveysRepo,
			AnalyticsService: analyticsService,
			MailerService:    mailerService,
			Queue:            queue,
			Chatbot:          chatbotClient,
		}),
	}

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
