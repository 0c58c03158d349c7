package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/relaylabs/leadrelay/internal/api/router"
	appconfig "github.com/relaylabs/leadrelay/internal/config"
	"github.com/relaylabs/leadrelay/internal/credentials"
	"github.com/relaylabs/leadrelay/internal/leads"
	"github.com/relaylabs/leadrelay/internal/notify"
	"github.com/relaylabs/leadrelay/internal/observability/metrics"
	"github.com/relaylabs/leadrelay/internal/sheets"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadrelay API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Metrics registry backing /metrics
	registry := prometheus.NewRegistry()
	m := metrics.NewLeadMetrics(registry)

	// Google-backed components. Without the OAuth triple the server still
	// serves health checks, but submissions fail with a configuration error.
	var appender leads.Appender
	var tokenSource oauth2.TokenSource
	if cfg.HasGoogleCredentials() {
		provider, err := credentials.NewProvider(credentials.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
		}, logger)
		if err != nil {
			logger.Error("failed to build credential provider", "error", err)
			os.Exit(1)
		}
		tokenSource = provider.TokenSource()

		client, err := sheets.NewGoogleClient(ctx, tokenSource, cfg.SheetsTimeout, logger)
		if err != nil {
			logger.Error("failed to build google sheets client", "error", err)
			os.Exit(1)
		}

		provisioner := sheets.NewProvisioner(sheets.ProvisionerConfig{
			Title:      cfg.SpreadsheetTitle(),
			Worksheet:  cfg.WorksheetName,
			OverrideID: cfg.SpreadsheetID,
		}, client, sheets.NewLocator(client, logger), newHandleStore(cfg, logger), m, logger)

		loc, err := time.LoadLocation(cfg.LeadTimezone)
		if err != nil {
			logger.Warn("invalid lead timezone, falling back to UTC", "timezone", cfg.LeadTimezone, "error", err)
			loc = time.UTC
		}
		appender = sheets.NewAppender(client, provisioner, loc, m, logger)
	} else {
		logger.Warn("google credentials are not configured; set GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REFRESH_TOKEN to enable lead capture")
	}

	// Notification channels
	emailSender := newEmailSender(ctx, cfg, tokenSource, logger)
	webhookSender := notify.NewWebhookSender(notify.WebhookConfig{
		URL:     cfg.ChatWebhookURL,
		Timeout: cfg.WebhookTimeout,
	}, logger)
	dispatcher := notify.NewDispatcher(notify.Config{
		AppName:          cfg.AppName,
		OrganizationName: cfg.OrganizationName,
		ToEmail:          cfg.NotificationEmail,
		EmailMethod:      cfg.EmailProvider,
	}, emailSender, webhookSender, m, logger)

	// Submission pipeline and handlers
	service := leads.NewService(appender, dispatcher, m, logger, cfg.NotifyTimeout)
	leadsHandler := leads.NewHandler(service, cfg.IsProduction(), logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight notification sends finish before the process exits.
	if err := service.Drain(shutdownCtx); err != nil {
		logger.Warn("notification tasks still running at shutdown", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newHandleStore picks where the resolved spreadsheet id is remembered across
// restarts: Redis when an address is configured, a JSON file when a path is,
// otherwise nothing (the id is re-resolved on first use).
func newHandleStore(cfg *appconfig.Config, logger *logging.Logger) sheets.HandleStore {
	switch {
	case cfg.RedisAddr != "":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		logger.Info("using redis spreadsheet-handle store", "addr", cfg.RedisAddr)
		return sheets.NewRedisStore(redis.NewClient(opts), cfg.OrganizationName)
	case cfg.HandleStorePath != "":
		logger.Info("using file spreadsheet-handle store", "path", cfg.HandleStorePath)
		return sheets.NewFileStore(cfg.HandleStorePath)
	default:
		return nil
	}
}

// newEmailSender builds the email channel named by EMAIL_PROVIDER. A provider
// that cannot be built is logged and dropped; the dispatcher treats a nil
// sender as "email disabled".
func newEmailSender(ctx context.Context, cfg *appconfig.Config, ts oauth2.TokenSource, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "gmail":
		if ts == nil {
			logger.Warn("gmail email provider selected but google credentials are missing")
			return nil
		}
		sender, err := notify.NewGmailSender(ctx, ts, notify.GmailConfig{FromName: cfg.AppName}, logger)
		if err != nil {
			logger.Warn("gmail sender unavailable", "error", err)
			return nil
		}
		return sender
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid email provider selected but SENDGRID_API_KEY is missing")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("ses sender unavailable", "error", err)
			return nil
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.AppName,
		}, logger)
		if sender == nil {
			return nil
		}
		return sender
	case "console":
		return notify.NewStubEmailSender(logger)
	default:
		logger.Warn("unknown email provider, email notifications disabled", "provider", cfg.EmailProvider)
		return nil
	}
}

// loadAWSConfig initializes the AWS SDK, preferring explicit static
// credentials from the environment over the default chain.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			awscredentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}
