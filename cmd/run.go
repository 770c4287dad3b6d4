package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"wealthreactor/application"
	"wealthreactor/auth"
	"wealthreactor/chain"
	"wealthreactor/config"
	"wealthreactor/database"
	"wealthreactor/domain/interfaces"
	"wealthreactor/events"
	"wealthreactor/infrastructure"
	"wealthreactor/infrastructure/observability"
	"wealthreactor/web"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Version is reported by /api/agent and the startup log
const Version = "1.0"

// ConfigureLogging applies the configured level and formatter to logrus
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("logLevel", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"version":     Version,
	}).Info("Starting wealthreactor...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection and apply migrations
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize event publishing
	eventBus := events.NewBus()
	publisher, natsClient, err := newEventPublisher(ctx, cfg, eventBus)
	if err != nil {
		db.Close()
		return err
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	application.RegisterApplicationSubscriptions(eventBus, uowFactory)

	// Initialize payment oracle
	log.WithFields(log.Fields{
		"rpc":      cfg.ChainRPCURL,
		"chainId":  cfg.ChainID,
		"strategy": cfg.PaymentStrategy,
	}).Info("Connecting to chain RPC...")
	ethClient, err := chain.Dial(ctx, cfg.ChainRPCURL, cfg.ChainID)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to chain: %w", err)
	}
	oracle, err := newPaymentOracle(cfg, ethClient)
	if err != nil {
		ethClient.Close()
		db.Close()
		return err
	}

	// Initialize operator tokens; admin routes reject everything without a secret
	var tokens web.TokenVerifier
	if cfg.AdminJWTSecret != "" {
		issuer, err := auth.NewTokenIssuer(cfg.AdminJWTSecret, cfg.AdminOperators, cfg.AdminTokenTTL)
		if err != nil {
			ethClient.Close()
			db.Close()
			return fmt.Errorf("failed to initialize admin tokens: %w", err)
		}
		tokens = issuer
	} else {
		log.Warn("ADMIN_JWT_SECRET not set, admin routes are disabled")
	}

	// Initialize handlers and HTTP server
	pricing := cfg.Pricing()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	rateLimiter := web.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)
	router := web.NewRouter(web.Dependencies{
		Users: application.NewUserHandler(uowFactory),
		Payments: application.NewPaymentHandler(uowFactory, oracle, application.PaymentSettings{
			Strategy:     cfg.PaymentStrategy,
			Pricing:      pricing,
			RotatorLease: cfg.RotatorLease,
			Treasury:     cfg.TreasuryAddress,
		}),
		Rotator:        application.NewRotatorHandler(uowFactory, cfg.RotatorLease),
		Agents:         application.NewAgentHandler(uowFactory, pricing, cfg.BaseURL),
		Leaderboard:    application.NewLeaderboardHandler(uowFactory),
		Tokens:         tokens,
		Healthy:        db.Healthy,
		RateLimiter:    rateLimiter,
		TrustedProxies: cfg.TrustedProxies,
		Site: web.SiteInfo{
			Name:            "Wealth Reactor",
			Version:         Version,
			BaseURL:         cfg.BaseURL,
			Pricing:         pricing,
			ChainID:         cfg.ChainID,
			TokenAddress:    cfg.USDCAddress,
			Treasury:        cfg.TreasuryAddress,
			ContractAddress: cfg.PaymentContractAddress,
			Strategy:        cfg.PaymentStrategy,
			RotatorLease:    cfg.RotatorLease,
		},
	})

	server := web.NewServer(cfg.HTTPAddr, router, rateLimiter)
	serverErr := server.Start()

	log.Infof("Wealthreactor is running in %s mode...", cfg.Environment)
	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok && err != nil {
			runErr = err
		}
	}

	// Cleanup resources
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	// Let in-flight event handlers such as webhooks finish
	eventBus.Wait()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS client")
		}
	}
	ethClient.Close()

	log.Info("Closing database connection...")
	db.Close()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return runErr
}

// newEventPublisher returns the local bus, or a NATS publisher that also feeds it
func newEventPublisher(ctx context.Context, cfg *config.Config, bus *events.Bus) (interfaces.EventPublisher, *infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, events stay in process")
		return bus, nil, nil
	}

	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	client := infrastructure.NewNATSClient(cfg.NATSServers)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(client, infrastructure.NewEventSubjectMapper(), bus)
	if err := publisher.EnsureReferralEventStream(client); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	log.Info("NATS event publishing enabled")
	return publisher, client, nil
}

func newPaymentOracle(cfg *config.Config, client chain.Client) (interfaces.PaymentOracle, error) {
	oracleConfig := chain.OracleConfig{
		Strategy:       cfg.PaymentStrategy,
		ContractMethod: cfg.PaymentContractMethod,
		RequiredUnits:  cfg.Pricing().RequiredTokenUnits().BigInt(),
		ScanWindow:     cfg.PaymentScanWindow,
		ScanChunk:      cfg.PaymentScanChunk,
		RPCRate:        cfg.PaymentRPCRate,
		Timeout:        cfg.PaymentOracleTimeout,
	}
	if common.IsHexAddress(cfg.USDCAddress) {
		oracleConfig.TokenAddress = common.HexToAddress(cfg.USDCAddress)
	}
	if common.IsHexAddress(cfg.TreasuryAddress) {
		oracleConfig.TreasuryAddress = common.HexToAddress(cfg.TreasuryAddress)
	}
	if common.IsHexAddress(cfg.PaymentContractAddress) {
		oracleConfig.ContractAddress = common.HexToAddress(cfg.PaymentContractAddress)
	}

	oracle, err := chain.NewPaymentOracle(client, oracleConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment oracle: %w", err)
	}
	return oracle, nil
}
