package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"wealthreactor/database"
	"wealthreactor/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr     string
	BaseURL      string
	APIRateLimit float64 // requests per second per client IP
	APIRateBurst int

	// Proxies allowed to set X-Forwarded-For; empty means the socket peer is the client
	TrustedProxies []string

	// Chain configuration
	ChainRPCURL            string
	ChainID                int64
	USDCAddress            string
	TreasuryAddress        string
	PaymentContractAddress string
	PaymentStrategy        string // "logscan" or "contract"
	PaymentContractMethod  string // "checkPayment" or "hasPaid"
	PaymentScanWindow      uint64 // blocks
	PaymentScanChunk       uint64 // blocks per eth_getLogs call
	PaymentRPCRate         float64
	PaymentOracleTimeout   time.Duration

	// Pricing
	AccessFeeUSD     decimal.Decimal
	TokenDecimals    int32
	L1CommissionRate decimal.Decimal
	L2CommissionRate decimal.Decimal

	// Rotator
	RotatorLease time.Duration

	// Admin operator tokens
	AdminJWTSecret string
	AdminOperators []string
	AdminTokenTTL  time.Duration

	// NATS configuration (optional)
	NATSServers string // NATS server addresses (comma-separated)

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Pricing returns the fee and commission rates as a domain value
func (c *Config) Pricing() entities.Pricing {
	return entities.Pricing{
		AccessFee:     c.AccessFeeUSD,
		L1Rate:        c.L1CommissionRate,
		L2Rate:        c.L2CommissionRate,
		TokenDecimals: c.TokenDecimals,
	}
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":8080"),
		BaseURL:        strings.TrimRight(getEnvWithDefault("BASE_URL", "http://localhost:8080"), "/"),
		APIRateLimit:   getEnvFloat("API_RATE_LIMIT", 10),
		APIRateBurst:   getEnvInt("API_RATE_BURST", 20),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		// Chain
		ChainRPCURL:            getEnvWithDefault("CHAIN_RPC_URL", "https://mainnet.base.org"),
		ChainID:                int64(getEnvInt("CHAIN_ID", 8453)),
		USDCAddress:            getEnvWithDefault("USDC_ADDRESS", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		TreasuryAddress:        os.Getenv("TREASURY_ADDRESS"),
		PaymentContractAddress: os.Getenv("PAYMENT_CONTRACT_ADDRESS"),
		PaymentStrategy:        getEnvWithDefault("PAYMENT_STRATEGY", "logscan"),
		PaymentContractMethod:  getEnvWithDefault("PAYMENT_CONTRACT_METHOD", "checkPayment"),
		PaymentScanWindow:      uint64(getEnvInt("PAYMENT_SCAN_WINDOW", 500000)),
		PaymentScanChunk:       uint64(getEnvInt("PAYMENT_SCAN_CHUNK", 10000)),
		PaymentRPCRate:         getEnvFloat("PAYMENT_RPC_RATE", 5),
		PaymentOracleTimeout:   getEnvDuration("PAYMENT_ORACLE_TIMEOUT", 15*time.Second),

		// Pricing
		AccessFeeUSD:     getEnvDecimal("ACCESS_FEE_USD", "30"),
		TokenDecimals:    int32(getEnvInt("TOKEN_DECIMALS", 6)),
		L1CommissionRate: getEnvDecimal("L1_COMMISSION_RATE", "0.20"),
		L2CommissionRate: getEnvDecimal("L2_COMMISSION_RATE", "0.10"),

		// Rotator
		RotatorLease: getEnvDuration("ROTATOR_LEASE", entities.DefaultRotatorLease),

		// Admin
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		AdminOperators: splitList(os.Getenv("ADMIN_OPERATORS")),
		AdminTokenTTL:  getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "wealthreactor"),
		OTelExportIntervalMillis: getEnvInt("OTEL_EXPORT_INTERVAL_MILLIS", 10000),

		// Logging
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks that required configuration is present and consistent
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// If DatabaseName is provided, ensure it's not empty
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.AdminJWTSecret != "" && len(c.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 bytes")
	}
	if !c.AccessFeeUSD.IsPositive() {
		return fmt.Errorf("ACCESS_FEE_USD must be positive")
	}
	one := decimal.NewFromInt(1)
	if c.L1CommissionRate.IsNegative() || c.L2CommissionRate.IsNegative() ||
		c.L1CommissionRate.Add(c.L2CommissionRate).GreaterThan(one) {
		return fmt.Errorf("commission rates must be non-negative and sum to at most 1")
	}
	if c.RotatorLease <= 0 {
		return fmt.Errorf("ROTATOR_LEASE must be positive")
	}

	switch c.PaymentStrategy {
	case "logscan":
		if !common.IsHexAddress(c.USDCAddress) {
			return fmt.Errorf("USDC_ADDRESS must be a hex address")
		}
		if !common.IsHexAddress(c.TreasuryAddress) {
			return fmt.Errorf("TREASURY_ADDRESS is required for the logscan strategy")
		}
		if c.PaymentScanChunk == 0 {
			return fmt.Errorf("PAYMENT_SCAN_CHUNK must be positive")
		}
	case "contract":
		if !common.IsHexAddress(c.PaymentContractAddress) {
			return fmt.Errorf("PAYMENT_CONTRACT_ADDRESS is required for the contract strategy")
		}
	default:
		return fmt.Errorf("PAYMENT_STRATEGY must be logscan or contract, got %q", c.PaymentStrategy)
	}

	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return decimal.RequireFromString(defaultValue)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		HTTPAddr:             ":0",
		BaseURL:              "http://localhost:8080",
		APIRateLimit:         1000,
		APIRateBurst:         1000,
		PaymentStrategy:      "logscan",
		PaymentScanWindow:    1000,
		PaymentScanChunk:     100,
		PaymentOracleTimeout: time.Second,
		AccessFeeUSD:         decimal.NewFromInt(30),
		TokenDecimals:        6,
		L1CommissionRate:     decimal.RequireFromString("0.20"),
		L2CommissionRate:     decimal.RequireFromString("0.10"),
		RotatorLease:         entities.DefaultRotatorLease,
		AdminJWTSecret:       "test-secret-test-secret-test-secret",
		AdminOperators:       []string{"ops"},
		AdminTokenTTL:        time.Hour,
		OTelExporterType:     "none",
		OTelServiceName:      "wealthreactor-test",
		LogLevel:             "debug",
	}
}
