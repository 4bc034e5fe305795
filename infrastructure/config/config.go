package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domainconfig "github.com/engmung/portfolio-Nat/domain/config"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `validate:"required"`
	Environment   string `validate:"oneof=development staging production test"`
	InstanceID    string

	// Knowledge store
	KnowledgeAPIURL  string        `validate:"required,url"`
	KnowledgeTimeout time.Duration `validate:"gt=0"`
	RefreshInterval  time.Duration `validate:"gte=0"`

	// Graph synthesis
	SynthesisMode string `validate:"omitempty,oneof=legacy deterministic"`
	FloorLevels   bool
	PaletteFile   string

	// AWS configuration
	AWSRegion         string
	LocksTable        string
	RateLimitTable    string
	ConnectionsTable  string
	EventBusName      string
	WebSocketEndpoint string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Redis change notifications
	RedisURL     string
	RedisChannel string

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`

	// Authentication
	JWTSecret string
	JWTIssuer string

	// AI proxy rate limit
	AIRateLimit  int           `validate:"gt=0"`
	AIRateWindow time.Duration `validate:"gt=0"`
	// AIBurst caps back-to-back queries inside the window; 0 disables it
	AIBurst int `validate:"gte=0"`

	// Caching
	CacheTTL int `validate:"gte=0"`

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	CORSOrigins   []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	hostname, _ := os.Hostname()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		InstanceID:    getEnv("INSTANCE_ID", hostname),

		KnowledgeAPIURL:  strings.TrimRight(getEnv("KNOWLEDGE_API_URL", "http://localhost:8000"), "/"),
		KnowledgeTimeout: getEnvDuration("KNOWLEDGE_TIMEOUT", 10*time.Second),
		RefreshInterval:  getEnvDuration("REFRESH_INTERVAL", 0),

		SynthesisMode: getEnv("SYNTHESIS_MODE", string(domainconfig.ModeDeterministic)),
		FloorLevels:   getEnvBool("FLOOR_LEVELS", false),
		PaletteFile:   getEnv("PALETTE_FILE", ""),

		AWSRegion:         getEnv("AWS_REGION", "us-west-2"),
		LocksTable:        getEnv("LOCKS_TABLE", ""),
		RateLimitTable:    getEnv("RATE_LIMIT_TABLE", ""),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", ""),
		EventBusName:      getEnv("EVENT_BUS_NAME", ""),
		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		RedisURL:     getEnv("REDIS_URL", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "knowledge-graph:changes"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "portfolio-graph"),

		AIRateLimit:  getEnvInt("AI_RATE_LIMIT", 20),
		AIRateWindow: getEnvDuration("AI_RATE_WINDOW", time.Minute),
		AIBurst:      getEnvInt("AI_BURST", 5),

		CacheTTL: getEnvInt("CACHE_TTL_SECONDS", 300),

		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"*"}),
	}

	// Lambda runtimes announce themselves
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	}

	return nil
}

// DomainConfig derives the synthesis rules from the environment settings
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	dc.SynthesisMode = domainconfig.ParseSynthesisMode(c.SynthesisMode)
	dc.FloorLevels = c.FloorLevels
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
