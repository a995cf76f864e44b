package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Pipeline  PipelineConfig
	Dashboard DashboardConfig
	Actions   ActionsConfig
	Relayer   RelayerConfig
}

// DatabaseConfig points at the Postgres mirror maintained by the chain indexer.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig describes the escrow contract mirror.
type LedgerConfig struct {
	ContractAddress string
	ChainID         int64
	QueryTimeout    time.Duration
}

// PipelineConfig tunes the opportunity aggregation pipeline.
type PipelineConfig struct {
	TokenDecimals      int32
	NormalizeLocations bool
}

// DashboardConfig governs snapshot caching for teacher dashboards.
type DashboardConfig struct {
	CacheEnabled     bool
	SnapshotCacheTTL time.Duration
}

// ActionsConfig controls the transaction submission worker pool.
type ActionsConfig struct {
	Enabled           bool
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// RelayerConfig points at the service that signs and broadcasts escrow transactions.
type RelayerConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ledger = LedgerConfig{
		ContractAddress: strings.ToLower(strings.TrimSpace(v.GetString("ESCROW_CONTRACT_ADDRESS"))),
		ChainID:         v.GetInt64("CHAIN_ID"),
		QueryTimeout:    parseDuration(v.GetString("LEDGER_QUERY_TIMEOUT"), 10*time.Second),
	}

	decimals := v.GetInt("TOKEN_DECIMALS")
	if decimals < 0 || decimals > 36 {
		decimals = 6
	}
	cfg.Pipeline = PipelineConfig{
		TokenDecimals:      int32(decimals),
		NormalizeLocations: v.GetBool("NORMALIZE_GROUP_LOCATIONS"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled:     v.GetBool("ENABLE_SNAPSHOT_CACHE"),
		SnapshotCacheTTL: parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), 15*time.Second),
	}

	cfg.Actions = ActionsConfig{
		Enabled:           v.GetBool("ENABLE_ACTIONS"),
		WorkerConcurrency: v.GetInt("ACTIONS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ACTIONS_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("ACTIONS_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Relayer = RelayerConfig{
		BaseURL: strings.TrimRight(v.GetString("RELAYER_URL"), "/"),
		APIKey:  v.GetString("RELAYER_API_KEY"),
		Timeout: parseDuration(v.GetString("RELAYER_TIMEOUT"), 15*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "yoga_escrow_index")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "yoga-escrow-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ESCROW_CONTRACT_ADDRESS", "")
	v.SetDefault("CHAIN_ID", 8453)
	v.SetDefault("LEDGER_QUERY_TIMEOUT", "10s")

	v.SetDefault("TOKEN_DECIMALS", 6)
	v.SetDefault("NORMALIZE_GROUP_LOCATIONS", false)

	v.SetDefault("ENABLE_SNAPSHOT_CACHE", false)
	v.SetDefault("SNAPSHOT_CACHE_TTL", "15s")

	v.SetDefault("ENABLE_ACTIONS", false)
	v.SetDefault("ACTIONS_WORKER_CONCURRENCY", 2)
	v.SetDefault("ACTIONS_WORKER_RETRIES", 3)
	v.SetDefault("ACTIONS_RETRY_DELAY", "2s")

	v.SetDefault("RELAYER_URL", "http://localhost:8545")
	v.SetDefault("RELAYER_API_KEY", "")
	v.SetDefault("RELAYER_TIMEOUT", "15s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
