package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ChainModeEthereum  = "ethereum"
	ChainModeSimulated = "simulated"

	StoreModePostgres = "postgres"
	StoreModeMemory   = "memory"
)

// Config is the full service configuration read once at startup.
type Config struct {
	Server   Server
	Chain    ChainConfig
	Records  DatabaseConfig
	Listings DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sync     SyncConfig

	StoreMode string
	LogLevel  string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	AdminToken     string
	AllowedOrigins []string
}

// ChainConfig locates the registry contract and the keys that sign for it.
type ChainConfig struct {
	Mode            string
	RPCURL          string
	ContractAddress string
	ChainID         int64
	// AdminKey signs mints; the admin pays gas for verification.
	AdminKey string
	// SignerKeys are custodial keys for user-initiated writes (list, cancel, buy, transfer, register).
	SignerKeys      []string
	StartBlock      uint64
	Confirmations   uint64
	PollInterval    time.Duration
	FinalityTimeout time.Duration
	RPCRateLimit    int
}

// DatabaseConfig is one relational store.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig backs the lease table and reconciliation journal. Empty URL keeps both in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries audit events and operator alerts. No brokers disables both sinks.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	AlertTopic string
}

// SyncConfig tunes the synchronization core.
type SyncConfig struct {
	LeaseMargin          time.Duration
	ReconcileMaxAttempts int
	RetryInitialInterval time.Duration
	ReconcileInterval    time.Duration
	// DocumentPrefix builds the placeholder document hash used when none is supplied.
	DocumentPrefix   string
	DefaultLandType  uint8
	IssuingAuthority string
}

// FromEnv builds the config from environment variables so main stays lean.
// Missing credentials are reported together; main treats any error as fatal.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:           getEnv("LANDLEDGER_ADDR", ":8080"),
			AdminToken:     os.Getenv("ADMIN_API_TOKEN"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Chain: ChainConfig{
			Mode:            strings.ToLower(getEnv("CHAIN_MODE", ChainModeEthereum)),
			RPCURL:          os.Getenv("CHAIN_RPC_URL"),
			ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
			AdminKey:        strings.TrimPrefix(os.Getenv("ADMIN_PRIVATE_KEY"), "0x"),
			SignerKeys:      splitList(os.Getenv("CUSTODIAL_SIGNER_KEYS")),
		},
		Records: DatabaseConfig{
			DSN: os.Getenv("RECORDS_DATABASE_URL"),
		},
		Listings: DatabaseConfig{
			DSN: os.Getenv("LISTINGS_DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "landledger.audit"),
			AlertTopic: getEnv("RECONCILE_ALERT_TOPIC", "landledger.reconcile.alerts"),
		},
		Sync: SyncConfig{
			DocumentPrefix:   getEnv("DEFAULT_DOCUMENT_PREFIX", "QmAutoVerified_"),
			IssuingAuthority: getEnv("ISSUING_AUTHORITY", "GOVT"),
		},
		StoreMode: strings.ToLower(getEnv("STORE_MODE", StoreModePostgres)),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	cfg.Chain.ChainID = int64(getInt(&errs, "CHAIN_ID", 11155111))
	cfg.Chain.StartBlock = uint64(getInt(&errs, "CHAIN_START_BLOCK", 0))
	cfg.Chain.Confirmations = uint64(getInt(&errs, "CHAIN_CONFIRMATIONS", 1))
	cfg.Chain.PollInterval = getDuration(&errs, "CHAIN_POLL_INTERVAL", 2*time.Second)
	cfg.Chain.FinalityTimeout = getDuration(&errs, "FINALITY_TIMEOUT", 2*time.Minute)
	cfg.Chain.RPCRateLimit = getInt(&errs, "CHAIN_RPC_RATE_LIMIT", 20)

	for _, db := range []*DatabaseConfig{&cfg.Records, &cfg.Listings} {
		db.MaxOpenConns = getInt(&errs, "DB_MAX_OPEN_CONNS", 10)
		db.MaxIdleConns = getInt(&errs, "DB_MAX_IDLE_CONNS", 5)
		db.ConnMaxLifetime = getDuration(&errs, "DB_CONN_MAX_LIFETIME", 30*time.Minute)
	}

	cfg.Redis.PoolSize = getInt(&errs, "REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getInt(&errs, "REDIS_MIN_IDLE_CONNS", 2)
	cfg.Redis.DialTimeout = getDuration(&errs, "REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getDuration(&errs, "REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getDuration(&errs, "REDIS_WRITE_TIMEOUT", 3*time.Second)

	cfg.Sync.LeaseMargin = getDuration(&errs, "LEASE_MARGIN", 30*time.Second)
	cfg.Sync.ReconcileMaxAttempts = getInt(&errs, "RECONCILE_MAX_ATTEMPTS", 5)
	cfg.Sync.RetryInitialInterval = getDuration(&errs, "RECONCILE_RETRY_INTERVAL", 200*time.Millisecond)
	cfg.Sync.ReconcileInterval = getDuration(&errs, "RECONCILE_INTERVAL", time.Minute)
	landType := getInt(&errs, "DEFAULT_LAND_TYPE", 0)
	if landType < 0 || landType > 2 {
		errs = append(errs, fmt.Errorf("DEFAULT_LAND_TYPE must be 0, 1 or 2"))
	}
	cfg.Sync.DefaultLandType = uint8(landType)

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// LeaseTTL outlives the finality wait so a crashed holder frees the land eventually.
func (c Config) LeaseTTL() time.Duration {
	return c.Chain.FinalityTimeout + c.Sync.LeaseMargin
}

func (c Config) validate() []error {
	var errs []error
	switch c.Chain.Mode {
	case ChainModeEthereum:
		if c.Chain.RPCURL == "" {
			errs = append(errs, errors.New("CHAIN_RPC_URL is required"))
		}
		if c.Chain.ContractAddress == "" {
			errs = append(errs, errors.New("CONTRACT_ADDRESS is required"))
		}
		if c.Chain.AdminKey == "" {
			errs = append(errs, errors.New("ADMIN_PRIVATE_KEY is required"))
		}
	case ChainModeSimulated:
	default:
		errs = append(errs, fmt.Errorf("CHAIN_MODE must be %q or %q", ChainModeEthereum, ChainModeSimulated))
	}
	switch c.StoreMode {
	case StoreModePostgres:
		if c.Records.DSN == "" {
			errs = append(errs, errors.New("RECORDS_DATABASE_URL is required"))
		}
		if c.Listings.DSN == "" {
			errs = append(errs, errors.New("LISTINGS_DATABASE_URL is required"))
		}
	case StoreModeMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_MODE must be %q or %q", StoreModePostgres, StoreModeMemory))
	}
	if c.Chain.FinalityTimeout <= 0 {
		errs = append(errs, errors.New("FINALITY_TIMEOUT must be positive"))
	}
	if c.Sync.ReconcileMaxAttempts < 1 {
		errs = append(errs, errors.New("RECONCILE_MAX_ATTEMPTS must be at least 1"))
	}
	return errs
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(errs *[]error, key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getDuration(errs *[]error, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
