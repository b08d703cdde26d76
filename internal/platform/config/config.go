// Package config builds process configuration from the environment so main stays lean.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	JWTSigningKey   string
	VerificationURL string

	Database DatabaseConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Content  ContentConfig

	// ReconcileSchedule is the cron expression for the pending-transaction
	// reconciler. Empty disables the worker.
	ReconcileSchedule string
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds settings for the ledger read cache.
type RedisConfig struct {
	URL      string
	PoolSize int
	CacheTTL time.Duration
}

// LedgerConfig holds settings for the certificate contract client.
type LedgerConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKeyHex   string
	ChainID         int64
	// MiningWait bounds how long an issuance request waits for the transaction
	// to be mined before handing off to the reconciler.
	MiningWait time.Duration
}

// ContentConfig holds settings for the content-addressable store.
type ContentConfig struct {
	APIURL     string
	GatewayURL string
	Timeout    time.Duration
}

// FromEnv builds a Server config from environment variables. A .env file in the
// working directory is loaded first when present.
func FromEnv() Server {
	_ = godotenv.Load()

	cfg := Server{
		Addr:            envOr("COURSECERT_ADDR", ":8080"),
		Environment:     envOr("COURSECERT_ENV", "development"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		VerificationURL: envOr("VERIFICATION_BASE_URL", "http://localhost:8080/certificates/verify"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envIntOr("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envIntOr("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDurationOr("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			PoolSize: envIntOr("REDIS_POOL_SIZE", 10),
			CacheTTL: envDurationOr("LEDGER_CACHE_TTL", 30*time.Second),
		},
		Ledger: LedgerConfig{
			RPCURL:          os.Getenv("LEDGER_RPC_URL"),
			ContractAddress: os.Getenv("LEDGER_CONTRACT_ADDRESS"),
			PrivateKeyHex:   os.Getenv("LEDGER_PRIVATE_KEY"),
			ChainID:         int64(envIntOr("LEDGER_CHAIN_ID", 11155111)),
			MiningWait:      envDurationOr("LEDGER_MINING_WAIT", 90*time.Second),
		},
		Content: ContentConfig{
			APIURL:     envOr("IPFS_API_URL", "http://localhost:5001"),
			GatewayURL: envOr("IPFS_GATEWAY_URL", "https://ipfs.io/ipfs"),
			Timeout:    envDurationOr("IPFS_TIMEOUT", 30*time.Second),
		},
		ReconcileSchedule: envOr("RECONCILE_SCHEDULE", "@every 1m"),
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
