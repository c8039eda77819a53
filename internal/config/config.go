// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"bidpack_parser/internal/storage"
)

// Config holds all configuration for the ingest and API commands.
type Config struct {
	// NATS feed of extracted documents.
	NATSURL     string
	NATSSubject string

	// Databases.
	Storage storage.Config

	// Local stores.
	AuditPath   string
	CatalogPath string

	// HTTP.
	APIPort int

	// Parsing.
	Workers int
}

// Load reads configuration from environment variables, with a .env file
// applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	st := storage.DefaultConfig()
	st.Postgres.Host = getEnv("POSTGRES_HOST", st.Postgres.Host)
	st.Postgres.Port = getEnvAsInt("POSTGRES_PORT", st.Postgres.Port)
	st.Postgres.Database = getEnv("POSTGRES_DATABASE", st.Postgres.Database)
	st.Postgres.User = getEnv("POSTGRES_USER", st.Postgres.User)
	st.Postgres.Password = getEnv("POSTGRES_PASSWORD", st.Postgres.Password)
	st.ClickHouse.Host = getEnv("CLICKHOUSE_HOST", st.ClickHouse.Host)
	st.ClickHouse.Port = getEnvAsInt("CLICKHOUSE_PORT", st.ClickHouse.Port)
	st.ClickHouse.Database = getEnv("CLICKHOUSE_DATABASE", st.ClickHouse.Database)
	st.ClickHouse.User = getEnv("CLICKHOUSE_USER", st.ClickHouse.User)
	st.ClickHouse.Password = getEnv("CLICKHOUSE_PASSWORD", st.ClickHouse.Password)

	return &Config{
		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: getEnv("NATS_SUBJECT", "bidpack.documents"),
		Storage:     st,
		AuditPath:   getEnv("AUDIT_DB_PATH", "bidpack_audit.db"),
		CatalogPath: getEnv("CATALOG_DB_PATH", "bidpack_catalog.db"),
		APIPort:     getEnvAsInt("API_PORT", 8081),
		Workers:     getEnvAsInt("PARSE_WORKERS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
