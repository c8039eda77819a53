// Package main provides the summary-api server for parsed bid packet data.
//
// This is a standalone REST API server that provides access to the trips,
// bid lines and bid-period summaries the ingest pipeline stores in
// PostgreSQL, plus the parse-issue audit kept in SQLite. It is designed
// to be queried by crew-planning dashboards and analysts reviewing
// packet quality.
//
// Usage:
//
//	summary-api [options]
//
// Options:
//
//	-pg-host HOST       PostgreSQL host (default: localhost, env: POSTGRES_HOST)
//	-pg-port PORT       PostgreSQL port (default: 5432, env: POSTGRES_PORT)
//	-pg-database DB     PostgreSQL database (default: bidpack, env: POSTGRES_DATABASE)
//	-pg-user USER       PostgreSQL user (default: bidpack, env: POSTGRES_USER)
//	-pg-password PASS   PostgreSQL password (default: bidpack, env: POSTGRES_PASSWORD)
//	-audit-db PATH      SQLite audit database (default: bidpack_audit.db, env: AUDIT_DB_PATH)
//	-port N             HTTP port (default: 8081)
//	-auth               Enable API key authentication
//	-api-keys KEYS      Comma-separated list of valid API keys
//
// API Endpoints:
//
//	GET /api/v1/health
//	    Health check endpoint.
//
//	GET /api/v1/periods/{bid_period}/edw
//	    EDW exposure summary for a bid period.
//
//	GET /api/v1/periods/{bid_period}/lines
//	    Line statistics summary for a bid period.
//
//	GET /api/v1/periods/{bid_period}/trips
//	    Full trip detail rows for a bid period.
//
//	GET /api/v1/periods/{bid_period}/pay-periods
//	    Per pay period line records for a bid period.
//
//	GET /api/v1/periods/{bid_period}/issues
//	    Parse issues recorded while ingesting the bid period.
//
//	GET /metrics
//	    Prometheus scrape endpoint.
//
// Authentication:
//
//	When -auth is enabled, requests must include an API key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bidpack_parser/internal/api"
	"bidpack_parser/internal/storage"
)

func main() {
	// PostgreSQL connection flags.
	pgHost := flag.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := flag.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := flag.String("pg-user", envOrDefault("POSTGRES_USER", "bidpack"), "PostgreSQL user")
	pgPassword := flag.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "bidpack"), "PostgreSQL password")
	pgDB := flag.String("pg-database", envOrDefault("POSTGRES_DATABASE", "bidpack"), "PostgreSQL database")

	// Audit database flag.
	auditPath := flag.String("audit-db", envOrDefault("AUDIT_DB_PATH", "bidpack_audit.db"), "SQLite audit database path")

	// API server flags.
	port := flag.Int("port", 8081, "HTTP port for API server")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")

	flag.Parse()

	ctx := context.Background()

	// Open PostgreSQL database.
	pg, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
		Host:     *pgHost,
		Port:     *pgPort,
		Database: *pgDB,
		User:     *pgUser,
		Password: *pgPassword,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Open the audit store.
	audit, err := storage.OpenAudit(*auditPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audit database: %v\n", err)
		os.Exit(1)
	}
	defer audit.Close()

	// Parse API keys.
	var keys []string
	if *apiKeys != "" {
		keys = strings.Split(*apiKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
	}

	// Create and run server.
	server := api.NewSummaryServer(pg, audit, api.Config{
		Port:        *port,
		AuthEnabled: *authEnabled,
		APIKeys:     keys,
	})

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
