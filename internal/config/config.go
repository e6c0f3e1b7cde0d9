package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds daemon configuration, assembled from defaults, a local .env
// file, command-line flags, and environment variables (highest precedence).
type Config struct {
	RunAddress      string        // HTTP listen address
	DatabasePath    string        // SQLite database file path
	TagServiceURL   string        // external assignment service; empty = local resolver
	LogLevel        string
	LockTimeout     time.Duration // per-order lock wait bound
	MCPMode         bool          // serve MCP over stdio instead of HTTP
	ShutdownTimeout time.Duration
}

// Parse assembles the configuration
func Parse() *Config {
	// A missing .env is fine; it only exists in dev setups
	_ = godotenv.Load()

	cfg := Config{
		// Defaults
		RunAddress:      "localhost:8080",
		DatabasePath:    "rfid-verify.db",
		LogLevel:        "info",
		LockTimeout:     5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
	cfg.updateFromFlags()
	cfg.updateFromEnv()
	return &cfg
}

func (cfg *Config) updateFromFlags() {
	flagRunAddress := flag.String("a", cfg.RunAddress, "HTTP listen address.")
	flagDatabasePath := flag.String("d", cfg.DatabasePath, "SQLite database path.")
	flagTagService := flag.String("t", cfg.TagServiceURL, "Tag assignment service URL (empty: local resolver).")
	flagLogLevel := flag.String("l", cfg.LogLevel, "Log level.")
	flagMCP := flag.Bool("mcp", cfg.MCPMode, "Serve MCP over stdio instead of HTTP.")

	flag.Parse()

	cfg.RunAddress = *flagRunAddress
	cfg.DatabasePath = *flagDatabasePath
	cfg.TagServiceURL = *flagTagService
	cfg.LogLevel = *flagLogLevel
	cfg.MCPMode = *flagMCP
}

func (cfg *Config) updateFromEnv() {
	if addr, ok := os.LookupEnv("RUN_ADDRESS"); ok {
		cfg.RunAddress = addr
	}
	if path, ok := os.LookupEnv("DATABASE_PATH"); ok {
		cfg.DatabasePath = path
	}
	if url, ok := os.LookupEnv("TAG_SERVICE_URL"); ok {
		cfg.TagServiceURL = url
	}
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = lvl
	}
	if timeout, ok := os.LookupEnv("LOCK_TIMEOUT"); ok {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.LockTimeout = d
		}
	}
	if mcp, ok := os.LookupEnv("MCP_MODE"); ok {
		if b, err := strconv.ParseBool(mcp); err == nil {
			cfg.MCPMode = b
		}
	}
}
