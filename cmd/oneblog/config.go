package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration, read from the environment
type Config struct {
	Port     string
	GRPCPort string

	JWTSecret       string
	SessionTokenTTL time.Duration
	BcryptCost      int
	OTCExpiry       time.Duration
	OTCReapInterval time.Duration
	EmailTimeout    time.Duration
	FrontendURLs    []string

	Store              string
	StorePath          string
	DatabaseDSN        string
	MongoURI           string
	MongoDB            string
	DatastoreProject   string
	DatastoreNamespace string
	RedisAddr          string

	EmailProvider string
	AWSRegion     string
	EmailFrom     string
	EmailFromName string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "4000"),
		GRPCPort: getEnv("GRPC_PORT", ""),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionTokenTTL: getDuration("SESSION_TOKEN_TTL", 0),
		BcryptCost:      getInt("BCRYPT_COST", 10),
		OTCExpiry:       getDuration("OTC_EXPIRY", 10*time.Minute),
		OTCReapInterval: getDuration("OTC_REAP_INTERVAL", 5*time.Minute),
		EmailTimeout:    getDuration("EMAIL_TIMEOUT", 10*time.Second),
		FrontendURLs:    splitList(getEnv("FRONTEND_URL", "http://localhost:5173")),

		Store:              strings.ToLower(getEnv("STORE", "fs")),
		StorePath:          getEnv("STORE_PATH", "./data"),
		DatabaseDSN:        getEnv("DATABASE_DSN", ""),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "oneblog"),
		DatastoreProject:   getEnv("DATASTORE_PROJECT", ""),
		DatastoreNamespace: getEnv("DATASTORE_NAMESPACE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),

		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "console")),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		EmailFrom:     getEnv("EMAIL_FROM", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Blog Application"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate reports configuration that would fail at startup
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store {
	case "fs", "mongo":
	case "sqlite", "postgres":
		if c.Store == "postgres" && c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for STORE=postgres")
		}
	case "datastore":
		if c.DatastoreProject == "" {
			return fmt.Errorf("DATASTORE_PROJECT is required for STORE=datastore")
		}
	default:
		return fmt.Errorf("unknown STORE %q (want fs, sqlite, postgres, mongo or datastore)", c.Store)
	}
	switch c.EmailProvider {
	case "console", "ses":
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q (want console or ses)", c.EmailProvider)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
