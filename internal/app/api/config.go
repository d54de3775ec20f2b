package api

import (
	"fmt"
	"os"
	"strings"

	"go.temporal.io/sdk/client"

	petkafka "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/adapters/events/kafka"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config carries environment-driven settings for the pet finder processes.
type Config struct {
	Port              string
	StoreDriver       string
	SQLitePath        string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	KafkaBrokers      []string
	KafkaTopic        string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		StoreDriver:       strings.ToLower(envDefault("STORE_DRIVER", StoreDriverSQLite)),
		SQLitePath:        envDefault("SQLITE_PATH", "data/petfinder.db"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        envDefault("KAFKA_TOPIC", petkafka.DefaultTopic),
	}
	switch cfg.StoreDriver {
	case StoreDriverSQLite:
	case StoreDriverMemory:
		// The worker would register into its own memory, invisible to the API.
		if !cfg.TemporalDisabled {
			return Config{}, fmt.Errorf("STORE_DRIVER=%s requires TEMPORAL_DISABLED", StoreDriverMemory)
		}
	case StoreDriverPostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s; got %q",
			StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
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
