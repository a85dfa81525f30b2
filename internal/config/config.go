package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type AppConfig struct {
	Port string

	// MQTT bus settings for the ingestion consumer.
	MQTTBrokerAddr string
	MQTTUsername   string
	MQTTPassword   string
	MQTTTopic      string
	MQTTClientID   string

	// StoreBackend is "sqlite" (default) or "memory".
	StoreBackend string
	SQLitePath   string

	// ReportsDir is where generated reports are archived.
	ReportsDir string

	// DailyReportJob enables the nightly automatic daily report.
	DailyReportJob bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:           getenvDefault("PORT", "8080"),
		MQTTBrokerAddr: getenvDefault("MQTT_URI", "localhost:1883"),
		MQTTUsername:   os.Getenv("MQTT_USERNAME"),
		MQTTPassword:   os.Getenv("MQTT_PASSWORD"),
		MQTTTopic:      getenvDefault("MQTT_TOPIC", "sensors/dht22/readings"),
		MQTTClientID:   getenvDefault("MQTT_CLIENT_ID", "sense-backend"),
		StoreBackend:   getenvDefault("STORE_BACKEND", StoreSQLite),
		SQLitePath:     getenvDefault("SQLITE_PATH", "data/readings.db"),
		ReportsDir:     getenvDefault("REPORTS_DIR", "reports"),
		DailyReportJob: getenvBool("DAILY_REPORT_JOB", true),
	}

	if cfg.StoreBackend != StoreSQLite && cfg.StoreBackend != StoreMemory {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: use %s or %s", cfg.StoreBackend, StoreSQLite, StoreMemory)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
