package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string

	// Redis
	RedisURL      string
	RedisPassword string

	// NATS
	NATSURL string

	// RBAC
	StaffServiceURL string

	// Pricing
	MinUpdateInterval time.Duration
	ScheduleInterval  time.Duration
	BatchTimeout      time.Duration
	Workers           int
	SchedulerEnabled  bool
	DemandStrategy    string

	// Manual trigger rate limit (requests per second, burst)
	ManualTriggerRate  float64
	ManualTriggerBurst int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	environment := getEnv("ENVIRONMENT", "development")

	// Daily in production, every two minutes elsewhere
	defaultSchedule := 2 * time.Minute
	if environment == "production" {
		defaultSchedule = 24 * time.Hour
	}

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "pricing_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8089"),
		Environment: environment,

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: secrets.GetRedisPassword(),

		// NATS
		NATSURL: getEnv("NATS_URL", ""),

		StaffServiceURL: getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),

		// Pricing
		MinUpdateInterval: getDuration("PRICING_MIN_UPDATE_INTERVAL", time.Hour),
		ScheduleInterval:  getDuration("PRICING_SCHEDULE_INTERVAL", defaultSchedule),
		BatchTimeout:      getDuration("PRICING_BATCH_TIMEOUT", 5*time.Minute),
		Workers:           getInt("PRICING_WORKERS", 4),
		SchedulerEnabled:  getBool("PRICING_SCHEDULER_ENABLED", true),
		DemandStrategy:    getEnv("DEMAND_STRATEGY", "random"),

		ManualTriggerRate:  getFloat("MANUAL_TRIGGER_RATE", 0.2),
		ManualTriggerBurst: getInt("MANUAL_TRIGGER_BURST", 2),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Query spans join the request trace started by the tracing middleware
	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		log.Printf("WARNING: Failed to install otelgorm plugin: %v", err)
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("90s", "1h") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
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
