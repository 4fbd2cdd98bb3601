package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/themancarve/tickets/internal/models"
)

type Config struct {
	Port        string
	Environment string

	// AppBaseURL is the origin the payment gateway redirects the browser
	// back to; the payment=success|failed|cancelled query parameter is
	// appended to it.
	AppBaseURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	JWTSecret string

	YocoAPIURL    string
	YocoSecretKey string

	EventName  string
	EventDate  string
	EventVenue string

	// Reconciliation polling bounds (tens of seconds total).
	ReconcilePollAttempts int
	ReconcilePollInterval time.Duration

	PendingCheckoutTTL time.Duration
}

func LoadConfig() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:5173"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		YocoAPIURL:    getEnv("YOCO_API_URL", "https://payments.yoco.com/api"),
		YocoSecretKey: os.Getenv("YOCO_SECRET_KEY"),

		EventName:  getEnv("EVENT_NAME", "The Man Carve - 80s Flashbacks"),
		EventDate:  getEnv("EVENT_DATE", "2025-08-09"),
		EventVenue: getEnv("EVENT_VENUE", "Durban University of Technology"),

		ReconcilePollAttempts: getEnvAsInt("RECONCILE_POLL_ATTEMPTS", 10),
		ReconcilePollInterval: getEnvAsDuration("RECONCILE_POLL_INTERVAL", "3s"),

		PendingCheckoutTTL: getEnvAsDuration("PENDING_CHECKOUT_TTL", "1h"),
	}, nil
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.QRLog{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func InitRedis(cfg *Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}

	return redis.NewClient(opts), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
