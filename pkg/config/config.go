package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the service configuration. The ranking weights and
// retention windows are all overridable through the environment; the
// defaults match the production formula.
type Config struct {
	Port        string
	Env         string
	MetricsPort string
	PostgresUrl string
	MongoURI    string
	MongoDBName string

	// Ranking formula
	RankViewWeight    float64
	RankLikeWeight    float64
	RankCommentWeight float64
	RankShareWeight   float64
	RankRecencyBoost  float64
	RecencyWindow     time.Duration
	TrendingWindow    time.Duration
	ScoreStaleness    time.Duration

	// Retention and reconciliation
	NotificationRetention time.Duration
	ViewRetention         time.Duration
	ReconcileInterval     time.Duration

	// Storage call bounds
	StorageTimeout time.Duration
	ToggleRetries  int
}

// Load merges a .env file into the environment when one exists, then
// reads the configuration from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		PostgresUrl: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDBName: getEnv("MONGO_DB_NAME", "cliply"),

		RankViewWeight:    getEnvFloat("RANK_VIEW_WEIGHT", 0.3),
		RankLikeWeight:    getEnvFloat("RANK_LIKE_WEIGHT", 0.4),
		RankCommentWeight: getEnvFloat("RANK_COMMENT_WEIGHT", 0.2),
		RankShareWeight:   getEnvFloat("RANK_SHARE_WEIGHT", 0.1),
		RankRecencyBoost:  getEnvFloat("RANK_RECENCY_BOOST", 0.5),
		RecencyWindow:     getEnvDuration("RECENCY_WINDOW", 30*24*time.Hour),
		TrendingWindow:    getEnvDuration("TRENDING_WINDOW", 7*24*time.Hour),
		ScoreStaleness:    getEnvDuration("SCORE_STALENESS", 15*time.Minute),

		NotificationRetention: getEnvDuration("NOTIFICATION_RETENTION", 30*24*time.Hour),
		ViewRetention:         getEnvDuration("VIEW_RETENTION", 90*24*time.Hour),
		ReconcileInterval:     getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),

		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 5*time.Second),
		ToggleRetries:  getEnvInt("TOGGLE_RETRIES", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
