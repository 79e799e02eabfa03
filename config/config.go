package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv              string
	AppPort             string
	DBClient            string
	SQLitePath          string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	DBMaxIdleConns      int
	DBMaxOpenConns      int
	NatsURL             string
	JWTSecret           string
	JWTExpirationHours  int
	FCMServerKey        string
	GooglePlayPackage   string
	GooglePlayVerifyURL string
	ClearDeletedPayload bool
	DispatchPollSeconds int
	ReminderPollSeconds int
	FreeTierNoteLimit   int
	AllowedOrigins      string
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("%s not set, defaulting to %s", key, defaultValue)
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Invalid integer value for %s, defaulting to %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Invalid boolean value for %s, defaulting to %t", key, defaultValue)
	}
	return defaultValue
}

func Load() Config {
	log.Println("Loading configuration...")

	// Environment variables take precedence over .env entries
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded additional configuration from .env file")
	}

	return Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		AppPort:             getEnv("APP_PORT", "8080"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "*"),
		DBClient:            getEnv("DB_CLIENT", "postgres"),
		SQLitePath:          getEnv("SQLITE_PATH", "pinpoint.db"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "pinpoint"),
		DBPassword:          getEnv("DB_PASSWORD", "pinpoint"),
		DBName:              getEnv("DB_NAME", "pinpoint"),
		DBSSLMode:           getEnv("DB_SSLMODE", "disable"),
		DBMaxIdleConns:      getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:      getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		NatsURL:             getEnv("NATS_URL", "nats://localhost:4222"),
		JWTSecret:           getEnv("JWT_SECRET", "your-super-secret-key-change-this-in-production"),
		JWTExpirationHours:  getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		FCMServerKey:        getEnv("FCM_SERVER_KEY", ""),
		GooglePlayPackage:   getEnv("GOOGLE_PLAY_PACKAGE", "com.pinpoint.notes"),
		GooglePlayVerifyURL: getEnv("GOOGLE_PLAY_VERIFY_URL", ""),
		ClearDeletedPayload: getEnvAsBool("CLEAR_DELETED_PAYLOAD", true),
		DispatchPollSeconds: getEnvAsInt("DISPATCH_POLL_SECONDS", 1),
		ReminderPollSeconds: getEnvAsInt("REMINDER_POLL_SECONDS", 30),
		FreeTierNoteLimit:   getEnvAsInt("FREE_TIER_NOTE_LIMIT", 50),
	}
}
