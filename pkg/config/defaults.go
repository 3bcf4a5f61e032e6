// Package config provides centralized default values for the PixReview engine
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%v (default: %v)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver   string
	DBPath     string
	TursoURL   string
	TursoToken string

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// Reward Configuration
	RewardLow     float64
	RewardHigh    float64
	FeedbackBonus float64
	SignupBonus   float64

	// Funnel Configuration
	SessionTTL      time.Duration
	InterludeStride int
	NamePromptDelay time.Duration

	// Presence Configuration
	ActiveWindow       time.Duration
	HeartbeatInterval  time.Duration
	CompactionInterval time.Duration

	// SSE Configuration
	SSEHeartbeatInterval time.Duration
	SSEChannelBuffer     int

	// Roster Broadcast
	RosterTickInterval time.Duration

	// Admin Authentication (hard-coded defaults; this surface is not a
	// security boundary, see ADMIN_PASSWORD_HASH for the bcrypt variant)
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	AdminAccessKey    string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	// Withdrawal notification email
	NotifyEmailTo string

	// Cleanup
	CleanupVerbose     bool
	SlowQueryThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBPath = getEnvString("DB_PATH", "pixreview.db")
	TursoURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoToken = getEnvString("TURSO_AUTH_TOKEN", "")
	if TursoURL != "" {
		DBDriver = "libsql"
	} else {
		DBDriver = "sqlite3"
	}

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	// Reward Configuration
	RewardLow = getEnvFloat("REWARD_LOW", 120.20)
	RewardHigh = getEnvFloat("REWARD_HIGH", 180.50)
	FeedbackBonus = getEnvFloat("FEEDBACK_BONUS", 50.00)
	SignupBonus = getEnvFloat("SIGNUP_BONUS", 150.00)

	// Funnel Configuration
	SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	InterludeStride = getEnvInt("INTERLUDE_STRIDE", 2)
	NamePromptDelay = getEnvDuration("NAME_PROMPT_DELAY", 5*time.Second)

	// Presence Configuration
	ActiveWindow = getEnvDuration("PRESENCE_ACTIVE_WINDOW", 30*time.Second)
	HeartbeatInterval = getEnvDuration("PRESENCE_HEARTBEAT_INTERVAL", 5*time.Second)
	CompactionInterval = getEnvDuration("PRESENCE_COMPACTION_INTERVAL", 10*time.Second)

	// SSE Configuration
	SSEHeartbeatInterval = getEnvDuration("SSE_HEARTBEAT_INTERVAL", 30*time.Second)
	SSEChannelBuffer = getEnvInt("SSE_CHANNEL_BUFFER", 10)

	// Roster Broadcast
	RosterTickInterval = getEnvDuration("ROSTER_TICK_INTERVAL", 5*time.Second)

	// Admin Authentication
	AdminEmail = getEnvString("ADMIN_EMAIL", "admin@pixreview.com")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "dener1234")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	AdminAccessKey = getEnvString("ADMIN_ACCESS_KEY", "7K9M2P5X8Q1W4R6T")
	JWTSecret = getEnvString("JWT_SECRET", "pixreview-dev-secret")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)

	// Withdrawal notification email
	NotifyEmailTo = getEnvString("NOTIFY_EMAIL_TO", "")

	// Cleanup
	CleanupVerbose = getEnvString("CLEANUP_VERBOSE", "false") == "true"
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)
}
