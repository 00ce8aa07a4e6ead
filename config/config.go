package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration. Sessions hold resumable proposal state; the
	// reminder queue backs the asynq worker.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// MongoDB, used when DIRECTORY_BACKEND is "mongo".
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Backend selection. Directory: fixture | mongo | places.
	// Calendar: stub | google. Reasoner: scripted | gemini.
	DirectoryBackend string `mapstructure:"DIRECTORY_BACKEND"`
	CalendarBackend  string `mapstructure:"CALENDAR_BACKEND"`
	ReasonerBackend  string `mapstructure:"REASONER_BACKEND"`

	// Provider fixture file for the fixture directory backend.
	ProvidersPath string `mapstructure:"PROVIDERS_PATH"`

	// Gemini reasoning/extraction.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Google APIs: Places HTTP key, service account for Speech/Calendar.
	GoogleAPIKey             string `mapstructure:"GOOGLE_API_KEY"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleCalendarID         string `mapstructure:"GOOGLE_CALENDAR_ID"`

	// Agent tool loop bound.
	AgentMaxRounds int `mapstructure:"AGENT_MAX_ROUNDS"`

	// Request normalization defaults.
	DefaultSpecialty  string  `mapstructure:"DEFAULT_SPECIALTY"`
	DefaultTimeWindow string  `mapstructure:"DEFAULT_TIME_WINDOW"`
	DefaultRadiusKm   float64 `mapstructure:"DEFAULT_RADIUS_KM"`
	DefaultLocation   string  `mapstructure:"DEFAULT_LOCATION"`

	// Appointment reminders (asynq worker).
	RemindersEnabled   bool `mapstructure:"REMINDERS_ENABLED"`
	ReminderLeadMinute int  `mapstructure:"REMINDER_LEAD_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	// Empty means no Redis: proposal sessions fall back to process memory
	// and reminders stay off.
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DIRECTORY_BACKEND", "fixture")
	viper.SetDefault("CALENDAR_BACKEND", "stub")
	viper.SetDefault("REASONER_BACKEND", "scripted")
	viper.SetDefault("PROVIDERS_PATH", "data/providers.json")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	viper.SetDefault("AGENT_MAX_ROUNDS", 12)
	viper.SetDefault("DEFAULT_SPECIALTY", "dentist")
	viper.SetDefault("DEFAULT_TIME_WINDOW", "this week")
	viper.SetDefault("DEFAULT_RADIUS_KM", 5.0)
	viper.SetDefault("DEFAULT_LOCATION", "Berlin")
	viper.SetDefault("REMINDERS_ENABLED", false)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
