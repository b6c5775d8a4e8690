package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Calendar reference-data sources.
const (
	CalendarSourceStatic   = "static"
	CalendarSourcePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Session       SessionConfig
	Device        DeviceConfig
	Backend       BackendConfig
	Features      FeatureConfig
	Calendar      CalendarConfig
	HealthMonitor HealthMonitorConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig selects where the per-device key-value state lives.
type SessionConfig struct {
	Store       string
	KeyPrefix   string
	KeyTTL      time.Duration
	IdleTimeout time.Duration
}

// DeviceConfig signs the device identity tokens handed to browsers.
type DeviceConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	Issuer      string
}

// BackendConfig points at the REST backend that owns authentication.
type BackendConfig struct {
	APIURL       string
	ProxyOrigin  string
	FetchTimeout time.Duration
	MaxRetries   int
	BackoffStep  time.Duration
}

// FeatureConfig toggles optional panels.
type FeatureConfig struct {
	Library             bool
	Transport           bool
	Hostel              bool
	BiometricAttendance bool
}

// CalendarConfig chooses the calendar reference-data source.
type CalendarConfig struct {
	Source        string
	UpcomingLimit int
	EventTypes    []string
}

// HealthMonitorConfig controls background probing of the backend.
type HealthMonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Session = SessionConfig{
		Store:       strings.ToLower(v.GetString("SESSION_STORE")),
		KeyPrefix:   v.GetString("SESSION_KEY_PREFIX"),
		KeyTTL:      parseDuration(v.GetString("SESSION_KEY_TTL"), 30*24*time.Hour),
		IdleTimeout: parseDuration(v.GetString("SHELL_IDLE_TIMEOUT"), 30*time.Minute),
	}

	cfg.Device = DeviceConfig{
		TokenSecret: v.GetString("DEVICE_TOKEN_SECRET"),
		TokenTTL:    parseDuration(v.GetString("DEVICE_TOKEN_TTL"), 30*24*time.Hour),
		Issuer:      v.GetString("DEVICE_TOKEN_ISSUER"),
	}

	cfg.Backend = BackendConfig{
		APIURL:       strings.TrimRight(v.GetString("BACKEND_API_URL"), "/"),
		ProxyOrigin:  strings.TrimRight(v.GetString("BACKEND_PROXY_ORIGIN"), "/"),
		FetchTimeout: parseDuration(v.GetString("FETCH_TIMEOUT"), 15*time.Second),
		MaxRetries:   v.GetInt("FETCH_MAX_RETRIES"),
		BackoffStep:  parseDuration(v.GetString("FETCH_BACKOFF_STEP"), time.Second),
	}

	cfg.Features = FeatureConfig{
		Library:             v.GetBool("FEATURE_LIBRARY"),
		Transport:           v.GetBool("FEATURE_TRANSPORT"),
		Hostel:              v.GetBool("FEATURE_HOSTEL"),
		BiometricAttendance: v.GetBool("FEATURE_BIOMETRIC_ATTENDANCE"),
	}

	upcoming := v.GetInt("CALENDAR_UPCOMING_LIMIT")
	if upcoming <= 0 {
		upcoming = 8
	}
	cfg.Calendar = CalendarConfig{
		Source:        strings.ToLower(v.GetString("CALENDAR_SOURCE")),
		UpcomingLimit: upcoming,
		EventTypes:    splitAndTrim(v.GetString("CALENDAR_EVENT_TYPES")),
	}

	cfg.HealthMonitor = HealthMonitorConfig{
		Enabled:  v.GetBool("HEALTH_MONITOR_ENABLED"),
		Interval: parseDuration(v.GetString("HEALTH_MONITOR_INTERVAL"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_KEY_PREFIX", "shell")
	v.SetDefault("SESSION_KEY_TTL", "720h")
	v.SetDefault("SHELL_IDLE_TIMEOUT", "30m")

	v.SetDefault("DEVICE_TOKEN_SECRET", "dev_device_secret")
	v.SetDefault("DEVICE_TOKEN_TTL", "720h")
	v.SetDefault("DEVICE_TOKEN_ISSUER", "sma-dashboard-shell")

	v.SetDefault("BACKEND_API_URL", "")
	v.SetDefault("BACKEND_PROXY_ORIGIN", "http://localhost:5000")
	v.SetDefault("FETCH_TIMEOUT", "15s")
	v.SetDefault("FETCH_MAX_RETRIES", 3)
	v.SetDefault("FETCH_BACKOFF_STEP", "1s")

	v.SetDefault("FEATURE_LIBRARY", true)
	v.SetDefault("FEATURE_TRANSPORT", true)
	v.SetDefault("FEATURE_HOSTEL", true)
	v.SetDefault("FEATURE_BIOMETRIC_ATTENDANCE", true)

	v.SetDefault("CALENDAR_SOURCE", CalendarSourceStatic)
	v.SetDefault("CALENDAR_UPCOMING_LIMIT", 8)

	v.SetDefault("HEALTH_MONITOR_ENABLED", false)
	v.SetDefault("HEALTH_MONITOR_INTERVAL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
