package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Data     DataConfig
	Scoring  ScoringConfig
	Purge    PurgeConfig
	MQTT     MQTTConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port int
}

// DatabaseConfig selects the structured store. Driver "none" leaves the
// service on flat files only.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type DataConfig struct {
	Dir      string
	ModelDir string
}

type ScoringConfig struct {
	DefaultVariant string
}

type PurgeConfig struct {
	Enabled       bool
	DaysOld       int
	IntervalHours int
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

type LoggingConfig struct {
	Level   string
	Service string
	Version string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Path joins name onto the data directory.
func (d DataConfig) Path(name string) string {
	return filepath.Join(d.Dir, name)
}

// LoadConfig reads the environment, after loading a .env file if one is
// present in the working directory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	purgeDays, err := getIntEnv("PURGE_DAYS_OLD", 90)
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_DAYS_OLD: %w", err)
	}

	purgeInterval, err := getIntEnv("PURGE_INTERVAL_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_INTERVAL_HOURS: %w", err)
	}

	purgeEnabled, err := getBoolEnv("PURGE_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_ENABLED: %w", err)
	}

	dataDir := getEnv("DATA_DIR", "data")
	driver := strings.ToLower(getEnv("DB_DRIVER", "none"))
	switch driver {
	case "postgres", "sqlite", "none":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want postgres, sqlite or none", driver)
	}

	variant := getEnv("SCORING_VARIANT", "assessment")
	if variant != "assessment" && variant != "screening" {
		return nil, fmt.Errorf("invalid SCORING_VARIANT %q: want assessment or screening", variant)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Driver:     driver,
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       dbPort,
			User:       getEnv("DB_USER", "eduscan"),
			Password:   getEnv("DB_PASSWORD", "eduscan_dev_password"),
			Name:       getEnv("DB_NAME", "eduscan"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", filepath.Join(dataDir, "eduscan.db")),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "eduscan-dev-secret"),
			ExpiryHours: jwtExpiry,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Data: DataConfig{
			Dir:      dataDir,
			ModelDir: getEnv("MODEL_DIR", filepath.Join(dataDir, "models")),
		},
		Scoring: ScoringConfig{
			DefaultVariant: variant,
		},
		Purge: PurgeConfig{
			Enabled:       purgeEnabled,
			DaysOld:       purgeDays,
			IntervalHours: purgeInterval,
		},
		MQTT: MQTTConfig{
			Broker:   getEnv("MQTT_BROKER", ""),
			ClientID: getEnv("MQTT_CLIENT_ID", "eduscan-api"),
			Topic:    getEnv("MQTT_TOPIC", "eduscan/events"),
		},
		Logging: LoggingConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Service: getEnv("SERVICE_NAME", "eduscan-api"),
			Version: getEnv("SERVICE_VERSION", "1.0.0"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
