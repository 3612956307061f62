package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configKeys = []string{
	"SERVER_PORT", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"DB_SQLITE_PATH", "JWT_SECRET", "JWT_EXPIRY_HOURS", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD",
	"REDIS_DB", "CORS_ALLOWED_ORIGINS", "DATA_DIR", "MODEL_DIR", "SCORING_VARIANT", "PURGE_ENABLED",
	"PURGE_DAYS_OLD", "PURGE_INTERVAL_HOURS", "MQTT_BROKER", "LOG_LEVEL",
}

func clearEnv() {
	for _, key := range configKeys {
		os.Unsetenv(key)
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "eduscan",
		Password: "secret",
		Name:     "eduscan",
		SSLMode:  "disable",
	}
	dsn := db.GetDSN()

	expected := "host=localhost port=5432 user=eduscan password=secret dbname=eduscan sslmode=disable"
	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetDSNCustomValues(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.school.local",
		Port:     5433,
		User:     "admin",
		Password: "p@ss",
		Name:     "mydb",
		SSLMode:  "require",
	}
	dsn := db.GetDSN()

	if !strings.Contains(dsn, "host=db.school.local") {
		t.Errorf("DSN missing host, got: %s", dsn)
	}
	if !strings.Contains(dsn, "port=5433") {
		t.Errorf("DSN missing port, got: %s", dsn)
	}
	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("DSN missing sslmode, got: %s", dsn)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		_, err := getIntEnv("TEST_INT_VAR", 8080)
		if err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

func TestGetBoolEnv(t *testing.T) {
	os.Setenv("TEST_BOOL_VAR", "true")
	defer os.Unsetenv("TEST_BOOL_VAR")
	got, err := getBoolEnv("TEST_BOOL_VAR", false)
	if err != nil || !got {
		t.Errorf("getBoolEnv() = %v, %v; want true, nil", got, err)
	}

	os.Setenv("TEST_BOOL_VAR", "maybe")
	if _, err := getBoolEnv("TEST_BOOL_VAR", false); err == nil {
		t.Error("expected error for invalid bool value")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "none" {
		t.Errorf("Database.Driver = %q, want none", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Errorf("JWT.ExpiryHours = %d, want 24", cfg.JWT.ExpiryHours)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("Data.Dir = %q, want data", cfg.Data.Dir)
	}
	if cfg.Data.ModelDir != filepath.Join("data", "models") {
		t.Errorf("Data.ModelDir = %q", cfg.Data.ModelDir)
	}
	if cfg.Scoring.DefaultVariant != "assessment" {
		t.Errorf("Scoring.DefaultVariant = %q, want assessment", cfg.Scoring.DefaultVariant)
	}
	if cfg.Purge.DaysOld != 90 {
		t.Errorf("Purge.DaysOld = %d, want 90", cfg.Purge.DaysOld)
	}
	if cfg.Purge.Enabled {
		t.Error("Purge.Enabled should default to false")
	}
}

func TestLoadConfigCustom(t *testing.T) {
	clearEnv()
	os.Setenv("SERVER_PORT", "3000")
	os.Setenv("DB_DRIVER", "sqlite")
	os.Setenv("DATA_DIR", "/var/lib/eduscan")
	os.Setenv("JWT_EXPIRY_HOURS", "48")
	os.Setenv("SCORING_VARIANT", "screening")
	defer clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.SQLitePath != filepath.Join("/var/lib/eduscan", "eduscan.db") {
		t.Errorf("Database.SQLitePath = %q", cfg.Database.SQLitePath)
	}
	if cfg.JWT.ExpiryHours != 48 {
		t.Errorf("JWT.ExpiryHours = %d, want 48", cfg.JWT.ExpiryHours)
	}
	if cfg.Scoring.DefaultVariant != "screening" {
		t.Errorf("Scoring.DefaultVariant = %q, want screening", cfg.Scoring.DefaultVariant)
	}
	if got := cfg.Data.Path("users.json"); got != filepath.Join("/var/lib/eduscan", "users.json") {
		t.Errorf("Data.Path() = %q", got)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SERVER_PORT", "invalid"},
		{"DB_DRIVER", "mysql"},
		{"SCORING_VARIANT", "hybrid"},
		{"PURGE_DAYS_OLD", "ninety"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv()
			os.Setenv(tt.key, tt.value)
			defer os.Unsetenv(tt.key)

			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
