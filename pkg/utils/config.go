package utils

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "bookhub.json5"

type Config struct {
	Driver         string     `json:"driver"` // "sqlite" or "postgres"
	DBPath         string     `json:"db_path"`
	PostgresDSN    string     `json:"postgres_dsn"`
	HTTPAddr       string     `json:"http_addr"`
	GRPCAddr       string     `json:"grpc_addr"`
	EventsAddr     string     `json:"events_addr"`
	LogLevel       string     `json:"log_level"`
	DefaultSource  string     `json:"default_source"`
	DefaultCity    string     `json:"default_city"`
	CandidateLimit int        `json:"candidate_limit"`
	Auth           AuthConfig `json:"auth"`
}

type AuthConfig struct {
	JWTSecret   string        `json:"jwt_secret"`
	JWTIssuer   string        `json:"jwt_issuer"`
	JWTTTLHours int           `json:"jwt_ttl_hours"`
	JWTDuration time.Duration `json:"-"`
}

func Defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Driver:         "sqlite",
		DBPath:         filepath.Join(home, ".bookhub", "books.db"),
		HTTPAddr:       ":8080",
		GRPCAddr:       ":9090",
		EventsAddr:     ":7070",
		LogLevel:       "info",
		DefaultSource:  "unknown",
		DefaultCity:    "Владивосток",
		CandidateLimit: 5,
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "bookhub",
			JWTTTLHours: 24,
		},
	}
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadConfig reads name and then <name>.local.<ext>, the latter taking
// priority. Missing files are not an error; found reports whether any
// file was read.
func ReadConfig(name string) (cfg Config, found bool, err error) {
	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	for _, path := range []string{
		name,
		filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext)),
	} {
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return cfg, found, fmt.Errorf("read %s: %w", path, err)
		}
		var layer Config
		if err := json5.Unmarshal(b, &layer); err != nil {
			return cfg, found, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := mergo.Merge(&cfg, layer, mergo.WithOverride); err != nil {
			return cfg, found, fmt.Errorf("merge %s: %w", path, err)
		}
		if found {
			slog.Info("merging config with local overrides", "local", path)
		}
		found = true
	}
	return cfg, found, nil
}

// Load layers defaults, the config file (if any) and BOOKHUB_*
// environment variables, in increasing priority.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	fileCfg, _, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge config: %w", err)
	}
	applyEnv(&cfg)

	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch cfg.Driver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if cfg.Driver == "postgres" && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("driver postgres needs postgres_dsn")
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 5
	}
	if cfg.Auth.JWTTTLHours <= 0 {
		cfg.Auth.JWTTTLHours = 24
	}
	cfg.Auth.JWTDuration = time.Duration(cfg.Auth.JWTTTLHours) * time.Hour
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Driver, "BOOKHUB_DRIVER")
	setString(&cfg.DBPath, "BOOKHUB_DB_PATH")
	setString(&cfg.PostgresDSN, "BOOKHUB_POSTGRES_DSN")
	setString(&cfg.HTTPAddr, "BOOKHUB_HTTP_ADDR")
	setString(&cfg.GRPCAddr, "BOOKHUB_GRPC_ADDR")
	setString(&cfg.EventsAddr, "BOOKHUB_EVENTS_ADDR")
	setString(&cfg.LogLevel, "BOOKHUB_LOG_LEVEL")
	setString(&cfg.DefaultSource, "BOOKHUB_DEFAULT_SOURCE")
	setString(&cfg.DefaultCity, "BOOKHUB_DEFAULT_CITY")
	setInt(&cfg.CandidateLimit, "BOOKHUB_CANDIDATE_LIMIT")
	setString(&cfg.Auth.JWTSecret, "BOOKHUB_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "BOOKHUB_JWT_ISSUER")
	setInt(&cfg.Auth.JWTTTLHours, "BOOKHUB_JWT_TTL_HOURS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// setInt keeps the current value when the variable does not parse.
func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
