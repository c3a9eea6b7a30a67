package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPath is where Load looks for the JSON config when no path is given.
var DefaultPath = filepath.Join("config", "config.json")

// AppConfig holds file and environment driven configuration values.
// A loaded AppConfig is treated as immutable; components receive a copy at construction.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort  string
	AppTitle string
	License  string
	// Session
	JWTSecret     string
	TokenTTLHours int
	CookieSecure  bool
	// TLS, served directly when both are set
	TLSCertFile string
	TLSKeyFile  string
	// Database. DBDriver is "sqlite" (default) or "mysql".
	DBDriver      string
	DBPath        string
	DatabaseURI   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	BusyTimeoutMS int
	// Seed account created on an empty database
	AdminUsername string
	AdminPassword string
	// HTTP
	RateLimitPerMinute int
	AllowedOrigins     []string
	GinMode            string
	GinPath            string
	// Redis for caching and token revocation; empty host disables it
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Uploads
	UploadDir         string
	UploadMaxMB       int
	UploadAllowedExts []string
	// Registration security
	RegisterCaptchaEnabled bool
}

// configSections are the grouped objects accepted in the JSON file. Keys inside a
// section are the same as the flat keys, so both layouts decode into AppConfig.
var configSections = []string{"app", "session", "db", "http", "redis", "log", "upload", "register"}

// Load builds the configuration. Precedence: defaults -> JSON file -> .env -> environment.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	applyDefaults(&cfg)

	if path == "" {
		path = DefaultPath
	}
	if err := loadJSONConfig(path, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config %s: %w", path, err)
	}

	// .env never overrides variables already present in the process environment
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET must be set in the config file or environment")
	}
	return cfg, nil
}

// HomeSlug is the slug of the front page article.
func (c AppConfig) HomeSlug() string {
	return c.AppTitle + ":PP"
}

// TLSEnabled reports whether both certificate and key are configured.
func (c AppConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// UploadMaxBytes is the upload size limit in bytes.
func (c AppConfig) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	// Flat keys first, grouped sections override them
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	for _, section := range configSections {
		msg, ok := raw[section]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, out); err != nil {
			return fmt.Errorf("section %q: %w", section, err)
		}
	}

	// Files written by older installs use upper snake case keys
	legacy := map[string]*string{"APP_TITLE": &out.AppTitle, "LICENSE": &out.License, "DB_FILE": &out.DBPath}
	for key, dst := range legacy {
		if msg, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(msg, &s) == nil && s != "" {
				*dst = s
			}
		}
	}
	return nil
}

// SaveSite persists the site title and license into the JSON file, keeping every other key.
func SaveSite(path, title, license string) error {
	if path == "" {
		path = DefaultPath
	}
	raw := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}

	target := raw
	if app, ok := raw["app"].(map[string]any); ok {
		target = app
	}
	target["AppTitle"] = title
	target["License"] = license
	delete(raw, "APP_TITLE")
	delete(raw, "LICENSE")

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.AppTitle == "" {
		c.AppTitle = "EXAMPLE"
	}
	if c.License == "" {
		c.License = "EXAMPLE"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.DBPath == "" {
		c.DBPath = "data/awe.db"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "awe"
	}
	if c.BusyTimeoutMS == 0 {
		c.BusyTimeoutMS = 5000
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join("static", "uploads")
	}
	if c.UploadMaxMB == 0 {
		c.UploadMaxMB = 64
	}
	if len(c.UploadAllowedExts) == 0 {
		c.UploadAllowedExts = []string{"png", "jpg", "jpeg", "gif", "pdf"}
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	strs := map[string]*string{
		"APP_PORT":       &c.AppPort,
		"APP_TITLE":      &c.AppTitle,
		"LICENSE":        &c.License,
		"JWT_SECRET":     &c.JWTSecret,
		"TLS_CERT_FILE":  &c.TLSCertFile,
		"TLS_KEY_FILE":   &c.TLSKeyFile,
		"DB_DRIVER":      &c.DBDriver,
		"DB_PATH":        &c.DBPath,
		"DATABASE_URI":   &c.DatabaseURI,
		"DB_HOST":        &c.DBHost,
		"DB_PORT":        &c.DBPort,
		"DB_USER":        &c.DBUser,
		"DB_PASSWORD":    &c.DBPassword,
		"DB_NAME":        &c.DBName,
		"ADMIN_USERNAME": &c.AdminUsername,
		"ADMIN_PASSWORD": &c.AdminPassword,
		"GIN_MODE":       &c.GinMode,
		"GIN_PATH":       &c.GinPath,
		"REDIS_HOST":     &c.RedisHost,
		"REDIS_PASSWORD": &c.RedisPassword,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_PATH":       &c.LogPath,
		"UPLOAD_DIR":     &c.UploadDir,
	}
	for key, dst := range strs {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TOKEN_TTL_HOURS":       &c.TokenTTLHours,
		"DB_BUSY_TIMEOUT_MS":    &c.BusyTimeoutMS,
		"RATE_LIMIT_PER_MINUTE": &c.RateLimitPerMinute,
		"REDIS_PORT":            &c.RedisPort,
		"REDIS_DB":              &c.RedisDB,
		"LOG_MAX_SIZE_MB":       &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":       &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":      &c.LogMaxAgeDays,
		"UPLOAD_MAX_MB":         &c.UploadMaxMB,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value %s=%s: %w", key, v, err)
			}
			*dst = i
		}
	}

	bools := map[string]*bool{
		"COOKIE_SECURE":            &c.CookieSecure,
		"LOG_COMPRESS":             &c.LogCompress,
		"REGISTER_CAPTCHA_ENABLED": &c.RegisterCaptchaEnabled,
	}
	for key, dst := range bools {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true"
		}
	}

	c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.UploadAllowedExts = readListEnv("UPLOAD_ALLOWED_EXTS", c.UploadAllowedExts)
	return nil
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
