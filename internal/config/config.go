// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Mail         MailConfig         `koanf:"mail"`
	Onboarding   OnboardingConfig   `koanf:"onboarding"`
	License      LicenseConfig      `koanf:"license"`
	Storage      StorageConfig      `koanf:"storage"`
	Scheduler    SchedulerConfig    `koanf:"scheduler"`
	Appointments AppointmentsConfig `koanf:"appointments"`
	Metrics      MetricsConfig      `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath      string        `koanf:"private_key_path"`
	PublicKeyPath       string        `koanf:"public_key_path"`
	AdminSessionExpire  time.Duration `koanf:"admin_session_expire"`
	BarberSessionExpire time.Duration `koanf:"barber_session_expire"`
	Issuer              string        `koanf:"issuer"`
	Audience            string        `koanf:"audience"`
	AutoGenerateKeys    bool          `koanf:"auto_generate_keys"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// MailConfig controls outbound email. When Enabled is false, or credentials
// are missing, messages are written to the log instead of sent.
type MailConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	FromAddress string `koanf:"from_address"`
	FromName    string `koanf:"from_name"`
	SSL         bool   `koanf:"ssl"`
}

func (m MailConfig) Configured() bool {
	return m.Enabled && m.Username != "" && m.Password != ""
}

type OnboardingConfig struct {
	CodeTTL       time.Duration `koanf:"code_ttl"`
	ResetTokenTTL time.Duration `koanf:"reset_token_ttl"`
	ResetURLBase  string        `koanf:"reset_url_base"`
}

type LicenseConfig struct {
	KeyPrefix           string `koanf:"key_prefix"`
	MaxGenerateAttempts int    `koanf:"max_generate_attempts"`
}

type StorageConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Endpoint      string        `koanf:"endpoint"`
	AccessKey     string        `koanf:"access_key"`
	SecretKey     string        `koanf:"secret_key"`
	Bucket        string        `koanf:"bucket"`
	UseSSL        bool          `koanf:"use_ssl"`
	PresignExpire time.Duration `koanf:"presign_expire"`
	MaxUploadSize int64         `koanf:"max_upload_size"`
}

type SchedulerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

type AppointmentsConfig struct {
	Timezone string `koanf:"timezone"`
}

func (a AppointmentsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

const (
	minCodeTTL = 10 * time.Minute
	maxCodeTTL = 15 * time.Minute
)

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "BarberMaster",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             3001,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       false,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.admin_session_expire":  "24h",
		"jwt.barber_session_expire": "168h",
		"jwt.issuer":                "barbermaster",
		"jwt.audience":              "barbermaster-api",
		"jwt.private_key_path":      "keys/private.pem",
		"jwt.public_key_path":       "keys/public.pem",
		"jwt.auto_generate_keys":    false,

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:5173"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "barbermaster",

		"mail.enabled":      false,
		"mail.host":         "smtp.gmail.com",
		"mail.port":         465,
		"mail.ssl":          true,
		"mail.from_name":    "BarberMaster",
		"mail.from_address": "no-reply@barbermaster.local",

		"onboarding.code_ttl":        "10m",
		"onboarding.reset_token_ttl": "1h",
		"onboarding.reset_url_base":  "http://localhost:5173/reset-password",

		"license.key_prefix":            "BARBER",
		"license.max_generate_attempts": 5,

		"storage.enabled":         false,
		"storage.bucket":          "barbermaster",
		"storage.use_ssl":         false,
		"storage.presign_expire":  "1h",
		"storage.max_upload_size": 5 << 20,

		"scheduler.enabled":          true,
		"scheduler.cleanup_interval": "15m",

		"appointments.timezone": "America/Sao_Paulo",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ADMIN_SESSION_EXPIRE":    "jwt.admin_session_expire",
	"JWT_BARBER_SESSION_EXPIRE":   "jwt.barber_session_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"JWT_AUTO_GENERATE_KEYS":      "jwt.auto_generate_keys",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"EMAIL_ENABLED":               "mail.enabled",
	"EMAIL_HOST":                  "mail.host",
	"EMAIL_PORT":                  "mail.port",
	"EMAIL_USER":                  "mail.username",
	"EMAIL_PASS":                  "mail.password",
	"EMAIL_FROM":                  "mail.from_address",
	"VERIFICATION_CODE_TTL":       "onboarding.code_ttl",
	"RESET_TOKEN_TTL":             "onboarding.reset_token_ttl",
	"RESET_URL_BASE":              "onboarding.reset_url_base",
	"LICENSE_KEY_PREFIX":          "license.key_prefix",
	"STORAGE_ENABLED":             "storage.enabled",
	"STORAGE_ENDPOINT":            "storage.endpoint",
	"STORAGE_ACCESS_KEY":          "storage.access_key",
	"STORAGE_SECRET_KEY":          "storage.secret_key",
	"STORAGE_BUCKET":              "storage.bucket",
	"STORAGE_USE_SSL":             "storage.use_ssl",
	"SCHEDULER_ENABLED":           "scheduler.enabled",
	"SCHEDULER_CLEANUP_INTERVAL":  "scheduler.cleanup_interval",
	"APPOINTMENTS_TIMEZONE":       "appointments.timezone",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

//nolint:gocyclo // flat list of independent checks
func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.JWT.AdminSessionExpire <= 0 || c.JWT.BarberSessionExpire <= 0 {
		return fmt.Errorf("session lifetimes must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.JWT.AutoGenerateKeys {
			return fmt.Errorf("jwt.auto_generate_keys is not allowed in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Onboarding.CodeTTL < minCodeTTL || c.Onboarding.CodeTTL > maxCodeTTL {
		return fmt.Errorf(
			"onboarding.code_ttl must be between %s and %s",
			minCodeTTL,
			maxCodeTTL,
		)
	}

	if c.Onboarding.ResetTokenTTL <= 0 {
		return fmt.Errorf("onboarding.reset_token_ttl must be positive")
	}

	if c.License.KeyPrefix == "" {
		return fmt.Errorf("license.key_prefix is required")
	}

	if c.License.MaxGenerateAttempts < 1 {
		return fmt.Errorf("license.max_generate_attempts must be at least 1")
	}

	if c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.Port <= 0) {
		return fmt.Errorf("mail.host and mail.port are required when mail is enabled")
	}

	if c.Storage.Enabled && (c.Storage.Endpoint == "" || c.Storage.Bucket == "") {
		return fmt.Errorf("storage.endpoint and storage.bucket are required when storage is enabled")
	}

	if c.Scheduler.Enabled && c.Scheduler.CleanupInterval <= 0 {
		return fmt.Errorf("scheduler.cleanup_interval must be positive")
	}

	if _, err := c.Appointments.Location(); err != nil {
		return fmt.Errorf("appointments.timezone: %w", err)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
