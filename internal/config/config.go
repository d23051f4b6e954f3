package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Payment   PaymentConfig
	Notify    NotifyConfig
	Booking   BookingConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

// DSN renders the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverMySQL {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Per client IP
	RequestsPerSecond float64
	BurstSize         int
	IdleTTL           time.Duration
}

type PaymentConfig struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
	ReturnURL   string
	CancelURL   string
	Timeout     time.Duration

	// Circuit breaker around the provider
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

type NotifyConfig struct {
	// Empty broker list selects the log-only notifier.
	KafkaBrokers []string
	KafkaTopic   string
	WriteTimeout time.Duration
}

type BookingConfig struct {
	// strict | unchecked
	DefaultCreationMode string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(v.GetString("DB_DRIVER")),
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:          v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			Endpoint:    v.GetString("OTLP_ENDPOINT"),
			SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			MaxAge:         v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			BurstSize:         v.GetInt("RATE_LIMIT_BURST"),
			IdleTTL:           v.GetDuration("RATE_LIMIT_IDLE_TTL"),
		},
		Payment: PaymentConfig{
			BaseURL:            v.GetString("PAYOS_BASE_URL"),
			ClientID:           v.GetString("PAYOS_CLIENT_ID"),
			APIKey:             v.GetString("PAYOS_API_KEY"),
			ChecksumKey:        v.GetString("PAYOS_CHECKSUM_KEY"),
			ReturnURL:          v.GetString("PAYMENT_RETURN_URL"),
			CancelURL:          v.GetString("PAYMENT_CANCEL_URL"),
			Timeout:            v.GetDuration("PAYMENT_TIMEOUT"),
			BreakerMaxFailures: v.GetUint32("PAYMENT_BREAKER_MAX_FAILURES"),
			BreakerOpenTimeout: v.GetDuration("PAYMENT_BREAKER_OPEN_TIMEOUT"),
		},
		Notify: NotifyConfig{
			KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:   v.GetString("KAFKA_NOTIFY_TOPIC"),
			WriteTimeout: v.GetDuration("NOTIFY_WRITE_TIMEOUT"),
		},
		Booking: BookingConfig{
			DefaultCreationMode: strings.ToLower(v.GetString("BOOKING_DEFAULT_MODE")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"APP_NAME":    "clinicbook-api",
		"APP_ENV":     "development",
		"APP_VERSION": "0.0.0",

		"SERVER_HOST":             "0.0.0.0",
		"SERVER_PORT":             8080,
		"SERVER_READ_TIMEOUT":     15 * time.Second,
		"SERVER_WRITE_TIMEOUT":    15 * time.Second,
		"SERVER_IDLE_TIMEOUT":     60 * time.Second,
		"SERVER_SHUTDOWN_TIMEOUT": 30 * time.Second,

		"DB_DRIVER":               DriverPostgres,
		"DB_HOST":                 "localhost",
		"DB_PORT":                 5432,
		"DB_NAME":                 "clinicbook",
		"DB_USER":                 "clinicbook",
		"DB_PASSWORD":             "",
		"DB_SSLMODE":              "require",
		"DB_MAX_OPEN_CONNS":       25,
		"DB_MAX_IDLE_CONNS":       10,
		"DB_CONN_MAX_LIFETIME":    30 * time.Minute,
		"DB_CONN_MAX_IDLE_TIME":   5 * time.Minute,
		"DB_SLOW_QUERY_THRESHOLD": 200 * time.Millisecond,

		"JWT_SECRET":      "",
		"JWT_ACCESS_TTL":  15 * time.Minute,
		"JWT_REFRESH_TTL": 7 * 24 * time.Hour,
		"JWT_ISSUER":      "clinicbook-api",

		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
		"LOG_OUTPUT": "stdout",

		"TRACING_ENABLED":      false,
		"TRACING_SERVICE_NAME": "clinicbook-api",
		"OTLP_ENDPOINT":        "localhost:4318",
		"TRACING_SAMPLE_RATE":  0.1,

		"CORS_ALLOWED_ORIGINS": "http://localhost:3000",
		"CORS_ALLOWED_METHODS": "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		"CORS_ALLOWED_HEADERS": "Authorization,Content-Type,X-Request-ID",
		"CORS_MAX_AGE":         12 * time.Hour,

		"RATE_LIMIT_RPS":      100.0,
		"RATE_LIMIT_BURST":    200,
		"RATE_LIMIT_IDLE_TTL": 5 * time.Minute,

		"PAYOS_BASE_URL":               "https://api-merchant.payos.vn",
		"PAYOS_CLIENT_ID":              "",
		"PAYOS_API_KEY":                "",
		"PAYOS_CHECKSUM_KEY":           "",
		"PAYMENT_RETURN_URL":           "http://localhost:8080/api/v1/medical-records/payment-success",
		"PAYMENT_CANCEL_URL":           "http://localhost:8080/api/v1/medical-records/payment-cancel",
		"PAYMENT_TIMEOUT":              10 * time.Second,
		"PAYMENT_BREAKER_MAX_FAILURES": 5,
		"PAYMENT_BREAKER_OPEN_TIMEOUT": 30 * time.Second,

		"KAFKA_BROKERS":        "",
		"KAFKA_NOTIFY_TOPIC":   "clinicbook.notifications.email",
		"NOTIFY_WRITE_TIMEOUT": 5 * time.Second,

		"BOOKING_DEFAULT_MODE": "strict",
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// validate enforces production security requirements.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.IsProduction() {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	switch cfg.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported (postgres, mysql)", cfg.Database.Driver))
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.IsProduction() {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	switch cfg.Booking.DefaultCreationMode {
	case "strict", "unchecked":
	default:
		errs = append(errs, fmt.Sprintf("BOOKING_DEFAULT_MODE %q must be strict or unchecked", cfg.Booking.DefaultCreationMode))
	}

	if cfg.App.IsProduction() && (cfg.Payment.ClientID == "" || cfg.Payment.APIKey == "" || cfg.Payment.ChecksumKey == "") {
		errs = append(errs, "PAYOS_CLIENT_ID, PAYOS_API_KEY and PAYOS_CHECKSUM_KEY are required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
