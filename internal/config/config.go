package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8080"`

	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"welfare_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Session
	JWTSecret     string        `env:"JWT_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"welfare_session"`

	// Documents
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	S3Bucket       string `env:"S3_BUCKET"`
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	MaxUploadBytes int    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// Rate limiting (Redis optional)
	RedisAddr              string `env:"REDIS_ADDR"`
	RedisPassword          string `env:"REDIS_PASSWORD"`
	RedisDB                int    `env:"REDIS_DB" envDefault:"0"`
	RateLimitPerMinute     int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	AuthRateLimitPerMinute int    `env:"AUTH_RATE_LIMIT_PER_MINUTE" envDefault:"10"`

	// Bootstrap admin
	AdminCNIC     string `env:"ADMIN_CNIC"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Administrator"`

	RequestPolicyPath string `env:"REQUEST_POLICY_PATH"`

	// Logging
	LogFlushInterval     time.Duration `env:"LOG_FLUSH_INTERVAL" envDefault:"5s"`
	LogRetentionDays     int           `env:"LOG_RETENTION_DAYS" envDefault:"30"`
	LogRetentionSchedule string        `env:"LOG_RETENTION_SCHEDULE" envDefault:"@daily"`

	SentryDSN   string `env:"SENTRY_DSN"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < 32 && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required")
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
