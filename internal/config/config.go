package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=shop_identity"`
	Password    string `env:"PASSWORD,default=shop_identity_password"`
	DBName      string `env:"DB,default=shop_identity_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// JWTConfig holds the session token settings. Secret has no default:
// the process must not start without one.
type JWTConfig struct {
	Secret      string   `env:"SECRET,required"`
	TokenExpiry Duration `env:"TOKEN_EXPIRY,default=7d"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	PasswordMinLength int      `env:"PASSWORD_MIN_LENGTH,default=6"`
	ResetTokenWindow  Duration `env:"RESET_TOKEN_WINDOW,default=10m"`
	SyncMarkerTTL     Duration `env:"SYNC_MARKER_TTL,default=15m"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the connection string in URL form, as expected by the migrator
func (p PostgresConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%s", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsProduction reports whether cookies must carry the secure flag
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, nil)
}

// LoadFrom loads configuration from the given lookuper instead of the process environment
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	return load(ctx, lookuper)
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	ec := &envconfig.Config{Target: &config}
	if lookuper != nil {
		ec.Lookuper = lookuper
	}

	if err := envconfig.ProcessWith(ctx, ec); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters long", minSecretLength)
	}

	if config.Security.PasswordMinLength < 1 {
		return nil, fmt.Errorf("PASSWORD_MIN_LENGTH must be positive")
	}

	return &config, nil
}
