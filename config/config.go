package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver      string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CatalogTTL    time.Duration

	SecretKey           string
	SecretKeyCiphertext string
	Algorithm           string
	AccessTokenTTL      time.Duration
	BcryptCost          int

	EmailFrom     string
	EmailPassword string
	SMTPHost      string
	SMTPPort      int
	FrontendURL   string

	StripeSecretKey      string
	StripePublishableKey string

	SpacesKey      string
	SpacesSecret   string
	SpacesEndpoint string
	SpacesRegion   string
	SpacesBucket   string

	AWSRegion string
	AWSAccess string
	AWSSecret string

	CORSOrigins []string
}

// Load reads a .env file when one is present and then the process
// environment. A missing .env is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "release"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "mongo")),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "golang-physiodb"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SecretKey:           os.Getenv("SECRET_KEY"),
		SecretKeyCiphertext: os.Getenv("SECRET_KEY_CIPHERTEXT"),
		Algorithm:           getEnv("ALGORITHM", "HS256"),

		EmailFrom:     os.Getenv("EMAIL_ORIGEN"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5500"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),

		SpacesKey:      os.Getenv("SPACES_KEY"),
		SpacesSecret:   os.Getenv("SPACES_SECRET"),
		SpacesEndpoint: os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:   getEnv("SPACES_REGION", "us-east-1"),
		SpacesBucket:   os.Getenv("SPACES_BUCKET"),

		AWSRegion: getEnv("AWS_REGION", "us-east-2"),
		AWSAccess: os.Getenv("AWS_ACCESS"),
		AWSSecret: os.Getenv("AWS_SECRET"),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	minutes, err := getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = time.Duration(minutes) * time.Minute

	catalogSeconds, err := getInt("CATALOG_CACHE_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.CatalogTTL = time.Duration(catalogSeconds) * time.Second

	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 465); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string

	switch c.DBDriver {
	case "mongo":
		if c.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want mongo, postgres or memory)", c.DBDriver)
	}

	if c.SecretKey == "" && c.SecretKeyCiphertext == "" {
		missing = append(missing, "SECRET_KEY or SECRET_KEY_CIPHERTEXT")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) VideoSigningEnabled() bool {
	return c.SpacesBucket != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
