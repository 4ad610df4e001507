package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from an .env file.
type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"8080"`
	JWTSecret   string   `env:"JWT_SECRET"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// AdminPhones receive new-submission alerts in addition to admin users with a phone.
	AdminPhones []string `env:"ADMIN_PHONES" envSeparator:","`
	// ClassifierEnabled=false runs the reduced deployment that never calls the classifier.
	ClassifierEnabled bool `env:"CLASSIFIER_ENABLED" envDefault:"true"`

	Database DatabaseConfig `envPrefix:"DB_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	OpenAI   OpenAIConfig   `envPrefix:"OPENAI_"`
	Twilio   TwilioConfig   `envPrefix:"TWILIO_"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"postgres"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT"` // json or text; empty picks by environment
}

type OpenAIConfig struct {
	APIKey  string        `env:"API_KEY"`
	Model   string        `env:"MODEL" envDefault:"gpt-4o"`
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Configured reports whether credentials are present. Absence disables the classifier.
func (c OpenAIConfig) Configured() bool { return c.APIKey != "" }

type TwilioConfig struct {
	AccountSID  string        `env:"ACCOUNT_SID"`
	AuthToken   string        `env:"AUTH_TOKEN"`
	PhoneNumber string        `env:"PHONE_NUMBER"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Configured reports whether all three credentials are present. Absence disables SMS.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.PhoneNumber != ""
}

// Load reads envFile (missing file is fine) and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Secret returns the JWT signing key, falling back to a development key outside production.
func (c *Config) Secret() ([]byte, error) {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret), nil
	}
	if c.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	return []byte("default_super_secret_key"), nil
}
