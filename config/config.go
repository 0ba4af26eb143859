package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting the application needs. It is parsed
// once at process start and handed to the components that need it; nothing
// reads the environment after Load returns.
type Config struct {
	Env  string `env:"NODE_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"5000"`

	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret       string        `env:"JWT_SECRET"`
	JWTExpire       time.Duration `env:"JWT_EXPIRE" envDefault:"720h"`
	JWTCookieExpire time.Duration `env:"JWT_COOKIE_EXPIRE" envDefault:"720h"`

	GeocoderBaseURL string `env:"GEOCODER_BASE_URL" envDefault:"https://www.mapquestapi.com/geocoding/v1"`
	GeocoderAPIKey  string `env:"GEOCODER_API_KEY"`

	EmailBaseURL string `env:"EMAIL_BASE_URL" envDefault:"https://api.resend.com"`
	EmailAPIKey  string `env:"EMAIL_API_KEY"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@devcamper.io"`

	FileUploadPath string `env:"FILE_UPLOAD_PATH" envDefault:"./public/uploads"`
	MaxFileUpload  int64  `env:"MAX_FILE_UPLOAD" envDefault:"1000000"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`

	AllowedOrigins []string `env:"ACCEPTED_ORIGINS" envDefault:"*" envSeparator:","`

	// Login attempts per second allowed from a single client address.
	LoginRate  float64 `env:"LOGIN_RATE" envDefault:"1"`
	LoginBurst int     `env:"LOGIN_BURST" envDefault:"5"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from environment: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings
// (secure cookies, no relaxed CORS).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
