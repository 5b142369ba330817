package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	GitHub    GitHubConfig
	Secrets   SecretsConfig
	Session   SessionConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	OAuth     OAuthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig describes the relational store used when StoreDriver is "postgres".
type DatabaseConfig struct {
	Driver      string
	URL         string
	MaxConns    int32
	ConnRetries int
	RetryDelay  time.Duration
	AutoMigrate bool
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Scopes       []string
	HTTPTimeout  time.Duration
}

// SecretsConfig carries the process-wide passphrase for the credential cipher.
type SecretsConfig struct {
	TokenSecretKey string
}

type SessionConfig struct {
	SigningKey   string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	FrontendURL  string
	LandingPath  string
	FailurePath  string
}

type WorkerConfig struct {
	Enabled  bool
	Interval time.Duration
	PageSize int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type OAuthConfig struct {
	StateCheck bool
	StateTTL   time.Duration
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// LandingURL is where the browser goes after a successful login.
func (c *Config) LandingURL() string {
	return strings.TrimRight(c.Session.FrontendURL, "/") + c.Session.LandingPath
}

// FailureURL is where the browser goes after any login failure.
func (c *Config) FailureURL() string {
	return strings.TrimRight(c.Session.FrontendURL, "/") + c.Session.FailurePath
}

// LoadConfig loads configuration from environment variables and .env file.
// Missing required values are reported together in the returned error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_CONNECT_RETRIES", 10)
	viper.SetDefault("DB_RETRY_DELAY", "3s")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("MONGODB_DATABASE", "insightboard")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("GITHUB_AUTH_URL", "https://github.com/login/oauth/authorize")
	viper.SetDefault("GITHUB_TOKEN_URL", "https://github.com/login/oauth/access_token")
	viper.SetDefault("GITHUB_API_URL", "https://api.github.com")
	viper.SetDefault("GITHUB_SCOPES", "read:user repo")
	viper.SetDefault("GITHUB_HTTP_TIMEOUT", "10s")
	viper.SetDefault("SESSION_TTL", "168h")
	viper.SetDefault("SESSION_COOKIE_NAME", "auth_token")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("FRONTEND_LANDING_PATH", "/dashboard")
	viper.SetDefault("FRONTEND_FAILURE_PATH", "/login?error=auth_failed")
	viper.SetDefault("WORKER_ENABLED", true)
	viper.SetDefault("WORKER_INTERVAL", "5m")
	viper.SetDefault("WORKER_PAGE_SIZE", 100)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("OAUTH_STATE_CHECK", false)
	viper.SetDefault("OAUTH_STATE_TTL", "10m")

	tokenSecret := os.Getenv("TOKEN_SECRET_KEY")
	signingKey := os.Getenv("SESSION_SECRET_KEY")
	if signingKey == "" {
		signingKey = tokenSecret
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(viper.GetString("STORE_DRIVER")),
			URL:         databaseURL(),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			ConnRetries: viper.GetInt("DB_CONNECT_RETRIES"),
			RetryDelay:  viper.GetDuration("DB_RETRY_DELAY"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		GitHub: GitHubConfig{
			ClientID:     viper.GetString("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			AuthURL:      viper.GetString("GITHUB_AUTH_URL"),
			TokenURL:     viper.GetString("GITHUB_TOKEN_URL"),
			APIURL:       viper.GetString("GITHUB_API_URL"),
			Scopes:       strings.Fields(viper.GetString("GITHUB_SCOPES")),
			HTTPTimeout:  viper.GetDuration("GITHUB_HTTP_TIMEOUT"),
		},
		Secrets: SecretsConfig{
			TokenSecretKey: tokenSecret,
		},
		Session: SessionConfig{
			SigningKey:  signingKey,
			TTL:         viper.GetDuration("SESSION_TTL"),
			CookieName:  viper.GetString("SESSION_COOKIE_NAME"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
			LandingPath: viper.GetString("FRONTEND_LANDING_PATH"),
			FailurePath: viper.GetString("FRONTEND_FAILURE_PATH"),
		},
		Worker: WorkerConfig{
			Enabled:  viper.GetBool("WORKER_ENABLED"),
			Interval: viper.GetDuration("WORKER_INTERVAL"),
			PageSize: viper.GetInt("WORKER_PAGE_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		OAuth: OAuthConfig{
			StateCheck: viper.GetBool("OAUTH_STATE_CHECK"),
			StateTTL:   viper.GetDuration("OAUTH_STATE_TTL"),
		},
	}
	// Secure cookies are mandatory in production; elsewhere COOKIE_SECURE decides.
	cfg.Session.CookieSecure = cfg.IsProduction() || viper.GetBool("COOKIE_SECURE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value the process cannot start without is present.
func (c *Config) Validate() error {
	var missing []string
	if c.GitHub.ClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if c.GitHub.ClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if c.Secrets.TokenSecretKey == "" {
		missing = append(missing, "TOKEN_SECRET_KEY")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL (or DB_HOST, DB_USER, DB_DATABASE)")
		}
	case "mongo":
		if c.MongoDB.URI == "" {
			missing = append(missing, "MONGODB_URI")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want postgres or mongo)", c.Database.Driver)
	}
	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Worker.Interval <= 0 {
		return fmt.Errorf("WORKER_INTERVAL must be positive, got %s", c.Worker.Interval)
	}
	if c.Worker.PageSize <= 0 || c.Worker.PageSize > 100 {
		return fmt.Errorf("WORKER_PAGE_SIZE must be between 1 and 100, got %d", c.Worker.PageSize)
	}
	return nil
}

// CheckDedicatedWorker rejects a configuration where the API server would
// also host the scheduler, so a separate worker process never sweeps
// alongside it.
func (c *Config) CheckDedicatedWorker() error {
	if c.Worker.Enabled {
		return fmt.Errorf("WORKER_ENABLED must be false when running the dedicated worker; the API server would run a second scheduler")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// DB_HOST/DB_USER/DB_PASSWORD/DB_DATABASE variables.
func databaseURL() string {
	if v := viper.GetString("DATABASE_URL"); v != "" {
		return v
	}
	host := viper.GetString("DB_HOST")
	user := viper.GetString("DB_USER")
	name := viper.GetString("DB_DATABASE")
	if host == "" || user == "" || name == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + viper.GetString("DB_PORT"),
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(viper.GetString("DB_SSLMODE")),
	}
	return u.String()
}
