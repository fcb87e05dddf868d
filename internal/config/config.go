package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	RemoteLedger    = "ledger"
	RemoteBankAPI   = "bankapi"
	RemoteStatement = "statement"

	CacheSQLite = "sqlite"
	CacheFile   = "file"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"CoinBag"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"coinbag"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		JWTSecret      string        `envconfig:"JWT_SECRET"`
	}

	Remote struct {
		Kind string `envconfig:"REMOTE_KIND" default:"ledger"`
	}

	BankAPI struct {
		URL     string        `envconfig:"BANK_API_URL"`
		Token   string        `envconfig:"BANK_API_TOKEN"`
		Timeout time.Duration `envconfig:"BANK_API_TIMEOUT" default:"15s"`
	}

	Portfolio struct {
		Enabled  bool          `envconfig:"PORTFOLIO_ENABLED" default:"false"`
		CacheTTL time.Duration `envconfig:"PORTFOLIO_CACHE_TTL" default:"5m"`
	}

	Statement struct {
		Path      string `envconfig:"STATEMENT_PATH"`
		RulesPath string `envconfig:"STATEMENT_RULES_PATH"`
	}

	Cache struct {
		Kind string `envconfig:"CACHE_KIND" default:"sqlite"`
		Path string `envconfig:"CACHE_PATH" default:"data/coinbag.db"`
	}

	Sync struct {
		PollInterval time.Duration `envconfig:"SYNC_POLL_INTERVAL" default:"5m"`
		FullEvery    int           `envconfig:"SYNC_FULL_EVERY" default:"12"`
	}

	Insights struct {
		CacheSize int           `envconfig:"INSIGHTS_CACHE_SIZE" default:"64"`
		CacheTTL  time.Duration `envconfig:"INSIGHTS_CACHE_TTL" default:"10m"`
	}

	AMQP struct {
		URL      string `envconfig:"AMQP_URL"`
		Exchange string `envconfig:"AMQP_EXCHANGE" default:"coinbag"`
		Queue    string `envconfig:"AMQP_QUEUE" default:"coinbag.refresh"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// SlogLevel maps LOG_LEVEL onto slog. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.App.Port < 1 || c.App.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.App.Port))
	}

	if !slices.Contains([]string{"text", "json"}, c.App.LogFormat) {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.App.LogFormat))
	}

	switch c.Remote.Kind {
	case RemoteLedger:
		if c.DB.Host == "" || c.DB.Name == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required for the ledger remote")
		}
	case RemoteBankAPI:
		problems = append(problems, c.bankAPIProblems()...)
	case RemoteStatement:
		if c.Statement.Path == "" {
			problems = append(problems, "STATEMENT_PATH is required for the statement remote")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid remote kind %q: must be one of %s, %s, %s",
			c.Remote.Kind, RemoteLedger, RemoteBankAPI, RemoteStatement))
	}

	if c.Portfolio.Enabled {
		if c.Remote.Kind != RemoteBankAPI {
			problems = append(problems, c.bankAPIProblems()...)
		}

		if c.Portfolio.CacheTTL <= 0 {
			problems = append(problems, "PORTFOLIO_CACHE_TTL must be positive")
		}
	}

	if c.Cache.Kind != CacheSQLite && c.Cache.Kind != CacheFile {
		problems = append(problems, fmt.Sprintf("invalid cache kind %q: must be %s or %s", c.Cache.Kind, CacheSQLite, CacheFile))
	}

	if c.Cache.Path == "" {
		problems = append(problems, "CACHE_PATH cannot be empty")
	}

	if c.Sync.PollInterval < 0 {
		problems = append(problems, "SYNC_POLL_INTERVAL cannot be negative")
	}

	if c.Insights.CacheSize < 1 {
		problems = append(problems, "INSIGHTS_CACHE_SIZE must be positive")
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL %q: scheme must be amqp or amqps", c.AMQP.URL))
		}

		if c.AMQP.Exchange == "" || c.AMQP.Queue == "" {
			problems = append(problems, "AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}

	return nil
}

func (c *Config) bankAPIProblems() []string {
	var problems []string

	if u, err := url.Parse(c.BankAPI.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("invalid BANK_API_URL %q: must be an http(s) URL", c.BankAPI.URL))
	}

	if c.BankAPI.Timeout < 0 {
		problems = append(problems, "BANK_API_TIMEOUT cannot be negative")
	}

	return problems
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
