package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const (
	GatewayDiscord  = "discord"
	GatewayTelegram = "telegram"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	ToxicityInference = "inference"
	ToxicityOpenAI    = "openai"
	ToxicityGemini    = "gemini"
	ToxicityLocal     = "local"
	ToxicityNone      = "none"

	RateBackendMemory = "memory"
	RateBackendRedis  = "redis"
)

type (
	Config struct {
		Gateway         string        `env:"GATEWAY,default=discord"`
		DiscordToken    string        `env:"DISCORD_TOKEN"`
		TelegramToken   string        `env:"TELEGRAM_TOKEN"`
		OwnerID         string        `env:"OWNER_ID,required"`
		CommandPrefix   string        `env:"COMMAND_PREFIX,default=!"`
		DefaultLanguage string        `env:"LANG,default=en"`
		EnabledHandlers []string      `env:"HANDLERS,default=moderator,commands"`
		LogLevel        int           `env:"LOG_LEVEL,default=4"`
		DotPath         string        `env:"DOT_PATH,default=~/.ngmod"`
		Workers         int           `env:"WORKERS,default=8"`
		GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
		PolicyFile      string        `env:"POLICY_FILE"`
		DB              DB
		Toxicity        Toxicity
		RateLimit       RateLimit
		Metrics         Metrics
	}

	DB struct {
		Driver string `env:"DB_DRIVER,default=sqlite"`
		DSN    string `env:"DB_DSN,default=bot.db"`
	}

	Toxicity struct {
		Backend    string        `env:"TOXICITY_BACKEND,default=inference"`
		APIURL     string        `env:"TOXICITY_API_URL,default=https://api-inference.huggingface.co/models/unitary/toxic-bert"`
		APIKey     string        `env:"TOXICITY_API_KEY"`
		BaseURL    string        `env:"TOXICITY_BASE_URL"`
		Model      string        `env:"TOXICITY_MODEL"`
		ModelsDir  string        `env:"TOXICITY_MODELS_DIR,default=models"`
		Threshold  float64       `env:"TOXICITY_THRESHOLD,default=0.7"`
		Timeout    time.Duration `env:"TOXICITY_TIMEOUT,default=5s"`
		MaxRetries int           `env:"TOXICITY_MAX_RETRIES,default=1"`
	}

	RateLimit struct {
		Backend  string        `env:"RATE_BACKEND,default=memory"`
		Limit    int           `env:"RATE_LIMIT,default=5"`
		Interval time.Duration `env:"RATE_INTERVAL,default=7s"`
		RedisURL string        `env:"REDIS_URL,default=redis://localhost:6379/0"`
	}

	Metrics struct {
		Enabled bool   `env:"METRICS_ENABLED,default=false"`
		Addr    string `env:"METRICS_ADDR,default=:2112"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads an optional .env file and the NG_ prefixed environment once per process.
func Load() (Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.WithField("error", err.Error()).Trace("no .env file loaded")
		}
		cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper("NG_", lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Gateway {
	case GatewayDiscord, GatewayTelegram:
	default:
		return fmt.Errorf("unknown gateway %q", c.Gateway)
	}
	switch c.DB.Driver {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	switch c.Toxicity.Backend {
	case ToxicityInference, ToxicityOpenAI, ToxicityGemini, ToxicityLocal, ToxicityNone:
	default:
		return fmt.Errorf("unknown toxicity backend %q", c.Toxicity.Backend)
	}
	switch c.RateLimit.Backend {
	case RateBackendMemory, RateBackendRedis:
	default:
		return fmt.Errorf("unknown rate backend %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Interval <= 0 {
		return fmt.Errorf("rate interval must be positive, got %s", c.RateLimit.Interval)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
