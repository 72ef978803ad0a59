package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/ngmod/internal/adapters"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity/gemini"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity/inference"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity/local"
	"github.com/iamwavecut/ngmod/internal/adapters/toxicity/openai"
	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/classifier"
	"github.com/iamwavecut/ngmod/internal/config"
	"github.com/iamwavecut/ngmod/internal/db/sqlstore"
	handlers "github.com/iamwavecut/ngmod/internal/handlers/chat"
	"github.com/iamwavecut/ngmod/internal/handlers/moderation"
	"github.com/iamwavecut/ngmod/internal/i18n"
	"github.com/iamwavecut/ngmod/internal/infra"
	"github.com/iamwavecut/ngmod/internal/infrastructure/discord"
	"github.com/iamwavecut/ngmod/internal/infrastructure/telegram"
	"github.com/iamwavecut/ngmod/internal/lifecycle"
	"github.com/iamwavecut/ngmod/internal/observability"
	"github.com/iamwavecut/ngmod/internal/policy/access"
	"github.com/iamwavecut/ngmod/internal/ratewindow"
)

type window interface {
	ratewindow.Window
	lifecycle.Component
}

// wiring holds everything the bot runs with.
type wiring struct {
	store     *sqlstore.Client
	gateway   bot.Gateway
	scorer    adapters.Toxicity
	window    window
	scheduler *moderation.Scheduler
	moderator *handlers.Moderator
	commands  *handlers.Commands
}

func setup(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.SetFormatter(&config.NbFormatter{WithSource: log.Level(cfg.LogLevel) == log.TraceLevel})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	i18n.SetDefaultLanguage(cfg.DefaultLanguage)
	if err := observability.Init(ctx); err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	return &cfg, nil
}

func shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observability.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("cant shutdown observability")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Client, error) {
	if cfg.DB.Driver == config.DBDriverPostgres {
		return sqlstore.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	}
	dir, err := infra.EnsureDir(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	path := infra.ResolveDataPath(dir, cfg.DB.DSN)
	return sqlstore.NewSQLiteClient(ctx, filepath.Dir(path), filepath.Base(path))
}

func newGateway(cfg *config.Config) (bot.Gateway, error) {
	var (
		gw  bot.Gateway
		err error
	)
	switch cfg.Gateway {
	case config.GatewayTelegram:
		gw, err = telegram.NewGateway(cfg.TelegramToken)
	default:
		gw, err = discord.NewGateway(cfg.DiscordToken)
	}
	if err != nil {
		return nil, err
	}
	return bot.WithTimeout(gw, cfg.GatewayTimeout), nil
}

// newScorer returns a nil scorer for the "none" backend, which leaves the toxicity check off.
func newScorer(ctx context.Context, cfg *config.Config) (adapters.Toxicity, error) {
	logger := log.WithFields(log.Fields{
		"object":  "Toxicity",
		"backend": cfg.Toxicity.Backend,
	})
	t := cfg.Toxicity
	switch t.Backend {
	case config.ToxicityInference:
		return inference.NewInference(t.APIURL, t.APIKey, t.Timeout, t.MaxRetries, logger), nil
	case config.ToxicityOpenAI:
		return openai.NewOpenAI(t.APIKey, t.Model, t.BaseURL, logger), nil
	case config.ToxicityGemini:
		return gemini.NewGemini(ctx, t.APIKey, t.Model, logger)
	case config.ToxicityLocal:
		dir, err := infra.EnsureDir(infra.ResolveDataPath(cfg.DotPath, t.ModelsDir))
		if err != nil {
			return nil, fmt.Errorf("prepare models dir: %w", err)
		}
		return local.NewModel(dir, t.Model, logger)
	default:
		return nil, nil
	}
}

func newWindow(ctx context.Context, cfg *config.Config) (window, error) {
	r := cfg.RateLimit
	if r.Backend == config.RateBackendRedis {
		return ratewindow.NewRedisFromURL(ctx, r.RedisURL, r.Limit, r.Interval)
	}
	return ratewindow.NewMemory(r.Limit, r.Interval), nil
}

// wire builds the components in dependency order. The store is closed again
// when a later step fails.
func wire(ctx context.Context, cfg *config.Config) (w *wiring, err error) {
	w = &wiring{}
	if w.store, err = openStore(ctx, cfg); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = w.store.Close()
		}
	}()

	if w.gateway, err = newGateway(cfg); err != nil {
		return nil, err
	}
	if w.scorer, err = newScorer(ctx, cfg); err != nil {
		return nil, err
	}
	if w.window, err = newWindow(ctx, cfg); err != nil {
		return nil, err
	}

	policies, err := classifier.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	verdicts, err := classifier.New(w.scorer, w.window, policies,
		classifier.WithThreshold(cfg.Toxicity.Threshold),
		classifier.WithTimeout(cfg.Toxicity.Timeout),
	)
	if err != nil {
		return nil, err
	}

	service := bot.NewService(w.gateway, w.store, cfg.DefaultLanguage)
	auditor := moderation.NewAuditor(w.store, w.gateway, cfg.DefaultLanguage)
	w.scheduler = moderation.NewScheduler(w.store, w.gateway, auditor)
	gate := access.NewGate(cfg.OwnerID, w.store)

	w.moderator = handlers.NewModerator(service, verdicts, auditor)
	w.commands = handlers.NewCommands(service, gate, w.scheduler, auditor, cfg.CommandPrefix)
	return w, nil
}

// scorerHooks releases scorer clients that hold connections.
func (w *wiring) scorerHooks() lifecycle.Hooks {
	closer, ok := w.scorer.(io.Closer)
	if !ok {
		return lifecycle.Hooks{}
	}
	return lifecycle.Hooks{OnStop: func(context.Context) error { return closer.Close() }}
}
