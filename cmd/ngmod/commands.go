package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/ngmod/internal/bot"
	"github.com/iamwavecut/ngmod/internal/errors"
	"github.com/iamwavecut/ngmod/internal/lifecycle"
	"github.com/iamwavecut/ngmod/internal/observability"
	"github.com/iamwavecut/ngmod/internal/policy/access"
)

const shutdownTimeout = 15 * time.Second

func runBot(c *cli.Context) error {
	cfg, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer shutdownObservability()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := wire(ctx, cfg)
	if err != nil {
		return err
	}

	runtime := lifecycle.NewRuntime().
		Add("store", lifecycle.Hooks{OnStop: func(context.Context) error { return w.store.Close() }}).
		Add("toxicity", w.scorerHooks()).
		Add("rate_window", w.window).
		Add("gateway", w.gateway).
		Add("scheduler", w.scheduler)
	if cfg.Metrics.Enabled {
		runtime.Add("metrics", observability.NewMetricsServer(cfg.Metrics.Addr))
	}

	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Error("shutdown finished with errors")
		}
	}()

	updates, err := w.gateway.Updates(ctx)
	if err != nil {
		return err
	}

	bot.RegisterUpdateHandler("moderator", w.moderator)
	bot.RegisterUpdateHandler("commands", w.commands)
	processor := bot.NewUpdateProcessor(cfg.EnabledHandlers, cfg.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return processor.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.WithError(context.Cause(gctx)).Info("stopping update processing")
		return nil
	})

	log.WithFields(log.Fields{
		"gateway":  cfg.Gateway,
		"handlers": cfg.EnabledHandlers,
		"workers":  cfg.Workers,
	}).Info("bot is running")

	return g.Wait()
}

func runMigrate(c *cli.Context) error {
	cfg, err := setup(c.Context)
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log.WithField("driver", cfg.DB.Driver).Info("database is up to date")
	return nil
}

func runSweep(c *cli.Context) error {
	cfg, err := setup(c.Context)
	if err != nil {
		return err
	}
	w, err := wire(c.Context, cfg)
	if err != nil {
		return err
	}
	defer w.store.Close()
	defer w.scorerHooks().Stop(c.Context)

	report, err := w.scheduler.Sweep(c.Context)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"due":     report.Due,
		"unmuted": report.Unmuted,
		"gone":    report.Gone,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("sweep finished")
	return nil
}

func runAllow(c *cli.Context) error {
	return withGate(c, func(gate *access.Gate, ownerID, userID string) error {
		if err := gate.Allow(c.Context, ownerID, userID); err != nil {
			return err
		}
		log.WithField("user_id", userID).Info("user allowed")
		return nil
	})
}

func runDisallow(c *cli.Context) error {
	return withGate(c, func(gate *access.Gate, ownerID, userID string) error {
		if err := gate.Revoke(c.Context, ownerID, userID); err != nil {
			return err
		}
		log.WithField("user_id", userID).Info("user disallowed")
		return nil
	})
}

func runListAllowed(c *cli.Context) error {
	cfg, err := setup(c.Context)
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.ListAuthorizedUsers(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "owner\t%s\n", cfg.OwnerID)
	for _, u := range users {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", u.UserID, u.AddedBy, time.UnixMilli(u.AddedAt).UTC().Format(time.RFC3339))
	}
	return nil
}

// withGate acts as the owner on the allowlist given as the first argument.
func withGate(c *cli.Context, fn func(gate *access.Gate, ownerID, userID string) error) error {
	userID := strings.TrimSpace(c.Args().First())
	if userID == "" {
		return fmt.Errorf("%w: user id", errors.ErrMissingArgument)
	}
	cfg, err := setup(c.Context)
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(access.NewGate(cfg.OwnerID, store), cfg.OwnerID, userID)
}
