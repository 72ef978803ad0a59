package bot

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/ngmod/internal/infra"
	"github.com/iamwavecut/ngmod/internal/observability"
)

const (
	UpdateTimeout = 5 * time.Minute
)

type UpdateProcessor struct {
	updateHandlers []Handler
	workers        int
	now            func() time.Time
}

var (
	registryMutex      sync.RWMutex
	registeredHandlers = make(map[string]Handler)
)

func RegisterUpdateHandler(title string, handler Handler) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	registeredHandlers[title] = handler
}

// NewUpdateProcessor chains the registered handlers in the order they are enabled.
func NewUpdateProcessor(enabledHandlers []string, workers int) *UpdateProcessor {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	handlers := make([]Handler, 0, len(enabledHandlers))
	for _, handlerName := range enabledHandlers {
		handler, ok := registeredHandlers[handlerName]
		if !ok || handler == nil {
			log.Warnf("no registered handler: %s", handlerName)
			continue
		}
		handlers = append(handlers, handler)
	}
	if workers < 1 {
		workers = 1
	}

	return &UpdateProcessor{
		updateHandlers: handlers,
		workers:        workers,
		now:            time.Now,
	}
}

// Process runs one message through the handler chain. Bot authors, direct
// messages and outdated updates are skipped.
func (up *UpdateProcessor) Process(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("update is nil")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if msg.AuthorIsBot || !msg.IsGuildMessage() {
		return nil
	}
	if !msg.Timestamp.IsZero() && up.now().Sub(msg.Timestamp) > UpdateTimeout {
		log.WithFields(log.Fields{
			"update_time": msg.Timestamp,
			"age":         up.now().Sub(msg.Timestamp),
		}).Debug("Skipping outdated update")
		return nil
	}

	for _, handler := range up.updateHandlers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		proceed, err := handler.Handle(ctx, msg)
		if err != nil {
			return errors.WithMessage(err, "handling error")
		}
		if !proceed {
			log.Trace("not proceeding")
			return nil
		}
	}
	return nil
}

// Run consumes updates until the channel closes or ctx is done, processing up
// to the configured number of messages concurrently.
func (up *UpdateProcessor) Run(ctx context.Context, updates <-chan *Message) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(up.workers)

	defer func() {
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("update workers stopped")
		}
	}()

	for {
		select {
		case <-gctx.Done():
			return nil
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				infra.Recoverable(func() {
					done := observability.StartMessageProcessing()
					if err := up.Process(gctx, msg); err != nil {
						done("error")
						log.WithFields(log.Fields{
							"guild_id":   msg.GuildID,
							"message_id": msg.ID,
						}).WithError(err).Error("cant process update")
						return
					}
					done("ok")
				})
				return nil
			})
		}
	}
}
