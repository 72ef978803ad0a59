// Package lifecycle starts long-running components in order and stops
// them in reverse.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Hooks turns a pair of functions into a Component. Either may be nil.
type Hooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h Hooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

type namedComponent struct {
	name      string
	component Component
}

type Runtime struct {
	mu         sync.Mutex
	components []namedComponent
	started    []namedComponent
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

func (r *Runtime) getLogEntry() *log.Entry {
	return log.WithField("object", "Runtime")
}

// Add registers a component under name. Nil components are skipped.
func (r *Runtime) Add(name string, component Component) *Runtime {
	if component == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = append(r.components, namedComponent{name: name, component: component})
	return r
}

// Start starts every component in registration order. On failure the
// components started so far are stopped again.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components {
		began := time.Now()
		if err := c.component.Start(ctx); err != nil {
			_ = r.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", c.name, err)
		}
		r.started = append(r.started, c)
		r.getLogEntry().WithFields(log.Fields{
			"component": c.name,
			"took":      time.Since(began).String(),
		}).Debug("component started")
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Runtime) stopStarted(ctx context.Context) error {
	var stopErr error
	for i := len(r.started) - 1; i >= 0; i-- {
		c := r.started[i]
		if err := c.component.Stop(ctx); err != nil {
			r.getLogEntry().WithField("component", c.name).WithError(err).Warn("component stop failed")
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		r.getLogEntry().WithField("component", c.name).Debug("component stopped")
	}
	r.started = nil
	return stopErr
}
