package ratewindow

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const janitorInterval = time.Minute

// Memory keeps timestamps in process. Prune and compare happen under one lock.
type Memory struct {
	limit    int
	interval time.Duration

	mu      sync.Mutex
	entries map[string][]time.Time

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

var _ Window = (*Memory)(nil)

func NewMemory(limit int, interval time.Duration) *Memory {
	if limit < 1 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Memory{
		limit:    limit,
		interval: interval,
		entries:  make(map[string][]time.Time),
	}
}

func (m *Memory) Record(_ context.Context, userID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamps := append(m.entries[userID], now)
	stamps = prune(stamps, now.Add(-m.interval))
	m.entries[userID] = stamps
	return len(stamps) > m.limit, nil
}

// Len returns the number of timestamps currently kept for the user.
func (m *Memory) Len(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[userID])
}

// Evict drops users without a timestamp newer than now - interval.
func (m *Memory) Evict(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.interval)
	evicted := 0
	for userID, stamps := range m.entries {
		stamps = prune(stamps, cutoff)
		if len(stamps) == 0 {
			delete(m.entries, userID)
			evicted++
			continue
		}
		m.entries[userID] = stamps
	}
	return evicted
}

func (m *Memory) Start(ctx context.Context) error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.runCancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				if n := m.Evict(now); n > 0 {
					log.WithField("object", "RateWindow").Tracef("evicted %d idle users", n)
				}
			}
		}
	}()

	m.started = true
	return nil
}

func (m *Memory) Stop(ctx context.Context) error {
	m.runMutex.Lock()
	if !m.started {
		m.runMutex.Unlock()
		return nil
	}
	m.started = false
	cancel := m.runCancel
	m.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// prune keeps timestamps strictly newer than cutoff. Concurrent workers may
// record a user's messages out of order, so every stamp is checked.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, stamp := range stamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	return kept
}
