// Package ratewindow tracks per-user message timestamps over a sliding interval.
package ratewindow

import (
	"context"
	"time"
)

const (
	DefaultLimit    = 5
	DefaultInterval = 7 * time.Second
)

// Window reports whether a user exceeded the message limit within the interval.
type Window interface {
	Record(ctx context.Context, userID string, now time.Time) (overLimit bool, err error)
}
