package moderation

import (
	"regexp"
	"strconv"
	"time"

	"github.com/iamwavecut/ngmod/internal/errors"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var durationUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseDuration parses "<integer><s|m|h|d>". It has no side effects.
func ParseDuration(s string) (time.Duration, error) {
	parts := durationPattern.FindStringSubmatch(s)
	if parts == nil {
		return 0, errors.ErrInvalidDuration
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidDuration
	}
	unit := durationUnits[parts[2]]
	if n > int64(maxDuration/unit) {
		return 0, errors.ErrInvalidDuration
	}
	return time.Duration(n) * unit, nil
}

// maxDuration keeps now+duration representable in unix milliseconds.
const maxDuration = 100 * 365 * 24 * time.Hour
