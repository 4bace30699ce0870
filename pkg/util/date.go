package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano and integer epoch timestamps.
// Integer values are interpreted by magnitude: nanoseconds, microseconds,
// milliseconds or seconds, so both exchange dumps (nanos/micros) and plain
// unix seconds parse. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromEpoch(ts), true
	}
	return time.Time{}, false
}

// FromEpoch converts an integer epoch timestamp of unknown unit to a time,
// guessing the unit from the magnitude.
func FromEpoch(ts int64) time.Time {
	switch {
	case ts >= 1e18: // nanoseconds
		return time.Unix(0, ts)
	case ts >= 1e15: // microseconds
		return time.UnixMicro(ts)
	case ts >= 1e12: // milliseconds
		return time.UnixMilli(ts)
	default:
		return time.Unix(ts, 0)
	}
}
