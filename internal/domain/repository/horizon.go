package repository

import "time"

// Horizon is a forward-return horizon expressed as a duration string.
type Horizon string

const (
	H1m  Horizon = "1m"
	H5m  Horizon = "5m"
	H15m Horizon = "15m"
)

// IsValidHorizon returns true if h is a supported horizon.
func IsValidHorizon(h Horizon) bool {
	switch h {
	case H1m, H5m, H15m:
		return true
	default:
		return false
	}
}

// DefaultHorizon returns the default forward-return horizon.
func DefaultHorizon() Horizon { return H1m }

// NormalizeHorizon converts a raw string to a valid horizon (or default).
func NormalizeHorizon(s string) Horizon {
	if s == "" {
		return DefaultHorizon()
	}
	h := Horizon(s)
	if IsValidHorizon(h) {
		return h
	}
	return DefaultHorizon()
}

// Duration converts the horizon to a time.Duration. Unsupported horizons
// fall back to the default.
func (h Horizon) Duration() time.Duration {
	switch h {
	case H1m:
		return time.Minute
	case H5m:
		return 5 * time.Minute
	case H15m:
		return 15 * time.Minute
	default:
		return DefaultHorizon().Duration()
	}
}
