package services

import (
	"fmt"
	"math"
	"time"
)

// FormatNumber renders a value with K/M/B suffixes for display. Values under
// 1000 keep the requested decimals unscaled.
func FormatNumber(value float64, decimals int) string {
	switch {
	case value < 1000:
		return fmt.Sprintf("%.*f", decimals, value)
	case value < 1_000_000:
		return fmt.Sprintf("%.*fK", decimals, value/1000)
	case value < 1_000_000_000:
		return fmt.Sprintf("%.*fM", decimals, value/1_000_000)
	default:
		return fmt.Sprintf("%.*fB", decimals, value/1_000_000_000)
	}
}

// FormatAge renders the time since launch as "Nd Nh", "Nh Nm" or "Nm".
// A nil launch time renders as "Unknown".
func FormatAge(launchTime *time.Time, now time.Time) string {
	if launchTime == nil {
		return "Unknown"
	}

	delta := now.Sub(*launchTime)
	if delta < 0 {
		delta = 0
	}

	days := int(delta.Hours()) / 24
	hours := int(delta.Hours()) % 24
	minutes := int(delta.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Percentage returns round(part/whole*100), or 0 when the whole is zero.
func Percentage(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}

// Multiplier renders current/reference as "N.Nx". A zero reference renders
// as "1x" so freshly-listed pairs without a baseline never divide by zero.
func Multiplier(current, reference float64) string {
	if reference == 0 {
		return "1x"
	}
	return fmt.Sprintf("%.1fx", current/reference)
}
