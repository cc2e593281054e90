package services

import (
	"strings"
	"time"

	"dexscanner-monitor/agent/internal/models"
)

const suspiciousTop10Threshold = 80.0

// EvaluateTokenSecurity derives the shallow safety verdict for a pair from
// its detail payload. Honeypot and proxy detection would require executing
// the contract, which this monitor does not do: those flags are written as
// explicit false until a real detector is wired in.
func EvaluateTokenSecurity(details *TokenDetails, now time.Time) models.SecurityCheck {
	check := models.SecurityCheck{CheckTime: now}
	if details == nil {
		return check
	}

	// Textual heuristic over the raw payload. Accepts false positives and
	// false negatives; the source data has no structured mint-authority flag
	// on every platform.
	text := strings.ToLower(string(details.Raw))
	if strings.Contains(text, "mint") && strings.Contains(text, "enabled") {
		check.HasMintFunction = true
	}

	if details.Top10HoldersPercentage > suspiciousTop10Threshold {
		check.HasSuspiciousHolders = true
	}

	return check
}

// SecurityWarnings renders the raised flags as alert-ready warning lines.
func SecurityWarnings(check models.SecurityCheck) []string {
	var warnings []string
	if check.HasHoneypot {
		warnings = append(warnings, "Potential honeypot detected")
	}
	if check.HasMintFunction {
		warnings = append(warnings, "Token has mint function enabled")
	}
	if check.HasProxy {
		warnings = append(warnings, "Contract may have proxy capabilities")
	}
	if check.HasSuspiciousHolders {
		warnings = append(warnings, "Suspicious holder concentration detected")
	}
	return warnings
}
