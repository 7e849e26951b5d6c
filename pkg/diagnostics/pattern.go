package diagnostics

import (
	"fmt"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

const recentWindow = 7 * 24 * time.Hour

// classifyMessage buckets a troubleshooting-log message into a known
// failure pattern by substring match. Order matters: a message can
// plausibly match more than one substring, and the first match wins.
func classifyMessage(message string) (types.FailurePattern, bool) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "port") && strings.Contains(lower, "in use"):
		return types.PatternPortInUse, true
	case strings.Contains(lower, "not found") || strings.Contains(lower, "not exist"):
		return types.PatternPathNotFound, true
	case strings.Contains(lower, "module"):
		return types.PatternMissingModule, true
	case strings.Contains(lower, "exited with code") || strings.Contains(lower, "crashed"):
		return types.PatternCrash, true
	default:
		return types.PatternUnknown, false
	}
}

var actionsByPattern = map[types.FailurePattern]struct{ warning, critical, template string }{
	types.PatternPortInUse: {
		warning:  "Review which apps keep colliding on this port and consider reassigning one permanently.",
		critical: "This app repeatedly fails to claim its port; reassign it a dedicated port or free the conflicting process manually.",
		template: "%s has hit PORT_IN_USE %d times in the last 7 days.",
	},
	types.PatternPathNotFound: {
		warning:  "Double check the app's configured path is still correct.",
		critical: "This app's configured path is consistently wrong or missing; fix the path before further starts will work.",
		template: "%s has hit PATH_NOT_FOUND %d times in the last 7 days.",
	},
	types.PatternMissingModule: {
		warning:  "Dependencies may be falling out of sync; consider a clean reinstall.",
		critical: "This app consistently starts without its dependencies installed; add an install step before start.",
		template: "%s has hit MISSING_MODULE %d times in the last 7 days.",
	},
	types.PatternCrash: {
		warning:  "Keep an eye on this app's crash rate.",
		critical: "This app is crash-looping; inspect its logs for a root cause before relying on auto-restart.",
		template: "%s has crashed %d times in the last 7 days.",
	},
}

// Analyze scans one app's troubleshooting log for a recurring failure
// pattern and returns a recommendation, discounted for patterns already
// covered by a recorded resolution. Returns nil when there's nothing
// worth flagging.
func (e *Engine) Analyze(appID string) (*types.Recommendation, error) {
	lines, err := e.readTroubleshootingLines(appID)
	if err != nil {
		return nil, err
	}
	resolved, err := e.latestResolvedByType()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	counts := map[types.FailurePattern]int{}
	for _, l := range lines {
		if l.Level != "WARN" && l.Level != "ERROR" {
			continue
		}
		if l.NormalTermination {
			continue
		}
		pattern, ok := classifyMessage(l.Message)
		if !ok {
			continue
		}
		if resolvedAt, ok := resolved[pattern]; ok && !l.Timestamp.After(resolvedAt) {
			continue // discounted: this failure precedes (or is at) the resolution
		}
		if now.Sub(l.Timestamp) > recentWindow {
			continue
		}
		counts[pattern]++
		metrics.DiagnosticsPatternsTotal.WithLabelValues(appID, string(pattern)).Inc()
	}

	var dominant types.FailurePattern
	best := 0
	for pattern, n := range counts {
		if n > best {
			dominant = pattern
			best = n
		}
	}
	if best == 0 {
		return nil, nil
	}

	var tier types.RecommendationTier
	var shouldAutoTodo bool
	var action string
	actions := actionsByPattern[dominant]
	switch {
	case best >= 6:
		tier = types.TierCritical
		shouldAutoTodo = true
		action = actions.critical
	case best >= 3:
		tier = types.TierWarning
		shouldAutoTodo = false
		action = actions.warning
	default:
		return nil, nil
	}

	message := fmt.Sprintf(actions.template, appID, best)
	return &types.Recommendation{
		App:            appID,
		ErrorType:      dominant,
		RecentFailures: best,
		Tier:           tier,
		ShouldAutoTodo: shouldAutoTodo,
		Message:        message,
		Action:         action,
	}, nil
}
