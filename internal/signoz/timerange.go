package signoz

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"signoz-mcp/internal/constants"
)

// TimeWindow is a resolved absolute query window plus aggregation step.
// Invariants: Start < End and Step <= End - Start.
type TimeWindow struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// StartMilli returns the window start as Unix milliseconds, the unit the
// query_range endpoint expects.
func (w TimeWindow) StartMilli() int64 { return w.Start.UnixMilli() }

// EndMilli returns the window end as Unix milliseconds.
func (w TimeWindow) EndMilli() int64 { return w.End.UnixMilli() }

// StartNano returns the window start as Unix nanoseconds, used by the
// services endpoint.
func (w TimeWindow) StartNano() int64 { return w.Start.UnixNano() }

// EndNano returns the window end as Unix nanoseconds.
func (w TimeWindow) EndNano() int64 { return w.End.UnixNano() }

// StepSeconds returns the aggregation step in whole seconds.
func (w TimeWindow) StepSeconds() int64 { return int64(w.Step / time.Second) }

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var unitMultipliers = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseDuration parses a relative duration string of the form
// "<positive integer><s|m|h|d>" ("24h", "90m", "30s"). A bare integer is
// read as minutes for compatibility with older callers.
func ParseDuration(s string) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, Errorf(KindInvalidDuration, "duration is empty")
	}

	if match := durationPattern.FindStringSubmatch(trimmed); match != nil {
		value, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, Errorf(KindInvalidDuration, "invalid duration %q", s)
		}
		if value <= 0 {
			return 0, Errorf(KindInvalidDuration, "duration %q must be positive", s)
		}
		return time.Duration(value) * unitMultipliers[match[2]], nil
	}

	// Bare integers mean minutes.
	if value, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if value <= 0 {
			return 0, Errorf(KindInvalidDuration, "duration %q must be positive", s)
		}
		return time.Duration(value) * time.Minute, nil
	}

	return 0, Errorf(KindInvalidDuration,
		"invalid duration %q: expected <number><s|m|h|d>", s)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an absolute time bound: an RFC3339 timestamp (a few
// zone-less layouts are read as UTC), the literal "now", or a relative
// "now-<number><s|m|h|d>" expression anchored at the given now instant.
func ParseTime(s string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	if lower == "now" {
		return now, nil
	}
	if rest, ok := strings.CutPrefix(lower, "now-"); ok {
		delta, err := ParseDuration(rest)
		if err != nil {
			return time.Time{}, Errorf(KindValidation,
				"invalid time %q: expected now-<number><s|m|h|d>", s)
		}
		return now.Add(-delta), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, Errorf(KindValidation,
		"invalid time %q: expected RFC3339, \"now\", or now-<number><s|m|h|d>", s)
}

// ResolveTimeRange turns a relative duration and optional window granularity
// into an absolute TimeWindow ending now. Now is captured once so Start and
// End stay consistent. An empty duration falls back to the given default
// span; an empty window falls back to the platform minimum step.
func ResolveTimeRange(duration, window string, defaultSpan time.Duration) (TimeWindow, error) {
	now := time.Now().UTC()

	span := defaultSpan
	if duration != "" {
		parsed, err := ParseDuration(duration)
		if err != nil {
			return TimeWindow{}, err
		}
		span = parsed
	}

	return windowFor(now.Add(-span), now, window)
}

// ResolveTimeRangeBounds resolves explicit start/end time bounds into an
// absolute TimeWindow. Explicit bounds win over duration; when both are
// absent the duration path of ResolveTimeRange applies. Both bounds are
// parsed against one captured now so relative expressions stay consistent.
func ResolveTimeRangeBounds(startTime, endTime, duration, window string, defaultSpan time.Duration) (TimeWindow, error) {
	if startTime == "" && endTime == "" {
		return ResolveTimeRange(duration, window, defaultSpan)
	}
	if startTime == "" || endTime == "" {
		return TimeWindow{}, Errorf(KindValidation,
			"start_time and end_time must be provided together")
	}

	now := time.Now().UTC()
	start, err := ParseTime(startTime, now)
	if err != nil {
		return TimeWindow{}, err
	}
	end, err := ParseTime(endTime, now)
	if err != nil {
		return TimeWindow{}, err
	}
	if !start.Before(end) {
		return TimeWindow{}, Errorf(KindValidation,
			"start_time %q is not before end_time %q", startTime, endTime)
	}

	return windowFor(start, end, window)
}

func windowFor(start, end time.Time, window string) (TimeWindow, error) {
	span := end.Sub(start)

	step := constants.DefaultStep
	if window != "" {
		parsed, err := ParseDuration(window)
		if err != nil {
			return TimeWindow{}, Errorf(KindInvalidWindow,
				"invalid window %q: expected <number><s|m|h|d>", window)
		}
		if parsed > span {
			return TimeWindow{}, Errorf(KindInvalidWindow,
				"window %q exceeds the %s query span", window, span)
		}
		step = parsed
	}
	if step > span {
		// Default step for a sub-minute span; keep the bucket invariant.
		step = span
	}

	return TimeWindow{Start: start, End: end, Step: step}, nil
}
