package expiry

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid expiry")
	ErrPast    = errors.New("expiry must be in the future")
)

var relativeExpr = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)$`)

const day = 24 * time.Hour

var unitAliases = []struct {
	unit    time.Duration
	aliases []string
}{
	{time.Millisecond, []string{"ms"}},
	{time.Second, []string{"s", "sec", "secs", "second", "seconds"}},
	{time.Minute, []string{"m", "min", "mins", "minute", "minutes"}},
	{time.Hour, []string{"h", "hr", "hrs", "hour", "hours"}},
	{day, []string{"d", "day", "days"}},
	{7 * day, []string{"w", "week", "weeks"}},
	{365 * day, []string{"y", "yr", "yrs", "year", "years"}},
}

var units = func() map[string]time.Duration {
	m := make(map[string]time.Duration)
	for _, u := range unitAliases {
		for _, alias := range u.aliases {
			m[alias] = u.unit
		}
	}
	return m
}()

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse turns an expires-at header value into an absolute time relative to now.
// Accepted forms: "never" or empty (no expiry), "date=<ISO date>", and relative
// amounts such as "30m", "2 hours", "1d", "1w", "1y".
func Parse(raw string, now time.Time) (*time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == "never" {
		return nil, nil
	}

	if strings.HasPrefix(value, "date=") {
		dateValue := strings.TrimSpace(raw)[len("date="):]
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, dateValue)
			if err != nil {
				continue
			}
			if !t.After(now) {
				return nil, ErrPast
			}
			return &t, nil
		}
		return nil, fmt.Errorf("%w: invalid date format", ErrInvalid)
	}

	match := relativeExpr.FindStringSubmatch(value)
	if match == nil {
		if d, err := time.ParseDuration(value); err == nil {
			return after(now, d)
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	unit, ok := units[match[2]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalid, match[2])
	}
	return after(now, time.Duration(amount*float64(unit)))
}

func after(now time.Time, d time.Duration) (*time.Time, error) {
	if d <= 0 {
		return nil, ErrPast
	}
	t := now.Add(d)
	return &t, nil
}
