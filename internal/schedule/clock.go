package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedInput is returned when a time-of-day string cannot be parsed.
var ErrMalformedInput = errors.New("malformed time of day")

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts "HH:MM:SS", "HH:MM" or "H:MM". Seconds are dropped.
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("%w: %q", ErrMalformedInput, raw)
	}
	h, ok := digits(parts[0], 1, 2)
	if !ok || h > 23 {
		return Clock{}, fmt.Errorf("%w: hour in %q", ErrMalformedInput, raw)
	}
	m, ok := digits(parts[1], 2, 2)
	if !ok || m > 59 {
		return Clock{}, fmt.Errorf("%w: minute in %q", ErrMalformedInput, raw)
	}
	if len(parts) == 3 {
		if s, ok := digits(parts[2], 2, 2); !ok || s > 59 {
			return Clock{}, fmt.Errorf("%w: second in %q", ErrMalformedInput, raw)
		}
	}
	return Clock{Hour: h, Minute: m}, nil
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clock as "H:MM", hours without a leading zero.
func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour, c.Minute)
}

// SQL renders the clock as "HH:MM:SS" for time columns.
func (c Clock) SQL() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is strictly earlier than o.
func (c Clock) Before(o Clock) bool {
	return c.Minutes() < o.Minutes()
}

// FormatTime converts a raw "HH:MM[:SS]" value into the display form "H:MM".
func FormatTime(raw string) (string, error) {
	c, err := ParseClock(raw)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
