// Package hhmm implements wall-clock and duration arithmetic over "HH:MM"
// strings, the wire format used throughout the rotation schedule.
package hhmm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the modulus applied to time-of-day addition.
const MinutesPerDay = 24 * 60

// Durations may accumulate beyond 24 hours, so the hour field accepts two
// or more digits.
var pattern = regexp.MustCompile(`^([0-9]{2,3}):([0-5][0-9])$`)

// Times of day are strict 24h wall-clock values with hours 00-23.
var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Valid reports whether s is a well-formed HH:MM duration.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// ValidTime reports whether s is a well-formed 24h time of day.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// Parse converts an HH:MM value into total minutes.
func Parse(s string) (int, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed HH:MM value %q", s)
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("malformed hour in %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("malformed minute in %q: %w", s, err)
	}
	return hours*60 + minutes, nil
}

// Format renders total minutes as zero-padded HH:MM. Hours are not reduced
// modulo 24, so cumulative durations render as e.g. "27:45".
func Format(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

// Add sums a time of day and a duration, wrapping at midnight. The boolean
// result reports whether the sum crossed into the next day, which callers
// track as an explicit day offset instead of losing it.
func Add(t, d string) (string, bool, error) {
	tm, err := Parse(t)
	if err != nil {
		return "", false, err
	}
	dm, err := Parse(d)
	if err != nil {
		return "", false, err
	}
	total := tm + dm
	return Format(total % MinutesPerDay), total >= MinutesPerDay, nil
}

// Sum accumulates HH:MM durations without any 24-hour wrap.
func Sum(durations []string) (string, error) {
	total := 0
	for _, d := range durations {
		if strings.TrimSpace(d) == "" {
			continue
		}
		m, err := Parse(d)
		if err != nil {
			return "", err
		}
		total += m
	}
	return Format(total), nil
}

// Diff returns arrival minus departure modulo 24h, i.e. the block time
// implied by a departure and arrival time of day.
func Diff(from, to string) (string, error) {
	fm, err := Parse(from)
	if err != nil {
		return "", err
	}
	tm, err := Parse(to)
	if err != nil {
		return "", err
	}
	delta := (tm - fm) % MinutesPerDay
	if delta < 0 {
		delta += MinutesPerDay
	}
	return Format(delta), nil
}
