package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay is returned when an hour/minute pair is out of range
var ErrInvalidTimeOfDay = errors.New("time of day out of range")

// TimeOfDay is a wall-clock time on the current calendar day. Sessions are
// always same-day, so no date component is carried.
type TimeOfDay struct {
	// Hour in [0, 24)
	Hour int

	// Minute in [0, 60)
	Minute int
}

// NewTimeOfDay validates the hour/minute pair
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour >= 24 || minute < 0 || minute >= 60 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// At anchors the time of day to the calendar day of the given time, with
// zero seconds
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// String renders the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseClock parses a strict HH:MM string, the format String produces. Used
// by the persistence codec, not by the free-text parser.
func ParseClock(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	return NewTimeOfDay(hour, minute)
}

// WhenStr renders an anchored time the way announcements show it
func WhenStr(t time.Time) string {
	return t.Format("15:04")
}
