package parse

import (
	"errors"
	"strconv"
	"strings"

	"github.com/scrubdub/hewbot/internal/models"
)

// ErrInvalidTime is returned when a token cannot be read as a time of day
var ErrInvalidTime = errors.New("invalid time")

// ParseTime converts a token like "3", "3:30", "1530" or "8pm" into a time
// of day. previous is the word immediately before the token, for the "half"
// modifier ("half 3" means 3:30).
func ParseTime(token, previous string) (models.TimeOfDay, error) {
	s := token
	amPM := byte(0)

	if len(s) >= 3 && (s[len(s)-1] == 'm' || s[len(s)-1] == 'M') {
		switch s[len(s)-2] {
		case 'a', 'A':
			amPM = 'a'
		case 'p', 'P':
			amPM = 'p'
		}
		if amPM != 0 {
			s = s[:len(s)-2]
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	if len(parts) == 1 {
		parts = strings.Split(s, ".")
	}

	// a bare number is eligible for the "half" fraction; an exact 4-digit
	// number with no am/pm is 24-hour HHMM
	fractionalEligible := false
	is24Hour := false

	if len(parts) == 1 {
		if len(s) == 4 && amPM == 0 {
			is24Hour = true
			parts = []string{s[0:2], s[2:4]}
		} else {
			parts = append(parts, "00")
			fractionalEligible = true
		}
	} else if len(parts[1]) != 2 {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	if hour < 0 || minute < 0 || minute > 59 {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	if amPM != 0 {
		if hour > 12 {
			return models.TimeOfDay{}, ErrInvalidTime
		}
		if amPM == 'p' {
			hour += 12
		}
		// "half 2pm" makes no sense, ignore the fractional modifier
	} else {
		// no am/pm: unqualified low numbers during work hours mean afternoon
		if !is24Hour && hour < 8 {
			hour += 12
		}

		if fractionalEligible && strings.EqualFold(previous, "half") {
			minute = 30
		}
	}

	if hour > 23 {
		return models.TimeOfDay{}, ErrInvalidTime
	}

	return models.TimeOfDay{Hour: hour, Minute: minute}, nil
}

// maybeParseTime is ParseTime with the failure folded to a bool, for
// filtering candidate matches
func maybeParseTime(token, previous string) (models.TimeOfDay, bool) {
	t, err := ParseTime(token, previous)
	if err != nil {
		return models.TimeOfDay{}, false
	}
	return t, true
}
