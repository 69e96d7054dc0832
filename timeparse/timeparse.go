// Package timeparse validates HHMMSS time strings and converts them to
// seconds since midnight.
package timeparse

import (
	"errors"
	"fmt"
)

// Length is the only accepted input length.
const Length = 6

var (
	// ErrArray is returned when no input was supplied at all.
	ErrArray = errors.New("timeparse: missing input")
	// ErrLength is returned for inputs that are not exactly six ASCII digits.
	ErrLength = errors.New("timeparse: expected six digits")
	// ErrValue is returned when a field is out of range.
	ErrValue = errors.New("timeparse: field out of range")
)

// Parse converts HHMMSS into seconds since midnight (0..86399).
// A nil slice means the input is absent; an empty slice is a length error.
func Parse(hhmmss []byte) (uint32, error) {
	if hhmmss == nil {
		return 0, ErrArray
	}
	if len(hhmmss) != Length {
		return 0, fmt.Errorf("%w: got %d characters", ErrLength, len(hhmmss))
	}
	for i, c := range hhmmss {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit %q at position %d", ErrLength, c, i)
		}
	}

	hour := twoDigits(hhmmss[0], hhmmss[1])
	minute := twoDigits(hhmmss[2], hhmmss[3])
	second := twoDigits(hhmmss[4], hhmmss[5])

	switch {
	case hour > 23:
		return 0, fmt.Errorf("%w: hour %d", ErrValue, hour)
	case minute > 59:
		return 0, fmt.Errorf("%w: minute %d", ErrValue, minute)
	case second > 59:
		return 0, fmt.Errorf("%w: second %d", ErrValue, second)
	}

	return hour*3600 + minute*60 + second, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (uint32, error) {
	return Parse([]byte(s))
}

func twoDigits(tens, ones byte) uint32 {
	return uint32(tens-'0')*10 + uint32(ones-'0')
}
