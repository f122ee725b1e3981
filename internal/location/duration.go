package location

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backend-zodiack/internal/shared/apperr"
)

// ParseWindow turns a client-supplied window extension into a duration.
// Accepted shapes: a plain number (minutes) or a string "<N>m" / "<N>h".
// A bare numeric string also counts as minutes. Everything else fails
// validation.
func ParseWindow(v any) (time.Duration, error) {
	switch n := v.(type) {
	case int:
		return minutes(float64(n))
	case float64:
		return minutes(n)
	case string:
		return parseWindowString(n)
	default:
		return 0, fmt.Errorf("%w: unsupported duration %v", apperr.ErrValidation, v)
	}
}

func parseWindowString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty duration", apperr.ErrValidation)
	}

	unit := time.Minute
	digits := s
	switch {
	case strings.HasSuffix(s, "m"):
		digits = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		digits = strings.TrimSuffix(s, "h")
		unit = time.Hour
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: malformed duration %q", apperr.ErrValidation, s)
	}
	return time.Duration(n) * unit, nil
}

func minutes(n float64) (time.Duration, error) {
	if n <= 0 || n != float64(int(n)) {
		return 0, fmt.Errorf("%w: duration must be a positive whole number of minutes", apperr.ErrValidation)
	}
	return time.Duration(n) * time.Minute, nil
}
