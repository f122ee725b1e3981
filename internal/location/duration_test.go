package location

import (
	"errors"
	"testing"
	"time"

	"backend-zodiack/internal/shared/apperr"
)

func TestParseWindow(t *testing.T) {
	cases := []struct {
		in   any
		want time.Duration
	}{
		{15, 15 * time.Minute},
		{float64(90), 90 * time.Minute},
		{"45", 45 * time.Minute},
		{"45m", 45 * time.Minute},
		{"2h", 2 * time.Hour},
		{" 10m ", 10 * time.Minute},
	}
	for _, tc := range cases {
		got, err := ParseWindow(tc.in)
		if err != nil {
			t.Fatalf("ParseWindow(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseWindow(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseWindowRejects(t *testing.T) {
	for _, in := range []any{"", "m", "h", "soon", "-5m", "1.5h", "10s", -10, 2.5, true, nil} {
		if _, err := ParseWindow(in); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("ParseWindow(%v): expected validation error, got %v", in, err)
		}
	}
}
