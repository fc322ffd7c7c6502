package utils

import (
	"testing"
	"time"
)

func TestRoundUpToMinute(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid minute",
			in:   time.Date(2025, 3, 1, 10, 15, 42, 500, time.UTC),
			want: time.Date(2025, 3, 1, 10, 16, 0, 0, time.UTC),
		},
		{
			name: "exactly on the minute still rounds forward",
			in:   time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
			want: time.Date(2025, 3, 1, 10, 16, 0, 0, time.UTC),
		},
		{
			name: "crosses midnight",
			in:   time.Date(2025, 3, 1, 23, 59, 1, 0, time.UTC),
			want: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundUpToMinute(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("RoundUpToMinute(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !got.After(tt.in) {
				t.Errorf("RoundUpToMinute(%v) = %v, must be after input", tt.in, got)
			}
		})
	}
}

func TestHoursUntilMidnight(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 24},
		{time.Date(2025, 3, 1, 21, 30, 0, 0, time.UTC), 2},
		{time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC), 0},
		{time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), 12},
	}

	for _, tt := range tests {
		if got := HoursUntilMidnight(tt.now); got != tt.want {
			t.Errorf("HoursUntilMidnight(%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{65 * time.Minute, "1 hour and 5 minutes"},
		{2 * time.Hour, "2 hours"},
		{time.Minute + 30*time.Second, "1 minute"},
		{20 * time.Second, "less than a minute"},
		{-time.Minute, "less than a minute"},
	}

	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		word string
		want string
	}{
		{1, "switch", "switch"},
		{3, "switch", "switches"},
		{0, "hour", "hours"},
		{1, "time", "time"},
		{2, "time", "times"},
	}

	for _, tt := range tests {
		if got := Plural(tt.n, tt.word); got != tt.want {
			t.Errorf("Plural(%d, %q) = %q, want %q", tt.n, tt.word, got, tt.want)
		}
	}
}
