package scheduler

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestJobID(t *testing.T) {
	if got := JobID("kid.name@example.com"); got != "kid_name_example_com_revert_ou" {
		t.Errorf("JobID = %q", got)
	}
}

func TestCronExpression(t *testing.T) {
	at := time.Date(2025, 3, 1, 14, 7, 0, 0, time.UTC)
	if got := CronExpression(at); got != "7 14 * * *" {
		t.Errorf("CronExpression = %q, want %q", got, "7 14 * * *")
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2025, 3, 1, 14, 0, 30, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		tz   string
		want time.Time
	}{
		{
			name: "later today",
			expr: "31 14 * * *",
			tz:   "Etc/UTC",
			want: time.Date(2025, 3, 1, 14, 31, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			expr: "59 13 * * *",
			tz:   "",
			want: time.Date(2025, 3, 2, 13, 59, 0, 0, time.UTC),
		},
		{
			name: "round trip of CronExpression",
			expr: CronExpression(time.Date(2025, 3, 1, 14, 31, 0, 0, time.UTC)),
			tz:   "Etc/UTC",
			want: time.Date(2025, 3, 1, 14, 31, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.expr, tt.tz, now)
			if err != nil {
				t.Fatalf("NextRun failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRun_Invalid(t *testing.T) {
	now := time.Now()
	if _, err := NextRun("not a cron", "", now); err == nil {
		t.Error("expected error for invalid expression")
	}
	if _, err := NextRun("0 0 * * *", "Nowhere/City", now); err == nil {
		t.Error("expected error for invalid time zone")
	}
}

func TestEncodedPayload(t *testing.T) {
	body, err := encodedPayload("kid@example.com")
	if err != nil {
		t.Fatalf("encodedPayload failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(raw) != `{"email":"kid@example.com"}` {
		t.Errorf("payload = %s", raw)
	}
}
