package reporting_test

import (
	"testing"
	"time"

	"rollcall/internal/domain/reporting"
)

// TestSettings_Validate tests validation of Settings.
func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       reporting.Settings
		wantErr error
	}{
		{
			name:    "valid weekly",
			s:       reporting.Settings{BusinessID: "b-1", Enabled: true, Duration: reporting.DurationWeekly, Email: "owner@example.com", PINLength: 4},
			wantErr: nil,
		},
		{
			name:    "valid monthly",
			s:       reporting.Settings{BusinessID: "b-1", Duration: reporting.DurationMonthly, Email: "owner@example.com", PINLength: 6},
			wantErr: nil,
		},
		{
			name:    "missing business",
			s:       reporting.Settings{Duration: reporting.DurationWeekly, Email: "owner@example.com", PINLength: 4},
			wantErr: reporting.ErrEmptyBusinessID,
		},
		{
			name:    "bad duration",
			s:       reporting.Settings{BusinessID: "b-1", Duration: "daily", Email: "owner@example.com", PINLength: 4},
			wantErr: reporting.ErrInvalidDuration,
		},
		{
			name:    "missing email",
			s:       reporting.Settings{BusinessID: "b-1", Duration: reporting.DurationWeekly, PINLength: 4},
			wantErr: reporting.ErrEmptyEmail,
		},
		{
			name:    "pin too short",
			s:       reporting.Settings{BusinessID: "b-1", Duration: reporting.DurationWeekly, Email: "owner@example.com", PINLength: 3},
			wantErr: reporting.ErrInvalidPINLen,
		},
		{
			name:    "pin too long",
			s:       reporting.Settings{BusinessID: "b-1", Duration: reporting.DurationWeekly, Email: "owner@example.com", PINLength: 10},
			wantErr: reporting.ErrInvalidPINLen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDue verifies the cadence is anchored on the business creation
// date and fires only on whole multiples.
func TestDue(t *testing.T) {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	after := func(days int) time.Time { return created.AddDate(0, 0, days) }

	weekly := reporting.Settings{BusinessID: "b-1", Enabled: true, Duration: reporting.DurationWeekly, Email: "o@example.com", PINLength: 4}
	monthly := reporting.Settings{BusinessID: "b-1", Enabled: true, Duration: reporting.DurationMonthly, Email: "o@example.com", PINLength: 4}
	disabled := weekly
	disabled.Enabled = false

	tests := []struct {
		name string
		s    reporting.Settings
		now  time.Time
		want bool
	}{
		{"weekly on day 7", weekly, after(7), true},
		{"weekly on day 14", weekly, after(14), true},
		{"weekly on day 6", weekly, after(6), false},
		{"weekly on day 8", weekly, after(8), false},
		{"weekly on creation day", weekly, created, false},
		{"monthly on day 30", monthly, after(30), true},
		{"monthly on day 60", monthly, after(60), true},
		{"monthly on day 29", monthly, after(29), false},
		{"disabled never due", disabled, after(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Due(created, tt.now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}
