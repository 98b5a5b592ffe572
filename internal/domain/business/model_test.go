package business_test

import (
	"testing"
	"time"

	"rollcall/internal/domain/business"
)

// TestBusiness_Validate tests validation of Business.
func TestBusiness_Validate(t *testing.T) {
	tests := []struct {
		name    string
		b       business.Business
		wantErr error
	}{
		{
			name:    "valid business",
			b:       business.Business{ID: "1", Name: "Southside Gymnastics", Timezone: "America/New_York", Status: business.StatusActive},
			wantErr: nil,
		},
		{
			name:    "valid with empty timezone",
			b:       business.Business{ID: "2", Name: "City Athletics", Status: business.StatusActive},
			wantErr: nil,
		},
		{
			name:    "empty name",
			b:       business.Business{ID: "3", Name: "   "},
			wantErr: business.ErrEmptyName,
		},
		{
			name:    "malformed timezone",
			b:       business.Business{ID: "4", Name: "City Athletics", Timezone: "Mars/Olympus"},
			wantErr: business.ErrInvalidTimezone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.b.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTimezoneOrUTC verifies the fallback behaviour.
func TestTimezoneOrUTC(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
	}{
		{"configured zone", "Pacific/Auckland", "Pacific/Auckland"},
		{"empty", "", "UTC"},
		{"whitespace only", "  ", "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := business.Business{Timezone: tt.timezone}
			if got := b.TimezoneOrUTC(); got != tt.want {
				t.Errorf("TimezoneOrUTC() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLocation verifies zone resolution and the UTC fallback for
// malformed names.
func TestLocation(t *testing.T) {
	t.Run("valid zone", func(t *testing.T) {
		b := business.Business{Timezone: "America/New_York"}
		loc, err := b.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != "America/New_York" {
			t.Errorf("Location() = %v, want America/New_York", loc)
		}
	})

	t.Run("empty falls back to UTC", func(t *testing.T) {
		b := business.Business{}
		loc, err := b.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc != time.UTC {
			t.Errorf("Location() = %v, want UTC", loc)
		}
	})

	t.Run("malformed name", func(t *testing.T) {
		b := business.Business{Timezone: "Not/AZone"}
		loc, err := b.Location()
		if err != business.ErrInvalidTimezone {
			t.Errorf("Location() error = %v, want ErrInvalidTimezone", err)
		}
		if loc != time.UTC {
			t.Errorf("Location() = %v, want UTC fallback", loc)
		}
	})
}
