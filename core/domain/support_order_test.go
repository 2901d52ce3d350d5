package domain

import (
	"testing"
	"time"
)

func TestOrderContextDaysOverdue(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expected time.Time
		want     int
	}{
		{"ten days overdue", now.AddDate(0, 0, -10), 10},
		{"delivery window still open", now.AddDate(0, 0, 3), 0},
		{"due today", now, 0},
		{"no expected date", time.Time{}, 0},
		{"partial day rounds down", now.Add(-36 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &OrderContext{ExpectedDeliveryMax: tt.expected}
			if got := o.DaysOverdue(now); got != tt.want {
				t.Errorf("DaysOverdue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOrderContextIsUnfulfilled(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"", true},
		{"unfulfilled", true},
		{"null", true},
		{"fulfilled", false},
		{"partial", false},
	}

	for _, tt := range tests {
		o := &OrderContext{FulfillmentStatus: tt.status}
		if got := o.IsUnfulfilled(); got != tt.want {
			t.Errorf("IsUnfulfilled() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
