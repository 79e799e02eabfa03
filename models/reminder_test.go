package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminderIsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		reminder Reminder
		want     bool
	}{
		{"future", Reminder{RemindAt: now.Add(time.Minute)}, false},
		{"exactly due", Reminder{RemindAt: now}, true},
		{"past due", Reminder{RemindAt: now.Add(-time.Hour)}, true},
		{"already triggered", Reminder{RemindAt: now.Add(-time.Hour), IsTriggered: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reminder.IsDue(now))
		})
	}
}
