package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatePhrase(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*3600)
	tests := []struct {
		name       string
		start, end time.Time
		loc        *time.Location
		want       string
	}{
		{
			name:  "same day",
			start: time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 7, 17, 0, 0, 0, time.UTC),
			want:  "on 07/03/2026",
		},
		{
			name:  "spanning days",
			start: time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
			want:  "from 07/03/2026 to 09/03/2026",
		},
		{
			name:  "same UTC day crosses midnight locally",
			start: time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 7, 17, 0, 0, 0, time.UTC),
			loc:   sgt,
			want:  "from 07/03/2026 to 08/03/2026",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Certificate{Start: tt.start, End: tt.end}
			assert.Equal(t, tt.want, c.DatePhrase(tt.loc))
		})
	}
}

func TestHoursPhrase(t *testing.T) {
	assert.Equal(t, "1 hour", Certificate{Hours: 1}.HoursPhrase())
	assert.Equal(t, "0 hours", Certificate{}.HoursPhrase())
	assert.Equal(t, "3 hours", Certificate{Hours: 3}.HoursPhrase())
}
