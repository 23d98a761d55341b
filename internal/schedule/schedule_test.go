package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Monday 2025-06-02 in UTC.
func monday(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func TestOpenAtBoundaries(t *testing.T) {
	var w Week
	w[time.Monday] = &Interval{OpenMin: 9 * 60, CloseMin: 17 * 60}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", monday(8, 59), false},
		{"open boundary inclusive", monday(9, 0), true},
		{"midday", monday(12, 30), true},
		{"last open minute", monday(16, 59), true},
		{"close boundary exclusive", monday(17, 0), false},
		{"closed day", monday(12, 0).AddDate(0, 0, 1), false}, // Tuesday has no interval
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.OpenAt(tt.at))
		})
	}
}

func TestFeasibleVisit(t *testing.T) {
	var w Week
	w[time.Monday] = &Interval{OpenMin: 18 * 60, CloseMin: 22 * 60}

	// Window ends right as the venue opens: the endpoint itself is feasible.
	assert.True(t, w.FeasibleVisit(monday(14, 0), 4))
	// Window entirely before opening.
	assert.False(t, w.FeasibleVisit(monday(8, 0), 2))
	// Window spans the opening.
	assert.True(t, w.FeasibleVisit(monday(17, 0), 3))
	// Venue closed all week outside Monday evening.
	assert.False(t, w.FeasibleVisit(monday(22, 30), 1))
	// Negative budget never admits a visit.
	assert.False(t, w.FeasibleVisit(monday(19, 0), -1))
}

func TestFeasibleVisitShortOpening(t *testing.T) {
	// 20-minute opening must be caught by the 15-minute sampling.
	var w Week
	w[time.Monday] = &Interval{OpenMin: 12*60 + 10, CloseMin: 12*60 + 30}
	assert.True(t, w.FeasibleVisit(monday(11, 0), 3))
}

func TestValidate(t *testing.T) {
	var w Week
	w[time.Friday] = &Interval{OpenMin: 600, CloseMin: 600}
	assert.Error(t, w.Validate())

	w[time.Friday] = &Interval{OpenMin: 600, CloseMin: 25 * 60}
	assert.Error(t, w.Validate())

	w[time.Friday] = &Interval{OpenMin: 600, CloseMin: 1200}
	assert.NoError(t, w.Validate())

	var empty Week
	assert.NoError(t, empty.Validate())
}

func TestConstructors(t *testing.T) {
	all := AllDay()
	assert.True(t, all.OpenAt(monday(0, 0)))
	assert.True(t, all.OpenAt(monday(23, 59)))

	d := Daily(9*60, 17*60)
	assert.True(t, d.OpenAt(monday(9, 0).AddDate(0, 0, 3)))
	assert.False(t, d.OpenAt(monday(8, 0)))
}
