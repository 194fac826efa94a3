package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTimeOfDay(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},  // missing zero padding
		{"09:5", false},  // missing zero padding
		{"09:60", false}, // minute out of range
		{"0930", false},
		{"", false},
		{"09:30:00", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTimeOfDay(tt.input), "input %q", tt.input)
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2026-01-15", true},
		{"2026-12-31", true},
		{"2026-02-30", false}, // no such day
		{"2026-13-01", false},
		{"2026-1-15", false}, // missing zero padding
		{"20260115", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidDate(tt.input), "input %q", tt.input)
	}
}

func TestPauseScheduleValidate(t *testing.T) {
	valid := PauseSchedule{Start: "22:00", End: "06:00"}
	assert.NoError(t, valid.Validate())

	t.Run("bad times", func(t *testing.T) {
		s := PauseSchedule{Start: "9:00", End: "25:00"}
		err := s.Validate()
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "start")
		assert.Contains(t, ve.Fields, "end")
	})

	t.Run("bad exception date", func(t *testing.T) {
		s := PauseSchedule{Start: "09:00", End: "17:00", ExceptionDates: []string{"2026-01-01", "not-a-date"}}
		err := s.Validate()
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "exception_dates")
	})

	t.Run("override requires interval", func(t *testing.T) {
		s := PauseSchedule{Start: "09:00", End: "17:00", OverrideFrequency: true}
		err := s.Validate()
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "poll_interval_minutes")
	})

	t.Run("zero-duration window is well-formed", func(t *testing.T) {
		// start == end is a legal degenerate window; the evaluator treats it
		// as never active.
		s := PauseSchedule{Start: "12:00", End: "12:00"}
		assert.NoError(t, s.Validate())
	})
}
