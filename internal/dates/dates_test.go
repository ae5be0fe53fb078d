package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		days int
		want string
	}{
		{"2026-03-10", 1, "2026-03-11"},
		{"2026-02-28", 1, "2026-03-01"},
		{"2028-02-28", 1, "2028-02-29"},
		{"2026-12-31", 3, "2027-01-03"},
		{"2026-03-10", 0, "2026-03-10"},
	}

	for _, tt := range tests {
		got, err := AddDays(tt.date, tt.days)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := AddDays("10/03/2026", 1)
	assert.Error(t, err)
}

func TestOnOrAfter(t *testing.T) {
	assert.True(t, OnOrAfter("2026-03-11", "2026-03-11"))
	assert.True(t, OnOrAfter("2026-03-12", "2026-03-11"))
	assert.False(t, OnOrAfter("2026-03-10", "2026-03-11"))
	assert.False(t, OnOrAfter("garbage", "2026-03-11"))
}

func TestParseSegmentTime(t *testing.T) {
	valid := []string{
		"2026-03-10 08:30",
		"2026-03-10 08:30:00",
		"2026-03-10T08:30",
		"2026-03-10T08:30:00",
		"2026-03-10T08:30:00+01:00",
		"2026-03-10",
	}
	for _, value := range valid {
		got, err := ParseSegmentTime(value)
		require.NoError(t, err, value)
		assert.Equal(t, 10, got.Day(), value)
	}

	_, err := ParseSegmentTime("tomorrow morning")
	assert.Error(t, err)
}

func TestSegmentDate_KeepsLocalDate(t *testing.T) {
	date, ok := SegmentDate("2026-03-10T23:30:00-05:00")
	require.True(t, ok)
	assert.Equal(t, "2026-03-10", date)

	_, ok = SegmentDate("")
	assert.False(t, ok)
}

func TestDayKey_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	ts := time.Date(2026, 3, 11, 2, 0, 0, 0, loc)

	assert.Equal(t, "2026-03-10", DayKey(ts))
}
