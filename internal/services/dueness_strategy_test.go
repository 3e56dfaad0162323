package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := day(2024, 1, 15)
	anchor := day(2024, 1, 1)

	tests := []struct {
		name         string
		lastRecorded time.Time
		want         bool
	}{
		{"never recorded - is due", time.Time{}, true},
		{"recorded 3 days ago - not due", day(2024, 1, 12), false},
		{"recorded 7 days ago - is due", day(2024, 1, 8), true},
		{"recorded 10 days ago - is due", day(2024, 1, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsDue(tt.lastRecorded, now, anchor))
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name         string
		lastRecorded time.Time
		now          time.Time
		anchor       time.Time
		want         bool
	}{
		{"never recorded, day reached - is due", time.Time{}, day(2024, 1, 15), day(2024, 1, 10), true},
		{"never recorded, day not reached - not due", time.Time{}, day(2024, 1, 5), day(2024, 1, 10), false},
		{"recorded this month - not due", day(2024, 1, 10), day(2024, 1, 15), day(2024, 1, 10), false},
		{"new month but before target day - not due", day(2024, 1, 15), day(2024, 2, 10), day(2024, 1, 15), false},
		{"new month and on target day - is due", day(2024, 1, 15), day(2024, 2, 15), day(2024, 1, 15), true},
		// 2024 is a leap year
		{"target day 31 in February - adjusts to 29", day(2024, 1, 31), day(2024, 2, 29), day(2024, 1, 31), true},
		{"target day 31 in February - 28th not yet", day(2024, 1, 31), day(2024, 2, 28), day(2024, 1, 31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsDue(tt.lastRecorded, tt.now, tt.anchor))
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name         string
		lastRecorded time.Time
		now          time.Time
		anchor       time.Time
		want         bool
	}{
		{"recorded this year - not due", day(2024, 3, 15), day(2024, 6, 15), day(2024, 3, 15), false},
		{"new year but before target month - not due", day(2024, 6, 15), day(2025, 3, 15), day(2024, 6, 15), false},
		{"new year and past target month - is due", day(2024, 3, 15), day(2025, 6, 15), day(2024, 3, 15), true},
		{"new year same month before target day - not due", day(2024, 6, 15), day(2025, 6, 10), day(2024, 6, 15), false},
		{"new year same month on target day - is due", day(2024, 6, 15), day(2025, 6, 15), day(2024, 6, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsDue(tt.lastRecorded, tt.now, tt.anchor))
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name       string
		recurrence core.Recurrence
		wantErr    bool
	}{
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"yearly", core.Yearly, false},
		{"once", core.Once, true},
		{"unknown", core.Recurrence("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.recurrence)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, checker)
		})
	}
}
