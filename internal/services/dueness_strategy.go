package services

// This file implements the Strategy Pattern for recurring obligation dueness.
// Each recurrence (weekly, monthly, yearly) has its own checker that decides
// whether a new occurrence is due given the last recorded one.

import (
	"fmt"
	"time"

	"conti/internal/core"
)

// DuenessChecker is the strategy interface for checking if an occurrence is due.
type DuenessChecker interface {
	// IsDue reports whether an occurrence should exist by now. lastRecorded
	// is zero when nothing has been recorded yet; anchor carries the day
	// (and month, for yearly items) the obligation falls on.
	IsDue(lastRecorded, now, anchor time.Time) bool
}

// WeeklyChecker is due once 7 days have passed since the last occurrence.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRecorded, now, _ time.Time) bool {
	if lastRecorded.IsZero() {
		return true
	}
	return now.Sub(lastRecorded).Hours()/24 >= 7
}

// MonthlyChecker is due once the anchor day has been reached in a month
// without an occurrence.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRecorded, now, anchor time.Time) bool {
	if !lastRecorded.IsZero() && lastRecorded.Year() == now.Year() && lastRecorded.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(anchor.Day(), now.Year(), now.Month())
}

// YearlyChecker is due once the anchor month and day have been reached in a
// year without an occurrence.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRecorded, now, anchor time.Time) bool {
	if !lastRecorded.IsZero() && lastRecorded.Year() == now.Year() {
		return false
	}
	switch {
	case now.Month() < anchor.Month():
		return false
	case now.Month() == anchor.Month():
		return now.Day() >= clampDay(anchor.Day(), now.Year(), now.Month())
	default:
		return true
	}
}

// clampDay moves a day past the end of the month onto its last day, so a
// bill on the 31st falls on the 29th in a leap February.
func clampDay(day, year int, month time.Month) int {
	last := core.Month{Year: year, Month: month}.Days()
	if day > last {
		return last
	}
	return day
}

var duenessStrategies = map[core.Recurrence]DuenessChecker{
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a recurrence. One-off entries
// have none.
func GetDuenessChecker(r core.Recurrence) (DuenessChecker, error) {
	checker, ok := duenessStrategies[r]
	if !ok {
		return nil, fmt.Errorf("no dueness checker for recurrence: %s", r)
	}
	return checker, nil
}
