// Package schedule derives invoice dates from a billing month token.
// Everything here is pure: no clock, no I/O.
package schedule

import (
	"time"

	"github.com/minrafi/invoicer/internal/invoice/domain"
)

// dueDateOffsetDays is fixed: the client pays seven calendar days after issue.
const dueDateOffsetDays = 7

var monthLayouts = []string{"2006-01", "2006-01-02"}

// Derive computes the issue and due dates for a billing month. The issue
// date is the last calendar day of the month (UTC midnight); the due date
// is exactly seven days later.
func Derive(month string) (issueDate, dueDate time.Time, err error) {
	parsed, err := parseMonth(month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	// Day zero of the next month is the last day of this one.
	issueDate = time.Date(parsed.Year(), parsed.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	dueDate = issueDate.AddDate(0, 0, dueDateOffsetDays)
	return issueDate, dueDate, nil
}

// MonthName returns the English month name ("March") for a billing month
// token, or the empty string when the token is unparseable.
func MonthName(month string) string {
	parsed, err := parseMonth(month)
	if err != nil {
		return ""
	}
	return parsed.Month().String()
}

// MonthLabel returns the "March 2024" display form used on the rendered
// invoice, or the empty string when the token is unparseable.
func MonthLabel(month string) string {
	parsed, err := parseMonth(month)
	if err != nil {
		return ""
	}
	return parsed.Format("January 2006")
}

func parseMonth(month string) (time.Time, error) {
	for _, layout := range monthLayouts {
		if parsed, err := time.ParseInLocation(layout, month, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, domain.ErrInvalidMonth
}
