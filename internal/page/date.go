package page

import (
	"fmt"
	"time"
)

// DateParts expands a date-time into the template context fields available
// under page.date. Field names and semantics follow the established
// frontmatter date vocabulary (strftime-style parts).
func DateParts(t time.Time) map[string]string {
	isoYear, _ := t.ISOWeek()
	return map[string]string{
		"year":        t.Format("2006"),
		"short_year":  t.Format("06"),
		"month":       t.Format("01"),
		"i_month":     fmt.Sprintf("%d", int(t.Month())),
		"short_month": t.Format("Jan"),
		"long_month":  t.Format("January"),
		"day":         t.Format("02"),
		"i_day":       fmt.Sprintf("%d", t.Day()),
		"y_day":       fmt.Sprintf("%03d", t.YearDay()),
		"w_year":      fmt.Sprintf("%d", isoYear),
		"week":        fmt.Sprintf("%02d", sundayWeek(t)),
		"w_day":       fmt.Sprintf("%d", isoWeekday(t)),
		"short_day":   t.Format("Mon"),
		"long_day":    t.Format("Monday"),
		"hour":        t.Format("15"),
		"minute":      t.Format("04"),
		"second":      t.Format("05"),
		"rfc_3339":    t.Format(time.RFC3339),
		"rfc_2822":    t.Format("Mon, 02 Jan 2006 15:04:05 -0700"),
	}
}

// sundayWeek is the week number of the year with Sunday as the first day of
// the week (00..53), matching strftime %U.
func sundayWeek(t time.Time) int {
	yday := t.YearDay() - 1
	wday := int(t.Weekday()) // Sunday == 0
	return (yday + 7 - wday) / 7
}

// isoWeekday is the day of the week starting with Monday (1..7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
