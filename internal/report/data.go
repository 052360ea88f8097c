package report

import "time"

// Profile identifies the reporter printed in the document header.
type Profile struct {
	Name           string
	DepartmentName string
}

// JobEntry is one logged job for a single calendar day.
type JobEntry struct {
	Date        time.Time
	Title       string
	Content     string
	ProjectName string
	IsIssue     bool
	Order       int
}

// DailyStatus carries the work type recorded for a day. At most one per date.
type DailyStatus struct {
	Date        time.Time
	WorkType    string
	HolidayName string
}

// Data is everything a single report needs. Callers pre-filter jobs and
// statuses to their period; entries outside Monday..Friday are ignored.
type Data struct {
	EmployeeID      int64
	ReferenceDate   time.Time
	Profile         Profile
	CurrentJobs     []JobEntry
	NextJobs        []JobEntry
	CurrentStatuses []DailyStatus
	NextStatuses    []DailyStatus
	WeeklyNote      string
}

const weekdays = 5

// Period is a Monday..Friday window.
type Period struct {
	Start time.Time
	End   time.Time
}

// Week pairs the reporting period with the one that follows it.
type Week struct {
	Reference time.Time
	Current   Period
	Next      Period
}

// WeekOf returns the week containing ref. Sunday belongs to the week that
// just ended.
func WeekOf(ref time.Time) Week {
	day := dateOnly(ref)
	offset := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	monday := day.AddDate(0, 0, -offset)
	nextMonday := monday.AddDate(0, 0, 7)
	return Week{
		Reference: day,
		Current:   Period{Start: monday, End: monday.AddDate(0, 0, weekdays-1)},
		Next:      Period{Start: nextMonday, End: nextMonday.AddDate(0, 0, weekdays-1)},
	}
}

// Day returns the i-th weekday of the period, zero being Monday.
func (p Period) Day(i int) time.Time {
	return p.Start.AddDate(0, 0, i)
}

// DayIndex reports which weekday of the period t falls on.
func (p Period) DayIndex(t time.Time) (int, bool) {
	d := dateOnly(t)
	for i := 0; i < weekdays; i++ {
		if sameDate(p.Day(i), d) {
			return i, true
		}
	}
	return 0, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
