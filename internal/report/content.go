package report

import (
	"fmt"
	"sort"
	"strings"
)

// LineKind classifies a rendered row of day content.
type LineKind int

const (
	KindTitle LineKind = iota
	KindContent
	KindWorkType
	KindHoliday
	KindSpacer
)

func (k LineKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindContent:
		return "content"
	case KindWorkType:
		return "workType"
	case KindHoliday:
		return "holiday"
	case KindSpacer:
		return "spacer"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// ContentLine is one row's worth of text for a stream. Day is the weekday
// index (0 = Monday) the line belongs to.
type ContentLine struct {
	Kind     LineKind
	Text     string
	DayStart bool
	Day      int
}

const (
	DefaultWorkType    = "내근"
	WorkTypeHoliday    = "공휴일"
	WorkTypeAnnual     = "연차"
	WorkTypeAuthorized = "공가"

	untitledJob = "기타"
	indent      = "   "
)

// IsExempt reports whether a work type replaces the whole day with a single
// holiday line.
func IsExempt(workType string) bool {
	switch workType {
	case WorkTypeHoliday, WorkTypeAnnual, WorkTypeAuthorized:
		return true
	}
	return false
}

// BuildDayLines lays out one weekday. status may be nil, in which case the
// default work type applies. last suppresses the trailing spacer.
func BuildDayLines(day int, jobs []JobEntry, status *DailyStatus, last bool) []ContentLine {
	workType := DefaultWorkType
	holidayName := ""
	if status != nil {
		if wt := strings.TrimSpace(status.WorkType); wt != "" {
			workType = wt
		}
		holidayName = strings.TrimSpace(status.HolidayName)
	}

	var lines []ContentLine
	if IsExempt(workType) {
		text := "[" + workType + "]"
		if workType == WorkTypeHoliday && holidayName != "" {
			text = "[" + WorkTypeHoliday + ": " + holidayName + "]"
		}
		lines = append(lines, ContentLine{Kind: KindHoliday, Text: text, DayStart: true, Day: day})
	} else {
		ordered := make([]JobEntry, len(jobs))
		copy(ordered, jobs)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

		for idx, job := range ordered {
			for lineIdx, text := range splitLines(displayTitle(job)) {
				if lineIdx == 0 {
					text = fmt.Sprintf("%d. %s", idx+1, text)
				} else {
					text = indent + text
				}
				lines = append(lines, ContentLine{
					Kind:     KindTitle,
					Text:     text,
					DayStart: idx == 0 && lineIdx == 0,
					Day:      day,
				})
			}
			for _, text := range splitLines(job.Content) {
				lines = append(lines, ContentLine{Kind: KindContent, Text: indent + text, Day: day})
			}
		}
		lines = append(lines, ContentLine{
			Kind:     KindWorkType,
			Text:     "<" + workType + ">",
			DayStart: len(lines) == 0,
			Day:      day,
		})
	}

	if !last && len(lines) > 0 {
		lines = append(lines, ContentLine{Kind: KindSpacer, Day: day})
	}
	return lines
}

// BuildPeriodLines lays out Monday..Friday of a period back to back.
func BuildPeriodLines(p Period, jobs []JobEntry, statuses []DailyStatus) []ContentLine {
	var byDay [weekdays][]JobEntry
	for _, job := range jobs {
		if idx, ok := p.DayIndex(job.Date); ok {
			byDay[idx] = append(byDay[idx], job)
		}
	}
	var statusByDay [weekdays]*DailyStatus
	for i := range statuses {
		if idx, ok := p.DayIndex(statuses[i].Date); ok {
			statusByDay[idx] = &statuses[i]
		}
	}

	var lines []ContentLine
	for day := 0; day < weekdays; day++ {
		lines = append(lines, BuildDayLines(day, byDay[day], statusByDay[day], day == weekdays-1)...)
	}
	return lines
}

// Lines holds both streams for one report.
type Lines struct {
	Current []ContentLine
	Next    []ContentLine
}

// BuildLines runs the day builder over both periods of the week.
func BuildLines(week Week, data Data) Lines {
	return Lines{
		Current: BuildPeriodLines(week.Current, data.CurrentJobs, data.CurrentStatuses),
		Next:    BuildPeriodLines(week.Next, data.NextJobs, data.NextStatuses),
	}
}

func displayTitle(job JobEntry) string {
	if name := strings.TrimSpace(job.ProjectName); name != "" {
		return job.ProjectName
	}
	if title := strings.TrimSpace(job.Title); title != "" {
		return job.Title
	}
	return untitledJob
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
