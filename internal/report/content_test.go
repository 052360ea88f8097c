package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func texts(lines []ContentLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestBuildDayLinesExemptDayEmitsSingleHolidayLine(t *testing.T) {
	jobs := []JobEntry{{Title: "a"}, {Title: "b", Content: "x\ny"}}
	for _, workType := range []string{WorkTypeHoliday, WorkTypeAnnual, WorkTypeAuthorized} {
		lines := BuildDayLines(0, jobs, &DailyStatus{WorkType: workType}, true)
		if len(lines) != 1 {
			t.Fatalf("%s: expected one line, got %d", workType, len(lines))
		}
		if lines[0].Kind != KindHoliday || !lines[0].DayStart {
			t.Fatalf("%s: unexpected line %+v", workType, lines[0])
		}
		if lines[0].Text != "["+workType+"]" {
			t.Fatalf("%s: unexpected text %q", workType, lines[0].Text)
		}
	}
}

func TestBuildDayLinesHolidayName(t *testing.T) {
	lines := BuildDayLines(2, nil, &DailyStatus{WorkType: WorkTypeHoliday, HolidayName: "삼일절"}, false)
	want := []string{"[공휴일: 삼일절]", ""}
	if diff := cmp.Diff(want, texts(lines)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if lines[1].Kind != KindSpacer {
		t.Fatalf("expected trailing spacer, got %s", lines[1].Kind)
	}
}

func TestBuildDayLinesCountsTitleAndContentLines(t *testing.T) {
	jobs := []JobEntry{
		{Title: "설계\n검토", Content: "요구사항 정리\n\n  회의  ", Order: 1},
		{Title: "배포", Order: 2},
		{ProjectName: "OWMS", Title: "ignored", Content: "API", Order: 3},
	}
	lines := BuildDayLines(0, jobs, &DailyStatus{WorkType: "외근"}, true)

	nonSpacer := 0
	for _, l := range lines {
		if l.Kind != KindSpacer {
			nonSpacer++
		}
	}
	// (2+2) + (1+0) + (1+1) + work type
	if nonSpacer != 8 {
		t.Fatalf("expected 8 lines, got %d: %q", nonSpacer, texts(lines))
	}
	want := []string{
		"1. 설계",
		"   검토",
		"   요구사항 정리",
		"   회의",
		"2. 배포",
		"3. OWMS",
		"   API",
		"<외근>",
	}
	if diff := cmp.Diff(want, texts(lines)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	for i, l := range lines {
		if l.DayStart != (i == 0) {
			t.Fatalf("line %d: unexpected DayStart=%v", i, l.DayStart)
		}
	}
}

func TestBuildDayLinesSortsByOrderAndFallsBackToUntitled(t *testing.T) {
	jobs := []JobEntry{{Title: "둘째", Order: 5}, {Title: "  ", Order: 1}}
	lines := BuildDayLines(0, jobs, nil, true)
	want := []string{"1. 기타", "2. 둘째", "<내근>"}
	if diff := cmp.Diff(want, texts(lines)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDayLinesWorkTypeAloneStartsDay(t *testing.T) {
	lines := BuildDayLines(1, nil, nil, false)
	if len(lines) != 2 {
		t.Fatalf("expected work type and spacer, got %d lines", len(lines))
	}
	if lines[0].Kind != KindWorkType || !lines[0].DayStart || lines[0].Text != "<내근>" {
		t.Fatalf("unexpected line %+v", lines[0])
	}
}

func TestBuildPeriodLinesSpacersOnlyBetweenDays(t *testing.T) {
	period := WeekOf(monday).Current
	lines := BuildPeriodLines(period, nil, nil)
	if len(lines) != 9 {
		t.Fatalf("expected 5 work type lines and 4 spacers, got %d", len(lines))
	}
	if lines[len(lines)-1].Kind == KindSpacer {
		t.Fatalf("spacer must not trail the last weekday")
	}
	for i, l := range lines {
		if l.Kind == KindSpacer && (i == 0 || lines[i-1].Kind == KindSpacer) {
			t.Fatalf("spacer at %d does not follow day content", i)
		}
	}
}

func TestBuildPeriodLinesIgnoresEntriesOutsidePeriod(t *testing.T) {
	period := WeekOf(monday).Current
	jobs := []JobEntry{
		{Date: monday.AddDate(0, 0, -1), Title: "sunday"},
		{Date: monday.AddDate(0, 0, 5), Title: "saturday"},
		{Date: monday.AddDate(0, 0, 4), Title: "friday"},
	}
	lines := BuildPeriodLines(period, jobs, nil)
	last := lines[len(lines)-2:]
	want := []string{"1. friday", "<내근>"}
	if diff := cmp.Diff(want, texts(last)); diff != "" {
		t.Fatalf("friday lines mismatch (-want +got):\n%s", diff)
	}
	for _, l := range lines {
		if l.Text == "1. sunday" || l.Text == "1. saturday" {
			t.Fatalf("weekend entry leaked into the period: %q", l.Text)
		}
	}
}

func TestMondayScenario(t *testing.T) {
	week := WeekOf(monday)
	data := Data{
		ReferenceDate: monday,
		CurrentJobs: []JobEntry{
			{Date: monday, Title: "title1", Order: 0},
			{Date: monday, Title: "title2", Order: 1},
		},
	}
	lines := BuildLines(week, data)
	want := []string{"1. title1", "2. title2", "<내근>", ""}
	if diff := cmp.Diff(want, texts(lines.Current[:4])); diff != "" {
		t.Fatalf("monday lines mismatch (-want +got):\n%s", diff)
	}
	if lines.Current[3].Kind != KindSpacer {
		t.Fatalf("expected spacer after monday, got %s", lines.Current[3].Kind)
	}

	plan, err := BuildPlan(DefaultLayout(), week, lines)
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	var rows []int
	var labels []string
	for _, p := range plan.Placements[:4] {
		rows = append(rows, p.Row)
		labels = append(labels, p.Label)
	}
	if diff := cmp.Diff([]int{7, 8, 9, 10}, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"월(02)", "", "", ""}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestWeekOf(t *testing.T) {
	sunday := time.Date(2026, time.March, 8, 15, 30, 0, 0, time.UTC)
	wednesday := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	for _, ref := range []time.Time{monday, wednesday, sunday} {
		week := WeekOf(ref)
		if !week.Current.Start.Equal(monday) {
			t.Fatalf("%s: expected monday %s, got %s", ref, monday, week.Current.Start)
		}
		if week.Current.End.Day() != 6 || week.Next.Start.Day() != 9 || week.Next.End.Day() != 13 {
			t.Fatalf("%s: unexpected periods %+v", ref, week)
		}
	}
}
