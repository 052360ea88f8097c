package report

import (
	"fmt"
	"time"
)

// Stream selects the column group a line is written to.
type Stream int

const (
	StreamCurrent Stream = iota
	StreamNext
)

func (s Stream) String() string {
	if s == StreamNext {
		return "next"
	}
	return "current"
}

var weekdayNames = [weekdays]string{"월", "화", "수", "목", "금"}

// DayLabel renders the weekday name and day of month, e.g. 월(02).
func DayLabel(day int, date time.Time) string {
	return fmt.Sprintf("%s(%02d)", weekdayNames[day], date.Day())
}

// Placement binds one content line to an absolute row.
type Placement struct {
	Row    int
	Stream Stream
	Line   ContentLine
	Label  string
}

// LayoutPlan is the full set of instructions for one document. It is
// computed without touching the workbook.
type LayoutPlan struct {
	Expansion  Expansion
	Pool       RowPool
	Placements []Placement
	Cursors    [2]int
	Dropped    [2]int
}

// BuildPlan sizes the pool for both streams and assigns every line a row.
// Each stream owns its cursor into the shared pool.
func BuildPlan(l *Layout, week Week, lines Lines) (*LayoutPlan, error) {
	expansion, err := PlanCapacity(l, len(lines.Current), len(lines.Next))
	if err != nil {
		return nil, err
	}
	plan := &LayoutPlan{
		Expansion: expansion,
		Pool:      NewRowPool(expansion.Regions(l)),
	}
	plan.place(StreamCurrent, week.Current, lines.Current)
	plan.place(StreamNext, week.Next, lines.Next)
	return plan, nil
}

func (p *LayoutPlan) place(s Stream, period Period, lines []ContentLine) {
	cursor := 0
	for _, line := range lines {
		if cursor >= len(p.Pool) {
			p.Dropped[s]++
			continue
		}
		placement := Placement{Row: p.Pool[cursor], Stream: s, Line: line}
		if line.DayStart {
			placement.Label = DayLabel(line.Day, period.Day(line.Day))
		}
		p.Placements = append(p.Placements, placement)
		cursor++
	}
	p.Cursors[s] = cursor
}

// Unused returns the pool rows at or past the stream's final cursor.
func (p *LayoutPlan) Unused(s Stream) []int {
	return p.Pool[p.Cursors[s]:]
}
