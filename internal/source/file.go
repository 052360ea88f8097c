package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
)

// Date is a yyyy-mm-dd JSON date.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	t, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(formatDate(d.Time))
}

type FileJob struct {
	Date        Date   `json:"date"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ProjectName string `json:"projectName"`
	IsIssue     bool   `json:"isIssue"`
	Order       int    `json:"order"`
}

type FileStatus struct {
	Date        Date   `json:"date"`
	WorkType    string `json:"workType"`
	HolidayName string `json:"holidayName"`
}

type FileNote struct {
	WeekStart Date      `json:"weekStart"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileEmployee struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Department  string       `json:"department"`
	TeamID      int64        `json:"teamId"`
	Jobs        []FileJob    `json:"jobs"`
	Statuses    []FileStatus `json:"statuses"`
	WeeklyNotes []FileNote   `json:"weeklyNotes"`
}

// File serves report data from a JSON fixture, for offline rendering.
type File struct {
	Employees []FileEmployee `json:"employees"`
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return &f, nil
}

func (f *File) employee(id int64) (*FileEmployee, bool) {
	for i := range f.Employees {
		if f.Employees[i].ID == id {
			return &f.Employees[i], true
		}
	}
	return nil, false
}

func (f *File) LoadReport(ctx context.Context, employeeID int64, ref time.Time) (report.Data, error) {
	if err := ctx.Err(); err != nil {
		return report.Data{}, err
	}
	e, ok := f.employee(employeeID)
	if !ok {
		return report.Data{}, fmt.Errorf("employee %d: %w", employeeID, ErrNotFound)
	}
	week := report.WeekOf(ref)
	data := report.Data{
		EmployeeID:    employeeID,
		ReferenceDate: ref,
		Profile:       report.Profile{Name: e.Name, DepartmentName: e.Department},
	}
	for _, j := range e.Jobs {
		job := report.JobEntry{
			Date:        j.Date.Time,
			Title:       j.Title,
			Content:     j.Content,
			ProjectName: j.ProjectName,
			IsIssue:     j.IsIssue,
			Order:       j.Order,
		}
		if _, ok := week.Current.DayIndex(job.Date); ok {
			data.CurrentJobs = append(data.CurrentJobs, job)
		} else if _, ok := week.Next.DayIndex(job.Date); ok {
			data.NextJobs = append(data.NextJobs, job)
		}
	}
	for _, st := range e.Statuses {
		status := report.DailyStatus{Date: st.Date.Time, WorkType: st.WorkType, HolidayName: st.HolidayName}
		if _, ok := week.Current.DayIndex(status.Date); ok {
			data.CurrentStatuses = append(data.CurrentStatuses, status)
		} else if _, ok := week.Next.DayIndex(status.Date); ok {
			data.NextStatuses = append(data.NextStatuses, status)
		}
	}

	from, to := noteWindow(week.Current.Start)
	lo, hi := formatDate(from), formatDate(to)
	var latest *FileNote
	for i := range e.WeeklyNotes {
		n := &e.WeeklyNotes[i]
		if start := formatDate(n.WeekStart.Time); start < lo || start > hi {
			continue
		}
		if latest == nil || n.UpdatedAt.After(latest.UpdatedAt) {
			latest = n
		}
	}
	if latest != nil {
		data.WeeklyNote = latest.Content
	}
	return data, nil
}

func (f *File) TeamMembers(ctx context.Context, teamID int64) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var members []Member
	for _, e := range f.Employees {
		if e.TeamID == teamID {
			members = append(members, Member{ID: e.ID, Name: e.Name})
		}
	}
	return members, nil
}
