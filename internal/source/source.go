// Package source loads the records a weekly report is built from.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
)

var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

// Member is one employee of a team.
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Source is the read side the renderer and batch packager depend on.
type Source interface {
	LoadReport(ctx context.Context, employeeID int64, ref time.Time) (report.Data, error)
	TeamMembers(ctx context.Context, teamID int64) ([]Member, error)
}

// noteWindow is the range of stored week starts accepted for the week that
// begins on monday. Notes saved against the preceding weekend or a day late
// still belong to that week.
func noteWindow(monday time.Time) (time.Time, time.Time) {
	return monday.AddDate(0, 0, -2), monday.AddDate(0, 0, 1)
}

// ParseDate parses a yyyy-mm-dd date in UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
