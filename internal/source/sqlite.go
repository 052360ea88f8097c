package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite reads report data from the work log database.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables used by the report read side. Production
// databases are owned by the main application; this is for local use and
// tests.
func (s *SQLite) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			department_id INTEGER REFERENCES departments(id)
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			department_id INTEGER REFERENCES departments(id),
			team_id INTEGER REFERENCES teams(id)
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			project_id INTEGER REFERENCES projects(id),
			job_date TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			is_issue INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_user_date ON jobs(user_id, job_date);`,
		`CREATE TABLE IF NOT EXISTS daily_statuses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			work_type TEXT NOT NULL,
			holiday_name TEXT NOT NULL DEFAULT '',
			UNIQUE(user_id, date)
		);`,
		`CREATE TABLE IF NOT EXISTS weekly_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			week_start TEXT NOT NULL,
			content TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE(user_id, week_start)
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) LoadReport(ctx context.Context, employeeID int64, ref time.Time) (report.Data, error) {
	data := report.Data{EmployeeID: employeeID, ReferenceDate: ref}

	err := s.db.QueryRowContext(ctx, `
		SELECT u.name, COALESCE(d.name, '')
		FROM users u
		LEFT JOIN departments d ON d.id = u.department_id
		WHERE u.id = ?`, employeeID).Scan(&data.Profile.Name, &data.Profile.DepartmentName)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Data{}, fmt.Errorf("employee %d: %w", employeeID, ErrNotFound)
	}
	if err != nil {
		return report.Data{}, fmt.Errorf("load employee: %w", err)
	}

	week := report.WeekOf(ref)
	if data.CurrentJobs, err = s.jobs(ctx, employeeID, week.Current); err != nil {
		return report.Data{}, err
	}
	if data.NextJobs, err = s.jobs(ctx, employeeID, week.Next); err != nil {
		return report.Data{}, err
	}
	if data.CurrentStatuses, err = s.statuses(ctx, employeeID, week.Current); err != nil {
		return report.Data{}, err
	}
	if data.NextStatuses, err = s.statuses(ctx, employeeID, week.Next); err != nil {
		return report.Data{}, err
	}
	if data.WeeklyNote, err = s.weeklyNote(ctx, employeeID, week.Current.Start); err != nil {
		return report.Data{}, err
	}
	return data, nil
}

func (s *SQLite) jobs(ctx context.Context, userID int64, p report.Period) ([]report.JobEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.job_date, j.title, j.content, COALESCE(p.name, ''), j.is_issue, j.sort_order
		FROM jobs j
		LEFT JOIN projects p ON p.id = j.project_id
		WHERE j.user_id = ? AND j.job_date BETWEEN ? AND ?
		ORDER BY j.job_date ASC, j.sort_order ASC, j.id ASC`,
		userID, formatDate(p.Start), formatDate(p.End))
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []report.JobEntry
	for rows.Next() {
		var (
			job  report.JobEntry
			date string
		)
		if err := rows.Scan(&date, &job.Title, &job.Content, &job.ProjectName, &job.IsIssue, &job.Order); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if job.Date, err = ParseDate(date); err != nil {
			return nil, fmt.Errorf("job date %q: %w", date, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *SQLite) statuses(ctx context.Context, userID int64, p report.Period) ([]report.DailyStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, work_type, holiday_name
		FROM daily_statuses
		WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC`,
		userID, formatDate(p.Start), formatDate(p.End))
	if err != nil {
		return nil, fmt.Errorf("query daily statuses: %w", err)
	}
	defer rows.Close()

	var statuses []report.DailyStatus
	for rows.Next() {
		var (
			status report.DailyStatus
			date   string
		)
		if err := rows.Scan(&date, &status.WorkType, &status.HolidayName); err != nil {
			return nil, fmt.Errorf("scan daily status: %w", err)
		}
		if status.Date, err = ParseDate(date); err != nil {
			return nil, fmt.Errorf("status date %q: %w", date, err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (s *SQLite) weeklyNote(ctx context.Context, userID int64, monday time.Time) (string, error) {
	from, to := noteWindow(monday)
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT content
		FROM weekly_notes
		WHERE user_id = ? AND week_start BETWEEN ? AND ?
		ORDER BY updated_at DESC
		LIMIT 1`,
		userID, formatDate(from), formatDate(to)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query weekly note: %w", err)
	}
	return content, nil
}

func (s *SQLite) TeamMembers(ctx context.Context, teamID int64) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users WHERE team_id = ? ORDER BY id ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SaveWeeklyNote validates content and stores it for the week starting at
// weekStart, replacing an earlier note for the same date.
func (s *SQLite) SaveWeeklyNote(ctx context.Context, userID int64, weekStart time.Time, content string) error {
	if err := report.ValidateWeeklyNote(content); err != nil {
		return err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("employee %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load employee: %w", err)
	}
	return withRetry(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO weekly_notes (user_id, week_start, content, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, week_start) DO UPDATE SET
				content = excluded.content,
				updated_at = excluded.updated_at`,
			userID, formatDate(weekStart), content, time.Now().UnixNano())
		return err
	})
}

func withRetry(fn func() error) error {
	const maxAttempts = 3
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		lower := strings.ToLower(err.Error())
		if !strings.Contains(lower, "database is locked") && !strings.Contains(lower, "database is busy") {
			return err
		}
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * 125 * time.Millisecond)
		}
	}
	return err
}
