package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const fixture = `{
  "employees": [
    {
      "id": 1,
      "name": "홍길동",
      "department": "개발팀",
      "teamId": 10,
      "jobs": [
        {"date": "2026-03-02", "title": "설계", "content": "API 정의", "order": 1},
        {"date": "2026-03-11", "projectName": "OWMS", "order": 1},
        {"date": "2026-02-27", "title": "지난 주"}
      ],
      "statuses": [
        {"date": "2026-03-06", "workType": "공가"}
      ],
      "weeklyNotes": [
        {"weekStart": "2026-03-01", "content": "old", "updatedAt": "2026-03-01T09:00:00Z"},
        {"weekStart": "2026-03-02", "content": "new", "updatedAt": "2026-03-02T09:00:00Z"},
        {"weekStart": "2026-03-09", "content": "next week", "updatedAt": "2026-03-09T09:00:00Z"}
      ]
    },
    {"id": 2, "name": "김철수", "teamId": 10},
    {"id": 3, "name": "이영희", "teamId": 12}
  ]
}`

func writeFixture(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return f
}

func TestFileLoadReport(t *testing.T) {
	f := writeFixture(t)
	data, err := f.LoadReport(context.Background(), 1, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if len(data.CurrentJobs) != 1 || data.CurrentJobs[0].Title != "설계" {
		t.Fatalf("unexpected current jobs %+v", data.CurrentJobs)
	}
	if len(data.NextJobs) != 1 || data.NextJobs[0].ProjectName != "OWMS" {
		t.Fatalf("unexpected next jobs %+v", data.NextJobs)
	}
	if len(data.CurrentStatuses) != 1 || data.CurrentStatuses[0].WorkType != "공가" {
		t.Fatalf("unexpected statuses %+v", data.CurrentStatuses)
	}
	if data.WeeklyNote != "new" {
		t.Fatalf("expected latest note in the window, got %q", data.WeeklyNote)
	}
	if _, err := f.LoadReport(context.Background(), 9, monday); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileTeamMembers(t *testing.T) {
	f := writeFixture(t)
	members, err := f.TeamMembers(context.Background(), 10)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 || members[1].Name != "김철수" {
		t.Fatalf("unexpected members %+v", members)
	}
}

func TestLoadFileRejectsBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"employees":[{"id":1,"jobs":[{"date":"03/02/2026"}]}]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected invalid date error")
	}
}
