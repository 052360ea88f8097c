// Package roster reads team membership from a spreadsheet export instead of
// the database.
package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/source"
	"github.com/xuri/excelize/v2"
)

const (
	headerEmployeeID = "employee id"
	headerName       = "name"
	headerTeamID     = "team id"
)

// Entry is one roster row. TeamID is zero when the roster has no team column.
type Entry struct {
	source.Member
	TeamID int64
}

// Load reads a .xls or .xlsx roster from path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read parses a roster. The first row is the header and must contain the
// "employee id" and "name" columns.
func Read(reader io.Reader, filename string) ([]Entry, error) {
	rows, err := readRowsFromSpreadsheet(reader, filename)
	if err != nil {
		return nil, err
	}

	headers := rows[0]
	idIdx, nameIdx, teamIdx := -1, -1, -1
	for i, h := range headers {
		switch normalizeHeader(h) {
		case headerEmployeeID:
			idIdx = i
		case headerName:
			nameIdx = i
		case headerTeamID:
			teamIdx = i
		}
	}
	if idIdx < 0 || nameIdx < 0 {
		return nil, errors.New("roster needs \"employee id\" and \"name\" columns")
	}

	var entries []Entry
	for i, row := range rows[1:] {
		rawID := cellValue(row, idIdx)
		name := cellValue(row, nameIdx)
		if rawID == "" && name == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(rawID, ".0"), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("roster row %d: invalid employee id %q", i+2, rawID)
		}
		if name == "" {
			return nil, fmt.Errorf("roster row %d: name is required", i+2)
		}
		entry := Entry{Member: source.Member{ID: id, Name: name}}
		if raw := cellValue(row, teamIdx); raw != "" {
			if entry.TeamID, err = strconv.ParseInt(strings.TrimSuffix(raw, ".0"), 10, 64); err != nil {
				return nil, fmt.Errorf("roster row %d: invalid team id %q", i+2, raw)
			}
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.New("roster has no members")
	}
	return entries, nil
}

// Source answers TeamMembers from a roster and delegates report loading.
type Source struct {
	source.Source
	entries []Entry
}

func Wrap(src source.Source, entries []Entry) *Source {
	return &Source{Source: src, entries: entries}
}

// TeamMembers returns the roster rows for teamID. Rows without a team are
// members of every team, so a plain name list works for a single team.
func (s *Source) TeamMembers(ctx context.Context, teamID int64) ([]source.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var members []source.Member
	for _, e := range s.entries {
		if e.TeamID == 0 || e.TeamID == teamID {
			members = append(members, e.Member)
		}
	}
	return members, nil
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported roster format %q", ext)
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
