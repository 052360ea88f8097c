package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FormatWrittenDate renders the "작성일" value, e.g. 2026.03.02.
func FormatWrittenDate(t time.Time) string {
	return t.Format("2006.01.02.")
}

func (s *sheet) writeHeader(profile Profile, written time.Time) error {
	h := s.layout.Header
	department := strings.TrimSpace(profile.DepartmentName)
	if department == "" {
		department = h.DefaultDepartment
	}
	reporter := fmt.Sprintf("보고자 : %s %s", department, strings.TrimSpace(profile.Name))
	if err := s.f.SetCellStr(s.name, h.ReporterCell, reporter); err != nil {
		return err
	}
	return s.f.SetCellStr(s.name, h.WrittenCell, "작 성 일 : "+FormatWrittenDate(written))
}

func (s *sheet) writeWeekDates(week Week) error {
	cells := s.layout.Header.DateCells
	values := []struct {
		cell string
		date time.Time
	}{
		{cells.CurrentStart, week.Current.Start},
		{cells.CurrentEnd, week.Current.End},
		{cells.NextStart, week.Next.Start},
		{cells.NextEnd, week.Next.End},
	}
	format := s.layout.Header.DateFormat
	for _, v := range values {
		if err := s.f.SetCellValue(s.name, v.cell, DateSerial(v.date)); err != nil {
			return err
		}
		if err := s.restyle(v.cell, "date", func(st *excelize.Style) {
			st.NumFmt = 0
			st.CustomNumFmt = &format
		}); err != nil {
			return fmt.Errorf("format %s: %w", v.cell, err)
		}
	}
	return nil
}

// writeNote fills the protected note rows, or blanks the whole protected
// region when there is nothing to print. It returns how many lines did not
// fit.
func (s *sheet) writeNote(content string) (int, error) {
	p := s.layout.Protected
	lines := noteLines(content)
	if len(lines) == 0 {
		for row := p.Rows.Start; row <= p.Rows.End; row++ {
			if err := s.clearRow(row); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	dropped := 0
	for i, line := range lines {
		row := p.NoteRows.Start + i
		if row > p.NoteRows.End {
			dropped++
			continue
		}
		cell := fmt.Sprintf("%s%d", p.NoteColumn, row)
		if err := s.f.SetCellStr(s.name, cell, line); err != nil {
			return dropped, err
		}
		if err := s.restyle(cell, "note", func(st *excelize.Style) {
			st.Alignment.Horizontal = "left"
			st.Alignment.Vertical = "center"
			st.Alignment.Indent = 1
		}); err != nil {
			return dropped, err
		}
	}
	return dropped, nil
}
