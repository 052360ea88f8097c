package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CloneBlock copies the rows of src to start at target: values, per-cell
// styles, row heights and the four merge groups. The source rows are only
// read. Cloning onto the same target again overwrites it without adding
// duplicate merges.
func CloneBlock(f *excelize.File, l *Layout, src RowRange, target int) error {
	s, err := openSheet(f, l)
	if err != nil {
		return err
	}
	return s.cloneBlock(src, target)
}

func (s *sheet) cloneBlock(src RowRange, target int) error {
	if src.Overlaps(RowRange{Start: target, End: target + src.Len() - 1}) {
		return fmt.Errorf("clone block %d-%d onto row %d: ranges overlap", src.Start, src.End, target)
	}
	for row := src.Start; row <= src.End; row++ {
		dst := target + row - src.Start
		height, err := s.f.GetRowHeight(s.name, row)
		if err != nil {
			return fmt.Errorf("read height of row %d: %w", row, err)
		}
		if err := s.f.SetRowHeight(s.name, dst, height); err != nil {
			return fmt.Errorf("set height of row %d: %w", dst, err)
		}
		for col := 1; col <= s.layout.Columns; col++ {
			if err := s.cloneCell(col, row, dst); err != nil {
				return err
			}
		}
		for _, span := range s.groupSpans() {
			if err := s.merge(span, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sheet) cloneCell(col, row, dst int) error {
	from, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col, dst)
	if err != nil {
		return err
	}
	styleID, err := s.f.GetCellStyle(s.name, from)
	if err != nil {
		return err
	}
	if formula, err := s.f.GetCellFormula(s.name, from); err == nil && formula != "" {
		if err := s.f.SetCellFormula(s.name, to, formula); err != nil {
			return err
		}
	} else if err := s.copyValue(from, to); err != nil {
		return err
	}
	return s.f.SetCellStyle(s.name, to, to, styleID)
}

func (s *sheet) copyValue(from, to string) error {
	raw, err := s.f.GetCellValue(s.name, from, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	if raw == "" {
		return s.f.SetCellValue(s.name, to, nil)
	}
	kind, err := s.f.GetCellType(s.name, from)
	if err != nil {
		return err
	}
	if kind == excelize.CellTypeNumber || kind == excelize.CellTypeUnset {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return s.f.SetCellValue(s.name, to, n)
		}
	}
	return s.f.SetCellStr(s.name, to, raw)
}
