package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheet wraps the template worksheet. It tracks merged ranges so merging
// an already merged range is a no-op, and caches styles derived from the
// template's own styles.
type sheet struct {
	f       *excelize.File
	name    string
	layout  *Layout
	merged  map[string]bool
	derived map[derivedStyle]int
}

type derivedStyle struct {
	base int
	name string
}

func openSheet(f *excelize.File, l *Layout) (*sheet, error) {
	name := f.GetSheetName(l.SheetIndex)
	if name == "" {
		return nil, fmt.Errorf("%w: worksheet %d not found", ErrTemplate, l.SheetIndex)
	}
	s := &sheet{
		f:       f,
		name:    name,
		layout:  l,
		derived: map[derivedStyle]int{},
	}
	if err := s.reloadMerges(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sheet) reloadMerges() error {
	merges, err := s.f.GetMergeCells(s.name)
	if err != nil {
		return fmt.Errorf("read merged cells: %w", err)
	}
	s.merged = make(map[string]bool, len(merges))
	for _, mc := range merges {
		s.merged[mc.GetStartAxis()+":"+mc.GetEndAxis()] = true
	}
	return nil
}

// merge joins span on row, keeping each covered cell's own style.
func (s *sheet) merge(span ColumnSpan, row int) error {
	from, to := span.cells(row)
	ref := from + ":" + to
	if s.merged[ref] {
		return nil
	}
	cells, err := spanCells(span, row)
	if err != nil {
		return err
	}
	styles := make([]int, len(cells))
	for i, cell := range cells {
		if styles[i], err = s.f.GetCellStyle(s.name, cell); err != nil {
			return err
		}
	}
	if err := s.f.MergeCell(s.name, from, to); err != nil {
		return fmt.Errorf("merge %s: %w", ref, err)
	}
	for i, cell := range cells {
		if err := s.f.SetCellStyle(s.name, cell, cell, styles[i]); err != nil {
			return err
		}
	}
	s.merged[ref] = true
	return nil
}

func (s *sheet) unmerge(span ColumnSpan, row int) error {
	from, to := span.cells(row)
	if err := s.f.UnmergeCell(s.name, from, to); err != nil {
		return fmt.Errorf("unmerge %s:%s: %w", from, to, err)
	}
	delete(s.merged, from+":"+to)
	return nil
}

func (s *sheet) groupSpans() []ColumnSpan {
	l := s.layout
	return []ColumnSpan{l.Groups.Current.Label, l.Groups.Current.Content, l.Groups.Next.Label, l.Groups.Next.Content}
}

func (s *sheet) mergeGroup(stream Stream, row int) error {
	g := s.layout.group(stream)
	if err := s.merge(g.Label, row); err != nil {
		return err
	}
	return s.merge(g.Content, row)
}

func (s *sheet) clearRow(row int) error {
	for col := 1; col <= s.layout.Columns; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(s.name, cell, nil); err != nil {
			return err
		}
	}
	return nil
}

// restyle applies a variant of the cell's current style produced by mutate.
// Variants are cached per base style under name.
func (s *sheet) restyle(cell, name string, mutate func(*excelize.Style)) error {
	base, err := s.f.GetCellStyle(s.name, cell)
	if err != nil {
		return err
	}
	key := derivedStyle{base: base, name: name}
	id, ok := s.derived[key]
	if !ok {
		style, err := s.f.GetStyle(base)
		if err != nil {
			return fmt.Errorf("read style %d: %w", base, err)
		}
		variant := excelize.Style{}
		if style != nil {
			variant = *style
		}
		if variant.Alignment != nil {
			alignment := *variant.Alignment
			variant.Alignment = &alignment
		} else {
			variant.Alignment = &excelize.Alignment{}
		}
		mutate(&variant)
		if id, err = s.f.NewStyle(&variant); err != nil {
			return fmt.Errorf("create style: %w", err)
		}
		s.derived[key] = id
	}
	return s.f.SetCellStyle(s.name, cell, cell, id)
}

func spanCells(span ColumnSpan, row int) ([]string, error) {
	from, err := excelize.ColumnNameToNumber(span.From)
	if err != nil {
		return nil, err
	}
	to, err := excelize.ColumnNameToNumber(span.To)
	if err != nil {
		return nil, err
	}
	cells := make([]string, 0, to-from+1)
	for col := from; col <= to; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
