package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildTemplate creates a blank workbook that satisfies l. The production
// template is a hand-authored artifact; this one exists so deployments and
// tests can bootstrap without it.
func BuildTemplate(l *Layout) (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, "양식"); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i := 1; i <= l.SheetIndex; i++ {
		name := fmt.Sprintf("양식 (%d)", i+1)
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := buildTemplateSheet(f, l); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(l.SheetIndex)
	return f, nil
}

// WriteTemplate saves a blank template to path.
func WriteTemplate(path string, l *Layout) error {
	f, err := BuildTemplate(l)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}

func buildTemplateSheet(f *excelize.File, l *Layout) error {
	name := f.GetSheetName(l.SheetIndex)
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	font := &excelize.Font{Family: "맑은 고딕", Size: 10}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "맑은 고딕", Size: 18, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "맑은 고딕", Size: 10, Bold: true},
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:      font,
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Font: font, Border: border})
	if err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(l.Columns)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(name, "A", last, 9); err != nil {
		return err
	}

	if err := f.SetCellStr(name, "A1", "주 간 업 무 보 고"); err != nil {
		return err
	}
	if err := f.MergeCell(name, "A1", fmt.Sprintf("%s2", last)); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "A1", titleStyle); err != nil {
		return err
	}
	if err := f.SetCellStr(name, l.Header.ReporterCell, "보고자 :"); err != nil {
		return err
	}
	if err := f.SetCellStr(name, l.Header.WrittenCell, "작 성 일 :"); err != nil {
		return err
	}

	cur, next := l.Groups.Current, l.Groups.Next
	periodRow := l.Header.Rows.End
	titleRow := periodRow - 1
	heads := []struct {
		span ColumnSpan
		text string
	}{
		{ColumnSpan{From: cur.Label.From, To: cur.Content.To}, "금 주 실 적"},
		{ColumnSpan{From: next.Label.From, To: next.Content.To}, "차 주 계 획"},
	}
	for _, h := range heads {
		from, to := h.span.cells(titleRow)
		if err := f.SetCellStr(name, from, h.text); err != nil {
			return err
		}
		if err := f.MergeCell(name, from, to); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, from, to, headStyle); err != nil {
			return err
		}
	}
	for _, cell := range []string{l.Header.DateCells.CurrentStart, l.Header.DateCells.NextStart} {
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			return err
		}
		tilde, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(name, tilde, "~"); err != nil {
			return err
		}
	}

	for _, block := range []RowRange{l.FirstBlock, l.RepeatableBlock} {
		for row := block.Start; row <= block.End; row++ {
			for _, g := range []GroupColumns{cur, next} {
				if err := styleSpan(f, name, g.Label, row, labelStyle); err != nil {
					return err
				}
				if err := styleSpan(f, name, g.Content, row, bodyStyle); err != nil {
					return err
				}
			}
		}
	}

	p := l.Protected
	if err := f.SetCellStr(name, fmt.Sprintf("A%d", p.Rows.Start), "주간 중요정보 사항"); err != nil {
		return err
	}
	if err := styleSpan(f, name, ColumnSpan{From: "A", To: last}, p.Rows.Start, headStyle); err != nil {
		return err
	}
	noteCol, err := excelize.ColumnNameToNumber(p.NoteColumn)
	if err != nil {
		return err
	}
	for row := p.NoteRows.Start; row <= p.NoteRows.End; row++ {
		if noteCol > 1 {
			before, _ := excelize.ColumnNumberToName(noteCol - 1)
			if err := f.SetCellStr(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%d.", row-p.NoteRows.Start+1)); err != nil {
				return err
			}
			if err := styleSpan(f, name, ColumnSpan{From: "A", To: before}, row, labelStyle); err != nil {
				return err
			}
		}
		if err := styleSpan(f, name, ColumnSpan{From: p.NoteColumn, To: last}, row, bodyStyle); err != nil {
			return err
		}
	}
	return nil
}

func styleSpan(f *excelize.File, sheet string, span ColumnSpan, row, style int) error {
	from, to := span.cells(row)
	if from != to {
		if err := f.MergeCell(sheet, from, to); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, from, to, style)
}
