package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// apply mutates the worksheet according to plan. It is the only step of
// rendering that writes data rows.
func (s *sheet) apply(plan *LayoutPlan) error {
	for _, block := range plan.Expansion.Blocks {
		if err := s.cloneBlock(s.layout.RepeatableBlock, block.Start); err != nil {
			return fmt.Errorf("clone block at row %d: %w", block.Start, err)
		}
	}

	for _, row := range plan.Pool {
		for _, span := range s.groupSpans() {
			if err := s.unmerge(span, row); err != nil {
				return err
			}
		}
		if err := s.clearRow(row); err != nil {
			return fmt.Errorf("clear row %d: %w", row, err)
		}
	}
	if err := s.reloadMerges(); err != nil {
		return err
	}

	for _, p := range plan.Placements {
		if err := s.place(p); err != nil {
			return fmt.Errorf("write row %d (%s): %w", p.Row, p.Stream, err)
		}
	}

	// Rows past either cursor keep the template's merge structure too.
	for _, stream := range []Stream{StreamCurrent, StreamNext} {
		for _, row := range plan.Unused(stream) {
			if err := s.mergeGroup(stream, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sheet) place(p Placement) error {
	g := s.layout.group(p.Stream)
	if p.Line.DayStart {
		cell := fmt.Sprintf("%s%d", g.Label.From, p.Row)
		if err := s.f.SetCellStr(s.name, cell, p.Label); err != nil {
			return err
		}
		if err := s.restyle(cell, "label", func(st *excelize.Style) {
			st.Alignment.Vertical = "center"
		}); err != nil {
			return err
		}
	}
	if p.Line.Kind != KindSpacer {
		cell := fmt.Sprintf("%s%d", g.Content.From, p.Row)
		if err := s.f.SetCellStr(s.name, cell, p.Line.Text); err != nil {
			return err
		}
	}
	return s.mergeGroup(p.Stream, p.Row)
}
