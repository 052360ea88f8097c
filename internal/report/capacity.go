package report

import "fmt"

// Expansion lists the repeatable blocks that must be cloned, in row order.
type Expansion struct {
	Blocks []RowRange
}

// PlanCapacity decides how many repeatable blocks the longer stream needs
// beyond the template's default capacity.
func PlanCapacity(l *Layout, currentLen, nextLen int) (Expansion, error) {
	needed := max(currentLen, nextLen)
	capacity := l.DefaultCapacity()
	if needed <= capacity {
		return Expansion{}, nil
	}
	size := l.BlockSize()
	extra := (needed - capacity + size - 1) / size
	if extra > l.MaxExtraBlocks {
		return Expansion{}, fmt.Errorf("%w: %d rows need %d extra blocks, limit is %d",
			ErrContentTooLarge, needed, extra, l.MaxExtraBlocks)
	}
	blocks := make([]RowRange, 0, extra)
	start := l.RepeatableBlock.End + 1
	for p := 0; p < extra; p++ {
		blocks = append(blocks, RowRange{Start: start, End: start + size - 1})
		start += size
	}
	return Expansion{Blocks: blocks}, nil
}

// Regions returns the template regions followed by the cloned blocks.
func (e Expansion) Regions(l *Layout) []TemplateRegion {
	regions := l.Regions()
	for _, block := range e.Blocks {
		regions = append(regions, TemplateRegion{Rows: block, Kind: RegionDataBlock})
	}
	return regions
}
