package report

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayoutYAML []byte

// DefaultMaxExtraBlocks caps expansion when a layout omits max_extra_blocks.
const DefaultMaxExtraBlocks = 25

// RowRange is an inclusive, 1-based row span.
type RowRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

func (r RowRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row <= r.End
}

func (r RowRange) Overlaps(o RowRange) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// ColumnSpan is a horizontal merge group such as A:B.
type ColumnSpan struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func (c ColumnSpan) cells(row int) (string, string) {
	return fmt.Sprintf("%s%d", c.From, row), fmt.Sprintf("%s%d", c.To, row)
}

// GroupColumns are the label and content spans of one stream.
type GroupColumns struct {
	Label   ColumnSpan `yaml:"label"`
	Content ColumnSpan `yaml:"content"`
}

type DateCells struct {
	CurrentStart string `yaml:"current_start"`
	CurrentEnd   string `yaml:"current_end"`
	NextStart    string `yaml:"next_start"`
	NextEnd      string `yaml:"next_end"`
}

type HeaderLayout struct {
	Rows              RowRange  `yaml:"rows"`
	ReporterCell      string    `yaml:"reporter_cell"`
	WrittenCell       string    `yaml:"written_cell"`
	DateCells         DateCells `yaml:"date_cells"`
	DateFormat        string    `yaml:"date_format"`
	DefaultDepartment string    `yaml:"default_department"`
	LogoCell          string    `yaml:"logo_cell"`
}

type ProtectedLayout struct {
	Rows       RowRange `yaml:"rows"`
	NoteRows   RowRange `yaml:"note_rows"`
	NoteColumn string   `yaml:"note_column"`
}

// Layout is the fixed contract between the engine and its template artifact.
type Layout struct {
	Version         int             `yaml:"version"`
	SheetIndex      int             `yaml:"sheet_index"`
	Columns         int             `yaml:"columns"`
	Header          HeaderLayout    `yaml:"header"`
	FirstBlock      RowRange        `yaml:"first_block"`
	Protected       ProtectedLayout `yaml:"protected"`
	RepeatableBlock RowRange        `yaml:"repeatable_block"`
	Groups          struct {
		Current GroupColumns `yaml:"current"`
		Next    GroupColumns `yaml:"next"`
	} `yaml:"groups"`
	MaxExtraBlocks int `yaml:"max_extra_blocks"`
}

// DefaultLayout returns the built-in contract.
func DefaultLayout() *Layout {
	l, err := ParseLayout(defaultLayoutYAML)
	if err != nil {
		panic(fmt.Sprintf("report: embedded layout invalid: %v", err))
	}
	return l
}

// LoadLayout reads a layout file. An empty path yields the default layout.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(raw)
}

func ParseLayout(raw []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if l.MaxExtraBlocks == 0 {
		l.MaxExtraBlocks = DefaultMaxExtraBlocks
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks region ordering and column references.
func (l *Layout) Validate() error {
	if l.Version < 1 {
		return errors.New("layout: version is required")
	}
	if l.SheetIndex < 0 {
		return errors.New("layout: sheet_index must not be negative")
	}
	if l.Columns < 1 {
		return errors.New("layout: columns must be positive")
	}
	ordered := l.Regions()
	for i, region := range ordered {
		if region.Rows.Len() == 0 {
			return fmt.Errorf("layout: %s region %d-%d is empty", region.Kind, region.Rows.Start, region.Rows.End)
		}
		if i > 0 && region.Rows.Start <= ordered[i-1].Rows.End {
			return fmt.Errorf("layout: %s region starting at row %d overlaps the previous region", region.Kind, region.Rows.Start)
		}
	}
	if !l.Protected.Rows.Contains(l.Protected.NoteRows.Start) || !l.Protected.Rows.Contains(l.Protected.NoteRows.End) {
		return errors.New("layout: note rows must sit inside the protected region")
	}
	spans := []ColumnSpan{
		l.Groups.Current.Label, l.Groups.Current.Content,
		l.Groups.Next.Label, l.Groups.Next.Content,
		{From: l.Protected.NoteColumn, To: l.Protected.NoteColumn},
	}
	for _, span := range spans {
		from, err := excelize.ColumnNameToNumber(span.From)
		if err != nil {
			return fmt.Errorf("layout: column %q: %w", span.From, err)
		}
		to, err := excelize.ColumnNameToNumber(span.To)
		if err != nil {
			return fmt.Errorf("layout: column %q: %w", span.To, err)
		}
		if from > to || to > l.Columns {
			return fmt.Errorf("layout: column span %s:%s outside 1..%d", span.From, span.To, l.Columns)
		}
	}
	cells := []string{
		l.Header.ReporterCell, l.Header.WrittenCell,
		l.Header.DateCells.CurrentStart, l.Header.DateCells.CurrentEnd,
		l.Header.DateCells.NextStart, l.Header.DateCells.NextEnd,
	}
	for _, cell := range cells {
		_, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			return fmt.Errorf("layout: header cell %q: %w", cell, err)
		}
		if !l.Header.Rows.Contains(row) {
			return fmt.Errorf("layout: header cell %s outside header rows", cell)
		}
	}
	if l.MaxExtraBlocks < 1 {
		return errors.New("layout: max_extra_blocks must be positive")
	}
	return nil
}

// DefaultCapacity is the number of writable rows the template ships with.
func (l *Layout) DefaultCapacity() int {
	return l.FirstBlock.Len() + l.RepeatableBlock.Len()
}

// BlockSize is the height of one repeatable block.
func (l *Layout) BlockSize() int {
	return l.RepeatableBlock.Len()
}

func (l *Layout) group(s Stream) GroupColumns {
	if s == StreamNext {
		return l.Groups.Next
	}
	return l.Groups.Current
}

// RegionKind tags a template region.
type RegionKind int

const (
	RegionHeader RegionKind = iota
	RegionDataBlock
	RegionProtected
)

func (k RegionKind) String() string {
	switch k {
	case RegionHeader:
		return "header"
	case RegionDataBlock:
		return "data block"
	case RegionProtected:
		return "protected"
	default:
		return fmt.Sprintf("RegionKind(%d)", int(k))
	}
}

type TemplateRegion struct {
	Rows RowRange
	Kind RegionKind
}

// Regions lists the template's built-in regions in row order.
func (l *Layout) Regions() []TemplateRegion {
	return []TemplateRegion{
		{Rows: l.Header.Rows, Kind: RegionHeader},
		{Rows: l.FirstBlock, Kind: RegionDataBlock},
		{Rows: l.Protected.Rows, Kind: RegionProtected},
		{Rows: l.RepeatableBlock, Kind: RegionDataBlock},
	}
}

// RowPool is the ordered list of writable rows.
type RowPool []int

// NewRowPool concatenates the data block regions in order. Rows covered by
// a protected region are never included.
func NewRowPool(regions []TemplateRegion) RowPool {
	var protected []RowRange
	for _, region := range regions {
		if region.Kind == RegionProtected {
			protected = append(protected, region.Rows)
		}
	}
	var pool RowPool
	for _, region := range regions {
		if region.Kind != RegionDataBlock {
			continue
		}
	rows:
		for row := region.Rows.Start; row <= region.Rows.End; row++ {
			for _, p := range protected {
				if p.Contains(row) {
					continue rows
				}
			}
			pool = append(pool, row)
		}
	}
	return pool
}
