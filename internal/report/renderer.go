package report

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Options struct {
	TemplatePath string
	Layout       *Layout
	// Logo is an optional PNG stamped into the header, see LoadLogo.
	Logo   []byte
	Logger *zap.Logger
}

// Renderer produces weekly report documents from a template file. It holds
// no per-document state and is safe for concurrent use; every call opens
// its own copy of the template.
type Renderer struct {
	templatePath string
	layout       *Layout
	logo         []byte
	logger       *zap.Logger
}

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.TemplatePath == "" {
		return nil, fmt.Errorf("%w: template path is required", ErrTemplate)
	}
	layout := opts.Layout
	if layout == nil {
		layout = DefaultLayout()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		templatePath: opts.TemplatePath,
		layout:       layout,
		logo:         opts.Logo,
		logger:       logger,
	}, nil
}

func (r *Renderer) Layout() *Layout { return r.layout }

// Render builds one employee's document and returns its bytes.
func (r *Renderer) Render(ctx context.Context, data Data) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.logger.With(zap.Int64("employee_id", data.EmployeeID), zap.Time("reference_date", data.ReferenceDate))

	week := WeekOf(data.ReferenceDate)
	lines := BuildLines(week, data)
	plan, err := BuildPlan(r.layout, week, lines)
	if err != nil {
		return nil, err
	}
	log.Debug("layout planned",
		zap.Int("current_lines", len(lines.Current)),
		zap.Int("next_lines", len(lines.Next)),
		zap.Int("extra_blocks", len(plan.Expansion.Blocks)),
		zap.Int("pool_rows", len(plan.Pool)))
	if plan.Dropped[StreamCurrent] > 0 || plan.Dropped[StreamNext] > 0 {
		log.Warn("row pool exhausted, lines dropped",
			zap.Int("current_dropped", plan.Dropped[StreamCurrent]),
			zap.Int("next_dropped", plan.Dropped[StreamNext]))
	}

	f, err := r.openTemplate()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	s, err := openSheet(f, r.layout)
	if err != nil {
		return nil, err
	}
	if err := s.apply(plan); err != nil {
		return nil, fmt.Errorf("apply layout: %w", err)
	}
	if err := s.writeHeader(data.Profile, data.ReferenceDate); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := s.writeWeekDates(week); err != nil {
		return nil, fmt.Errorf("write week dates: %w", err)
	}
	dropped, err := s.writeNote(data.WeeklyNote)
	if err != nil {
		return nil, fmt.Errorf("write weekly note: %w", err)
	}
	if dropped > 0 {
		log.Warn("weekly note longer than the protected region", zap.Int("dropped_lines", dropped))
	}
	if err := s.stampLogo(r.logo); err != nil {
		return nil, fmt.Errorf("stamp logo: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	log.Debug("report rendered", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *Renderer) openTemplate() (*excelize.File, error) {
	f, err := excelize.OpenFile(r.templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: template file not found", ErrTemplate)
		}
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return f, nil
}
