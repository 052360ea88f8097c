// Package batch renders a whole team's weekly reports into one archive.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/source"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoMembers = errors.New("해당 팀에 팀원이 존재하지 않습니다.")
	ErrAllFailed = errors.New("no team member report could be generated")
)

const (
	DefaultWorkers   = 4
	FailuresFileName = "failures.json"
)

// Renderer turns one employee's data into document bytes.
type Renderer interface {
	Render(ctx context.Context, data report.Data) ([]byte, error)
}

type Options struct {
	Workers int
	Format  Format
	Logger  *zap.Logger
}

type Packager struct {
	source   source.Source
	renderer Renderer
	workers  int
	format   Format
	logger   *zap.Logger
}

func NewPackager(src source.Source, renderer Renderer, opts Options) *Packager {
	p := &Packager{
		source:   src,
		renderer: renderer,
		workers:  opts.Workers,
		format:   opts.Format,
		logger:   opts.Logger,
	}
	if p.workers <= 0 {
		p.workers = DefaultWorkers
	}
	if p.format == "" {
		p.format = FormatZip
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

func (p *Packager) Format() Format { return p.format }

type Entry struct {
	EmployeeID int64  `json:"employeeId"`
	Name       string `json:"name"`
	FileName   string `json:"fileName"`
	Size       int    `json:"size"`
}

type Failure struct {
	EmployeeID int64  `json:"employeeId"`
	Name       string `json:"name"`
	Error      string `json:"error"`
}

// Manifest records what went into an archive and which members were left
// out.
type Manifest struct {
	ID       string    `json:"id"`
	TeamID   int64     `json:"teamId"`
	Date     string    `json:"date"`
	Format   Format    `json:"format"`
	Entries  []Entry   `json:"entries"`
	Failures []Failure `json:"failures,omitempty"`
}

type Result struct {
	Manifest Manifest
	Archive  []byte
}

// FileName is the archive's download name.
func (r *Result) FileName() string {
	return fmt.Sprintf("TeamWeeklyReport_%d_%s%s", r.Manifest.TeamID, r.Manifest.Date, r.Manifest.Format.Extension())
}

type outcome struct {
	doc []byte
	err error
}

// Package renders every member of teamID for the week containing ref.
// Members that fail are listed in the manifest and in failures.json inside
// the archive; only a team where every member fails is an error.
func (p *Packager) Package(ctx context.Context, teamID int64, ref time.Time) (*Result, error) {
	members, err := p.source.TeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team members: %w", err)
	}
	members = uniqueMembers(members)
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	date := ref.Format("2006-01-02")
	log := p.logger.With(zap.Int64("team_id", teamID), zap.String("date", date))
	started := time.Now()

	outcomes := make([]outcome, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, m := range members {
		if ctx.Err() != nil {
			break
		}
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			data, err := p.source.LoadReport(gctx, m.ID, ref)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			doc, err := p.renderer.Render(gctx, data)
			outcomes[i] = outcome{doc: doc, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest := Manifest{
		ID:     uuid.NewString(),
		TeamID: teamID,
		Date:   date,
		Format: p.format,
	}
	names := fileNames(members, date)
	var files []archiveFile
	for i, m := range members {
		o := outcomes[i]
		if o.err != nil {
			log.Warn("member report failed", zap.Int64("employee_id", m.ID), zap.Error(o.err))
			manifest.Failures = append(manifest.Failures, Failure{EmployeeID: m.ID, Name: m.Name, Error: failureMessage(o.err)})
			continue
		}
		files = append(files, archiveFile{name: names[i], body: o.doc})
		manifest.Entries = append(manifest.Entries, Entry{EmployeeID: m.ID, Name: m.Name, FileName: names[i], Size: len(o.doc)})
	}
	if len(files) == 0 {
		return &Result{Manifest: manifest}, fmt.Errorf("%w: %d of %d failed", ErrAllFailed, len(manifest.Failures), len(members))
	}
	if len(manifest.Failures) > 0 {
		raw, err := json.MarshalIndent(manifest.Failures, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode failures: %w", err)
		}
		files = append(files, archiveFile{name: FailuresFileName, body: raw})
	}

	archive, err := writeArchive(p.format, files, started)
	if err != nil {
		return nil, err
	}
	log.Info("team archive built",
		zap.String("batch_id", manifest.ID),
		zap.Int("members", len(members)),
		zap.Int("failed", len(manifest.Failures)),
		zap.Int("bytes", len(archive)),
		zap.Duration("duration", time.Since(started)))
	return &Result{Manifest: manifest, Archive: archive}, nil
}

// uniqueMembers drops repeated employee ids, keeping the first occurrence.
func uniqueMembers(members []source.Member) []source.Member {
	seen := make(map[int64]bool, len(members))
	out := members[:0:0]
	for _, m := range members {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// fileNames names each member's document. Members sharing a name get their
// employee id appended, and a counter is added until the name is unused.
func fileNames(members []source.Member, date string) []string {
	counts := map[string]int{}
	for _, m := range members {
		counts[cleanName(m.Name)]++
	}
	seen := make(map[string]bool, len(members))
	names := make([]string, len(members))
	for i, m := range members {
		stem := cleanName(m.Name)
		if counts[stem] > 1 {
			stem += "_" + strconv.FormatInt(m.ID, 10)
		}
		base := stem
		for n := 2; seen[base]; n++ {
			base = fmt.Sprintf("%s_%d", stem, n)
		}
		seen[base] = true
		names[i] = fmt.Sprintf("%s_주간보고서_%s.xlsx", base, date)
	}
	return names
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	if name == "" {
		return "unknown"
	}
	return name
}

// failureMessage keeps template problems generic; the details are logged.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, report.ErrTemplate):
		return "report template unavailable"
	case errors.Is(err, source.ErrNotFound):
		return "employee not found"
	default:
		return err.Error()
	}
}
