package batch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/source"
	"github.com/ulikunitz/xz"
)

var ref = time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	members []source.Member
	missing map[int64]bool
}

func (f *fakeSource) LoadReport(_ context.Context, id int64, ref time.Time) (report.Data, error) {
	if f.missing[id] {
		return report.Data{}, fmt.Errorf("employee %d: %w", id, source.ErrNotFound)
	}
	return report.Data{EmployeeID: id, ReferenceDate: ref}, nil
}

func (f *fakeSource) TeamMembers(context.Context, int64) ([]source.Member, error) {
	return f.members, nil
}

type fakeRenderer struct {
	fail    map[int64]error
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (r *fakeRenderer) Render(ctx context.Context, data report.Data) ([]byte, error) {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := r.fail[data.EmployeeID]; err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("doc-%d", data.EmployeeID)), nil
}

func readZip(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPackageZip(t *testing.T) {
	src := &fakeSource{members: []source.Member{{ID: 1, Name: "홍길동"}, {ID: 2, Name: "김철수"}}}
	p := NewPackager(src, &fakeRenderer{}, Options{Workers: 2})
	res, err := p.Package(context.Background(), 10, ref)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	files := readZip(t, res.Archive)
	want := []string{"김철수_주간보고서_2026-03-04.xlsx", "홍길동_주간보고서_2026-03-04.xlsx"}
	if diff := cmp.Diff(want, keys(files)); diff != "" {
		t.Fatalf("archive entries mismatch (-want +got):\n%s", diff)
	}
	if files["홍길동_주간보고서_2026-03-04.xlsx"] != "doc-1" {
		t.Fatalf("unexpected document body")
	}
	if res.FileName() != "TeamWeeklyReport_10_2026-03-04.zip" {
		t.Fatalf("unexpected archive name %q", res.FileName())
	}
	if len(res.Manifest.Entries) != 2 || len(res.Manifest.Failures) != 0 || res.Manifest.ID == "" {
		t.Fatalf("unexpected manifest %+v", res.Manifest)
	}
}

func TestPackagePartialFailure(t *testing.T) {
	src := &fakeSource{
		members: []source.Member{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
		missing: map[int64]bool{3: true},
	}
	renderer := &fakeRenderer{fail: map[int64]error{2: fmt.Errorf("%w: sheet missing", report.ErrTemplate)}}
	res, err := NewPackager(src, renderer, Options{}).Package(context.Background(), 1, ref)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	files := readZip(t, res.Archive)
	if _, ok := files["a_주간보고서_2026-03-04.xlsx"]; !ok || len(files) != 2 {
		t.Fatalf("unexpected archive entries %v", keys(files))
	}
	var failures []Failure
	if err := json.Unmarshal([]byte(files[FailuresFileName]), &failures); err != nil {
		t.Fatalf("decode failures: %v", err)
	}
	want := []Failure{
		{EmployeeID: 2, Name: "b", Error: "report template unavailable"},
		{EmployeeID: 3, Name: "c", Error: "employee not found"},
	}
	if diff := cmp.Diff(want, failures); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, res.Manifest.Failures); diff != "" {
		t.Fatalf("manifest failures mismatch (-want +got):\n%s", diff)
	}
}

func TestPackageErrors(t *testing.T) {
	_, err := NewPackager(&fakeSource{}, &fakeRenderer{}, Options{}).Package(context.Background(), 1, ref)
	if !errors.Is(err, ErrNoMembers) || err.Error() != "해당 팀에 팀원이 존재하지 않습니다." {
		t.Fatalf("expected ErrNoMembers, got %v", err)
	}

	src := &fakeSource{members: []source.Member{{ID: 1, Name: "a"}}, missing: map[int64]bool{1: true}}
	res, err := NewPackager(src, &fakeRenderer{}, Options{}).Package(context.Background(), 1, ref)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("expected ErrAllFailed, got %v", err)
	}
	if res == nil || len(res.Manifest.Failures) != 1 || res.Archive != nil {
		t.Fatalf("expected a manifest without an archive, got %+v", res)
	}
}

func TestPackageBoundsConcurrency(t *testing.T) {
	var members []source.Member
	for i := 1; i <= 12; i++ {
		members = append(members, source.Member{ID: int64(i), Name: fmt.Sprintf("m%02d", i)})
	}
	renderer := &fakeRenderer{delay: 10 * time.Millisecond}
	res, err := NewPackager(&fakeSource{members: members}, renderer, Options{Workers: 3}).Package(context.Background(), 1, ref)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	if len(res.Manifest.Entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(res.Manifest.Entries))
	}
	if got := renderer.maxSeen.Load(); got > 3 {
		t.Fatalf("expected at most 3 concurrent renders, saw %d", got)
	}
	for i, e := range res.Manifest.Entries {
		if e.EmployeeID != int64(i+1) {
			t.Fatalf("entries should keep member order, got %d at %d", e.EmployeeID, i)
		}
	}
}

func TestPackageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	members := []source.Member{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	renderer := &fakeRenderer{delay: time.Second}
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := NewPackager(&fakeSource{members: members}, renderer, Options{Workers: 1}).Package(ctx, 1, ref)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPackageTarXZ(t *testing.T) {
	src := &fakeSource{members: []source.Member{{ID: 7, Name: "홍길동"}, {ID: 8, Name: "홍길동"}}}
	res, err := NewPackager(src, &fakeRenderer{}, Options{Format: FormatTarXZ}).Package(context.Background(), 3, ref)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	if res.FileName() != "TeamWeeklyReport_3_2026-03-04.tar.xz" {
		t.Fatalf("unexpected archive name %q", res.FileName())
	}
	xr, err := xz.NewReader(bytes.NewReader(res.Archive))
	if err != nil {
		t.Fatalf("open xz: %v", err)
	}
	tr := tar.NewReader(xr)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		names = append(names, hdr.Name)
	}
	want := []string{"홍길동_7_주간보고서_2026-03-04.xlsx", "홍길동_8_주간보고서_2026-03-04.xlsx"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("tar entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFileNamesNeverCollide(t *testing.T) {
	members := []source.Member{{ID: 1, Name: "김철수"}, {ID: 2, Name: "김철수"}, {ID: 3, Name: "김철수_1"}}
	names := fileNames(members, "2026-03-02")
	want := []string{
		"김철수_1_주간보고서_2026-03-02.xlsx",
		"김철수_2_주간보고서_2026-03-02.xlsx",
		"김철수_1_2_주간보고서_2026-03-02.xlsx",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestPackageSkipsRepeatedMembers(t *testing.T) {
	src := &fakeSource{members: []source.Member{
		{ID: 1, Name: "김철수"},
		{ID: 2, Name: "김철수"},
		{ID: 3, Name: "김철수_1"},
		{ID: 1, Name: "김철수"},
	}}
	res, err := NewPackager(src, &fakeRenderer{}, Options{}).Package(context.Background(), 1, ref)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	files := readZip(t, res.Archive)
	if len(files) != 3 || len(res.Manifest.Entries) != 3 {
		t.Fatalf("expected 3 distinct entries, got %v", keys(files))
	}
	if files["김철수_1_주간보고서_2026-03-04.xlsx"] != "doc-1" || files["김철수_1_2_주간보고서_2026-03-04.xlsx"] != "doc-3" {
		t.Fatalf("entries point at the wrong documents: %v", keys(files))
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatZip, "ZIP": FormatZip, "tar.xz": FormatTarXZ, "txz": FormatTarXZ} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", raw, want, got, err)
		}
	}
	if _, err := ParseFormat("rar"); err == nil {
		t.Fatalf("expected error for rar")
	}
}
