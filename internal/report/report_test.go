package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

func TestTableMarkdown(t *testing.T) {
	tbl := NewTable("Outlet", "Mean")
	tbl.AddRow("CNN", "-1.20")
	tbl.AddRow("WashingtonPost", "+0.35")

	out := tbl.Markdown()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}

	width := len(lines[0])
	for i, line := range lines {
		if len(line) != width {
			t.Errorf("line %d not aligned: %q", i, line)
		}
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			t.Errorf("line %d not piped: %q", i, line)
		}
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("expected a separator row, got %q", lines[1])
	}
}

func TestTablePadsShortRows(t *testing.T) {
	tbl := NewTable("A", "B", "C")
	tbl.AddRow("only")

	out := tbl.Markdown()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if strings.Count(lines[2], "|") != 4 {
		t.Errorf("short row should still span all columns: %q", lines[2])
	}
}

func TestTableEmpty(t *testing.T) {
	if out := (&Table{}).Markdown(); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func openSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ptr := func(v float64) *float64 { return &v }
	day := func(str string) time.Time {
		d, err := time.Parse(dataset.DayLayout, str)
		if err != nil {
			t.Fatalf("bad fixture day %q: %v", str, err)
		}
		return d
	}

	ms := []dataset.Measurement{
		{Day: day("2017-01-01"), Year: 2017, Outlet: "CNN", Topic: "Economy", Tone: ptr(-2), Volume: ptr(10)},
		{Day: day("2017-01-02"), Year: 2017, Outlet: "CNN", Topic: "Economy", Tone: ptr(-3), Volume: ptr(12)},
		{Day: day("2018-01-01"), Year: 2018, Outlet: "FoxNews", Topic: "Elections", Tone: ptr(1), Volume: ptr(8)},
	}
	if err := s.ReplaceAll(ms, nil); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return s
}

func TestBuildReport(t *testing.T) {
	s := openSeededStore(t)

	out, err := Build(s, store.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"# Coverage report",
		"## Outlets",
		"## Topics",
		"## Yearly average tone",
		"CNN",
		"No imports recorded.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestBuildReportWithImport(t *testing.T) {
	s := openSeededStore(t)
	rec := store.ImportRecord{
		ToneFile: "tone.csv", ToneChecksum: "abc",
		ShareFile: "share.csv", ShareChecksum: "def",
		Measurements: 3,
	}
	if err := s.RecordImport(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := Build(s, store.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "tone.csv") {
		t.Errorf("expected the import files to be listed:\n%s", out)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	out, err := Build(s, store.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No data matches the current filters.") {
		t.Errorf("expected the empty notice:\n%s", out)
	}
}
