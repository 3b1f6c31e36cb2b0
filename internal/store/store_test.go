package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"medialens/internal/dataset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptrF(v float64) *float64 { return &v }

func day(s string) time.Time {
	d, err := time.Parse(dataset.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func m(dayStr string, year int, outlet, topic string, tone, volume *float64) dataset.Measurement {
	return dataset.Measurement{Day: day(dayStr), Year: year, Outlet: outlet, Topic: topic, Tone: tone, Volume: volume}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ms := []dataset.Measurement{
		m("2017-01-01", 2017, "CNN", "Economy", ptrF(-2), ptrF(10)),
		m("2017-01-02", 2017, "CNN", "Economy", ptrF(-4), ptrF(20)),
		m("2018-01-01", 2018, "CNN", "Economy", ptrF(-1), ptrF(30)),
		m("2017-01-01", 2017, "FoxNews", "Economy", ptrF(-6), ptrF(5)),
		m("2017-01-01", 2017, "CNN", "Elections", ptrF(2), ptrF(8)),
	}
	shares := []dataset.Share{
		{Day: day("2017-01-05"), Year: 2017, Outlet: "CNN", Topic: "Economy", Volume: 10, Share: 0.2},
		{Day: day("2017-01-20"), Year: 2017, Outlet: "CNN", Topic: "Economy", Volume: 12, Share: 0.4},
		{Day: day("2017-01-05"), Year: 2017, Outlet: "CNN", Topic: "Elections", Volume: 30, Share: 0.6},
		{Day: day("2017-02-03"), Year: 2017, Outlet: "CNN", Topic: "Economy", Volume: 9, Share: 0.5},
	}
	if err := s.ReplaceAll(ms, shares); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t)
	version, err := getSchemaVersion(s.conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected schema version %d, got %d", latestVersion(), version)
	}
}

func TestSummary(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	sum, err := s.Summary(Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Outlets != 2 || sum.Topics != 2 || sum.Years != 2 {
		t.Errorf("expected 2/2/2, got %d/%d/%d", sum.Outlets, sum.Topics, sum.Years)
	}
	if sum.Measurements != 10 {
		t.Errorf("expected 10 measurement values, got %d", sum.Measurements)
	}
	if sum.FirstDay != "2017-01-01" || sum.LastDay != "2018-01-01" {
		t.Errorf("expected span 2017-01-01..2018-01-01, got %s..%s", sum.FirstDay, sum.LastDay)
	}
}

func TestSummaryFiltered(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	sum, err := s.Summary(Filters{YearFrom: 2017, YearTo: 2017, Outlets: []string{"CNN"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Outlets != 1 || sum.Years != 1 {
		t.Errorf("expected 1 outlet and 1 year, got %d and %d", sum.Outlets, sum.Years)
	}
	if sum.Measurements != 6 {
		t.Errorf("expected 6 measurement values, got %d", sum.Measurements)
	}
}

func TestSummaryEmptySelection(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	sum, err := s.Summary(Filters{Outlets: []string{"Politico"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Measurements != 0 || sum.Outlets != 0 {
		t.Errorf("expected an empty summary, got %+v", sum)
	}
}

func TestReplaceAllOverwrites(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	err := s.ReplaceAll([]dataset.Measurement{
		m("2019-06-01", 2019, "WSJ", "Economy", ptrF(1), nil),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum, _ := s.Summary(Filters{})
	if sum.Outlets != 1 || sum.Measurements != 1 {
		t.Errorf("expected the replacement dataset only, got %+v", sum)
	}
}

func TestHeatmapCells(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	cells, err := s.HeatmapCells(Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}

	// Elections sorts before Economy in display order.
	if cells[0].Topic != "Elections" {
		t.Errorf("expected Elections first, got %s", cells[0].Topic)
	}

	var economy2017, economy2018 *HeatmapCell
	for i := range cells {
		c := &cells[i]
		if c.Topic == "Economy" && c.Year == 2017 {
			economy2017 = c
		}
		if c.Topic == "Economy" && c.Year == 2018 {
			economy2018 = c
		}
	}
	if economy2017 == nil || economy2018 == nil {
		t.Fatal("expected Economy cells for both years")
	}

	if math.Abs(economy2017.MeanTone+4) > 1e-9 {
		t.Errorf("expected mean -4, got %v", economy2017.MeanTone)
	}
	if math.Abs(economy2017.StdDev-2) > 1e-9 {
		t.Errorf("expected sample std 2, got %v", economy2017.StdDev)
	}
	if economy2017.Count != 3 {
		t.Errorf("expected count 3, got %d", economy2017.Count)
	}
	if economy2017.YoYChange != 0 {
		t.Errorf("expected zero YoY on the first year, got %v", economy2017.YoYChange)
	}
	if economy2017.MostNegativeOutlet != "FoxNews" || economy2017.MostPositiveOutlet != "CNN" {
		t.Errorf("unexpected extremes: %s / %s",
			economy2017.MostNegativeOutlet, economy2017.MostPositiveOutlet)
	}

	if math.Abs(economy2018.YoYChange-3) > 1e-9 {
		t.Errorf("expected YoY +3, got %v", economy2018.YoYChange)
	}
}

func TestHeatmapCellsYoYOverPresentYears(t *testing.T) {
	s := openTestStore(t)
	ms := []dataset.Measurement{
		m("2017-01-01", 2017, "CNN", "Economy", ptrF(-2), ptrF(10)),
		m("2019-01-01", 2019, "CNN", "Economy", ptrF(-5), ptrF(10)),
	}
	if err := s.ReplaceAll(ms, nil); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	cells, err := s.HeatmapCells(Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].Year != 2017 || cells[0].YoYChange != 0 {
		t.Errorf("expected zero YoY for 2017, got %v", cells[0].YoYChange)
	}
	// 2018 is absent, so 2019 compares against 2017.
	if math.Abs(cells[1].YoYChange+3) > 1e-9 {
		t.Errorf("expected YoY -3 for 2019, got %v", cells[1].YoYChange)
	}
}

func TestDailyTones(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	rows, err := s.DailyTones(Filters{Topics: []string{"Economy"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Outlet != "CNN" || !rows[0].Day.Equal(day("2017-01-01")) {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].Tone != -2 {
		t.Errorf("expected tone -2, got %v", rows[0].Tone)
	}
}

func TestOutletMeans(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	means, err := s.OutletMeans(Filters{}, "Economy", 2017)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(means) != 2 {
		t.Fatalf("expected 2 outlets, got %d", len(means))
	}
	if means[0].Outlet != "FoxNews" || math.Abs(means[0].MeanTone+6) > 1e-9 {
		t.Errorf("expected FoxNews at -6 first, got %+v", means[0])
	}
	if means[1].Outlet != "CNN" || math.Abs(means[1].MeanTone+3) > 1e-9 {
		t.Errorf("expected CNN at -3, got %+v", means[1])
	}

	only, err := s.OutletMeans(Filters{Outlets: []string{"CNN"}}, "Economy", 2017)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(only) != 1 || only[0].Outlet != "CNN" {
		t.Errorf("expected the outlet subset to apply, got %+v", only)
	}
}

func TestYearlyTones(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	rows, err := s.YearlyTones(Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// 2017 CNN: (-2 + -4 + 2) / 3
	if rows[0].Year != 2017 || rows[0].Outlet != "CNN" || math.Abs(rows[0].Mean+4.0/3.0) > 1e-9 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}

func TestYearlyVolumes(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	rows, err := s.YearlyVolumes(Filters{}, "Economy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Outlet != "CNN" || math.Abs(rows[0].Mean-15) > 1e-9 {
		t.Errorf("expected CNN 2017 volume 15, got %+v", rows[0])
	}
}

func TestMonthlyShares(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	rows, err := s.MonthlyShares(Filters{}, "CNN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Topic != "Economy" || math.Abs(rows[0].Share-0.3) > 1e-9 {
		t.Errorf("expected Economy January mean 0.3, got %+v", rows[0])
	}
	if !rows[2].Month.Equal(day("2017-02-01")) {
		t.Errorf("expected February last, got %v", rows[2].Month)
	}
}

func TestDomain(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	d, err := s.Domain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Outlets) != 2 || d.Outlets[0] != "FoxNews" || d.Outlets[1] != "CNN" {
		t.Errorf("expected display-ordered outlets, got %v", d.Outlets)
	}
	if d.YearMin != 2017 || d.YearMax != 2018 {
		t.Errorf("expected span 2017..2018, got %d..%d", d.YearMin, d.YearMax)
	}
}

func TestCoverage(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	cov, err := s.OutletCoverage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cov) != 2 {
		t.Fatalf("expected 2 outlets, got %d", len(cov))
	}
	var cnn *Coverage
	for i := range cov {
		if cov[i].Name == "CNN" {
			cnn = &cov[i]
		}
	}
	if cnn == nil {
		t.Fatal("expected CNN coverage")
	}
	if cnn.Days != 3 || cnn.Values != 8 {
		t.Errorf("expected 3 days and 8 values, got %d and %d", cnn.Days, cnn.Values)
	}
	if math.Abs(cnn.MeanTone+1.25) > 1e-9 {
		t.Errorf("expected mean tone -1.25, got %v", cnn.MeanTone)
	}
}

func TestImportRecords(t *testing.T) {
	s := openTestStore(t)

	latest, err := s.LatestImport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil before any import, got %+v", latest)
	}

	rec := ImportRecord{
		ToneFile:      "tone.csv",
		ToneChecksum:  "abc",
		ShareFile:     "share.csv",
		ShareChecksum: "def",
		Measurements:  5,
		Shares:        4,
	}
	if err := s.RecordImport(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordImport(ImportRecord{ToneChecksum: "xyz"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err = s.LatestImport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest == nil || latest.ToneChecksum != "xyz" {
		t.Errorf("expected the newest record, got %+v", latest)
	}
	if latest.ImportedAt == "" {
		t.Error("expected imported_at to be filled in")
	}

	history, err := s.ImportHistory(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 || history[1].ToneChecksum != "abc" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestNullableMetrics(t *testing.T) {
	s := openTestStore(t)
	err := s.ReplaceAll([]dataset.Measurement{
		m("2019-06-01", 2019, "WSJ", "Economy", ptrF(1), nil),
		m("2019-06-02", 2019, "WSJ", "Economy", nil, ptrF(7)),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := s.DailyTones(Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected the tone-less row to be excluded, got %d rows", len(rows))
	}

	vols, err := s.YearlyVolumes(Filters{}, "Economy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vols) != 1 || math.Abs(vols[0].Mean-7) > 1e-9 {
		t.Errorf("expected one volume row at 7, got %+v", vols)
	}
}
