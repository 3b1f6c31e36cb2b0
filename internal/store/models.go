package store

// Summary holds the headline numbers for the current selection.
type Summary struct {
	Outlets      int
	Topics       int
	Years        int
	Measurements int64
	FirstDay     string
	LastDay      string
}

// Domain describes the values actually present in the store, outlets and
// topics in display order.
type Domain struct {
	Outlets []string
	Topics  []string
	YearMin int
	YearMax int
}

// HeatmapCell aggregates tone for one topic and year.
type HeatmapCell struct {
	Topic              string
	Year               int
	MeanTone           float64
	StdDev             float64
	Count              int
	YoYChange          float64 // vs the topic's previous year with data, 0 on the first
	MostNegativeOutlet string
	MostPositiveOutlet string
}

// OutletMean is the average tone one outlet scored inside a heatmap cell.
type OutletMean struct {
	Outlet   string
	MeanTone float64
	Count    int
}

// YearlyMean is a per-year, per-outlet average of one metric.
type YearlyMean struct {
	Year   int
	Outlet string
	Mean   float64
}

// Coverage summarizes how much data one outlet or topic contributes.
type Coverage struct {
	Name     string
	Days     int
	Values   int64
	MeanTone float64
}

// ImportRecord is one row of import history.
type ImportRecord struct {
	ID            int64
	ImportedAt    string
	ToneFile      string
	ToneChecksum  string
	ShareFile     string
	ShareChecksum string
	Measurements  int64
	Shares        int64
}
