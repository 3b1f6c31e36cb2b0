// Package report renders markdown snapshots of the dataset, used by
// the status and export commands.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

// Build renders a markdown report of the dataset under the given filters.
func Build(st *store.Store, f store.Filters) (string, error) {
	sum, err := st.Summary(f)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Coverage report\n\n")
	sb.WriteString(fmt.Sprintf("Generated %s.\n\n", time.Now().UTC().Format("2006-01-02 15:04 UTC")))

	if sum.Measurements == 0 {
		sb.WriteString("No data matches the current filters.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("%d outlets, %d topics, %d years, %d measured values, %s to %s.\n\n",
		sum.Outlets, sum.Topics, sum.Years, sum.Measurements, sum.FirstDay, sum.LastDay))

	outlets, err := st.OutletCoverage()
	if err != nil {
		return "", err
	}
	sb.WriteString("## Outlets\n\n")
	sb.WriteString(coverageTable(outlets))
	sb.WriteString("\n")

	topics, err := st.TopicCoverage()
	if err != nil {
		return "", err
	}
	sb.WriteString("## Topics\n\n")
	sb.WriteString(coverageTable(topics))
	sb.WriteString("\n")

	yearly, err := st.YearlyTones(f)
	if err != nil {
		return "", err
	}
	if len(yearly) > 0 {
		sb.WriteString("## Yearly average tone\n\n")
		sb.WriteString(yearlyTable(yearly))
		sb.WriteString("\n")
	}

	rec, err := st.LatestImport()
	if err != nil {
		return "", err
	}
	sb.WriteString("## Latest import\n\n")
	if rec == nil {
		sb.WriteString("No imports recorded.\n")
	} else {
		sb.WriteString(fmt.Sprintf("%s: %d measurements and %d share rows from %s and %s.\n",
			rec.ImportedAt, rec.Measurements, rec.Shares, rec.ToneFile, rec.ShareFile))
	}

	return sb.String(), nil
}

func coverageTable(rows []store.Coverage) string {
	tbl := NewTable("Name", "Days", "Values", "Mean tone")
	for _, c := range rows {
		tbl.AddRow(c.Name,
			strconv.Itoa(c.Days),
			strconv.FormatInt(c.Values, 10),
			fmt.Sprintf("%+.2f", c.MeanTone))
	}
	return tbl.Markdown()
}

func yearlyTable(rows []store.YearlyMean) string {
	cell := make(map[int]map[string]float64)
	outletSet := make(map[string]struct{})
	var years []int
	for _, r := range rows {
		if cell[r.Year] == nil {
			cell[r.Year] = make(map[string]float64)
			years = append(years, r.Year)
		}
		cell[r.Year][r.Outlet] = r.Mean
		outletSet[r.Outlet] = struct{}{}
	}
	sort.Ints(years)

	outlets := make([]string, 0, len(outletSet))
	for o := range outletSet {
		outlets = append(outlets, o)
	}
	sort.Slice(outlets, func(i, j int) bool {
		oi, oj := dataset.OutletIndex(outlets[i]), dataset.OutletIndex(outlets[j])
		if oi != oj {
			return oi < oj
		}
		return outlets[i] < outlets[j]
	})

	header := make([]string, 0, len(outlets)+1)
	header = append(header, "Year")
	for _, o := range outlets {
		header = append(header, dataset.OutletAbbrev(o))
	}

	tbl := NewTable(header...)
	for _, y := range years {
		row := make([]string, 0, len(outlets)+1)
		row = append(row, strconv.Itoa(y))
		for _, o := range outlets {
			if v, ok := cell[y][o]; ok {
				row = append(row, fmt.Sprintf("%+.2f", v))
			} else {
				row = append(row, "")
			}
		}
		tbl.AddRow(row...)
	}
	return tbl.Markdown()
}
