package analysis

import "time"

// minOverlap is the smallest number of shared days a pair of series needs
// before a correlation coefficient means anything.
const minOverlap = 3

// Correlation holds pairwise Pearson coefficients between outlet tone
// series. R is square and symmetric with ones on the diagonal.
type Correlation struct {
	Outlets []string
	R       [][]float64
}

// Correlate computes the pairwise correlation matrix between series,
// aligning each pair on the days both cover. Pairs with fewer than three
// shared days get a zero coefficient.
func Correlate(series []Series) Correlation {
	n := len(series)
	c := Correlation{Outlets: make([]string, n), R: make([][]float64, n)}
	for i, s := range series {
		c.Outlets[i] = s.Name
		c.R[i] = make([]float64, n)
		c.R[i][i] = 1
	}

	byDay := make([]map[time.Time]float64, n)
	for i, s := range series {
		byDay[i] = make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			byDay[i][p.Day] = p.Value
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var xs, ys []float64
			for _, p := range series[i].Points {
				if y, ok := byDay[j][p.Day]; ok {
					xs = append(xs, p.Value)
					ys = append(ys, y)
				}
			}
			var r float64
			if len(xs) >= minOverlap {
				r = Pearson(xs, ys)
			}
			c.R[i][j] = r
			c.R[j][i] = r
		}
	}
	return c
}
