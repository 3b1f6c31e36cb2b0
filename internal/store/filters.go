package store

import "strings"

// Filters restricts queries to a year range and outlet/topic subsets. Zero
// years mean no year bound; an empty slice means no restriction on that
// dimension.
type Filters struct {
	YearFrom int
	YearTo   int
	Outlets  []string
	Topics   []string
}

// apply appends the filter conditions to a query that already carries a
// WHERE clause, returning the extended query and argument list.
func (f Filters) apply(query string, args []any) (string, []any) {
	if f.YearFrom != 0 || f.YearTo != 0 {
		query += " AND year BETWEEN ? AND ?"
		args = append(args, f.YearFrom, f.YearTo)
	}
	if len(f.Outlets) > 0 {
		query += " AND outlet IN (" + placeholders(len(f.Outlets)) + ")"
		for _, o := range f.Outlets {
			args = append(args, o)
		}
	}
	if len(f.Topics) > 0 {
		query += " AND topic IN (" + placeholders(len(f.Topics)) + ")"
		for _, t := range f.Topics {
			args = append(args, t)
		}
	}
	return query, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
