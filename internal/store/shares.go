package store

import (
	"fmt"
	"time"

	"medialens/internal/analysis"
)

// monthLayout matches the substr(day, 1, 7) month keys.
const monthLayout = "2006-01"

// MonthlyShares returns the mean topic share per month for one outlet. The
// year range and topic subset of f still apply.
func (s *Store) MonthlyShares(f Filters, outlet string) ([]analysis.ShareRow, error) {
	scoped := f
	scoped.Outlets = nil
	query, args := scoped.apply(`SELECT substr(day, 1, 7), topic, AVG(share)
		FROM topic_shares WHERE outlet = ?`, []any{outlet})
	query += " GROUP BY substr(day, 1, 7), topic ORDER BY substr(day, 1, 7), topic"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying monthly shares: %w", err)
	}
	defer rows.Close()

	var out []analysis.ShareRow
	for rows.Next() {
		var monthStr string
		var r analysis.ShareRow
		if err := rows.Scan(&monthStr, &r.Topic, &r.Share); err != nil {
			return nil, err
		}
		month, err := time.Parse(monthLayout, monthStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored month %q: %w", monthStr, err)
		}
		r.Month = month
		out = append(out, r)
	}
	return out, rows.Err()
}
