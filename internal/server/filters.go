package server

import (
	"net/url"
	"strconv"

	"medialens/internal/config"
	"medialens/internal/dataset"
	"medialens/internal/store"
)

// Selection is the validated filter state for one request. Outlets and
// Topics are always materialized to explicit lists; Empty marks a form
// submission that deselected everything, which is different from the
// first load where nothing was submitted yet.
type Selection struct {
	YearFrom    int
	YearTo      int
	Outlets     []string
	Topics      []string
	Window      int
	ShareOutlet string
	DiveTopic   string
	CellTopic   string
	CellYear    int
	Filtered    bool
	Empty       bool
}

// parseSelection validates raw query parameters against the values the
// store actually holds. Everything out of range snaps back to a sane
// default rather than erroring.
func parseSelection(q url.Values, cfg *config.Config, dom store.Domain) Selection {
	sel := Selection{
		Filtered: q.Get("filtered") == "1",
	}

	sel.YearFrom = atoiDefault(q.Get("from"), cfg.Defaults.YearFrom)
	sel.YearTo = atoiDefault(q.Get("to"), cfg.Defaults.YearTo)
	sel.YearFrom, sel.YearTo = clampYears(sel.YearFrom, sel.YearTo, dom)

	sel.Window = atoiDefault(q.Get("window"), cfg.Defaults.Window)
	if !dataset.ValidWindow(sel.Window) {
		sel.Window = dataset.DefaultWindow
	}

	if sel.Filtered {
		sel.Outlets = intersect(dom.Outlets, q["outlet"])
		sel.Topics = intersect(dom.Topics, q["topic"])
		sel.Empty = len(sel.Outlets) == 0 || len(sel.Topics) == 0
	} else {
		sel.Outlets = dom.Outlets
		sel.Topics = dom.Topics
	}

	sel.ShareOutlet = pickOne(q.Get("share_outlet"), cfg.Defaults.ShareOutlet, dom.Outlets)
	sel.DiveTopic = pickOne(q.Get("dive_topic"), cfg.Defaults.DiveTopic, dom.Topics)

	if topic := q.Get("cell_topic"); topic != "" && contains(dom.Topics, topic) {
		year := atoiDefault(q.Get("cell_year"), 0)
		if year >= sel.YearFrom && year <= sel.YearTo {
			sel.CellTopic = topic
			sel.CellYear = year
		}
	}

	return sel
}

// Encode serializes the selection as a query string. The page form,
// the heatmap links and the chart image URLs all share this state.
func (sel Selection) Encode() string {
	v := url.Values{}
	v.Set("filtered", "1")
	v.Set("from", strconv.Itoa(sel.YearFrom))
	v.Set("to", strconv.Itoa(sel.YearTo))
	v.Set("window", strconv.Itoa(sel.Window))
	for _, o := range sel.Outlets {
		v.Add("outlet", o)
	}
	for _, t := range sel.Topics {
		v.Add("topic", t)
	}
	if sel.ShareOutlet != "" {
		v.Set("share_outlet", sel.ShareOutlet)
	}
	if sel.DiveTopic != "" {
		v.Set("dive_topic", sel.DiveTopic)
	}
	if sel.CellTopic != "" {
		v.Set("cell_topic", sel.CellTopic)
		v.Set("cell_year", strconv.Itoa(sel.CellYear))
	}
	return v.Encode()
}

func (sel Selection) storeFilters() store.Filters {
	return store.Filters{
		YearFrom: sel.YearFrom,
		YearTo:   sel.YearTo,
		Outlets:  sel.Outlets,
		Topics:   sel.Topics,
	}
}

func (sel Selection) hasOutlet(name string) bool {
	return contains(sel.Outlets, name)
}

func (sel Selection) hasTopic(name string) bool {
	return contains(sel.Topics, name)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clampYears(from, to int, dom store.Domain) (int, int) {
	if from > to {
		from, to = to, from
	}
	if dom.YearMin == 0 && dom.YearMax == 0 {
		return from, to
	}
	if from < dom.YearMin {
		from = dom.YearMin
	}
	if from > dom.YearMax {
		from = dom.YearMax
	}
	if to > dom.YearMax {
		to = dom.YearMax
	}
	if to < from {
		to = from
	}
	return from, to
}

// intersect keeps the requested names that exist in the domain,
// preserving the domain's display order.
func intersect(domain, requested []string) []string {
	want := make(map[string]struct{}, len(requested))
	for _, r := range requested {
		want[r] = struct{}{}
	}
	var out []string
	for _, d := range domain {
		if _, ok := want[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// pickOne returns requested when it is present in the domain, then the
// configured default, then the domain's first entry.
func pickOne(requested, fallback string, domain []string) string {
	if contains(domain, requested) {
		return requested
	}
	if contains(domain, fallback) {
		return fallback
	}
	if len(domain) > 0 {
		return domain[0]
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
