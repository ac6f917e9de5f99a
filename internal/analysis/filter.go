package analysis

import (
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/telefilter/internal/table"
)

// RangeFilter keeps rows whose numeric value lies in [Min, Max]. Missing and
// NaN values never match.
type RangeFilter struct {
	Column   string
	Min, Max float64
}

func (f RangeFilter) match(c *table.Column, i int) bool {
	v, ok := c.Float(i)
	return ok && v >= f.Min && v <= f.Max
}

// CategoricalFilter keeps rows whose value is one of Values, unless All is set.
type CategoricalFilter struct {
	Column string
	All    bool
	Values []string
}

// SelectAll returns the unconstrained filter for column.
func SelectAll(column string) CategoricalFilter {
	return CategoricalFilter{Column: column, All: true}
}

// Select restricts column to values. A selection containing AllSentinel is
// unconstrained; an empty selection matches nothing.
func Select(column string, values ...string) CategoricalFilter {
	for _, v := range values {
		if v == AllSentinel {
			return SelectAll(column)
		}
	}
	return CategoricalFilter{Column: column, Values: append([]string(nil), values...)}
}

func (f CategoricalFilter) set() map[string]struct{} {
	s := make(map[string]struct{}, len(f.Values))
	for _, v := range f.Values {
		s[v] = struct{}{}
	}
	return s
}

// Criteria is the full parameter bundle for one filtering pass.
type Criteria struct {
	Ranges     []RangeFilter
	Categories map[string]CategoricalFilter
}

// Key is a canonical encoding of the criteria: filter order and value order do
// not change it, and unconstrained filters are omitted.
func (c Criteria) Key() string {
	var parts []string
	for _, r := range c.Ranges {
		parts = append(parts, "r"+strconv.Quote(r.Column)+
			strconv.FormatFloat(r.Min, 'g', -1, 64)+":"+strconv.FormatFloat(r.Max, 'g', -1, 64))
	}
	for col, f := range c.Categories {
		if f.All {
			continue
		}
		vals := make([]string, 0, len(f.Values))
		for v := range f.set() {
			vals = append(vals, strconv.Quote(v))
		}
		sort.Strings(vals)
		parts = append(parts, "c"+strconv.Quote(col)+"["+strings.Join(vals, ",")+"]")
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// predicate tests one row; compiled once per column before scanning rows.
type predicate func(i int) bool

func compile(ds *table.Dataset, c Criteria) (preds []predicate, none bool) {
	for _, r := range c.Ranges {
		col, ok := ds.Column(r.Column)
		if !ok {
			return nil, true
		}
		if r.Min > r.Max {
			return nil, true
		}
		r := r
		preds = append(preds, func(i int) bool { return r.match(col, i) })
	}
	for name, f := range c.Categories {
		if f.All {
			continue
		}
		col, ok := ds.Column(name)
		if !ok || len(f.Values) == 0 {
			return nil, true
		}
		allowed := f.set()
		preds = append(preds, func(i int) bool {
			if col.IsNull(i) {
				return false
			}
			_, ok := allowed[col.String(i)]
			return ok
		})
	}
	return preds, false
}

// Matching returns the indexes of rows satisfying every filter in c, in order.
func Matching(ds *table.Dataset, c Criteria) []int {
	preds, none := compile(ds, c)
	if none {
		return []int{}
	}
	rows := make([]int, 0, ds.Len())
next:
	for i := 0; i < ds.Len(); i++ {
		for _, p := range preds {
			if !p(i) {
				continue next
			}
		}
		rows = append(rows, i)
	}
	return rows
}

// Filter returns the conjunction of all filters in c applied to ds as a new
// dataset renumbered from 0. It never fails: inconsistent criteria produce an
// empty dataset with the same schema. The result's identity derives from the
// parent's identity and c.Key().
func Filter(ds *table.Dataset, c Criteria) *table.Dataset {
	out := ds.Take(Matching(ds, c))
	return out.WithIdentity(DerivedIdentity(ds, c))
}

// DerivedIdentity is the identity of Filter(ds, c).
func DerivedIdentity(ds *table.Dataset, c Criteria) string {
	return table.HashWithDomain(table.DomainDerived, []byte(ds.Identity()), []byte(c.Key()))
}
