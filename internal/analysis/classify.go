package analysis

import (
	"math"

	"github.com/KaramelBytes/telefilter/internal/table"
)

// AllSentinel is the selection value meaning "no restriction".
const AllSentinel = "all"

// ColumnInfo describes one classified column.
type ColumnInfo struct {
	Name string
	Kind table.Kind
	// Choices lists categorical values by first occurrence, followed by AllSentinel.
	Choices []string
	// Min and Max are the observed numeric bounds; HasBounds is false when the
	// column has no non-missing value.
	Min, Max  float64
	HasBounds bool
}

// Values returns the choices without the trailing sentinel.
func (c ColumnInfo) Values() []string {
	if len(c.Choices) == 0 {
		return nil
	}
	return c.Choices[:len(c.Choices)-1]
}

// Clamp limits [lo, hi] to the observed bounds. Order is preserved, so a
// reversed range stays reversed.
func (c ColumnInfo) Clamp(lo, hi float64) (float64, float64) {
	if !c.HasBounds {
		return lo, hi
	}
	return math.Min(math.Max(lo, c.Min), c.Max), math.Min(math.Max(hi, c.Min), c.Max)
}

// Classification partitions a dataset's columns into numeric and categorical.
type Classification struct {
	Columns []ColumnInfo
	index   map[string]int
}

// Classify inspects every column of ds.
func Classify(ds *table.Dataset) *Classification {
	cols := ds.Columns()
	out := &Classification{Columns: make([]ColumnInfo, 0, len(cols)), index: make(map[string]int, len(cols))}
	for _, c := range cols {
		info := ColumnInfo{Name: c.Name(), Kind: c.Kind()}
		switch c.Kind() {
		case table.KindNumeric:
			info.Min, info.Max = math.Inf(1), math.Inf(-1)
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Float(i)
				if !ok || math.IsNaN(v) {
					continue
				}
				info.HasBounds = true
				info.Min = math.Min(info.Min, v)
				info.Max = math.Max(info.Max, v)
			}
			if !info.HasBounds {
				info.Min, info.Max = 0, 0
			}
		case table.KindCategorical:
			seen := make(map[string]struct{})
			for i := 0; i < c.Len(); i++ {
				if c.IsNull(i) {
					continue
				}
				v := c.String(i)
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				info.Choices = append(info.Choices, v)
			}
			info.Choices = append(info.Choices, AllSentinel)
		}
		out.index[info.Name] = len(out.Columns)
		out.Columns = append(out.Columns, info)
	}
	return out
}

// Column looks up a classified column.
func (c *Classification) Column(name string) (ColumnInfo, bool) {
	i, ok := c.index[name]
	if !ok {
		return ColumnInfo{}, false
	}
	return c.Columns[i], true
}

// Categorical returns the categorical column names in dataset order.
func (c *Classification) Categorical() []string { return c.names(table.KindCategorical) }

// Numeric returns the numeric column names in dataset order.
func (c *Classification) Numeric() []string { return c.names(table.KindNumeric) }

func (c *Classification) names(k table.Kind) []string {
	var out []string
	for _, col := range c.Columns {
		if col.Kind == k {
			out = append(out, col.Name)
		}
	}
	return out
}

// Filters returns one unconstrained CategoricalFilter per categorical column.
func (c *Classification) Filters() map[string]CategoricalFilter {
	out := make(map[string]CategoricalFilter)
	for _, name := range c.Categorical() {
		out[name] = SelectAll(name)
	}
	return out
}

// DefaultCriteria spans the observed bounds of each range column and leaves
// every categorical column at "all". Range columns that are not numeric or have
// no observed value are skipped.
func (c *Classification) DefaultCriteria(rangeColumns ...string) Criteria {
	crit := Criteria{Categories: c.Filters()}
	for _, name := range rangeColumns {
		info, ok := c.Column(name)
		if !ok || info.Kind != table.KindNumeric || !info.HasBounds {
			continue
		}
		crit.Ranges = append(crit.Ranges, RangeFilter{Column: name, Min: info.Min, Max: info.Max})
	}
	return crit
}
