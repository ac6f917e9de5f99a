package analysis

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/telefilter/internal/table"
)

// ProportionColumn is the header of the percentage column in rendered tables.
const ProportionColumn = "proportion"

// Share is one category of a distribution.
type Share struct {
	Value   string
	Count   int
	Percent float64

	num float64 // numeric category value; zero for text categories
}

// ProportionTable is the normalized frequency distribution of one column,
// sorted by category ascending. NoData marks the substitute for an empty input.
type ProportionTable struct {
	Column string
	Kind   table.Kind
	Total  int
	Shares []Share
	NoData bool
}

// NoData returns the explicit empty result for column.
func NoData(column string) *ProportionTable {
	return &ProportionTable{Column: column, Kind: table.KindCategorical, NoData: true}
}

// Proportions computes 100*count/total for every distinct non-missing value of
// column, where total counts the non-missing cells.
func Proportions(ds *table.Dataset, column string) (*ProportionTable, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, fmt.Errorf("proportions: %w: %s", ErrUnknownColumn, column)
	}
	counts := make(map[string]int)
	nums := make(map[string]float64)
	var keys []string
	total := 0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.String(i)
		if _, ok := counts[v]; !ok {
			keys = append(keys, v)
			if x, ok := col.Float(i); ok {
				nums[v] = x
			}
		}
		counts[v]++
		total++
	}
	if total == 0 {
		return nil, &EmptyDatasetError{Column: column}
	}
	if col.Kind() == table.KindNumeric {
		sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
	} else {
		sort.Strings(keys)
	}
	pt := &ProportionTable{Column: column, Kind: col.Kind(), Total: total, Shares: make([]Share, len(keys))}
	for i, k := range keys {
		pt.Shares[i] = Share{Value: k, Count: counts[k], Percent: 100 * float64(counts[k]) / float64(total), num: nums[k]}
	}
	return pt, nil
}

// Percent returns the share of value, false when the value was not observed.
func (p *ProportionTable) Percent(value string) (float64, bool) {
	for _, s := range p.Shares {
		if s.Value == value {
			return s.Percent, true
		}
	}
	return 0, false
}

// Sum adds up every percentage; 100 for any non-empty table.
func (p *ProportionTable) Sum() float64 {
	var sum float64
	for _, s := range p.Shares {
		sum += s.Percent
	}
	return sum
}

// Table renders the distribution as a two-column dataset: the category column
// (keeping the source kind) and ProportionColumn.
func (p *ProportionTable) Table() *table.Dataset {
	n := len(p.Shares)
	pct := make([]float64, n)
	var key *table.Column
	if p.Kind == table.KindNumeric {
		vals := make([]float64, n)
		for i, s := range p.Shares {
			vals[i] = s.num
			pct[i] = s.Percent
		}
		key = table.NewNumeric(p.Column, vals, nil)
	} else {
		vals := make([]string, n)
		for i, s := range p.Shares {
			vals[i] = s.Value
			pct[i] = s.Percent
		}
		key = table.NewCategorical(p.Column, vals, nil)
	}
	name := ProportionColumn
	if p.Column == ProportionColumn {
		name = ProportionColumn + "_pct"
	}
	ds, err := table.New(p.Column+" proportions", key, table.NewNumeric(name, pct, nil))
	if err != nil {
		// Both columns have n rows and distinct names.
		panic(err)
	}
	return ds
}

// Comparison holds the outcome distribution before and after filtering.
type Comparison struct {
	Column   string
	Raw      *ProportionTable
	Filtered *ProportionTable
	Warnings []string
}

// Compare computes the raw and filtered distributions independently. An empty
// side is replaced by NoData and noted in Warnings; other errors are returned.
func Compare(raw, filtered *table.Dataset, column string) (*Comparison, error) {
	cmp := &Comparison{Column: column}
	var err error
	if cmp.Raw, err = proportionsOrNoData(raw, column); err != nil {
		if !IsEmptyDataset(err) {
			return nil, err
		}
		cmp.Warnings = append(cmp.Warnings, fmt.Sprintf("raw data: %v", err))
	}
	if cmp.Filtered, err = proportionsOrNoData(filtered, column); err != nil {
		if !IsEmptyDataset(err) {
			return nil, err
		}
		cmp.Warnings = append(cmp.Warnings, fmt.Sprintf("filtered data: %v", err))
	}
	return cmp, nil
}

// proportionsOrNoData returns NoData alongside an *EmptyDatasetError so the
// caller can keep going with an explicit empty result.
func proportionsOrNoData(ds *table.Dataset, column string) (*ProportionTable, error) {
	pt, err := Proportions(ds, column)
	if err != nil && IsEmptyDataset(err) {
		return NoData(column), err
	}
	return pt, err
}
