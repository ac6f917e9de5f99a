package table

import (
	"fmt"
	"math"
	"strconv"
	"sync"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column is a named, typed, read-only vector of cells. Numeric columns keep
// float64 values, categorical columns keep the cell text. Missing cells are
// flagged in null regardless of kind.
type Column struct {
	name string
	kind Kind
	nums []float64
	strs []string
	null []bool
}

// NewNumeric builds a numeric column. null may be nil when no cell is missing.
func NewNumeric(name string, vals []float64, null []bool) *Column {
	return &Column{name: name, kind: KindNumeric, nums: vals, null: normNull(null, len(vals))}
}

// NewCategorical builds a categorical column. null may be nil when no cell is missing.
func NewCategorical(name string, vals []string, null []bool) *Column {
	return &Column{name: name, kind: KindCategorical, strs: vals, null: normNull(null, len(vals))}
}

func normNull(null []bool, n int) []bool {
	if len(null) == n {
		return null
	}
	out := make([]bool, n)
	copy(out, null)
	return out
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.null) }

// IsNull reports whether row i holds the missing marker.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// Float returns the numeric value of row i. ok is false for missing cells and
// for categorical columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.kind != KindNumeric || c.null[i] {
		return 0, false
	}
	return c.nums[i], true
}

// String renders row i as text; missing cells render as "".
func (c *Column) String(i int) string {
	if c.null[i] {
		return ""
	}
	if c.kind == KindNumeric {
		return FormatNumber(c.nums[i])
	}
	return c.strs[i]
}

// Value returns row i as float64, string, or nil when missing.
func (c *Column) Value(i int) any {
	if c.null[i] {
		return nil
	}
	if c.kind == KindNumeric {
		return c.nums[i]
	}
	return c.strs[i]
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, null: make([]bool, len(rows))}
	if c.kind == KindNumeric {
		out.nums = make([]float64, len(rows))
	} else {
		out.strs = make([]string, len(rows))
	}
	for j, i := range rows {
		out.null[j] = c.null[i]
		if c.kind == KindNumeric {
			out.nums[j] = c.nums[i]
		} else {
			out.strs[j] = c.strs[i]
		}
	}
	return out
}

// FormatNumber renders a float in its shortest round-trippable form, so 30
// prints as "30" and 0.5 as "0.5".
func FormatNumber(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Dataset is an ordered set of equal-length columns. It is never mutated after
// construction; filtering produces new datasets through Take.
type Dataset struct {
	Name string
	// Source is the format the dataset was decoded from, empty when built in memory.
	Source Format

	cols  []*Column
	index map[string]int
	rows  int

	idOnce sync.Once
	id     string
}

// New assembles a dataset from columns of equal length. Column names must be unique.
func New(name string, cols ...*Column) (*Dataset, error) {
	d := &Dataset{Name: name, cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), d.rows)
		}
		if _, dup := d.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.name)
		}
		d.index[c.name] = i
	}
	return d, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Columns returns the columns in order. Callers must not modify the slice.
func (d *Dataset) Columns() []*Column { return d.cols }

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.name
	}
	return out
}

// Header implements export.Table.
func (d *Dataset) Header() []string { return d.Names() }

// Cell implements export.Table.
func (d *Dataset) Cell(row, col int) any { return d.cols[col].Value(row) }

// Record returns row i rendered as text.
func (d *Dataset) Record(i int) []string {
	out := make([]string, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.String(i)
	}
	return out
}

// Take returns a new dataset holding the given rows in the given order,
// renumbered from 0. The receiver is left untouched.
func (d *Dataset) Take(rows []int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for j, c := range d.cols {
		cols[j] = c.take(rows)
	}
	return &Dataset{Name: d.Name, Source: d.Source, cols: cols, index: d.index, rows: len(rows)}
}

// Head returns a copy of the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.rows {
		n = d.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.Take(rows)
}

// WithIdentity returns a shallow copy carrying the given identity. Columns are
// shared, which is safe because they are immutable.
func (d *Dataset) WithIdentity(id string) *Dataset {
	out := &Dataset{Name: d.Name, Source: d.Source, cols: d.cols, index: d.index, rows: d.rows}
	out.idOnce.Do(func() { out.id = id })
	return out
}

// Identity returns the dataset's content identity. Loaded and derived datasets
// carry one assigned at construction; otherwise it is the content digest.
func (d *Dataset) Identity() string {
	d.idOnce.Do(func() { d.id = Digest(d) })
	return d.id
}
