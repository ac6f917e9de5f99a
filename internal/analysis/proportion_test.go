package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/telefilter/internal/table"
)

func TestProportions(t *testing.T) {
	pt, err := Proportions(bank(t), "y")
	require.NoError(t, err)

	assert.Equal(t, 4, pt.Total)
	require.Len(t, pt.Shares, 2)
	assert.Equal(t, Share{Value: "no", Count: 2, Percent: 50}, pt.Shares[0])
	assert.Equal(t, Share{Value: "yes", Count: 2, Percent: 50}, pt.Shares[1])
}

func TestProportionsSumTo100(t *testing.T) {
	vals := []string{"a", "b", "c", "a", "c", "c", "b"}
	ds, err := table.New("x", table.NewCategorical("y", vals, nil))
	require.NoError(t, err)
	pt, err := Proportions(ds, "y")
	require.NoError(t, err)
	assert.InDelta(t, 100, pt.Sum(), 1e-9)
	p, ok := pt.Percent("c")
	assert.True(t, ok)
	assert.InDelta(t, 300.0/7, p, 1e-9)
}

func TestProportionsNumericOrder(t *testing.T) {
	ds, err := table.New("x", table.NewNumeric("n", []float64{10, 9, 10, 100}, nil))
	require.NoError(t, err)
	pt, err := Proportions(ds, "n")
	require.NoError(t, err)
	var got []string
	for _, s := range pt.Shares {
		got = append(got, s.Value)
	}
	assert.Equal(t, []string{"9", "10", "100"}, got)
}

func TestProportionsIgnoresMissing(t *testing.T) {
	ds, err := table.New("x", table.NewCategorical("y", []string{"no", "", "yes", "yes"}, []bool{false, true, false, false}))
	require.NoError(t, err)
	pt, err := Proportions(ds, "y")
	require.NoError(t, err)
	assert.Equal(t, 3, pt.Total)
	assert.InDelta(t, 100, pt.Sum(), 1e-9)
}

func TestProportionsErrors(t *testing.T) {
	ds := bank(t)
	_, err := Proportions(ds, "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Proportions(ds.Take(nil), "y")
	var empty *EmptyDatasetError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "y", empty.Column)
	assert.True(t, IsEmptyDataset(err))
}

func TestProportionTable(t *testing.T) {
	pt, err := Proportions(bank(t), "y")
	require.NoError(t, err)
	tb := pt.Table()
	assert.Equal(t, []string{"y", ProportionColumn}, tb.Header())
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, "no", tb.Cell(0, 0))
	assert.Equal(t, 50.0, tb.Cell(0, 1))

	assert.Equal(t, 0, NoData("y").Table().Len())
}

func TestCompareEmptyFiltered(t *testing.T) {
	ds := bank(t)
	empty := Filter(ds, Criteria{Categories: map[string]CategoricalFilter{"job": Select("job", "pilot")}})

	cmp, err := Compare(ds, empty, "y")
	require.NoError(t, err)
	assert.False(t, cmp.Raw.NoData)
	assert.InDelta(t, 100, cmp.Raw.Sum(), 1e-9)
	assert.True(t, cmp.Filtered.NoData)
	require.Len(t, cmp.Warnings, 1)
	assert.Contains(t, cmp.Warnings[0], "filtered data")
}

func TestCompareScenario(t *testing.T) {
	ds := bank(t)
	filtered := Filter(ds, Criteria{Ranges: []RangeFilter{{Column: "age", Min: 25, Max: 45}}})
	cmp, err := Compare(ds, filtered, "y")
	require.NoError(t, err)
	assert.Empty(t, cmp.Warnings)
	for _, p := range []*ProportionTable{cmp.Raw, cmp.Filtered} {
		no, _ := p.Percent("no")
		yes, _ := p.Percent("yes")
		assert.Equal(t, 50.0, no)
		assert.Equal(t, 50.0, yes)
	}

	_, err = Compare(ds, filtered, "missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestProportionTableColumnNames(t *testing.T) {
	for _, column := range []string{"y", "outcome"} {
		ds, err := table.New("x", table.NewCategorical(column, []string{"no", "yes", "no"}, nil))
		require.NoError(t, err)
		pt, err := Proportions(ds, column)
		require.NoError(t, err)

		var tb *table.Dataset
		require.NotPanics(t, func() { tb = pt.Table() })
		assert.Equal(t, []string{column, ProportionColumn}, tb.Header())
		assert.Equal(t, []string{column, ProportionColumn}, NoData(column).Table().Header())
	}

	ds, err := table.New("x", table.NewCategorical(ProportionColumn, []string{"a"}, nil))
	require.NoError(t, err)
	pt, err := Proportions(ds, ProportionColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{ProportionColumn, ProportionColumn + "_pct"}, pt.Table().Header())
}

func TestProportionTableNumericKeys(t *testing.T) {
	ds, err := table.New("x", table.NewNumeric("n", []float64{2.5, -1, 10, 2.5}, nil))
	require.NoError(t, err)
	pt, err := Proportions(ds, "n")
	require.NoError(t, err)

	tb := pt.Table()
	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, []any{-1.0, 2.5, 10.0}, []any{tb.Cell(0, 0), tb.Cell(1, 0), tb.Cell(2, 0)})
	assert.Equal(t, 50.0, tb.Cell(1, 1))
}
