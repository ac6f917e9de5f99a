package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	_, err := New("x", NewNumeric("a", []float64{1, 2}, nil), NewCategorical("b", []string{"x"}, nil))
	assert.ErrorContains(t, err, "has 1 rows, want 2")

	_, err = New("x", NewNumeric("a", []float64{1}, nil), NewCategorical("a", []string{"x"}, nil))
	assert.ErrorContains(t, err, "duplicate column")
}

func TestTakeRenumbersAndCopies(t *testing.T) {
	ds, err := Load("bank.csv", []byte(bankCSV), FormatCSV, DefaultOptions())
	require.NoError(t, err)

	sub := ds.Take([]int{3, 1})
	require.Equal(t, 2, sub.Len())
	want := [][]string{{"20", "technician", "married", "no"}, {"40", "services", "single", "yes"}}
	got := [][]string{sub.Record(0), sub.Record(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("take mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, "bank.csv", sub.Name)
	assert.Equal(t, FormatCSV, sub.Source)
}

func TestHead(t *testing.T) {
	ds, err := Load("bank.csv", []byte(bankCSV), FormatCSV, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Head(2).Len())
	assert.Equal(t, 4, ds.Head(10).Len())
	assert.Equal(t, 0, ds.Head(-1).Len())
}

func TestDigestFollowsContent(t *testing.T) {
	mk := func(v string) *Dataset {
		ds, err := New("d", NewCategorical("c", []string{v}, nil))
		require.NoError(t, err)
		return ds
	}
	assert.Equal(t, mk("a").Identity(), mk("a").Identity())
	assert.NotEqual(t, mk("a").Identity(), mk("b").Identity())

	withID := mk("a").WithIdentity("fixed")
	assert.Equal(t, "fixed", withID.Identity())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "30", FormatNumber(30))
	assert.Equal(t, "0.5", FormatNumber(0.5))
	assert.Equal(t, "-1250.25", FormatNumber(-1250.25))
}
