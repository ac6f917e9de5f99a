package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/telefilter/internal/table"
)

func TestClassify(t *testing.T) {
	cls := Classify(bank(t))

	assert.Equal(t, []string{"age"}, cls.Numeric())
	assert.Equal(t, []string{"job", "marital", "y"}, cls.Categorical())

	age, ok := cls.Column("age")
	require.True(t, ok)
	assert.True(t, age.HasBounds)
	assert.Equal(t, 20.0, age.Min)
	assert.Equal(t, 50.0, age.Max)

	job, _ := cls.Column("job")
	assert.Equal(t, []string{"admin", "services", "technician", AllSentinel}, job.Choices)
	assert.Equal(t, []string{"admin", "services", "technician"}, job.Values())
}

func TestClassifySkipsMissing(t *testing.T) {
	ds, err := table.Load("m.csv", []byte("age;job;y\nNA;admin;no\n;NA;yes\n"), table.FormatCSV, table.DefaultOptions())
	require.NoError(t, err)
	cls := Classify(ds)

	age, _ := cls.Column("age")
	assert.False(t, age.HasBounds)
	lo, hi := age.Clamp(1, 2)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, hi)

	job, _ := cls.Column("job")
	assert.Equal(t, []string{"admin", AllSentinel}, job.Choices)
}

func TestClamp(t *testing.T) {
	info := ColumnInfo{Kind: table.KindNumeric, Min: 18, Max: 95, HasBounds: true}
	lo, hi := info.Clamp(0, 200)
	assert.Equal(t, 18.0, lo)
	assert.Equal(t, 95.0, hi)
	lo, hi = info.Clamp(60, 30)
	assert.Equal(t, 60.0, lo)
	assert.Equal(t, 30.0, hi)
}

func TestDefaultCriteriaKeepsEverything(t *testing.T) {
	ds := bank(t)
	cls := Classify(ds)
	crit := cls.DefaultCriteria("age", "job", "missing")

	require.Len(t, crit.Ranges, 1)
	assert.Equal(t, RangeFilter{Column: "age", Min: 20, Max: 50}, crit.Ranges[0])
	assert.Len(t, crit.Categories, 3)
	assert.Equal(t, ds.Len(), Filter(ds, crit).Len())
}
