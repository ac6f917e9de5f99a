package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpCountsByStatus(t *testing.T) {
	m := New()
	m.Op("load", nil)
	m.Op("load", nil)
	m.Op("load", errors.New("bad"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("load", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("load", "error")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Op("filter", nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Operations.WithLabelValues("filter", "ok")))
}

func TestSnapshot(t *testing.T) {
	m := New()
	m.Op("export", nil)
	m.Rows.WithLabelValues("raw").Set(4)

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap["telefilter_operations_total{op=export,status=ok}"])
	assert.Equal(t, 4.0, snap["telefilter_rows{dataset=raw}"])
}
