package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/telefilter/internal/analysis"
	"github.com/KaramelBytes/telefilter/internal/export"
	"github.com/KaramelBytes/telefilter/internal/table"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Options{})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func openBank(t *testing.T, e *Engine) *Session {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "bank.csv"))
	require.NoError(t, err)
	s, err := e.Open(context.Background(), "bank.csv", data, table.FormatAuto, table.DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestApplyAgeRange(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)

	crit, err := s.Criteria(25, 45, nil)
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)

	require.Equal(t, 2, res.Filtered.Len())
	assert.Equal(t, []string{"30", "admin", "married", "no"}, res.Filtered.Record(0))
	assert.Equal(t, []string{"40", "services", "single", "yes"}, res.Filtered.Record(1))

	for _, p := range []*analysis.ProportionTable{res.Comparison.Raw, res.Comparison.Filtered} {
		no, _ := p.Percent("no")
		yes, _ := p.Percent("yes")
		assert.InDelta(t, 50, no, 1e-9)
		assert.InDelta(t, 50, yes, 1e-9)
	}

	require.Len(t, res.Artifacts, 3)
	assert.Empty(t, res.Failed())
	assert.Empty(t, res.Warnings())
	assert.Equal(t, "bank_processed.xlsx", res.Artifacts[0].Name)

	header, rows, err := export.ReadXLSX(res.Artifacts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "job", "marital", "y"}, header)
	assert.Len(t, rows, 2)

	header, rows, err = export.ReadXLSX(res.Artifacts[2].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", analysis.ProportionColumn}, header)
	assert.Equal(t, [][]string{{"no", "50"}, {"yes", "50"}}, rows)
}

func TestApplySelection(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)

	crit, err := s.Criteria(0, 100, map[string][]string{"job": {"admin"}})
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)
	require.Equal(t, 2, res.Filtered.Len())
	for i := 0; i < res.Filtered.Len(); i++ {
		assert.Equal(t, "admin", res.Filtered.Record(i)[1])
	}
}

func TestApplyEmptyResult(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)

	crit, err := s.Criteria(20, 50, map[string][]string{"job": {"services"}, "marital": {"married"}})
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Filtered.Len())
	assert.True(t, res.Comparison.Filtered.NoData)
	assert.False(t, res.Comparison.Raw.NoData)
	assert.InDelta(t, 100, res.Comparison.Raw.Sum(), 1e-9)
	assert.Contains(t, res.Warnings(), "filter produced no rows")

	// Every artifact is still produced; the empty ones carry only a header.
	require.Len(t, res.Artifacts, 3)
	assert.Empty(t, res.Failed())
	header, rows, err := export.ReadXLSX(res.Artifacts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "job", "marital", "y"}, header)
	assert.Empty(t, rows)

	header, rows, err = export.ReadXLSX(res.Artifacts[1].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", analysis.ProportionColumn}, header)
	assert.Equal(t, [][]string{{"no", "50"}, {"yes", "50"}}, rows)

	header, rows, err = export.ReadXLSX(res.Artifacts[2].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", analysis.ProportionColumn}, header)
	assert.Empty(t, rows)
}

func TestProportionArtifactsRoundTrip(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)
	cases := map[string]map[string][]string{
		"matching rows": {"job": {"admin"}},
		"no rows":       {"job": {"pilot"}},
	}
	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			crit, err := s.Criteria(20, 50, sel)
			require.NoError(t, err)
			res, err := s.Apply(context.Background(), crit)
			require.NoError(t, err)

			for i, pt := range []*analysis.ProportionTable{res.Comparison.Raw, res.Comparison.Filtered} {
				want := pt.Table()
				back, err := table.Load("back.xlsx", res.Artifacts[i+1].Data, table.FormatXLSX, table.DefaultOptions())
				require.NoError(t, err)
				assert.Equal(t, want.Names(), back.Names())
				require.Equal(t, want.Len(), back.Len())
				for r := 0; r < want.Len(); r++ {
					assert.Equal(t, want.Record(r), back.Record(r))
				}
			}
		})
	}
}

func TestFilteredKeepsFileName(t *testing.T) {
	e := newEngine(t)
	data, err := os.ReadFile(filepath.Join("testdata", "bank.csv"))
	require.NoError(t, err)

	for _, name := range []string{"first.csv", "second.csv"} {
		s, err := e.Open(context.Background(), name, data, table.FormatAuto, table.DefaultOptions())
		require.NoError(t, err)
		res, err := s.Apply(context.Background(), s.DefaultCriteria())
		require.NoError(t, err)
		assert.Equal(t, name, res.Raw.Name)
		assert.Equal(t, name, res.Filtered.Name)
		assert.Equal(t, name, res.Source)
	}
}

func TestApplyLogsSessionID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e, err := NewEngine(Options{Logger: zap.New(core)})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	s := openBank(t, e)

	_, err = s.Apply(context.Background(), s.DefaultCriteria())
	require.NoError(t, err)

	filtered := logs.FilterMessage("filtered").All()
	require.Len(t, filtered, 1)
	assert.Equal(t, s.ID, filtered[0].ContextMap()["session_id"])
	opened := logs.FilterMessage("session opened").All()
	require.Len(t, opened, 1)
	assert.Equal(t, s.ID, opened[0].ContextMap()["session_id"])
}

func TestCriteriaClampsAndValidates(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)

	crit, err := s.Criteria(-10, 1000, nil)
	require.NoError(t, err)
	require.Len(t, crit.Ranges, 1)
	assert.Equal(t, 20.0, crit.Ranges[0].Min)
	assert.Equal(t, 50.0, crit.Ranges[0].Max)

	_, err = s.Criteria(0, 1, map[string][]string{"nope": {"x"}})
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.ErrorIs(t, err, analysis.ErrUnknownColumn)

	_, err = s.Criteria(0, 1, map[string][]string{"age": {"30"}})
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestOpenRequiresColumns(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.Open(ctx, "no_y.csv", []byte("age;job\n30;admin\n"), table.FormatCSV, table.DefaultOptions())
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `"y"`)

	_, err = e.Open(ctx, "text_age.csv", []byte("age;y\nold;no\n"), table.FormatCSV, table.DefaultOptions())
	require.ErrorIs(t, err, ErrNotNumeric)
}

func TestOpenPropagatesLoadError(t *testing.T) {
	e := newEngine(t)
	_, err := e.Open(context.Background(), "junk.bin", []byte{0xff, 0xfe, 0x00}, table.FormatAuto, table.DefaultOptions())
	require.Error(t, err)
	var le *table.LoadError
	require.True(t, errors.As(err, &le))
	assert.Len(t, le.Causes, 2)
}

func TestApplyIsMemoized(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)
	crit := s.DefaultCriteria()

	first, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)
	second, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)

	assert.Same(t, first.Filtered, second.Filtered)
	assert.Equal(t, first.Artifacts[0].Data, second.Artifacts[0].Data)
	assert.GreaterOrEqual(t, testutil.ToFloat64(e.Metrics().CacheLookups.WithLabelValues("filter", "hit")), 1.0)
	assert.Equal(t, 4, first.Filtered.Len())
}

func TestApplyHonoursCancellation(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Apply(ctx, s.DefaultCriteria())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportMarkdownGolden(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)
	crit, err := s.Criteria(25, 45, nil)
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)

	rep := NewReport(res, DefaultHeadRows)
	rep.SessionID = "test-session"

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report_age_25_45", []byte(rep.Markdown()))
}

func TestReportJSONAndWarnings(t *testing.T) {
	e := newEngine(t)
	s := openBank(t, e)
	crit, err := s.Criteria(20, 50, map[string][]string{"job": {}})
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), crit)
	require.NoError(t, err)

	rep := NewReport(res, 2)
	md := rep.Markdown()
	assert.Contains(t, md, "- job: (none)")
	assert.Contains(t, md, "[NEW DATA PROPORTION] y\n(no data)\n")
	assert.Contains(t, md, "[WARNINGS]\n- filter produced no rows\n- filtered data: ")
	assert.Contains(t, md, "(first 2 of 4 rows)")

	b, err := rep.JSON()
	require.NoError(t, err)
	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rep.SessionID, back.SessionID)
	assert.True(t, back.New.NoData)
	assert.Equal(t, 4, back.RawRows)
	assert.True(t, strings.HasPrefix(back.Warnings[0], "filter produced"))
}
