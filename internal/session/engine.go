// Package session wires loading, filtering, proportions and export into one
// pipeline and memoizes every pure step.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/telefilter/internal/analysis"
	"github.com/KaramelBytes/telefilter/internal/cache"
	"github.com/KaramelBytes/telefilter/internal/export"
	"github.com/KaramelBytes/telefilter/internal/logger"
	"github.com/KaramelBytes/telefilter/internal/metrics"
	"github.com/KaramelBytes/telefilter/internal/table"
)

// ArtifactNames are the file names given to the three exported workbooks.
type ArtifactNames struct {
	Processed       string
	RawOutcome      string
	FilteredOutcome string
}

// Options configures an Engine.
type Options struct {
	RangeColumn   string
	OutcomeColumn string
	Artifacts     ArtifactNames
	// CacheMaxCost bounds each memo cache, in bytes for blobs and cells for datasets.
	CacheMaxCost int64
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// DefaultOptions matches the bank marketing campaign layout.
func DefaultOptions() Options {
	return Options{
		RangeColumn:   "age",
		OutcomeColumn: "y",
		Artifacts: ArtifactNames{
			Processed:       "bank_processed.xlsx",
			RawOutcome:      "bank_raw_y.xlsx",
			FilteredOutcome: "bank_y.xlsx",
		},
		CacheMaxCost: 64 << 20,
	}
}

// Engine owns the memo caches shared by every session it opens.
type Engine struct {
	opt     Options
	log     *zap.Logger
	metrics *metrics.Metrics

	loads   *cache.Cache
	filters *cache.Cache
	exports *cache.Cache
}

// NewEngine builds an engine. Zero-valued options fall back to DefaultOptions.
func NewEngine(opt Options) (*Engine, error) {
	def := DefaultOptions()
	if opt.RangeColumn == "" {
		opt.RangeColumn = def.RangeColumn
	}
	if opt.OutcomeColumn == "" {
		opt.OutcomeColumn = def.OutcomeColumn
	}
	if opt.Artifacts.Processed == "" {
		opt.Artifacts.Processed = def.Artifacts.Processed
	}
	if opt.Artifacts.RawOutcome == "" {
		opt.Artifacts.RawOutcome = def.Artifacts.RawOutcome
	}
	if opt.Artifacts.FilteredOutcome == "" {
		opt.Artifacts.FilteredOutcome = def.Artifacts.FilteredOutcome
	}
	if opt.CacheMaxCost <= 0 {
		opt.CacheMaxCost = def.CacheMaxCost
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Metrics == nil {
		opt.Metrics = metrics.New()
	}

	e := &Engine{opt: opt, log: opt.Logger, metrics: opt.Metrics}
	var err error
	for _, c := range []struct {
		name string
		dst  **cache.Cache
	}{{"load", &e.loads}, {"filter", &e.filters}, {"export", &e.exports}} {
		*c.dst, err = cache.New(cache.Config{Name: c.name, MaxCost: opt.CacheMaxCost, Logger: opt.Logger, Metrics: opt.Metrics})
		if err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

// Options returns the resolved options.
func (e *Engine) Options() Options { return e.opt }

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Close stops the caches.
func (e *Engine) Close() {
	for _, c := range []*cache.Cache{e.loads, e.filters, e.exports} {
		if c != nil {
			c.Close()
		}
	}
}

func datasetCost(ds *table.Dataset) int64 {
	return int64(ds.Len()*len(ds.Columns())) + 1
}

// Load decodes data, reusing the result of an earlier call with the same
// name, bytes, format and options.
func (e *Engine) Load(ctx context.Context, name string, data []byte, f table.Format, lo table.Options) (*table.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := table.InputIdentity(name, data, f, lo)
	ds, err := cache.Memo(e.loads, key, datasetCost, func() (*table.Dataset, error) {
		return table.Load(name, data, f, lo)
	})
	e.metrics.Op("load", err)
	if err != nil {
		e.log.Warn("load failed", zap.String("file", name), zap.Error(err))
		return nil, err
	}
	e.log.Debug("loaded dataset",
		zap.String("file", name),
		zap.String("format", string(ds.Source)),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns())))
	return ds, nil
}

// Open loads data, classifies it and checks the range and outcome columns.
func (e *Engine) Open(ctx context.Context, name string, data []byte, f table.Format, lo table.Options) (*Session, error) {
	raw, err := e.Load(ctx, name, data, f, lo)
	if err != nil {
		return nil, err
	}
	cls := analysis.Classify(raw)
	for _, col := range []string{e.opt.RangeColumn, e.opt.OutcomeColumn} {
		if _, ok := cls.Column(col); !ok {
			return nil, fmt.Errorf("%w: %q (columns: %s)", ErrMissingColumn, col, strings.Join(raw.Names(), ", "))
		}
	}
	if info, _ := cls.Column(e.opt.RangeColumn); info.Kind != table.KindNumeric {
		return nil, fmt.Errorf("range column %q: %w", e.opt.RangeColumn, ErrNotNumeric)
	}
	s := &Session{ID: uuid.NewString(), Raw: raw, Classification: cls, e: e}
	e.metrics.Rows.WithLabelValues("raw").Set(float64(raw.Len()))
	logger.FromContext(logger.ContextWithSessionID(ctx, s.ID), e.log).
		Info("session opened", zap.String("file", name), zap.Int("rows", raw.Len()))
	return s, nil
}

// Session is one loaded dataset and its classification.
type Session struct {
	ID             string
	Raw            *table.Dataset
	Classification *analysis.Classification

	e *Engine
}

// RangeColumn describes the configured range column.
func (s *Session) RangeColumn() analysis.ColumnInfo {
	info, _ := s.Classification.Column(s.e.opt.RangeColumn)
	return info
}

// Criteria builds the filter for one pass: the range column limited to
// [lo, hi] clamped to the observed bounds, and each selected categorical column
// restricted to its values. Columns not named in selections stay at "all".
func (s *Session) Criteria(lo, hi float64, selections map[string][]string) (analysis.Criteria, error) {
	rc := s.RangeColumn()
	lo, hi = rc.Clamp(lo, hi)
	crit := analysis.Criteria{
		Ranges:     []analysis.RangeFilter{{Column: rc.Name, Min: lo, Max: hi}},
		Categories: s.Classification.Filters(),
	}
	names := make([]string, 0, len(selections))
	for name := range selections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		info, ok := s.Classification.Column(name)
		if !ok {
			return analysis.Criteria{}, fmt.Errorf("%w: %w: %s", ErrInvalidSelection, analysis.ErrUnknownColumn, name)
		}
		if info.Kind != table.KindCategorical {
			return analysis.Criteria{}, fmt.Errorf("%w: column %q is %s", ErrInvalidSelection, name, info.Kind)
		}
		crit.Categories[name] = analysis.Select(name, selections[name]...)
	}
	return crit, nil
}

// DefaultCriteria spans the whole range column and selects "all" everywhere.
func (s *Session) DefaultCriteria() analysis.Criteria {
	return s.Classification.DefaultCriteria(s.e.opt.RangeColumn)
}

// Artifact is one exported workbook. Err is set when only this export failed.
type Artifact struct {
	Name string
	Data []byte
	Err  error
}

// Result is the outcome of one filtering pass.
type Result struct {
	SessionID     string
	Source        string
	Criteria      analysis.Criteria
	Raw           *table.Dataset
	Filtered      *table.Dataset
	Comparison    *analysis.Comparison
	Artifacts     []Artifact
	OutcomeColumn string
}

// Warnings lists the conditions the caller should surface.
func (r *Result) Warnings() []string {
	var out []string
	if r.Filtered.Len() == 0 {
		out = append(out, "filter produced no rows")
	}
	out = append(out, r.Comparison.Warnings...)
	for _, a := range r.Artifacts {
		if a.Err != nil {
			out = append(out, a.Err.Error())
		}
	}
	return out
}

// Failed returns the artifacts whose export failed.
func (r *Result) Failed() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Apply filters the raw dataset, compares outcome proportions and exports the
// three workbooks. Export failures are recorded per artifact; only load-level
// and proportion errors other than an empty dataset abort the pass.
func (s *Session) Apply(ctx context.Context, crit analysis.Criteria) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := s.e
	ctx = logger.ContextWithSessionID(ctx, s.ID)
	log := logger.FromContext(ctx, e.log)

	filtered, _ := cache.Memo(e.filters, analysis.DerivedIdentity(s.Raw, crit), datasetCost,
		func() (*table.Dataset, error) { return analysis.Filter(s.Raw, crit), nil })
	e.metrics.Op("filter", nil)
	e.metrics.Rows.WithLabelValues("filtered").Set(float64(filtered.Len()))
	log.Debug("filtered", zap.String("criteria", crit.Key()), zap.Int("rows", filtered.Len()))

	cmp, err := analysis.Compare(s.Raw, filtered, e.opt.OutcomeColumn)
	e.metrics.Op("proportions", err)
	if err != nil {
		return nil, err
	}
	for _, w := range cmp.Warnings {
		log.Warn("proportions", zap.String("warning", w))
	}

	res := &Result{
		SessionID:     s.ID,
		Source:        s.Raw.Name,
		Criteria:      crit,
		Raw:           s.Raw,
		Filtered:      filtered,
		Comparison:    cmp,
		OutcomeColumn: e.opt.OutcomeColumn,
	}
	outputs := []struct {
		name string
		t    export.Table
	}{
		{e.opt.Artifacts.Processed, filtered},
		{e.opt.Artifacts.RawOutcome, cmp.Raw.Table()},
		{e.opt.Artifacts.FilteredOutcome, cmp.Filtered.Table()},
	}
	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blob, err := e.export(o.t)
		a := Artifact{Name: o.name, Data: blob}
		if err != nil {
			a.Err = &ArtifactError{Artifact: o.name, Err: err}
			log.Error("export failed", zap.String("artifact", o.name), zap.Error(err))
		}
		res.Artifacts = append(res.Artifacts, a)
	}
	return res, nil
}

func (e *Engine) export(t export.Table) ([]byte, error) {
	blob, err := cache.Memo(e.exports, export.Digest(t),
		func(b []byte) int64 { return int64(len(b)) },
		func() ([]byte, error) { return export.XLSX(t) })
	e.metrics.Op("export", err)
	return blob, err
}
