package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/KaramelBytes/telefilter/internal/analysis"
	"github.com/KaramelBytes/telefilter/internal/table"
)

// DefaultHeadRows is how many rows the report previews per dataset.
const DefaultHeadRows = 5

// TableView is a text preview of a dataset.
type TableView struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ShareView is one row of a proportion table.
type ShareView struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ProportionView is a rendered proportion table.
type ProportionView struct {
	Column string      `json:"column"`
	Total  int         `json:"total"`
	NoData bool        `json:"no_data"`
	Shares []ShareView `json:"shares"`
}

// FilterView describes one filter of the pass.
type FilterView struct {
	Column string   `json:"column"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	All    bool     `json:"all,omitempty"`
	Values []string `json:"values,omitempty"`
}

// ArtifactView summarizes an exported workbook.
type ArtifactView struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
	Error string `json:"error,omitempty"`
}

// Report is the printable summary of one filtering pass.
type Report struct {
	SessionID    string         `json:"session_id"`
	Source       string         `json:"source"`
	RawRows      int            `json:"raw_rows"`
	FilteredRows int            `json:"filtered_rows"`
	Filters      []FilterView   `json:"filters"`
	RawHead      TableView      `json:"raw_head"`
	Processed    TableView      `json:"processed_head"`
	Original     ProportionView `json:"original_proportion"`
	New          ProportionView `json:"new_proportion"`
	Artifacts    []ArtifactView `json:"artifacts"`
	Warnings     []string       `json:"warnings"`
}

// NewReport summarizes r, previewing head rows of each dataset.
func NewReport(r *Result, head int) *Report {
	if head <= 0 {
		head = DefaultHeadRows
	}
	rep := &Report{
		SessionID:    r.SessionID,
		Source:       r.Source,
		RawRows:      r.Raw.Len(),
		FilteredRows: r.Filtered.Len(),
		Filters:      filterViews(r.Criteria),
		RawHead:      view(r.Raw.Head(head)),
		Processed:    view(r.Filtered.Head(head)),
		Original:     proportionView(r.Comparison.Raw),
		New:          proportionView(r.Comparison.Filtered),
		Warnings:     r.Warnings(),
	}
	for _, a := range r.Artifacts {
		av := ArtifactView{Name: a.Name, Bytes: len(a.Data)}
		if a.Err != nil {
			av.Error = a.Err.Error()
		}
		rep.Artifacts = append(rep.Artifacts, av)
	}
	if rep.Warnings == nil {
		rep.Warnings = []string{}
	}
	return rep
}

func view(ds *table.Dataset) TableView {
	v := TableView{Columns: ds.Names(), Rows: make([][]string, ds.Len())}
	for i := range v.Rows {
		v.Rows[i] = ds.Record(i)
	}
	return v
}

func proportionView(p *analysis.ProportionTable) ProportionView {
	v := ProportionView{Column: p.Column, Total: p.Total, NoData: p.NoData, Shares: make([]ShareView, len(p.Shares))}
	for i, s := range p.Shares {
		v.Shares[i] = ShareView{Value: s.Value, Count: s.Count, Percent: s.Percent}
	}
	return v
}

func filterViews(c analysis.Criteria) []FilterView {
	var out []FilterView
	for _, r := range c.Ranges {
		lo, hi := r.Min, r.Max
		out = append(out, FilterView{Column: r.Column, Min: &lo, Max: &hi})
	}
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := c.Categories[name]
		out = append(out, FilterView{Column: name, All: f.All, Values: f.Values})
	}
	return out
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return b, nil
}

// Markdown renders the report as bracketed sections with Markdown tables.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[SESSION]\n")
	if r.SessionID != "" {
		b.WriteString(fmt.Sprintf("ID: %s\n", r.SessionID))
	}
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d raw, %d after filtering\n", r.RawRows, r.FilteredRows))
	if len(r.Filters) > 0 {
		b.WriteString("Filters:\n")
		for _, f := range r.Filters {
			switch {
			case f.Min != nil && f.Max != nil:
				b.WriteString(fmt.Sprintf("- %s: %s to %s\n", f.Column, table.FormatNumber(*f.Min), table.FormatNumber(*f.Max)))
			case f.All:
				b.WriteString(fmt.Sprintf("- %s: %s\n", f.Column, analysis.AllSentinel))
			case len(f.Values) == 0:
				b.WriteString(fmt.Sprintf("- %s: (none)\n", f.Column))
			default:
				b.WriteString(fmt.Sprintf("- %s: %s\n", f.Column, strings.Join(f.Values, ", ")))
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n[RAW DATA] (first %d of %d rows)\n", len(r.RawHead.Rows), r.RawRows))
	writeTable(&b, r.RawHead)
	b.WriteString(fmt.Sprintf("\n[PROCESSED DATA] (first %d of %d rows)\n", len(r.Processed.Rows), r.FilteredRows))
	writeTable(&b, r.Processed)

	b.WriteString(fmt.Sprintf("\n[ORIGINAL DATA PROPORTION] %s\n", r.Original.Column))
	writeProportion(&b, r.Original)
	b.WriteString(fmt.Sprintf("\n[NEW DATA PROPORTION] %s\n", r.New.Column))
	writeProportion(&b, r.New)

	if len(r.Artifacts) > 0 {
		b.WriteString("\n[ARTIFACTS]\n")
		for _, a := range r.Artifacts {
			if a.Error != "" {
				b.WriteString(fmt.Sprintf("- %s: failed (%s)\n", a.Name, a.Error))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s\n", a.Name))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, v TableView) {
	if len(v.Columns) == 0 {
		b.WriteString("(no columns)\n")
		return
	}
	cells := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		cells[i] = safeCell(c)
	}
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(v.Columns)) + "\n")
	for _, row := range v.Rows {
		for i, c := range row {
			cells[i] = safeCell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(v.Rows) == 0 {
		b.WriteString("(no rows)\n")
	}
}

func writeProportion(b *strings.Builder, p ProportionView) {
	if p.NoData {
		b.WriteString("(no data)\n")
		return
	}
	b.WriteString(fmt.Sprintf("| %s | %s | count |\n", safeCell(p.Column), analysis.ProportionColumn))
	b.WriteString("| --- | --- | --- |\n")
	for _, s := range p.Shares {
		b.WriteString(fmt.Sprintf("| %s | %.2f%% | %d |\n", safeCell(s.Value), s.Percent, s.Count))
	}
	b.WriteString(fmt.Sprintf("Total: %d\n", p.Total))
}

func safeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
