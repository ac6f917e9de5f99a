package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Format names an input encoding of a dataset.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use auto|csv|xlsx)", s)
	}
}

// Options controls decoding of uploaded bytes.
type Options struct {
	// Delimiter for delimited text. Defaults to ';'.
	Delimiter rune
	// Encoding of delimited text: "utf-8" (strict) or "latin1"/"windows-1252".
	Encoding string
	// XLSX sheet selection. SheetName wins over SheetIndex; SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
	// Numeric parsing locale. Zero values mean '.' decimals and no grouping.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultOptions returns the options matching the campaign exports.
func DefaultOptions() Options {
	return Options{
		Delimiter:  ';',
		Encoding:   "utf-8",
		SheetIndex: 1,
	}
}

func (o Options) key() []byte {
	return []byte(fmt.Sprintf("%q|%q|%q|%d|%q|%q",
		o.Delimiter, strings.ToLower(o.Encoding), o.SheetName, o.SheetIndex, o.DecimalSeparator, o.ThousandsSeparator))
}

// InputIdentity is the identity assigned to a dataset named name decoded from
// data. The name is part of it so every dataset derived from the load keeps it.
func InputIdentity(name string, data []byte, f Format, opt Options) string {
	return HashWithDomain(DomainInput, []byte(name), data, []byte(f), opt.key())
}

// decoder turns raw bytes into a header and string rows.
type decoder interface {
	Format() Format
	Decode(data []byte, opt Options) (header []string, rows [][]string, err error)
}

// decoders are tried in order; delimited text comes first.
var decoders = []decoder{csvDecoder{}, xlsxDecoder{}}

// Load decodes data into a Dataset. With FormatAuto every decoder is attempted
// in order and the first success wins; a declared format restricts the attempt
// to that decoder. When nothing succeeds a *LoadError lists every cause.
func Load(name string, data []byte, f Format, opt Options) (*Dataset, error) {
	if f == "" {
		f = FormatAuto
	}
	var causes []error
	for _, dec := range decoders {
		if f != FormatAuto && dec.Format() != f {
			continue
		}
		header, rows, err := dec.Decode(data, opt)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", dec.Format(), err))
			continue
		}
		ds, err := FromRecords(name, header, rows, opt)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", dec.Format(), err))
			continue
		}
		ds.Source = dec.Format()
		return ds.WithIdentity(InputIdentity(name, data, f, opt)), nil
	}
	if len(causes) == 0 {
		causes = append(causes, fmt.Errorf("no decoder for format %q", f))
	}
	return nil, &LoadError{Name: name, Causes: causes}
}

var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {},
	"None": {}, "<NA>": {}, "#N/A": {},
}

// IsMissing reports whether a trimmed cell is a missing-value marker.
func IsMissing(s string) bool {
	_, ok := missingMarkers[s]
	return ok
}

// FromRecords infers column kinds from string records and builds a Dataset.
// A column is numeric iff every non-missing cell parses as a number.
func FromRecords(name string, header []string, rows [][]string, opt Options) (*Dataset, error) {
	ncol := len(header)
	for _, r := range rows {
		if len(r) > ncol {
			ncol = len(r)
		}
	}
	names := columnNames(header, ncol)
	cols := make([]*Column, ncol)
	for j := 0; j < ncol; j++ {
		cells := make([]string, len(rows))
		null := make([]bool, len(rows))
		numeric := true
		nums := make([]float64, len(rows))
		for i, r := range rows {
			var v string
			if j < len(r) {
				v = strings.TrimSpace(r[j])
			}
			cells[i] = v
			if IsMissing(v) {
				null[i] = true
				continue
			}
			if !numeric {
				continue
			}
			x, ok := parseNumber(v, opt)
			if !ok {
				numeric = false
				continue
			}
			nums[i] = x
		}
		if numeric {
			cols[j] = NewNumeric(names[j], nums, null)
		} else {
			for i := range cells {
				if null[i] {
					cells[i] = ""
				}
			}
			cols[j] = NewCategorical(names[j], cells, null)
		}
	}
	return New(name, cols...)
}

// columnNames trims header cells, names blank ones "Unnamed: i" and suffixes
// duplicates with ".1", ".2", ...
func columnNames(header []string, ncol int) []string {
	out := make([]string, ncol)
	used := make(map[string]bool, ncol)
	suffix := make(map[string]int)
	for j := 0; j < ncol; j++ {
		var n string
		if j < len(header) {
			n = strings.TrimSpace(strings.TrimPrefix(header[j], "\ufeff"))
		}
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", j)
		}
		if used[n] {
			base := n
			for used[n] {
				suffix[base]++
				n = fmt.Sprintf("%s.%d", base, suffix[base])
			}
		}
		used[n] = true
		out[j] = n
	}
	return out
}

func parseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	thou := opt.ThousandsSeparator
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
