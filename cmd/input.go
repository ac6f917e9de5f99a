package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cfgpkg "github.com/KaramelBytes/telefilter/internal/config"
	"github.com/KaramelBytes/telefilter/internal/logger"
	"github.com/KaramelBytes/telefilter/internal/session"
	"github.com/KaramelBytes/telefilter/internal/table"
	"github.com/spf13/cobra"
)

// inputFlags are the decoding flags shared by commands that read a dataset.
// Unset flags fall back to the loaded configuration.
type inputFlags struct {
	format     string
	delimiter  string
	encoding   string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.format, "input-format", "", "input format: auto|csv|xlsx (auto tries CSV first, then XLSX)")
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ';' | ',' | 'tab'")
	fs.StringVar(&f.encoding, "encoding", "", "CSV text encoding: utf-8|latin1|windows-1252")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	fs.IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *inputFlags) reset() { *f = inputFlags{} }

// resolve merges flags over c into loader options.
func (f *inputFlags) resolve(c *cfgpkg.Global) (table.Format, table.Options, error) {
	format := c.InputFormat
	if f.format != "" {
		format = f.format
	}
	tf, err := table.ParseFormat(format)
	if err != nil {
		return "", table.Options{}, err
	}

	opt := table.DefaultOptions()
	delim := c.Delimiter
	if f.delimiter != "" {
		delim = f.delimiter
	}
	switch delim {
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	default:
		return "", table.Options{}, fmt.Errorf("unsupported --delimiter: %s", delim)
	}

	opt.Encoding = c.Encoding
	if f.encoding != "" {
		opt.Encoding = f.encoding
	}

	decimal := c.DecimalSeparator
	if f.decimal != "" {
		decimal = f.decimal
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return "", table.Options{}, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	thousands := c.ThousandsSeparator
	if f.thousands != "" {
		thousands = f.thousands
	}
	switch strings.ToLower(thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return "", table.Options{}, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}

	opt.SheetName = c.SheetName
	opt.SheetIndex = c.SheetIndex
	if f.sheetName != "" {
		opt.SheetName = f.sheetName
	}
	if f.sheetIndex > 0 {
		opt.SheetName = f.sheetName
		opt.SheetIndex = f.sheetIndex
	}
	return tf, opt, nil
}

// newEngine builds a session engine from the loaded configuration.
func newEngine(c *cfgpkg.Global) (*session.Engine, error) {
	return session.NewEngine(session.Options{
		RangeColumn:   c.RangeColumn,
		OutcomeColumn: c.OutcomeColumn,
		Artifacts: session.ArtifactNames{
			Processed:       c.ProcessedFile,
			RawOutcome:      c.RawOutcomeFile,
			FilteredOutcome: c.FilteredOutcomeFile,
		},
		CacheMaxCost: c.CacheMaxCost,
		Logger:       logger.Get(),
	})
}

// openSession reads path and opens it in a new session.
func openSession(ctx context.Context, e *session.Engine, path string, in *inputFlags) (*session.Session, error) {
	tf, opt, err := in.resolve(cfg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	s, err := e.Open(ctx, filepath.Base(path), data, tf, opt)
	if err != nil {
		if table.IsLoadError(err) {
			return nil, fmt.Errorf("%w\n  hint: check --delimiter and --encoding, or pass --input-format xlsx", err)
		}
		return nil, err
	}
	return s, nil
}
