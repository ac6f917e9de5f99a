package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/telefilter/internal/logger"
	"github.com/KaramelBytes/telefilter/internal/session"
	"github.com/KaramelBytes/telefilter/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fltInput   inputFlags
	fltRange   string
	fltSelect  []string
	fltOutDir  string
	fltFormat  string
	fltHead    int
	fltNoWrite bool
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Filter a dataset, export the result and compare outcome proportions",
	Long: `Filter keeps the rows whose range column lies within --range and whose categorical
columns match every --select. Columns without a selection stay at "all". The filtered
data and the raw and filtered outcome proportions are written as XLSX workbooks and a
report is printed to stdout.`,
	Example: `  telefilter filter bank.csv --range age=25:45 --select job=admin,services --select marital=married`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := cfg.ReportFormat
		if fltFormat != "" {
			format = fltFormat
		}
		switch format {
		case "md", "markdown", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json)", format)
		}
		head := cfg.HeadRows
		if cmd.Flags().Changed("head") {
			head = fltHead
		}
		outDir := cfg.OutputDir
		if fltOutDir != "" {
			outDir = fltOutDir
		}

		e, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer e.Close()
		s, err := openSession(cmd.Context(), e, args[0], &fltInput)
		if err != nil {
			return err
		}

		rc := s.RangeColumn()
		lo, hi, err := parseRange(fltRange, rc.Name, rc.Min, rc.Max)
		if err != nil {
			return err
		}
		selections, err := parseSelections(fltSelect)
		if err != nil {
			return err
		}
		crit, err := s.Criteria(lo, hi, selections)
		if err != nil {
			return err
		}
		res, err := s.Apply(cmd.Context(), crit)
		if err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		if !fltNoWrite {
			var files []utils.File
			for _, a := range res.Artifacts {
				if a.Err == nil {
					files = append(files, utils.File{Name: a.Name, Data: a.Data})
				}
			}
			written, err := utils.WriteFiles(outDir, files)
			for _, p := range written {
				fmt.Fprintf(stderr, "✓ Wrote %s\n", p)
			}
			if err != nil {
				return fmt.Errorf("write artifacts: %w", err)
			}
		}
		for _, a := range res.Failed() {
			fmt.Fprintf(stderr, "⚠ Warning: %s was not written: %v\n", a.Name, a.Err)
		}

		rep := session.NewReport(res, head)
		out := cmd.OutOrStdout()
		if format == "json" {
			b, err := rep.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			fmt.Fprint(out, rep.Markdown())
		}

		if snap, err := e.Metrics().Snapshot(); err == nil {
			ctx := logger.ContextWithSessionID(cmd.Context(), s.ID)
			logger.WithContext(ctx).Debug("pipeline metrics", zap.Any("metrics", snap))
		}
		if failed := res.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d artifacts failed to export", len(failed), len(res.Artifacts))
		}
		return nil
	},
}

// parseRange reads "[column=]MIN:MAX". Either bound may be omitted to keep
// the observed one; an empty arg selects the full observed range.
func parseRange(arg, column string, obsMin, obsMax float64) (float64, float64, error) {
	lo, hi := obsMin, obsMax
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return lo, hi, nil
	}
	if name, rest, ok := strings.Cut(arg, "="); ok {
		if strings.TrimSpace(name) != column {
			return 0, 0, fmt.Errorf("--range applies to %q, got %q", column, name)
		}
		arg = rest
	}
	minS, maxS, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid --range %q (use %s=MIN:MAX)", arg, column)
	}
	parse := func(s string, def float64) (float64, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			return 0, fmt.Errorf("invalid --range bound %q", s)
		}
		return v, nil
	}
	var err error
	if lo, err = parse(minS, obsMin); err != nil {
		return 0, 0, err
	}
	if hi, err = parse(maxS, obsMax); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// parseSelections reads repeated "column=v1,v2" flags. Repeating a column
// adds to its values.
func parseSelections(flags []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, arg := range flags {
		name, vals, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --select %q (use column=value1,value2)", arg)
		}
		if _, seen := out[name]; !seen {
			out[name] = []string{}
		}
		for _, v := range strings.Split(vals, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[name] = append(out[name], v)
			}
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(filterCmd)
	fltInput.register(filterCmd)
	filterCmd.Flags().StringVar(&fltRange, "range", "", "range filter as column=MIN:MAX (default: observed bounds)")
	filterCmd.Flags().StringArrayVar(&fltSelect, "select", nil, "categorical selection as column=v1,v2 (repeatable; 'all' lifts the restriction)")
	filterCmd.Flags().StringVarP(&fltOutDir, "out-dir", "o", "", "directory for the XLSX artifacts (default from config)")
	filterCmd.Flags().StringVar(&fltFormat, "format", "", "report format: md|json (default from config)")
	filterCmd.Flags().IntVar(&fltHead, "head", 5, "rows to preview per dataset in the report")
	filterCmd.Flags().BoolVar(&fltNoWrite, "no-write", false, "print the report without writing artifacts")
}
