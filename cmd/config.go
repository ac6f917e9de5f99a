package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/telefilter/internal/config"
	"github.com/KaramelBytes/telefilter/internal/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// configKey binds a config file key to its field.
type configKey struct {
	name string
	get  func(*cfgpkg.Global) string
	set  func(*cfgpkg.Global, string) error
}

func str(field func(*cfgpkg.Global) *string, check func(string) error) (func(*cfgpkg.Global) string, func(*cfgpkg.Global, string) error) {
	return func(c *cfgpkg.Global) string { return *field(c) },
		func(c *cfgpkg.Global, v string) error {
			if check != nil {
				if err := check(v); err != nil {
					return err
				}
			}
			*field(c) = v
			return nil
		}
}

func nonEmpty(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}

func oneOf(opts ...string) func(string) error {
	return func(v string) error {
		for _, o := range opts {
			if v == o {
				return nil
			}
		}
		return fmt.Errorf("invalid value %q (use %s)", v, strings.Join(opts, "|"))
	}
}

func configKeys() []configKey {
	keys := []configKey{}
	add := func(name string, get func(*cfgpkg.Global) string, set func(*cfgpkg.Global, string) error) {
		keys = append(keys, configKey{name: name, get: get, set: set})
	}
	addStr := func(name string, field func(*cfgpkg.Global) *string, check func(string) error) {
		g, s := str(field, check)
		add(name, g, s)
	}
	addInt := func(name string, field func(*cfgpkg.Global) *int, lo int) {
		add(name, func(c *cfgpkg.Global) string { return strconv.Itoa(*field(c)) },
			func(c *cfgpkg.Global, v string) error {
				i, err := strconv.Atoi(v)
				if err != nil || i < lo {
					return fmt.Errorf("invalid int for %s: %v", name, v)
				}
				*field(c) = i
				return nil
			})
	}

	addStr("range_column", func(c *cfgpkg.Global) *string { return &c.RangeColumn }, nonEmpty)
	addStr("outcome_column", func(c *cfgpkg.Global) *string { return &c.OutcomeColumn }, nonEmpty)
	addStr("input_format", func(c *cfgpkg.Global) *string { return &c.InputFormat }, func(v string) error {
		_, err := table.ParseFormat(v)
		return err
	})
	addStr("delimiter", func(c *cfgpkg.Global) *string { return &c.Delimiter }, oneOf(";", ",", "\t", "|"))
	addStr("encoding", func(c *cfgpkg.Global) *string { return &c.Encoding }, oneOf("utf-8", "latin1", "windows-1252"))
	addStr("decimal_separator", func(c *cfgpkg.Global) *string { return &c.DecimalSeparator }, oneOf("", ".", ","))
	addStr("thousands_separator", func(c *cfgpkg.Global) *string { return &c.ThousandsSeparator }, oneOf("", ",", ".", " "))
	addStr("sheet_name", func(c *cfgpkg.Global) *string { return &c.SheetName }, nil)
	addInt("sheet_index", func(c *cfgpkg.Global) *int { return &c.SheetIndex }, 1)
	addInt("head_rows", func(c *cfgpkg.Global) *int { return &c.HeadRows }, 0)
	addStr("report_format", func(c *cfgpkg.Global) *string { return &c.ReportFormat }, oneOf("md", "json"))
	addStr("output_dir", func(c *cfgpkg.Global) *string { return &c.OutputDir }, nonEmpty)
	addStr("processed_file", func(c *cfgpkg.Global) *string { return &c.ProcessedFile }, nonEmpty)
	addStr("raw_outcome_file", func(c *cfgpkg.Global) *string { return &c.RawOutcomeFile }, nonEmpty)
	addStr("filtered_outcome_file", func(c *cfgpkg.Global) *string { return &c.FilteredOutcomeFile }, nonEmpty)
	add("cache_max_cost", func(c *cfgpkg.Global) string { return strconv.FormatInt(c.CacheMaxCost, 10) },
		func(c *cfgpkg.Global, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid int for cache_max_cost: %v", v)
			}
			c.CacheMaxCost = n
			return nil
		})
	addStr("log_level", func(c *cfgpkg.Global) *string { return &c.LogLevel }, func(v string) error {
		_, err := zapcore.ParseLevel(v)
		return err
	})
	addStr("log_encoding", func(c *cfgpkg.Global) *string { return &c.LogEncoding }, oneOf("json", "console"))
	return keys
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set telefilter configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		for _, k := range configKeys() {
			fmt.Fprintf(out, "%s: %s\n", k.name, strconv.Quote(k.get(cfg)))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		for _, k := range configKeys() {
			if k.name != key {
				continue
			}
			if err := k.set(cfg, val); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if err := cfgpkg.Save(cfg, cfgFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
			return nil
		}
		return fmt.Errorf("unknown key: %s", key)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
