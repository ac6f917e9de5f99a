package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/telefilter/internal/analysis"
	"github.com/KaramelBytes/telefilter/internal/table"
	"github.com/KaramelBytes/telefilter/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	colInput inputFlags
	colJSON  bool
)

// columnView is the JSON shape of one classified column.
type columnView struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Choices []choice `json:"choices,omitempty"`
}

type choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List columns with their kind, choices and numeric bounds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer e.Close()
		s, err := openSession(cmd.Context(), e, args[0], &colInput)
		if err != nil {
			return err
		}

		views := classificationViews(s.Classification)
		out := cmd.OutOrStdout()
		if colJSON {
			b, err := utils.PrettyJSON(views)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "[COLUMNS] %s (%s, %d rows)\n", s.Raw.Name, s.Raw.Source, s.Raw.Len())
		for _, v := range views {
			if v.Kind == string(table.KindNumeric) {
				if v.Min == nil {
					fmt.Fprintf(out, "- %s: numeric, no values\n", v.Name)
					continue
				}
				fmt.Fprintf(out, "- %s: numeric, range %s to %s\n", v.Name, table.FormatNumber(*v.Min), table.FormatNumber(*v.Max))
				continue
			}
			labels := make([]string, len(v.Choices))
			for i, c := range v.Choices {
				labels[i] = fmt.Sprintf("%s (%s)", c.Label, c.Value)
			}
			fmt.Fprintf(out, "- %s: categorical, choices: %s\n", v.Name, strings.Join(labels, ", "))
		}
		return nil
	},
}

func classificationViews(cls *analysis.Classification) []columnView {
	title := cases.Title(language.Und)
	views := make([]columnView, 0, len(cls.Columns))
	for _, c := range cls.Columns {
		v := columnView{Name: c.Name, Kind: string(c.Kind)}
		if c.Kind == table.KindNumeric && c.HasBounds {
			lo, hi := c.Min, c.Max
			v.Min, v.Max = &lo, &hi
		}
		for _, ch := range c.Choices {
			v.Choices = append(v.Choices, choice{Value: ch, Label: title.String(ch)})
		}
		views = append(views, v)
	}
	return views
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	colInput.register(columnsCmd)
	columnsCmd.Flags().BoolVar(&colJSON, "json", false, "print the classification as JSON")
}
