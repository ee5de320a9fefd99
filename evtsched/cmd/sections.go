package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Print the section grid of one cycle.",
	Long: "`sections` prints the boundaries of every section. With --states it " +
		"also prints the coefficients of every parameter in every section.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, h, _, err := loadSchedule()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		withStates, _ := cmd.Flags().GetBool("states")

		if !withStates {
			times := h.SectionTimes()
			for i := 0; i < len(times)-1; i++ {
				fmt.Fprintf(out, "%d\t[%g, %g)\n", i, times[i], times[i+1])
			}

			return nil
		}

		states, err := h.SectionStates()
		if err != nil {
			return err
		}

		for i, s := range states {
			fmt.Fprintf(out, "%d\t[%g, %g)\n", i, s.Start, s.End)

			paths := make([]string, 0, len(s.Coefficients))
			for p := range s.Coefficients {
				paths = append(paths, p)
			}
			sort.Strings(paths)

			for _, p := range paths {
				fmt.Fprintf(out, "\t%s = %s\n", p, formatFloats(s.Coefficients[p]))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
	sectionsCmd.Flags().Bool("states", false, "Print the parameter coefficients of every section")
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}

	return "[" + strings.Join(parts, " ") + "]"
}
