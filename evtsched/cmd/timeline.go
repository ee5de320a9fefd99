package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sarchlab/evtsched/event"
	"github.com/sarchlab/evtsched/timeline"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline [parameter...]",
	Short: "Print the timelines of the parameters changed by events.",
	Long: "`timeline` prints the sections of every parameter timeline, or only " +
		"of the given parameter paths. With --at it prints the value at one " +
		"time instead. Times outside the cycle are wrapped into it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, h, _, err := loadSchedule()
		if err != nil {
			return err
		}

		timelines, err := h.ParameterTimelines()
		if err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			for p := range timelines {
				paths = append(paths, p)
			}
			sort.Strings(paths)
		}

		out := cmd.OutOrStdout()
		at, _ := cmd.Flags().GetFloat64("at")
		hasAt := cmd.Flags().Changed("at")

		for _, p := range paths {
			tl, ok := timelines[p]
			if !ok {
				return fmt.Errorf("no events change %q", p)
			}

			if hasAt {
				if err := printValue(cmd, p, tl, event.Modulo(at, h.CycleTime())); err != nil {
					return err
				}
				continue
			}

			fmt.Fprintln(out, p)
			for _, s := range tl.Sections() {
				fmt.Fprintf(out, "\t%s\n", s)
			}
		}

		return nil
	},
}

func printValue(cmd *cobra.Command, path string, tl *timeline.Timeline, t float64) error {
	v, err := tl.Value(t)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s(%g) = %s\n", path, t, formatFloats(v))

	return nil
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().Float64("at", 0, "Evaluate the timelines at this time")
}
