package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/evtsched/datarecording"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Write a snapshot of the schedule into a SQLite database.",
	Long: "`record --out name` writes the events, durations, sections and " +
		"section states into name.sqlite3. Without --out the recording path " +
		"of the schedule file is used, and a unique name if that is empty.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, h, _, err := loadSchedule()
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = s.Recording.Path
		}

		recorder, err := datarecording.New(path)
		if err != nil {
			return err
		}

		snapshot, err := datarecording.NewScheduleRecorder(recorder).RecordSchedule(h)
		if err != nil {
			_ = recorder.Close()
			return err
		}

		if err := recorder.Close(); err != nil {
			return err
		}

		logger.Info().Str("snapshot", snapshot).Msg("schedule recorded")
		fmt.Fprintln(cmd.OutOrStdout(), snapshot)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().String("out", "", "Database path without the .sqlite3 extension")
}
