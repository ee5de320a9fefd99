package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the flat parameters of the schedule.",
	Long: "`params` prints the cycle time and the time and state of every " +
		"independent event and duration. `--set name.time=3` applies updates " +
		"first; values are parsed as YAML, so `--set a.state=[1,0]` works.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, h, _, err := loadSchedule()
		if err != nil {
			return err
		}

		sets, _ := cmd.Flags().GetStringArray("set")
		if len(sets) > 0 {
			updates, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			if err := h.SetParameters(updates); err != nil {
				return err
			}
		}

		format, _ := cmd.Flags().GetString("format")

		return writeParameters(cmd, format, h.Parameters())
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.Flags().StringArray("set", nil, "Set a parameter, as key=value")
	paramsCmd.Flags().String("format", "yaml", "Output format: yaml, json or toml")
}

func parseAssignments(sets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets))

	for _, s := range sets {
		key, raw, found := strings.Cut(s, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", s)
		}

		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", s, err)
		}

		out[key] = v
	}

	return out, nil
}

func writeParameters(cmd *cobra.Command, format string, p map[string]any) error {
	var (
		b   []byte
		err error
	)

	switch strings.ToLower(format) {
	case "yaml", "yml":
		b, err = yaml.Marshal(p)
	case "json":
		b, err = json.MarshalIndent(p, "", "  ")
		b = append(b, '\n')
	case "toml":
		b, err = toml.Marshal(p)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(b)

	return err
}
