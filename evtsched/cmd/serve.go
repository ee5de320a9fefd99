package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/evtsched/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule over HTTP until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, h, tree, err := loadSchedule()
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") && s.Monitor.Addr != "" {
			port, err = portOf(s.Monitor.Addr)
			if err != nil {
				return err
			}
		}

		m := monitoring.NewMonitor(h).
			WithLogger(logger).
			WithParameterTree(tree).
			WithPortNumber(port)

		url, err := m.StartServer()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn().Err(err).Msg("cannot open browser")
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return m.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "Port of the monitor, random if 0")
	serveCmd.Flags().Bool("open", false, "Open the monitor in a browser")
}

// portOf extracts the port of a listen address such as ":8080".
func portOf(addr string) (int, error) {
	i := strings.LastIndex(addr, ":")
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid monitor address %q: %w", addr, err)
	}

	return port, nil
}
