package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	traceSpans bool
	httpAddr   string
	stepLimit  int
	watch      bool

	rootCmd = &cobra.Command{
		Use:          "dockbridge-sandbox",
		Short:        "Play dock bridge scenarios against a standalone world",
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Play scenarios and print the debug surface after every step",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScenarios,
	}

	viewCmd = &cobra.Command{
		Use:   "view <scenario.yaml>",
		Short: "Step through a scenario in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  viewScenario,
	}

	snapshotCmd = &cobra.Command{
		Use:   "snapshot <scenario.yaml> <out.png>",
		Short: "Play a scenario and render the grids and edges to a PNG",
		Args:  cobra.ExactArgs(2),
		RunE:  snapshotScenario,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file replacing the scenario's config block")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "print decision spans with the log output")
	rootCmd.PersistentFlags().StringVar(&httpAddr, "http-addr", "", "serve /metrics and /debug on this address, e.g. :9100")

	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "replay scenarios whenever their files change")
	snapshotCmd.Flags().IntVar(&stepLimit, "steps", -1, "number of steps to play before rendering, -1 plays all")

	rootCmd.AddCommand(runCmd, viewCmd, snapshotCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
