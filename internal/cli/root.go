// Package cli holds the hpsweep command tree.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
)

// NewRootCmd builds the command tree. Results go to out, logs to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:           "hpsweep",
		Short:         "Sweep classifier hyperparameters and keep the best model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDefault(logger.NewWithFormat(logLevel, logFormat, errOut))
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(newRunCmd(), newGridCmd(), newHistoryCmd())
	return cmd
}

// Execute runs the command tree against the process arguments. An interrupt
// cancels a running sweep before its next trial.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}
