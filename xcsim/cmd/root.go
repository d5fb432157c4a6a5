// Package cmd provides the command-line interface of xcsim.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xcsim",
	Short: "xcsim co-simulates a design under test with a memory bus.",
	Long: `xcsim drives the clock and the reset of a design under test, ` +
		`serves its memory bus from a loaded image and stops when the design ` +
		`reads the pass or the fail address.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		atexit.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return ctx
}
