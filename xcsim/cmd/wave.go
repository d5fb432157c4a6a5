package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scarv/xcsim/wave"
)

func init() {
	rootCmd.AddCommand(newWaveCmd())
}

func newWaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wave DATABASE",
		Short: "Print the signals recorded in a wave database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")
			limit, _ := cmd.Flags().GetInt("limit")

			rows, total, err := wave.ReadSignals(
				commandContext(cmd), args[0], port, limit)
			if err != nil {
				return err
			}

			return printSignals(cmd.OutOrStdout(), rows, total)
		},
	}

	cmd.Flags().String("port", "", "only show this port")
	cmd.Flags().Int("limit", 50, "maximum number of rows, 0 for all")

	return cmd
}

func bit(b bool) int {
	if b {
		return 1
	}

	return 0
}

func printSignals(w io.Writer, rows []wave.SignalRow, total int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "step\tport\tclk\trst_n\t"+
		"ar\tar_addr\tr\tr_data\taw\taw_addr\tw\tw_data\tw_strb\tb\t")

	for _, r := range rows {
		fmt.Fprintf(tw,
			"%d\t%s\t%d\t%d\t%d%d\t%08x\t%d%d\t%08x\t"+
				"%d%d\t%08x\t%d%d\t%08x\t%04b\t%d%d\t\n",
			r.Step, r.Port, bit(r.Clock), bit(r.ResetN),
			bit(r.ARValid), bit(r.ARReady), r.ARAddr,
			bit(r.RValid), bit(r.RReady), r.RData,
			bit(r.AWValid), bit(r.AWReady), r.AWAddr,
			bit(r.WValid), bit(r.WReady), r.WData, r.WStrb,
			bit(r.BValid), bit(r.BReady))
	}

	err := tw.Flush()
	if err != nil {
		return err
	}

	if len(rows) < total {
		fmt.Fprintf(w, "%d of %d rows\n", len(rows), total)
	}

	return nil
}
