package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scarv/xcsim/mem/srec"
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump IMAGE",
		Short: "Export an S-record image in $readmemh format.",
		Long: "`dump IMAGE` loads an S-record image and writes its content as " +
			"a $readmemh file, one word per line.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wordSize, _ := cmd.Flags().GetInt("word-size")
			output, _ := cmd.Flags().GetString("output")

			return dumpImage(cmd, args[0], output, wordSize)
		},
	}

	cmd.Flags().Int("word-size", 1, "bytes per $readmemh word")
	cmd.Flags().StringP("output", "o", "", "output file, stdout if empty")

	return cmd
}

func dumpImage(cmd *cobra.Command, image, output string, wordSize int) error {
	storage, err := srec.Load(image)
	if err != nil {
		return err
	}

	if output == "" {
		return srec.WriteReadMemH(cmd.OutOrStdout(), storage, wordSize)
	}

	err = srec.DumpReadMemH(output, storage, wordSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes of %s to %s\n",
		storage.Len(), image, output)

	return nil
}
