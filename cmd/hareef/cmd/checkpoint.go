package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/hareef/internal/checkpoint"
)

var digestFlag bool

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint [logs-root]",
	Short: "Show the newest trainer checkpoint",
	Long: `Find the newest checkpoint under <logs-root>/lightning_logs: the highest
version_<N> directory with a non-empty checkpoints directory, then the
highest epoch=<E>-step=<S> file in it. Numbers compare as integers.

The logs root defaults to logs_root_directory from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckpoint,
}

func init() {
	checkpointCmd.Flags().BoolVar(&digestFlag, "digest", false, "also print the BLAKE2b-256 digest of the file")
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	root := cfg.LogsRootDirectory
	if len(args) == 1 {
		root = args[0]
	}

	ref, err := checkpoint.FindLast(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path:    %s\n", ref.Path)
	fmt.Fprintf(out, "version: %d\n", ref.Version)
	fmt.Fprintf(out, "epoch:   %d\n", ref.Epoch)
	fmt.Fprintf(out, "step:    %d\n", ref.Step)
	if digestFlag {
		sum, err := checkpoint.Digest(ref.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "digest:  %s\n", sum)
	}
	return nil
}
