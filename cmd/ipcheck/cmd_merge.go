package ipcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/yaotthaha/ipcheck/lib/tools"

	"github.com/spf13/cobra"
)

var mergeCommand = &cobra.Command{
	Use:   "merge",
	Short: "Print the merged CIDR list of the given files",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(merge(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), paramMergeFiles))
	},
}

var paramMergeFiles []string

func init() {
	mainCommand.AddCommand(mergeCommand)
	mergeCommand.Flags().StringArrayVarP(&paramMergeFiles, "file", "f", nil, "CIDR list file, - for stdin")
}

func merge(stdin io.Reader, stdout, stderr io.Writer, files []string) int {
	text, err := readLists(stdin, files)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	c, skipped, err := buildCombiner(text)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if skipped > 0 {
		fmt.Fprintf(stderr, "skipped %d malformed lines\n", skipped)
	}
	if prefixes := c.Prefixes(); len(prefixes) > 0 {
		fmt.Fprintln(stdout, tools.Join(prefixes, "\n"))
	}
	return 0
}
