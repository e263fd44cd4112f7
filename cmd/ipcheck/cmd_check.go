package ipcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/yaotthaha/ipcheck/combiner"

	"github.com/spf13/cobra"
)

var checkCommand = &cobra.Command{
	Use:   "check [flags] address...",
	Short: "Check addresses against CIDR list files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(check(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), paramCheckFiles, args))
	},
}

var paramCheckFiles []string

func init() {
	mainCommand.AddCommand(checkCommand)
	checkCommand.Flags().StringArrayVarP(&paramCheckFiles, "file", "f", nil, "CIDR list file, - for stdin")
}

// check prints "address true|false" per address. It returns 2 when any
// address is malformed.
func check(stdin io.Reader, stdout, stderr io.Writer, files []string, addrs []string) int {
	text, err := readLists(stdin, files)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	c, _, err := buildCombiner(text)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	code := 0
	for _, addr := range addrs {
		v, err := combiner.ParseAddr(addr)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", addr, err)
			code = 2
			continue
		}
		fmt.Fprintf(stdout, "%s %t\n", addr, c.Contains(v))
	}
	return code
}
