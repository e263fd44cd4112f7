package ipcheck

import (
	"fmt"
	"strings"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/sink"
	"github.com/yaotthaha/ipcheck/source"

	"github.com/spf13/cobra"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		showVersion()
	},
}

func init() {
	mainCommand.AddCommand(versionCommand)
}

func getAllComponents() string {
	source.Register()
	sink.Register()
	var lines []string
	if sources := adapter.GetAllSource(); len(sources) > 0 {
		lines = append(lines, "Sources: "+strings.Join(sources, ", "))
	}
	if sinks := adapter.GetAllSink(); len(sinks) > 0 {
		lines = append(lines, "Sinks: "+strings.Join(sinks, ", "))
	}
	if len(lines) == 0 {
		return "No Components"
	}
	return strings.Join(lines, "\n")
}

func showVersion() {
	fmt.Println(constant.GetVersion())
	fmt.Println("")
	fmt.Println(getAllComponents())
}
