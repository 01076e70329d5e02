package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	Module  string `json:"module,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Version: Version, Go: runtime.Version()}
			if bi, ok := debug.ReadBuildInfo(); ok {
				info.Module = bi.Main.Path
			}
			f := rootOpts.formatter(cmd)
			return f.Respond(CLIResponse{Status: "ok", Data: info}, func(w io.Writer) {
				fmt.Fprintf(w, "tabled %s (%s)\n", info.Version, info.Go)
			})
		},
	}
}
