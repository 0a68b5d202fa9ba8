package cli

import (
	"plot-digitizer/internal/report"
	"plot-digitizer/internal/version"

	"github.com/spf13/cobra"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and platform information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Current()
			env := report.Environment()
			printTitle(c.out, "%s %s", appName, info.Version)
			printKeyValue(c.out, "commit", info.Commit)
			printKeyValue(c.out, "built", info.BuildTime)
			printKeyValue(c.out, "platform", env.OS+"/"+env.Arch)
			printKeyValue(c.out, "endian", env.Endian)
			printKeyValue(c.out, "word size", env.WordSize)
			printKeyValue(c.out, "go", env.GoVersion)
			return nil
		},
	}
}
