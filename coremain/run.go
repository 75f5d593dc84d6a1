package coremain

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vpetersson/ipgeolocation/mlog"
)

// Version is set by the build.
var Version = "dev"

type serverFlags struct {
	cpu int
}

var rootCmd = &cobra.Command{
	Use: "ipgeolocation",
}

func init() {
	sf := new(serverFlags)
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the lookup server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sf.cpu > 0 {
				runtime.GOMAXPROCS(sf.cpu)
			}
			mlog.L().Info("starting", zap.String("version", Version))
			if err := RunServer(loadConfig()); err != nil {
				return fmt.Errorf("server exited, %w", err)
			}
			return nil
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	startCmd.Flags().IntVar(&sf.cpu, "cpu", 0, "set runtime.GOMAXPROCS")
	rootCmd.AddCommand(startCmd)

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool protocol over stdio.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStdio(loadConfig())
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	rootCmd.AddCommand(mcpCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func Run() error {
	return rootCmd.Execute()
}
