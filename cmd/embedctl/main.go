package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/logging"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type options struct {
	logLevel string
	hosts    []string
}

func (o *options) logger() *logging.Logger {
	logger, err := logging.New(logging.CLIConfig(o.logLevel))
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "embedctl",
		Short:         "Build, inspect and probe embedded DocuSeal forms",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringSliceVar(&opts.hosts, "hosts", []string{"docuseal.co", "docuseal.com"}, "allowed DocuSeal hosts")

	root.AddCommand(
		newURLCommand(opts),
		newFrameCommand(opts),
		newHeightCommand(),
		newClassifyCommand(opts),
		newProbeCommand(opts),
		newPageCommand(opts),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "embedctl:", err)
		os.Exit(1)
	}
}
