// Package cli builds the convert-trace command tree.
package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bopaquin/convert-trace/internal/convert"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// New returns the root command. The filesystem is injected so tests can
// run the whole CLI against an in-memory fs.
func New(fs afero.Fs) *cobra.Command {
	var (
		sidecar bool
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "convert-trace <file>",
		Short: "convert a Rigol VNA .trs capture to CSV",
		Long: `convert-trace decodes a binary .trs trace capture saved by a Rigol
vector network analyser and writes the traces as a .csv file, plus an
optional .json sidecar with the instrument header and metadata.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)
			defer func() { _ = log.Sync() }()

			res, err := convert.Run(fs, log, convert.Options{
				Input:      args[0],
				OutputBase: output,
				Sidecar:    sidecar,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d traces)\n", res.CSVPath, res.Traces)
			if res.JSONPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.JSONPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&sidecar, "json", "j", false, "also write the .json header/metadata sidecar")
	cmd.Flags().StringVarP(&output, "output", "o", "", "base path for output files (default: input path without extension)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "increase output verbosity")

	cmd.AddCommand(
		newInfoCommand(fs),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the convert-trace version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "convert-trace", Version)
		},
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
