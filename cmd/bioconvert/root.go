package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bioconvert/internal/config"
	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/converters"
)

var (
	verbose   bool
	noHistory bool

	// cfg is loaded before any subcommand runs.
	cfg = config.Default()

	// registry holds the conversion catalog.
	registry = converters.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "bioconvert",
	Short: "Convert between life science file formats",
	Long: `bioconvert converts bioinformatics files from one format to another.

Each conversion is its own subcommand, named source2target:

  bioconvert phylip2nexus aln.phylip aln.nexus
  bioconvert gz2bz2 reads.fq.gz reads.fq.bz2 --threads 4
  bioconvert bplink2plink plink_toy

A conversion may offer several methods; pick one with --method.
Inputs and outputs ending in .gz or .bz2 are handled transparently by
methods that support it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("verbose") {
			cfg.Log.Verbose = verbose
		}
		if !cfg.Log.Verbose {
			log.SetOutput(io.Discard)
		}
		return nil
	},
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, finishing the running tool...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("✗"), err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var toolErr *convert.ExternalToolError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, convert.ErrMissingDependency):
		return 2
	case errors.Is(err, convert.ErrUnknownMethod):
		return 3
	case errors.As(err, &toolErr) && toolErr.ExitCode > 0:
		return toolErr.ExitCode
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each step and stream tool output")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")

	for _, conv := range registry.Conversions() {
		rootCmd.AddCommand(newConversionCmd(conv))
	}

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
