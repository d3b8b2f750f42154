package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bioconvert/internal/compress"
	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <conversion> <dir>",
	Short: "Convert files as they appear in a directory",
	Long: `Watch a directory and convert every new input file that appears in it.

Files are converted once they stop changing. Output files are written next
to their inputs with the target format's extension. Press Ctrl+C to stop.

  bioconvert watch phylip2nexus incoming/`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("method", "m", "", "Method to use (default: the conversion's default)")
	watchCmd.Flags().Bool("force", false, "Overwrite existing output files")
}

func runWatch(cmd *cobra.Command, args []string) error {
	conv, err := registry.LookupName(args[0])
	if err != nil {
		return err
	}
	from, ok := convert.FormatByName(conv.Spec.From)
	if !ok {
		return fmt.Errorf("%w: %s", convert.ErrUnknownConversion, conv.Spec.From)
	}

	method, _ := cmd.Flags().GetString("method")
	method = methodFor(conv, method)
	force, _ := cmd.Flags().GetBool("force")
	if !cmd.Flags().Changed("force") {
		force = cfg.Defaults.Force
	}
	options := optionValues(cmd.Flags(), conv.Options)

	a := newApp()
	defer a.Close()

	handle := func(ctx context.Context, path string) error {
		c := a.newConverter(conv, path, "", options, force)
		if err := c.Run(ctx, method); err != nil {
			printStatus("✗", fmt.Sprintf("%s: %v", path, err), color.FgRed)
			return err
		}
		printStatus("✓", fmt.Sprintf("%s -> %s", path, c.Outfile()), color.FgGreen)
		return nil
	}

	w := watch.New(args[1], matchFormat(from), handle, a.logger)
	printStatus("→", fmt.Sprintf("watching %s for %s files", args[1], from.Name), color.FgCyan)
	return w.Run(cmd.Context())
}

// matchFormat selects paths carrying one of the format's extensions,
// optionally followed by a compression suffix.
func matchFormat(f convert.Format) func(string) bool {
	return func(path string) bool {
		lower := strings.ToLower(path)
		inner := compress.Strip(lower)
		for _, ext := range f.Extensions {
			if strings.HasSuffix(lower, ext) || strings.HasSuffix(inner, ext) {
				return true
			}
		}
		return false
	}
}
