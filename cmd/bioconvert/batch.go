package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bioconvert/internal/batch"
	"github.com/ShayCichocki/bioconvert/internal/convert"
)

var batchCmd = &cobra.Command{
	Use:   "batch <conversion> <infile>...",
	Short: "Run one conversion over many input files",
	Long: `Run one conversion over many input files in parallel.

Each output file name is derived from its input file name. The batch is
refused before anything runs if two inputs would write the same output.

  bioconvert batch phylip2nexus data/*.phylip --jobs 8`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntP("jobs", "j", 0, "Conversions to run at once (default from config)")
	batchCmd.Flags().StringP("method", "m", "", "Method to use (default: the conversion's default)")
	batchCmd.Flags().Bool("force", false, "Overwrite existing output files")
}

func runBatch(cmd *cobra.Command, args []string) error {
	conv, err := registry.LookupName(args[0])
	if err != nil {
		return err
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if !cmd.Flags().Changed("jobs") {
		jobs = cfg.Batch.Jobs
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

	reqs := make([]batch.Request, len(args)-1)
	for i, infile := range args[1:] {
		reqs[i] = batch.Request{Conversion: conv, Infile: infile, Method: method}
	}

	driver := batch.NewDriver(jobs, func(conv *convert.Conversion, infile, outfile string) *convert.Converter {
		return a.newConverter(conv, infile, outfile, options, force)
	}, a.logger)

	outcomes, err := driver.Run(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		if o.Err != nil {
			printStatus("✗", fmt.Sprintf("%s: %v", o.Request.Infile, o.Err), color.FgRed)
			continue
		}
		printStatus("✓", fmt.Sprintf("%s -> %s", o.Request.Infile, o.Outfile), color.FgGreen)
	}

	if failed := batch.Failed(outcomes); len(failed) > 0 {
		return fmt.Errorf("%d of %d conversions failed", len(failed), len(outcomes))
	}
	return nil
}
