package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ShayCichocki/bioconvert/internal/convert"
)

// newConversionCmd builds the subcommand for one registered conversion. Its
// flags come from the conversion's declared options.
func newConversionCmd(conv *convert.Conversion) *cobra.Command {
	var (
		method string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   conv.Spec.Name() + " <infile> [outfile]",
		Short: conversionShort(conv),
		Long:  conversionLong(conv),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			infile := args[0]
			outfile := ""
			if len(args) == 2 {
				outfile = args[1]
			}
			if !cmd.Flags().Changed("force") {
				force = cfg.Defaults.Force
			}
			return runConversion(cmd, conv, infile, outfile, methodFor(conv, method), force)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "Method to use (default "+conv.DefaultMethod+")")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing output file")
	addOptionFlags(cmd.Flags(), conv.Options)
	return cmd
}

// runConversion runs one conversion and prints its outcome.
func runConversion(cmd *cobra.Command, conv *convert.Conversion, infile, outfile, method string, force bool) error {
	options := optionValues(cmd.Flags(), conv.Options)

	a := newApp()
	defer a.Close()

	c := a.newConverter(conv, infile, outfile, options, force)

	// The spinner would interleave with streamed tool output.
	stop := func() {}
	if !cfg.Log.Verbose {
		s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = fmt.Sprintf(" %s %s", conv.Spec.Name(), infile)
		s.Start()
		stop = s.Stop
	}

	err := c.Run(cmd.Context(), method)
	stop()
	if err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("%s -> %s", infile, c.Outfile()), color.FgGreen)
	return nil
}

// addOptionFlags declares one flag per conversion option.
func addOptionFlags(flags *pflag.FlagSet, specs []convert.OptionSpec) {
	for _, spec := range specs {
		switch spec.Kind {
		case convert.OptionInt:
			def, _ := spec.Default.(int)
			flags.IntP(spec.Name, spec.Short, def, spec.Help)
		case convert.OptionBool:
			def, _ := spec.Default.(bool)
			flags.BoolP(spec.Name, spec.Short, def, spec.Help)
		default:
			def, _ := spec.Default.(string)
			flags.StringP(spec.Name, spec.Short, def, spec.Help)
		}
	}
}

// optionValues collects the option flags set on the command line. Unset
// flags are left out so the conversion's own defaults apply, except
// threads, which falls back to the configured default.
func optionValues(flags *pflag.FlagSet, specs []convert.OptionSpec) map[string]any {
	values := make(map[string]any)
	for _, spec := range specs {
		if f := flags.Lookup(spec.Name); f != nil && f.Changed {
			values[spec.Name] = f.Value.String()
			continue
		}
		if spec.Name == "threads" && cfg.Defaults.Threads > 0 {
			values[spec.Name] = cfg.Defaults.Threads
		}
	}
	return values
}

func conversionShort(conv *convert.Conversion) string {
	if conv.Doc != "" {
		return conv.Doc
	}
	return fmt.Sprintf("Convert %s to %s", conv.Spec.From, conv.Spec.To)
}

func conversionLong(conv *convert.Conversion) string {
	var b strings.Builder
	b.WriteString(conversionShort(conv))
	b.WriteString("\n\nMethods:\n")
	for _, name := range conv.MethodNames() {
		m, _ := conv.Method(name)
		marker := " "
		if name == conv.DefaultMethod {
			marker = "*"
		}
		fmt.Fprintf(&b, "  %s %-14s", marker, name)
		if m.Doc != "" {
			b.WriteString(" " + m.Doc)
		}
		b.WriteString("\n")
	}
	if len(conv.InputGroup) > 0 {
		fmt.Fprintf(&b, "\nThe input is a prefix; %s must all exist.\n", strings.Join(conv.InputGroup, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

var convertCmd = &cobra.Command{
	Use:   "convert <infile> <outfile>",
	Short: "Convert a file, picking the conversion from the extensions",
	Long: `Convert a file, picking the conversion from the file extensions.

  bioconvert convert aln.phylip aln.nexus

Compressed inputs are matched on their inner extension (aln.phy.gz is PHYLIP).
Use the named subcommand when the extensions are ambiguous.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := registry.Detect(args[0], args[1])
		if err != nil {
			return err
		}
		method, _ := cmd.Flags().GetString("method")
		force, _ := cmd.Flags().GetBool("force")
		if !cmd.Flags().Changed("force") {
			force = cfg.Defaults.Force
		}
		return runConversion(cmd, conv, args[0], args[1], methodFor(conv, method), force)
	},
}

func init() {
	convertCmd.Flags().StringP("method", "m", "", "Method to use (default: the conversion's default)")
	convertCmd.Flags().Bool("force", false, "Overwrite an existing output file")
}
