package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// catalogEntry is the machine-readable description of one conversion.
type catalogEntry struct {
	Conversion string          `yaml:"conversion"`
	From       string          `yaml:"from"`
	To         string          `yaml:"to"`
	Default    string          `yaml:"default_method"`
	Methods    []catalogMethod `yaml:"methods"`
	Options    []catalogOption `yaml:"options,omitempty"`
}

type catalogMethod struct {
	Name     string   `yaml:"name"`
	Requires []string `yaml:"requires,omitempty"`
	Installs string   `yaml:"installs,omitempty"`
	Disabled bool     `yaml:"disabled,omitempty"`
}

type catalogOption struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversions and their methods",
	Long: `List every conversion, its methods and options.

The default method is marked with *. Methods whose tools or libraries are
not available on this machine are shown dimmed and marked (missing). A
method that installs its tool on demand is only available when
install.enabled is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		entries := catalog(registry, deps.Default(), cfg.Install.Enabled)
		if asYAML {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(entries)
		}
		fmt.Println(renderCatalog(entries))
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("yaml", false, "Print the catalog as YAML")
}

// catalog describes every registered conversion.
// Methods that install their tool on demand count as available only when
// canInstall is set.
func catalog(reg *convert.Registry, gate *deps.Gate, canInstall bool) []catalogEntry {
	var entries []catalogEntry
	for _, conv := range reg.Conversions() {
		disabled := conv.Disabled(gate, canInstall)
		entry := catalogEntry{
			Conversion: conv.Spec.Name(),
			From:       conv.Spec.From,
			To:         conv.Spec.To,
			Default:    conv.DefaultMethod,
		}
		for _, name := range conv.MethodNames() {
			m, _ := conv.Method(name)
			cm := catalogMethod{Name: name, Installs: m.Installs, Disabled: disabled[name]}
			for _, req := range m.Requires {
				cm.Requires = append(cm.Requires, req.String())
			}
			entry.Methods = append(entry.Methods, cm)
		}
		for _, opt := range conv.Options {
			entry.Options = append(entry.Options, catalogOption{
				Name:    opt.Name,
				Type:    opt.Kind.String(),
				Default: opt.Default,
			})
		}
		entries = append(entries, entry)
	}
	return entries
}

// renderCatalog draws the catalog as a table.
func renderCatalog(entries []catalogEntry) string {
	var rows [][]string
	missing := make(map[int]bool)
	for i, e := range entries {
		var methods []string
		anyMissing := false
		for _, m := range e.Methods {
			label := m.Name
			if m.Name == e.Default {
				label += "*"
			}
			if m.Disabled {
				label += " (missing)"
				anyMissing = true
			}
			methods = append(methods, label)
		}
		var options []string
		for _, o := range e.Options {
			options = append(options, fmt.Sprintf("--%s %s", o.Name, o.Type))
		}
		rows = append(rows, []string{e.Conversion, strings.Join(methods, ", "), strings.Join(options, " ")})
		missing[i] = anyMissing
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("CONVERSION", "METHODS", "OPTIONS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && missing[row]:
				return disabledStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}
