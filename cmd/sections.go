package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	sectionsContext string
	sectionsJSON    bool
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sections registered by the theme",
	Long: `List section types loaded from the theme directory.

Examples:
  # All sections
  pagebuilder sections

  # Sections usable on a page bound to the product context
  pagebuilder sections --context product

  # Machine readable
  pagebuilder sections --json | jq '.[].key'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		defs := a.Sections().Available(sectionsContext)
		if sectionsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tLABEL\tCATEGORY\tCONTEXTS")
		for _, d := range defs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Key, d.Label, d.Category, strings.Join(d.AllowedContexts, ","))
		}
		return w.Flush()
	},
}

func init() {
	sectionsCmd.Flags().StringVar(&sectionsContext, "context", "", "only sections available for this context key")
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(sectionsCmd)
}
