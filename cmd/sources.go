package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Test the connection to every configured data source",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Sources) == 0 {
			fmt.Println("no sources configured")
			return nil
		}
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		results := a.PingSources(cmd.Context())
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)

		failed := 0
		for _, name := range names {
			if err := results[name]; err != nil {
				failed++
				fmt.Printf("%-20s FAIL %v\n", name, err)
				continue
			}
			fmt.Printf("%-20s ok\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sources failed", failed, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
