package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo catalog data and publish starter pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := a.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Printf("products: %d, collections: %d, pages: %s\n",
			res.Products, res.Collections, strings.Join(res.Pages, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
