package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <page-id>",
	Short: "Publish the draft of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		page, err := a.Pages().Publish(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("published /%s (%d sections)\n", page.Slug, len(page.PublishedBody))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
