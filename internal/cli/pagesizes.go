package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapprint/mapprint/pkg/api"
)

func (c *CLI) pageSizesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pagesizes",
		Short: "List the page size names accepted by --page-size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range api.PageSizeNames() {
				ps, _ := api.PageSizeByName(name)
				if _, err := fmt.Fprintf(w, "%-8s %4.0f x %4.0f mm\n", name, ps.Width*1000, ps.Height*1000); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
