package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/listing"
)

func newListCmd() *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available properties",
		Long:  "List every active property in the public catalog, optionally filtered by location.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, location)
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "only show properties whose location contains this text")

	return cmd
}

func runList(cmd *cobra.Command, location string) error {
	n := newNotifier(cmd)
	lc := listing.New(newAPIClient(), n)
	defer lc.Close()

	if err := lc.Load(cmd.Context()); err != nil {
		return ErrReported
	}

	props := lc.Search(location)
	if isJSON() {
		return printJSON(out(cmd), props)
	}
	return printPropertyTable(out(cmd), props)
}
