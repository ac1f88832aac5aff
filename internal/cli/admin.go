package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/listing"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin views",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the properties you manage",
		Long:  "List every active property with its ID, for use with edit and remove.",
		Args:  cobra.NoArgs,
		RunE:  runAdminList,
	})

	return cmd
}

func runAdminList(cmd *cobra.Command, args []string) error {
	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)
	if err := requireSession(store); err != nil {
		return err
	}

	if isJSON() {
		lc := listing.New(newAPIClient(), newNotifier(cmd))
		defer lc.Close()
		if err := lc.Load(cmd.Context()); err != nil {
			return ErrReported
		}
		return printJSON(out(cmd), lc.Visible())
	}
	return showAdminList(cmd)
}

// showAdminList loads and prints the admin property table.
func showAdminList(cmd *cobra.Command) error {
	lc := listing.New(newAPIClient(), newNotifier(cmd))
	defer lc.Close()

	if err := lc.Load(cmd.Context()); err != nil {
		return ErrReported
	}

	fmt.Fprintln(out(cmd), "Property list:")
	return printPropertyTable(out(cmd), lc.Visible())
}
