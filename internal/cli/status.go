package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/client"
	"github.com/evcraddock/property-listing/internal/property"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and login status",
		Long:  "Tests the connection to the server and shows whether an admin session is stored.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	w := out(cmd)
	fmt.Fprintf(w, "Server:   %s\n", cfg.ServerURL)

	if store.LoggedIn() {
		fmt.Fprintf(w, "Session:  logged in as %s\n", displayEmail(store.Get()))
	} else {
		fmt.Fprintln(w, "Session:  not logged in")
	}

	props, err := newAPIClient().ListProperties(cmd.Context())
	if err != nil {
		fmt.Fprintf(w, "Status:   ✗ %s\n", client.UserMessage(err))
		return nil
	}
	fmt.Fprintf(w, "Status:   ✓ connected (%d active properties)\n", len(property.Visible(props)))

	if !store.LoggedIn() {
		fmt.Fprintln(w, "\nRun 'pl login' to manage listings.")
	}
	return nil
}
