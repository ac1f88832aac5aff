package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored admin session",
		Long:  "Removes the stored login session from the local state database.",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	if !store.LoggedIn() {
		fmt.Fprintln(out(cmd), "Not logged in.")
		return nil
	}

	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	fmt.Fprintln(out(cmd), "✓ Logged out.")
	return nil
}
