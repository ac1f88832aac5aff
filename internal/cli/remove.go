package cli

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/listing"
	"github.com/evcraddock/property-listing/internal/notify"
)

func newRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a property",
		Long:  "Remove a property from the catalog. The listing is hidden, not destroyed, on the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string, yes bool) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)
	if err := requireSession(store); err != nil {
		return err
	}

	n := newNotifier(cmd)
	lc := listing.New(newAPIClient(), n)
	defer lc.Close()

	if err := lc.Load(cmd.Context()); err != nil {
		return ErrReported
	}

	p, ok := lc.Get(id)
	if !ok {
		n.Notify(notify.Notification{Level: notify.Error, Message: "Property not found!"})
		return ErrReported
	}

	lc.RequestDelete(p)
	if !yes {
		ok, err := confirm(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(),
			fmt.Sprintf("Delete property #%d %q?", p.ID, p.Title))
		if err != nil {
			lc.CancelDelete()
			return err
		}
		if !ok {
			lc.CancelDelete()
			fmt.Fprintln(out(cmd), "Cancelled.")
			return nil
		}
	}

	if err := lc.ConfirmDelete(cmd.Context()); err != nil {
		reloaded := errors.Is(err, listing.ErrDeleteFailed) && !errors.Is(err, listing.ErrReloadFailed)
		if reloaded && !isJSON() {
			// Show the reloaded server state.
			if perr := printPropertyTable(out(cmd), lc.Visible()); perr != nil {
				return perr
			}
		}
		return ErrReported
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{
			"id":      id,
			"removed": true,
		})
	}
	return nil
}
