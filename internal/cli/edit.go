package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/form"
)

func newEditCmd() *cobra.Command {
	var df *draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a property",
		Long: `Edit an existing property. The current values are loaded first and only
the fields given as flags change. --image replaces the photo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args, df)
		},
	}
	df = addDraftFlags(cmd)

	return cmd
}

func runEdit(cmd *cobra.Command, args []string, df *draftFlags) error {
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

	navigate := false
	fc := form.New(newAPIClient(), newNotifier(cmd), form.Options{
		Mode:    form.Edit,
		ID:      id,
		Delay:   cfg.SuccessDelay,
		OnClose: func() { navigate = true },
	})
	defer fc.Close()

	if err := fc.Hydrate(cmd.Context()); err != nil {
		if navigate && !isJSON() {
			if lerr := showAdminList(cmd); lerr != nil {
				return lerr
			}
		}
		return ErrReported
	}

	return submitForm(cmd, fc, df, &navigate)
}
