package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/notify"
)

func newRegisterCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an admin account",
		Long:  "Register a new admin account, then log in with the same credentials.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (prompted if empty)")

	return cmd
}

func runRegister(cmd *cobra.Command, email string) error {
	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	in := bufio.NewReader(cmd.InOrStdin())
	if email == "" {
		if email, err = promptLine(in, cmd.ErrOrStderr(), "Email"); err != nil {
			return err
		}
	}
	password, err := promptPassword(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	n := newNotifier(cmd)
	res, err := newAPIClient().Register(cmd.Context(), email, password)
	if err != nil {
		return fail(n, err)
	}
	msg := res.Message
	if msg == "" {
		msg = "Registration successful"
	}
	n.Notify(notify.Notification{Level: notify.Success, Message: msg})

	if store.LoggedIn() {
		return nil
	}
	return login(cmd.Context(), cmd, store, email, password)
}
