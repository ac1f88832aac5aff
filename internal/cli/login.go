package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/notify"
	"github.com/evcraddock/property-listing/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an admin",
		Long:  "Authenticate against the server and store the session locally for admin commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (prompted if empty)")

	return cmd
}

func runLogin(cmd *cobra.Command, email string) error {
	store, database, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	if store.LoggedIn() {
		fmt.Fprintf(out(cmd), "Already logged in as %s.\n", displayEmail(store.Get()))
		return nil
	}

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

	return login(cmd.Context(), cmd, store, email, password)
}

// login authenticates and persists the session.
func login(ctx context.Context, cmd *cobra.Command, store session.Store, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	n := newNotifier(cmd)
	sess, err := newAPIClient().Login(ctx, email, password)
	if err != nil {
		return fail(n, err)
	}
	if err := store.Set(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{
			"email":     displayEmail(sess),
			"logged_in": true,
		})
	}
	n.Notify(notify.Notification{Level: notify.Success, Message: "Logged in as " + displayEmail(sess)})
	return nil
}

func displayEmail(s *session.Session) string {
	if e := s.Email(); e != "" {
		return e
	}
	return "admin"
}
