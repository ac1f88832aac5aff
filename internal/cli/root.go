// Package cli defines the cobra command tree for pl.
package cli

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/client"
	"github.com/evcraddock/property-listing/internal/config"
	"github.com/evcraddock/property-listing/internal/db"
	"github.com/evcraddock/property-listing/internal/logging"
	"github.com/evcraddock/property-listing/internal/notify"
	"github.com/evcraddock/property-listing/internal/session"
)

// ErrReported means the failure has already been shown to the user as a
// notification. main exits non-zero without printing it again.
var ErrReported = errors.New("already reported")

// errNotLoggedIn is returned by admin commands without a stored session.
var errNotLoggedIn = errors.New("not logged in; run 'pl login'")

// cfg is resolved once per invocation before any command runs.
var cfg *config.Config

var (
	flagFormat string
	flagServer string
	flagState  string
	flagDev    bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pl",
		Short:         "Browse and manage commercial property listings",
		Long:          "A client for the property listing service. Browse the public catalog, or log in as an admin to add, edit and remove listings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Setup(cfg.Dev)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL (default: from config or "+config.DefaultServerURL+")")
	root.PersistentFlags().StringVar(&flagState, "state", "", "local state database path (default: ~/.config/pl/state.db)")
	root.PersistentFlags().BoolVar(&flagDev, "dev", false, "verbose debug logging")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newAddCmd(),
		newEditCmd(),
		newAdminCmd(),
		newRemoveCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		c.ServerURL = strings.TrimRight(flagServer, "/")
	}
	if flagState != "" {
		c.StateDB = flagState
	}
	if flagDev {
		c.Dev = true
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newAPIClient creates a client for the configured server.
func newAPIClient() *client.Client {
	return client.New(cfg.ServerURL, client.WithTimeout(cfg.Timeout))
}

// openSessionStore opens the state database and loads the stored session.
func openSessionStore(cmd *cobra.Command) (*session.SQLiteStore, *sql.DB, error) {
	database, err := db.Open(cfg.StateDB)
	if err != nil {
		return nil, nil, err
	}

	store := session.NewSQLiteStore(database)
	if _, err := store.Init(cmd.Context()); err != nil {
		closeDB(database)
		return nil, nil, err
	}
	return store, database, nil
}

// requireSession fails unless an admin session is stored. Presence is the
// only check; the server is not consulted.
func requireSession(store session.Store) error {
	if !store.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// newNotifier shows notifications on stderr so stdout stays parseable.
func newNotifier(cmd *cobra.Command) notify.Notifier {
	return notify.NewWriter(cmd.ErrOrStderr())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// fail shows err as an error notification and returns ErrReported.
func fail(n notify.Notifier, err error) error {
	n.Notify(notify.Notification{Level: notify.Error, Message: client.UserMessage(err)})
	return ErrReported
}
