package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI configuration",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "set-server <url>",
			Short: "Save the API server URL",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigSetServer,
		},
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{
			"config_file":   path,
			"server_url":    cfg.ServerURL,
			"state_db":      cfg.StateDB,
			"success_delay": cfg.SuccessDelay.String(),
			"timeout":       cfg.Timeout.String(),
			"dev":           cfg.Dev,
		})
	}

	w := out(cmd)
	fmt.Fprintf(w, "Config file:    %s\n", path)
	fmt.Fprintf(w, "Server:         %s\n", cfg.ServerURL)
	state := cfg.StateDB
	if state == "" {
		state = "(default)"
	}
	fmt.Fprintf(w, "State DB:       %s\n", state)
	fmt.Fprintf(w, "Success delay:  %s\n", cfg.SuccessDelay)
	fmt.Fprintf(w, "Timeout:        %s\n", cfg.Timeout)
	return nil
}

func runConfigSetServer(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(strings.TrimSpace(args[0]), "/")
	check := *cfg
	check.ServerURL = url
	if err := check.Validate(); err != nil {
		return err
	}

	if err := config.Save(config.File{ServerURL: url}); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out(cmd), "✓ Server set to %s\n", url)
	return nil
}
