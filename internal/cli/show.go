package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/client"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Long:  "Show full details for a single property.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	n := newNotifier(cmd)
	c := newAPIClient()

	p, err := c.GetProperty(cmd.Context(), id)
	if err != nil {
		return fail(n, err)
	}
	// Soft-deleted listings are hidden from every public view.
	if !p.Active() {
		return fail(n, &client.NotFoundError{ID: id})
	}

	if isJSON() {
		return printJSON(out(cmd), p)
	}

	printPropertySummary(out(cmd), *p, c.BaseURL())
	return nil
}

// parseID parses a property ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid property ID: %s", arg)
	}
	return id, nil
}
