package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/property-listing/internal/property"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// imageURL returns where the server serves an uploaded image.
func imageURL(serverURL, image string) string {
	if image == "" {
		return ""
	}
	return strings.TrimRight(serverURL, "/") + "/uploads/" + image
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p property.Property, serverURL string) {
	fmt.Fprintf(w, "Property #%d: %s\n", p.ID, p.Title)
	fmt.Fprintf(w, "  Location:   %s\n", p.Location)
	fmt.Fprintf(w, "  Price:      %s\n", property.FormatPrice(p.Price))
	if p.SquareFeet > 0 {
		fmt.Fprintf(w, "  Area:       %d sq ft\n", p.SquareFeet)
	}
	if p.YearBuilt > 0 {
		fmt.Fprintf(w, "  Built:      %d\n", p.YearBuilt)
	}
	if p.PropertyType != "" {
		fmt.Fprintf(w, "  Type:       %s\n", p.PropertyType.Label())
	}
	if p.PropertyCondition != "" {
		fmt.Fprintf(w, "  Condition:  %s\n", p.PropertyCondition.Label())
	}
	if p.Floors != "" {
		fmt.Fprintf(w, "  Floors:     %s\n", p.Floors)
	}
	if p.Parking != "" {
		fmt.Fprintf(w, "  Parking:    %s\n", p.Parking)
	}
	if p.Amenities != "" {
		fmt.Fprintf(w, "  Amenities:  %s\n", p.Amenities)
	}
	if p.Image != "" {
		fmt.Fprintf(w, "  Image:      %s\n", imageURL(serverURL, p.Image))
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
}

// printPropertyTable prints properties as a formatted table.
func printPropertyTable(w io.Writer, props []property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tLOCATION\tPRICE\tTYPE\tSQFT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t--------\t-----\t----\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		sqft := "-"
		if p.SquareFeet > 0 {
			sqft = fmt.Sprintf("%d", p.SquareFeet)
		}
		ptype := "-"
		if p.PropertyType != "" {
			ptype = p.PropertyType.Label()
		}

		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 30), truncate(p.Location, 24),
			property.FormatPrice(p.Price), ptype, sqft); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	return nil
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
