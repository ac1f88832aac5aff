package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/property-listing/internal/form"
	"github.com/evcraddock/property-listing/internal/property"
)

// draftFlags binds one flag per editable draft field plus --image.
type draftFlags struct {
	values  map[string]*string
	image   string
	noInput bool
}

// flagName maps a wire field name to its flag, e.g. square_feet to square-feet.
func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func fieldUsage(field string) string {
	switch field {
	case "property_type":
		return "property type (" + joinTypes() + ")"
	case "property_condition":
		return "property condition (" + joinConditions() + ")"
	default:
		return strings.ReplaceAll(field, "_", " ")
	}
}

func addDraftFlags(cmd *cobra.Command) *draftFlags {
	df := &draftFlags{values: make(map[string]*string)}
	for _, field := range property.Fields {
		if field == "image" {
			continue
		}
		df.values[field] = cmd.Flags().String(flagName(field), "", fieldUsage(field))
	}
	cmd.Flags().StringVar(&df.image, "image", "", "path of an image file to upload")
	cmd.Flags().BoolVar(&df.noInput, "no-input", false, "never prompt for missing fields")
	return df
}

// apply copies every flag the user set into the form.
func (df *draftFlags) apply(cmd *cobra.Command, fc *form.Controller) error {
	for _, field := range property.Fields {
		v, ok := df.values[field]
		if !ok || !cmd.Flags().Changed(flagName(field)) {
			continue
		}
		if err := fc.Set(field, *v); err != nil {
			return err
		}
	}
	return nil
}

// promptMissing asks for every field still blank in the draft.
func (df *draftFlags) promptMissing(cmd *cobra.Command, fc *form.Controller) error {
	if df.noInput {
		return nil
	}
	in := bufio.NewReader(cmd.InOrStdin())
	for _, field := range property.Fields {
		if field == "image" {
			continue
		}
		current, err := fc.Draft().Get(field)
		if err != nil {
			return err
		}
		if strings.TrimSpace(current) != "" {
			continue
		}
		v, err := promptLine(in, cmd.ErrOrStderr(), fieldUsage(field))
		if err != nil {
			return err
		}
		if err := fc.Set(field, v); err != nil {
			return err
		}
	}
	return nil
}

// upload sends the --image file, if any, through the form.
func (df *draftFlags) upload(cmd *cobra.Command, fc *form.Controller) error {
	if df.image == "" {
		return nil
	}
	f, err := os.Open(df.image)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := fc.UploadImage(cmd.Context(), filepath.Base(df.image), f); err != nil {
		return ErrReported
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var df *draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property",
		Long: `Add a property listing. Every field is required. Fields not given as
flags are prompted for, and --image uploads the listing photo first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, df)
		},
	}
	df = addDraftFlags(cmd)

	return cmd
}

func runAdd(cmd *cobra.Command, df *draftFlags) error {
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
		Mode:    form.Create,
		Delay:   cfg.SuccessDelay,
		OnClose: func() { navigate = true },
	})
	defer fc.Close()

	return submitForm(cmd, fc, df, &navigate)
}

// submitForm fills, uploads and submits a form, then shows the admin
// listing once the form closes.
func submitForm(cmd *cobra.Command, fc *form.Controller, df *draftFlags, navigate *bool) error {
	if err := df.apply(cmd, fc); err != nil {
		return err
	}
	if err := df.promptMissing(cmd, fc); err != nil {
		return err
	}
	if err := df.upload(cmd, fc); err != nil {
		return err
	}

	draft := fc.Draft()
	if err := fc.Submit(cmd.Context()); err != nil {
		return ErrReported
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{
			"submitted": true,
			"property":  draft,
		})
	}
	if *navigate {
		return showAdminList(cmd)
	}
	return nil
}

func joinTypes() string {
	s := make([]string, len(property.Types))
	for i, t := range property.Types {
		s[i] = string(t)
	}
	return strings.Join(s, "|")
}

func joinConditions() string {
	s := make([]string, len(property.Conditions))
	for i, c := range property.Conditions {
		s[i] = string(c)
	}
	return strings.Join(s, "|")
}
