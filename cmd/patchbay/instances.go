package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func newInstancesCommand() *cobra.Command {
	instancesCmd := &cobra.Command{
		Use:           "instances",
		Short:         "Manage template instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved instances",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesList,
	}

	showCmd := &cobra.Command{
		Use:           "show [instance-id]",
		Short:         "Show one instance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesShow,
	}

	createCmd := &cobra.Command{
		Use:           "create",
		Short:         "Instantiate a template",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesCreate,
	}
	createCmd.Flags().String("template", "", "Template id to instantiate")
	createCmd.Flags().String("name", "", "Unique instance name")
	createCmd.Flags().StringArray("field", nil, "Literal field value as key=value (repeatable)")
	createCmd.Flags().StringArray("field-ref", nil, "Field referencing a shared setting as key=path (repeatable)")
	createCmd.Flags().StringArray("promote", nil, "Prompt for a secret and store it under a setting path as key=path (repeatable)")
	createCmd.MarkFlagRequired("template")
	createCmd.MarkFlagRequired("name")

	setCmd := &cobra.Command{
		Use:           "set [instance-id]",
		Short:         "Update instance fields",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesSet,
	}
	setCmd.Flags().StringArray("field", nil, "Literal field value as key=value (repeatable)")
	setCmd.Flags().StringArray("field-ref", nil, "Field referencing a shared setting as key=path (repeatable)")
	setCmd.Flags().StringArray("promote", nil, "Prompt for a secret and store it under a setting path as key=path (repeatable)")
	setCmd.Flags().StringArray("clear", nil, "Reset a field override back to its template default (repeatable)")

	renameCmd := &cobra.Command{
		Use:           "rename [instance-id] [new-name]",
		Short:         "Rename an instance",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesRename,
	}

	deleteCmd := &cobra.Command{
		Use:           "delete [instance-id]",
		Short:         "Delete an instance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          instancesDelete,
	}

	instancesCmd.AddCommand(listCmd, showCmd, createCmd, setCmd, renameCmd, deleteCmd)
	return instancesCmd
}

// parseFieldFlags turns --field/--field-ref/--promote/--clear values into
// wire field inputs. Promoted fields prompt for their secret value.
func parseFieldFlags(cmd *cobra.Command) (map[string]apihttp.FieldValue, error) {
	fields := make(map[string]apihttp.FieldValue)

	literals, _ := cmd.Flags().GetStringArray("field")
	for _, raw := range literals {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("--field %q is not key=value", raw)
		}
		fields[key] = apihttp.FieldValue{Source: "literal", Value: value}
	}

	refs, _ := cmd.Flags().GetStringArray("field-ref")
	for _, raw := range refs {
		key, path, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("--field-ref %q is not key=path", raw)
		}
		fields[key] = apihttp.FieldValue{Source: "setting", Path: path}
	}

	promotions, _ := cmd.Flags().GetStringArray("promote")
	for _, raw := range promotions {
		key, path, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("--promote %q is not key=path", raw)
		}
		value, err := promptSecret(fmt.Sprintf("Value for %s (stored at %s): ", key, path))
		if err != nil {
			return nil, err
		}
		fields[key] = apihttp.FieldValue{Source: "new_setting", Path: path, Value: value}
	}

	if cmd.Flags().Lookup("clear") != nil {
		clears, _ := cmd.Flags().GetStringArray("clear")
		for _, key := range clears {
			fields[key] = apihttp.FieldValue{Source: "default"}
		}
	}

	return fields, nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func instancesList(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	insts, err := c.Instances(ctx)
	if err != nil {
		return out.Error("Failed to list instances", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"instances": insts})
	}

	if len(insts) == 0 {
		fmt.Println("No instances configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTEMPLATE\tUPDATED")
	for _, inst := range insts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inst.ID, inst.Name, inst.TemplateID, inst.UpdatedAt)
	}
	return w.Flush()
}

func instancesShow(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	inst, err := c.Instance(ctx, args[0])
	if err != nil {
		return out.Error("Failed to fetch instance", err)
	}

	if out.jsonMode {
		return out.Print(inst)
	}

	fmt.Printf("Instance: %s\n", inst.ID)
	fmt.Printf("  Name: %s\n", inst.Name)
	fmt.Printf("  Template: %s\n", inst.TemplateID)
	fmt.Printf("  Created: %s\n", inst.CreatedAt)
	fmt.Printf("  Updated: %s\n", inst.UpdatedAt)
	if len(inst.FieldValues) > 0 {
		fmt.Println("  Fields:")
		for key, fv := range inst.FieldValues {
			switch fv.Source {
			case "setting":
				fmt.Printf("    %s -> setting %s\n", key, fv.Path)
			default:
				fmt.Printf("    %s = %s\n", key, fv.Value)
			}
		}
	}
	return nil
}

func instancesCreate(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	templateID, _ := cmd.Flags().GetString("template")
	name, _ := cmd.Flags().GetString("name")
	fields, err := parseFieldFlags(cmd)
	if err != nil {
		return out.Error("Invalid field flags", err)
	}

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	inst, err := c.CreateInstance(ctx, apihttp.InstanceCreateRequest{
		TemplateID: templateID,
		Name:       name,
		Fields:     fields,
	})
	if err != nil {
		return out.Error("Failed to create instance", err)
	}

	return out.Success(fmt.Sprintf("Created instance %s (%s)", inst.Name, inst.ID), map[string]any{
		"instance": inst,
	})
}

func instancesSet(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	fields, err := parseFieldFlags(cmd)
	if err != nil {
		return out.Error("Invalid field flags", err)
	}
	if len(fields) == 0 {
		return out.Error("Nothing to update; pass --field, --field-ref, --promote, or --clear", nil)
	}

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	inst, err := c.UpdateInstance(ctx, args[0], apihttp.InstanceUpdateRequest{Fields: fields})
	if err != nil {
		return out.Error("Failed to update instance", err)
	}

	return out.Success(fmt.Sprintf("Updated instance %s", inst.Name), map[string]any{
		"instance": inst,
	})
}

func instancesRename(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	name := args[1]
	inst, err := c.UpdateInstance(ctx, args[0], apihttp.InstanceUpdateRequest{Name: &name})
	if err != nil {
		return out.Error("Failed to rename instance", err)
	}

	return out.Success(fmt.Sprintf("Renamed instance to %s", inst.Name), map[string]any{
		"instance": inst,
	})
}

func instancesDelete(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.DeleteInstance(ctx, args[0]); err != nil {
		return out.Error("Failed to delete instance", err)
	}

	return out.Success("Instance deleted; check 'patchbay wire orphans' for stale wiring", map[string]any{
		"deleted": true,
	})
}
