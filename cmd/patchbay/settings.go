package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSettingsCommand() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:           "settings",
		Short:         "Manage the shared settings store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored settings (secrets redacted)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsList,
	}
	listCmd.Flags().String("prefix", "", "Only show settings under this path prefix")

	setCmd := &cobra.Command{
		Use:           "set [path] [value]",
		Short:         "Write a setting; omit the value to be prompted",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsSet,
	}
	setCmd.Flags().Bool("secret", false, "Store the value encrypted and redact it in listings")

	deleteCmd := &cobra.Command{
		Use:           "delete [path]",
		Short:         "Remove a setting; fields referencing it become unresolved",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsDelete,
	}

	settingsCmd.AddCommand(listCmd, setCmd, deleteCmd)
	return settingsCmd
}

func settingsList(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	prefix, _ := cmd.Flags().GetString("prefix")

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	entries, err := c.Settings(ctx, prefix)
	if err != nil {
		return out.Error("Failed to list settings", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"settings": entries})
	}

	if len(entries) == 0 {
		fmt.Println("No settings stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tVALUE\tUPDATED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Path, entry.Value, entry.UpdatedAt)
	}
	return w.Flush()
}

func settingsSet(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	secret, _ := cmd.Flags().GetBool("secret")

	path := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		prompted, err := promptSecret(fmt.Sprintf("Value for %s: ", path))
		if err != nil {
			return out.Error("Failed to read value", err)
		}
		value = prompted
	}

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.PutSetting(ctx, path, value, secret); err != nil {
		return out.Error("Failed to write setting", err)
	}
	return out.Success(fmt.Sprintf("Setting %s saved", path), map[string]any{"path": path})
}

func settingsDelete(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.DeleteSetting(ctx, args[0]); err != nil {
		return out.Error("Failed to delete setting", err)
	}
	return out.Success(fmt.Sprintf("Setting %s removed", args[0]), map[string]any{"path": args[0]})
}
