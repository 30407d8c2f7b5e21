package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTemplatesCommand() *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:           "templates",
		Short:         "Inspect the template catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List available templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          templatesList,
	}

	showCmd := &cobra.Command{
		Use:           "show [template-id]",
		Short:         "Show one template with its config schema",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          templatesShow,
	}

	templatesCmd.AddCommand(listCmd, showCmd)
	return templatesCmd
}

func templatesList(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	templates, err := c.Templates(ctx)
	if err != nil {
		return out.Error("Failed to list templates", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"templates": templates})
	}

	if len(templates) == 0 {
		fmt.Println("No templates available")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODE\tPROVIDES\tREQUIRES")
	for _, t := range templates {
		provides := t.Provides
		if provides == "" {
			provides = "-"
		}
		requires := strings.Join(t.Requires, ",")
		if requires == "" {
			requires = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Mode, provides, requires)
	}
	return w.Flush()
}

func templatesShow(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	t, err := c.Template(ctx, args[0])
	if err != nil {
		return out.Error("Failed to fetch template", err)
	}

	if out.jsonMode {
		return out.Print(t)
	}

	fmt.Printf("Template: %s\n", t.ID)
	if t.Name != "" {
		fmt.Printf("  Name: %s\n", t.Name)
	}
	if t.Mode != "" {
		fmt.Printf("  Mode: %s\n", t.Mode)
	}
	if t.Version != "" {
		fmt.Printf("  Version: %s\n", t.Version)
	}
	if t.Provides != "" {
		fmt.Printf("  Provides: %s\n", t.Provides)
	}
	if len(t.Requires) > 0 {
		fmt.Printf("  Requires: %s\n", strings.Join(t.Requires, ", "))
	}
	if len(t.Schema) > 0 {
		fmt.Println("  Config schema:")
		for _, f := range t.Schema {
			attrs := []string{}
			if f.Required {
				attrs = append(attrs, "required")
			}
			if f.Secret {
				attrs = append(attrs, "secret")
			}
			if f.Default != "" {
				attrs = append(attrs, "default="+f.Default)
			}
			if f.SettingPath != "" {
				attrs = append(attrs, "setting="+f.SettingPath)
			}
			suffix := ""
			if len(attrs) > 0 {
				suffix = " (" + strings.Join(attrs, ", ") + ")"
			}
			fmt.Printf("    %s -> %s%s\n", f.Key, f.EnvVar, suffix)
		}
	}
	return nil
}

func newCapabilitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "capabilities",
		Short:         "List registered capability names",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutputFormatter(cmd)

			c, err := newClient()
			if err != nil {
				return out.Error("Failed to connect to daemon", err)
			}
			ctx, cancel := requestContext()
			defer cancel()

			caps, err := c.Capabilities(ctx)
			if err != nil {
				return out.Error("Failed to list capabilities", err)
			}

			if out.jsonMode {
				return out.Print(map[string]any{"capabilities": caps})
			}
			for _, capEntry := range caps {
				if capEntry.Label != "" {
					fmt.Printf("%s\t%s\n", capEntry.Name, capEntry.Label)
				} else {
					fmt.Println(capEntry.Name)
				}
			}
			return nil
		},
	}
}
