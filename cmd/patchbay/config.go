package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:           "config [instance-id]",
		Short:         "Show an instance's effective configuration",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configShow,
	}
	configCmd.Flags().Bool("reveal", false, "Show secret values instead of redacting them")
	return configCmd
}

func configShow(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	reveal, _ := cmd.Flags().GetBool("reveal")

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	cfg, err := c.EffectiveConfig(ctx, args[0], reveal)
	if err != nil {
		return out.Error("Failed to resolve config", err)
	}

	if out.jsonMode {
		return out.Print(cfg)
	}

	fmt.Printf("Instance: %s (%s, template %s)\n", cfg.ConsumerName, cfg.ConsumerID, cfg.TemplateID)
	if len(cfg.Fields) > 0 {
		fmt.Println("Fields:")
		printResolvedFields(cfg.Fields, "  ")
	}
	for _, slot := range cfg.Capabilities {
		provider := "none"
		if slot.Provider != nil {
			provider = slot.Provider.Kind + ":" + slot.Provider.ID
		}
		fmt.Printf("Capability %s: %s (%s)\n", slot.Capability, slot.State, provider)
		printResolvedFields(slot.Fields, "  ")
	}
	if len(cfg.Inputs) > 0 {
		fmt.Println("Inputs:")
		for _, input := range cfg.Inputs {
			value := input.Value
			if input.Pending {
				value = "<pending>"
			}
			fmt.Printf("  %s = %s\n", input.EnvVar, value)
		}
	}
	if len(cfg.Env) > 0 {
		fmt.Println("Environment:")
		names := make([]string, 0, len(cfg.Env))
		for name := range cfg.Env {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s=%s\n", name, cfg.Env[name])
		}
	}
	return nil
}

func printResolvedFields(fields []apihttp.ResolvedField, indent string) {
	for _, f := range fields {
		marker := ""
		if !f.Resolved {
			marker = " (unresolved)"
		}
		if f.Error != "" {
			marker = " (error: " + f.Error + ")"
		}
		fmt.Printf("%s%s = %s%s\n", indent, f.Key, f.Value, marker)
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "validate [instance-id]",
		Short:         "Check whether an instance is ready to run",
		Args:          cobra.ExactArgs(1),
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

			report, err := c.Validate(ctx, args[0])
			if err != nil {
				return out.Error("Failed to validate instance", err)
			}

			if out.jsonMode {
				return out.Print(report)
			}

			fmt.Printf("Status: %s\n", report.Status)
			if len(report.Findings) > 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SEVERITY\tWHERE\tMESSAGE")
				for _, finding := range report.Findings {
					where := finding.Field
					if finding.Capability != "" {
						where = strings.TrimPrefix(finding.Capability+"/"+finding.Field, "/")
						where = strings.TrimSuffix(where, "/")
					}
					if where == "" {
						where = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", finding.Severity, where, finding.Message)
				}
				w.Flush()
			}

			if report.Status == "error" {
				return fmt.Errorf("instance has wiring errors")
			}
			return nil
		},
	}
}
