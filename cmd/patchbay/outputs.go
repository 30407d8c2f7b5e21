package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func newOutputsCommand() *cobra.Command {
	outputsCmd := &cobra.Command{
		Use:           "outputs",
		Short:         "Route deployment outputs into instance environments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List output wires",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          outputsList,
	}

	connectCmd := &cobra.Command{
		Use:           "connect [source-id] [output-key] [target-id] [env-var]",
		Short:         "Wire a deployment output into another instance's env var",
		Long: `Wires one instance's deployment output into another instance's
environment variable. Output keys are "access_url", "env_vars.NAME",
or "capability_values.NAME".`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          outputsConnect,
	}

	disconnectCmd := &cobra.Command{
		Use:           "disconnect [wire-id]",
		Short:         "Remove an output wire",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          outputsDisconnect,
	}

	inputsCmd := &cobra.Command{
		Use:           "inputs [instance-id]",
		Short:         "Show the current value of every wire feeding an instance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          outputsInputs,
	}

	outputsCmd.AddCommand(listCmd, connectCmd, disconnectCmd, inputsCmd)
	return outputsCmd
}

func outputsList(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	wires, err := c.OutputWires(ctx)
	if err != nil {
		return out.Error("Failed to list output wires", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"wires": wires})
	}

	if len(wires) == 0 {
		fmt.Println("No output wires")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tOUTPUT\tTARGET\tENV VAR")
	for _, wire := range wires {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wire.ID, wire.SourceInstanceID, wire.SourceOutputKey, wire.TargetInstanceID, wire.TargetEnvVar)
	}
	return w.Flush()
}

func outputsConnect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	wire, err := c.ConnectOutput(ctx, apihttp.OutputWireConnectRequest{
		SourceInstanceID: args[0],
		SourceOutputKey:  args[1],
		TargetInstanceID: args[2],
		TargetEnvVar:     args[3],
	})
	if err != nil {
		return out.Error("Failed to connect output", err)
	}

	return out.Success(fmt.Sprintf("Wired %s.%s into %s as %s", wire.SourceInstanceID, wire.SourceOutputKey, wire.TargetInstanceID, wire.TargetEnvVar), map[string]any{
		"wire": wire,
	})
}

func outputsDisconnect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.DisconnectOutput(ctx, args[0]); err != nil {
		return out.Error("Failed to disconnect output", err)
	}
	return out.Success("Output wire removed", map[string]any{"disconnected": true})
}

func outputsInputs(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	inputs, err := c.Inputs(ctx, args[0])
	if err != nil {
		return out.Error("Failed to resolve inputs", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"inputs": inputs})
	}

	if len(inputs) == 0 {
		fmt.Println("No inbound wires")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENV VAR\tVALUE\tSOURCE")
	for _, input := range inputs {
		value := input.Value
		if input.Pending {
			value = "<pending>"
			if input.Error != "" {
				value = "<pending: " + input.Error + ">"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s.%s\n", input.EnvVar, value, input.SourceInstanceID, input.SourceOutputKey)
	}
	return w.Flush()
}
