package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func newWireCommand() *cobra.Command {
	wireCmd := &cobra.Command{
		Use:           "wire",
		Short:         "Assign capability providers to consumers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List all capability assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wireList,
	}

	connectCmd := &cobra.Command{
		Use:           "connect [consumer-id] [capability]",
		Short:         "Wire a provider into a consumer's capability slot",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wireConnect,
	}
	connectCmd.Flags().String("instance", "", "Provider instance id")
	connectCmd.Flags().String("template", "", "Provider template id (uses template defaults)")

	disconnectCmd := &cobra.Command{
		Use:           "disconnect [consumer-id] [capability]",
		Short:         "Clear a consumer's capability slot",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wireDisconnect,
	}

	resolveCmd := &cobra.Command{
		Use:           "resolve [consumer-id] [capability]",
		Short:         "Show which provider currently satisfies a slot",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wireResolve,
	}

	orphansCmd := &cobra.Command{
		Use:           "orphans",
		Short:         "List wiring whose provider or consumer no longer exists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wireOrphans,
	}

	wireCmd.AddCommand(listCmd, connectCmd, disconnectCmd, resolveCmd, orphansCmd)
	return wireCmd
}

func wireList(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	edges, err := c.WiringEdges(ctx)
	if err != nil {
		return out.Error("Failed to list wiring", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"edges": edges})
	}

	if len(edges) == 0 {
		fmt.Println("No capability assignments")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONSUMER\tCAPABILITY\tPROVIDER")
	for _, edge := range edges {
		fmt.Fprintf(w, "%s\t%s\t%s:%s\n", edge.ConsumerID, edge.Capability, edge.Provider.Kind, edge.Provider.ID)
	}
	return w.Flush()
}

func wireConnect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	instanceID, _ := cmd.Flags().GetString("instance")
	templateID, _ := cmd.Flags().GetString("template")
	if (instanceID == "") == (templateID == "") {
		return out.Error("Provide exactly one of --instance or --template", nil)
	}
	provider := apihttp.ProviderRef{Kind: "instance", ID: instanceID}
	if templateID != "" {
		provider = apihttp.ProviderRef{Kind: "template", ID: templateID}
	}

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	edge, err := c.Connect(ctx, args[0], args[1], provider)
	if err != nil {
		return out.Error("Failed to connect provider", err)
	}

	return out.Success(fmt.Sprintf("Wired %s:%s into %s/%s", edge.Provider.Kind, edge.Provider.ID, edge.ConsumerID, edge.Capability), map[string]any{
		"edge": edge,
	})
}

func wireDisconnect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.Disconnect(ctx, args[0], args[1]); err != nil {
		return out.Error("Failed to disconnect", err)
	}
	return out.Success("Capability slot cleared", map[string]any{"disconnected": true})
}

func wireResolve(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	res, err := c.ResolveProvider(ctx, args[0], args[1])
	if err != nil {
		return out.Error("Failed to resolve provider", err)
	}

	if out.jsonMode {
		return out.Print(res)
	}

	switch {
	case res.Provider != nil:
		fmt.Printf("%s: %s (%s:%s)\n", res.Capability, res.State, res.Provider.Kind, res.Provider.ID)
	default:
		fmt.Printf("%s: %s\n", res.Capability, res.State)
	}
	return nil
}

func wireOrphans(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	orphans, err := c.WiringOrphans(ctx)
	if err != nil {
		return out.Error("Failed to list orphans", err)
	}

	if out.jsonMode {
		return out.Print(map[string]any{"orphans": orphans})
	}

	if len(orphans) == 0 {
		fmt.Println("No orphaned wiring")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONSUMER\tCAPABILITY\tPROVIDER\tREASON")
	for _, orphan := range orphans {
		edge := orphan.Edge
		fmt.Fprintf(w, "%s\t%s\t%s:%s\t%s\n", edge.ConsumerID, edge.Capability, edge.Provider.Kind, edge.Provider.ID, orphan.Reason)
	}
	return w.Flush()
}
