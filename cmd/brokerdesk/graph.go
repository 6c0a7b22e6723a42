package main

import (
	"fmt"

	"github.com/aretw0/brokerdesk/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [pipeline-id]",
	Short: "Export the stage graph visualization",
	Long: `Outputs a Mermaid diagram (graph LR) of a pipeline's stages and transitions.
With --org the stages are annotated with client counts; with --client the
client's path through the pipeline is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, _ := cmd.Flags().GetString("org")
		clientID, _ := cmd.Flags().GetString("client")
		if clientID != "" && orgID == "" {
			return fmt.Errorf("--client requires --org")
		}

		app, cleanup, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		var pipelineID string
		if len(args) > 0 {
			pipelineID = args[0]
		}

		var overlay *graph.GraphOverlay
		if clientID != "" {
			c, err := app.Clients.Get(cmd.Context(), orgID, clientID)
			if err != nil {
				return err
			}
			if pipelineID == "" {
				pipelineID = c.PipelineID
			}
			overlay = graph.OverlayFor(c)
		}

		p, err := app.Registry.Resolve(pipelineID)
		if err != nil {
			return err
		}

		if orgID != "" && clientID == "" {
			counts, err := app.Clients.Statistics(cmd.Context(), orgID, p.Definition.ID)
			if err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{Counts: counts}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p.Graph, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("org", "", "Organization id (annotates stages with client counts)")
	graphCmd.Flags().String("client", "", "Client id to highlight (requires --org)")
}
