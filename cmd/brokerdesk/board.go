package main

import (
	"fmt"

	"github.com/aretw0/brokerdesk/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Render an organization's kanban board in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, _ := cmd.Flags().GetString("org")
		pipelineID, _ := cmd.Flags().GetString("pipeline")
		style, _ := cmd.Flags().GetString("style")
		raw, _ := cmd.Flags().GetBool("raw")

		app, cleanup, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		b, err := app.Clients.Board(cmd.Context(), orgID, pipelineID)
		if err != nil {
			return err
		}
		md := tui.BoardMarkdown(b)
		if raw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		render, err := tui.NewRenderer(style)
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().String("org", "", "Organization id")
	boardCmd.Flags().String("pipeline", "", "Pipeline id (default pipeline when empty)")
	boardCmd.Flags().String("style", "", "Glamour style: dark, light, notty (auto-detected when empty)")
	boardCmd.Flags().Bool("raw", false, "Print markdown without rendering")
	_ = boardCmd.MarkFlagRequired("org")
}
