package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/brokerdesk"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of brokerdesk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "brokerdesk version %s\n", version())
	},
}

func version() string {
	return strings.TrimSpace(brokerdesk.Version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
