package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/forestml"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of forestml",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "forestml version %s\n", strings.TrimSpace(forestml.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
