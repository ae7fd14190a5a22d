package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearth"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hearth",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hearth version %s\n", hearth.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
