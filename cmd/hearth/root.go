package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Hearth is a contribution-tracking community bot",
	Long: `Hearth runs multi-turn conversations over chat: onboarding, profile
updates, guild registration, and contribution reporting.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "hearth.yaml", "Path to the configuration file")
}
