package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	redisadapter "github.com/hearthlabs/hearth/internal/adapters/redis"
	"github.com/hearthlabs/hearth/internal/config"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage active conversations",
	Long:  `List, inspect, and clear the per-user conversation records in Redis.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with an active conversation",
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		users, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}
		if len(users) == 0 {
			fmt.Println("No active conversations.")
			return
		}
		for _, userID := range users {
			record, err := store.Load(cmd.Context(), userID)
			if err != nil {
				fmt.Printf("- %s (unreadable: %v)\n", userID, err)
				continue
			}
			fmt.Printf("- %s: %s\n", userID, record.Thread)
		}
	},
}

var sessionsInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Print a user's conversation record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		record, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling record: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <user-id>...",
	Short: "Remove one or more users' conversation records",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		hasError := false
		for _, userID := range args {
			if err := store.Delete(cmd.Context(), userID); err != nil {
				fmt.Printf("Error clearing '%s': %v\n", userID, err)
				hasError = true
			} else {
				fmt.Printf("Cleared conversation for '%s'\n", userID)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func getSessionStore(cmd *cobra.Command) *redisadapter.Store {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsInspectCmd, sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}
