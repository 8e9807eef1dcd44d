package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spyton-bot",
	Short: "SpyTON Bot - Telegram buy alerts and leaderboards for TON tokens",
	Long: `SpyTON Bot watches on-chain trade activity for tracked TON tokens via
GeckoTerminal, posts an alert into the configured chat for every qualifying
buy, and keeps a single continuously edited leaderboard message per token.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(tokensCmd)
}
