package commands

// Token registry management: add, list, remove tracked tokens and adjust
// the qualifying-buy threshold without touching the database by hand.

import (
	"fmt"
	"strconv"

	"spyton-bot/internal/config"
	"spyton-bot/internal/models"
	"spyton-bot/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage the tracked-token registry",
}

var (
	addChatID   int64
	addSymbol   string
	addName     string
	addEmoji    string
	addMediaID  string
	addMinQuote string
)

var tokensAddCmd = &cobra.Command{
	Use:   "add <token-address>",
	Short: "Track a token in a chat",
	Long:  `Register a token for monitoring. A chat tracks one token at a time; adding a second replaces the first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokensAdd,
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active tracked tokens",
	RunE:  runTokensList,
}

var tokensRemoveCmd = &cobra.Command{
	Use:   "remove <token-id>",
	Short: "Stop tracking a token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokensRemove,
}

var tokensSetMinCmd = &cobra.Command{
	Use:   "set-min <token-id> <amount>",
	Short: "Set the qualifying-buy threshold in TON",
	Args:  cobra.ExactArgs(2),
	RunE:  runTokensSetMin,
}

func init() {
	tokensAddCmd.Flags().Int64Var(&addChatID, "chat-id", 0, "Target chat id (required)")
	tokensAddCmd.Flags().StringVar(&addSymbol, "symbol", "", "Token ticker symbol")
	tokensAddCmd.Flags().StringVar(&addName, "name", "", "Token display name")
	tokensAddCmd.Flags().StringVar(&addEmoji, "emoji", "", "Alert header emoji")
	tokensAddCmd.Flags().StringVar(&addMediaID, "media-file-id", "", "Telegram file id for alert media")
	tokensAddCmd.Flags().StringVar(&addMinQuote, "min-buy", "0", "Qualifying-buy threshold in TON")
	tokensAddCmd.MarkFlagRequired("chat-id")

	tokensCmd.AddCommand(tokensAddCmd)
	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensRemoveCmd)
	tokensCmd.AddCommand(tokensSetMinCmd)
}

func openRegistry() (*storage.Storage, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.App.DBPath)
}

func runTokensAdd(cmd *cobra.Command, args []string) error {
	minQuote, err := decimal.NewFromString(addMinQuote)
	if err != nil {
		return fmt.Errorf("invalid --min-buy value %q: %w", addMinQuote, err)
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.AddToken(models.TrackedToken{
		ChatID:         addChatID,
		TokenAddress:   args[0],
		Symbol:         addSymbol,
		Name:           addName,
		Emoji:          addEmoji,
		MediaFileID:    addMediaID,
		MinQuoteAmount: minQuote,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Tracking token %s in chat %d (id %d, min buy %s TON)\n",
		args[0], addChatID, id, minQuote.String())
	return nil
}

func runTokensList(cmd *cobra.Command, args []string) error {
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := store.ListActiveTokens()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Println("No tracked tokens.")
		return nil
	}

	for _, t := range tokens {
		fmt.Printf("%d\tchat %d\t%s\t%s\tmin %s TON\tcursor %q\n",
			t.TokenID, t.ChatID, t.DisplayName(), t.TokenAddress,
			t.MinQuoteAmount.String(), t.LastTradeID)
	}
	return nil
}

func runTokensRemove(cmd *cobra.Command, args []string) error {
	tokenID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token id %q: %w", args[0], err)
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RemoveToken(tokenID); err != nil {
		return err
	}
	fmt.Printf("Stopped tracking token %d\n", tokenID)
	return nil
}

func runTokensSetMin(cmd *cobra.Command, args []string) error {
	tokenID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token id %q: %w", args[0], err)
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetMinQuoteAmount(tokenID, amount); err != nil {
		return err
	}
	fmt.Printf("Token %d now alerts on buys of %s TON or more\n", tokenID, amount.String())
	return nil
}
