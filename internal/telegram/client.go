// Package telegram implements the messaging collaborator on top of the
// Telegram Bot API: buy alerts as new messages, the leaderboard as a single
// edited message per token.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Links holds the configured destinations for alert keyboard buttons.
type Links struct {
	TrendingURL     string
	ListingURL      string
	BookTrendBotURL string
	DTradeRefBase   string
}

// Client sends and edits chat messages through one bot.
type Client struct {
	bot   *tgbotapi.BotAPI
	links Links
}

// NewClient authorizes the bot and returns a ready client.
func NewClient(botToken string, links Links) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	log.LogSuccess("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return &Client{bot: bot, links: links}, nil
}

// SendAlert posts one buy alert. Tokens with stored media get an animation
// with the alert as caption, falling back to a photo send and finally to a
// plain text message; alerts are never edited.
func (c *Client) SendAlert(ctx context.Context, token models.TrackedToken, buy models.TradeRecord, pool models.PoolInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := FormatBuyAlert(token, buy, pool)
	keyboard := c.buyKeyboard(buy, pool)

	if token.MediaFileID != "" {
		animation := tgbotapi.NewAnimation(token.ChatID, tgbotapi.FileID(token.MediaFileID))
		animation.Caption = text
		animation.ParseMode = tgbotapi.ModeMarkdown
		animation.ReplyMarkup = keyboard
		if _, err := c.bot.Send(animation); err == nil {
			return nil
		}

		photo := tgbotapi.NewPhoto(token.ChatID, tgbotapi.FileID(token.MediaFileID))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyMarkup = keyboard
		if _, err := c.bot.Send(photo); err == nil {
			return nil
		}
		log.LogWarn("Media alert failed, falling back to text",
			zap.Int64("chat_id", token.ChatID),
			zap.String("media_file_id", token.MediaFileID))
	}

	msg := tgbotapi.NewMessage(token.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

// SendLeaderboard creates the leaderboard message and returns its id.
func (c *Client) SendLeaderboard(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send leaderboard: %w", err)
	}
	return sent.MessageID, nil
}

// EditLeaderboard replaces the leaderboard message text in place. A message
// Telegram no longer knows about comes back as models.ErrMessageNotFound so
// the dispatcher can recreate it; an unchanged payload is treated as success.
func (c *Client) EditLeaderboard(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	if _, err := c.bot.Send(edit); err != nil {
		if isMessageGone(err) {
			return fmt.Errorf("%w: message %d in chat %d", models.ErrMessageNotFound, messageID, chatID)
		}
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("failed to edit leaderboard: %w", err)
	}
	return nil
}

func isMessageGone(err error) bool {
	s := err.Error()
	return strings.Contains(s, "message to edit not found") ||
		strings.Contains(s, "message can't be edited") ||
		strings.Contains(s, "MESSAGE_ID_INVALID")
}

func (c *Client) buyKeyboard(buy models.TradeRecord, pool models.PoolInfo) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var first []tgbotapi.InlineKeyboardButton
	if buy.TxHash != "" {
		first = append(first, tgbotapi.NewInlineKeyboardButtonURL("🔍 Txn", "https://tonviewer.com/transaction/"+buy.TxHash))
	}
	if pool.URL != "" {
		first = append(first, tgbotapi.NewInlineKeyboardButtonURL("📊 Chart", pool.URL))
	}
	if len(first) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(first...))
	}

	if c.links.DTradeRefBase != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("⚡ Buy via DTrade", c.links.DTradeRefBase),
		))
	}

	var last []tgbotapi.InlineKeyboardButton
	if c.links.TrendingURL != "" {
		last = append(last, tgbotapi.NewInlineKeyboardButtonURL("📈 Trending", c.links.TrendingURL))
	}
	if c.links.BookTrendBotURL != "" {
		last = append(last, tgbotapi.NewInlineKeyboardButtonURL("📣 Book Trend", c.links.BookTrendBotURL))
	}
	if len(last) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(last...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
