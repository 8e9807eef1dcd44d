package monitor

import (
	"context"
	"errors"
	"fmt"

	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/models"

	"go.uber.org/zap"
)

// Messenger is the messaging-collaborator boundary. Implementations deliver
// to the chat platform; EditLeaderboard reports a deleted or inaccessible
// message as models.ErrMessageNotFound.
type Messenger interface {
	SendAlert(ctx context.Context, token models.TrackedToken, buy models.TradeRecord, pool models.PoolInfo) error
	SendLeaderboard(ctx context.Context, chatID int64, text string) (messageID int, err error)
	EditLeaderboard(ctx context.Context, chatID int64, messageID int, text string) error
}

// Registry is the configuration-storage boundary: the active token set plus
// the two write-backs the engine needs (cursor and leaderboard message ref).
type Registry interface {
	ListActiveTokens() ([]models.TrackedToken, error)
	SetLastTradeID(tokenID int64, tradeID string) error
	SetLeaderboardMessageID(tokenID int64, messageID int) error
}

// Dispatcher turns processed events into send/edit intents. Alerts are a
// stream of new messages; the leaderboard is one message per token that is
// created lazily and thereafter only edited.
type Dispatcher struct {
	messenger Messenger
	registry  Registry
}

func NewDispatcher(messenger Messenger, registry Registry) *Dispatcher {
	return &Dispatcher{messenger: messenger, registry: registry}
}

// AlertBuy emits a new alert message for one qualifying buy.
func (d *Dispatcher) AlertBuy(ctx context.Context, token models.TrackedToken, buy models.TradeRecord, pool models.PoolInfo) error {
	if err := d.messenger.SendAlert(ctx, token, buy, pool); err != nil {
		return fmt.Errorf("failed to send buy alert: %w", err)
	}
	log.LogInfo("Sent buy alert",
		zap.Int64("token_id", token.TokenID),
		zap.String("trade_id", buy.ID),
		zap.String("amount", buy.QuoteAmount.String()))
	return nil
}

// UpdateLeaderboard delivers the rendered payload to the token's leaderboard
// message. The stored reference is edited when present and created when
// absent. If an edit reports the message missing, the reference is cleared
// and a create is attempted exactly once in the same cycle; a second failure
// leaves the reference cleared and defers the update to the next cycle.
// token.LeaderboardMessageID is updated in place on create.
func (d *Dispatcher) UpdateLeaderboard(ctx context.Context, token *models.TrackedToken, text string) error {
	if token.LeaderboardMessageID != 0 {
		err := d.messenger.EditLeaderboard(ctx, token.ChatID, token.LeaderboardMessageID, text)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrMessageNotFound) {
			return fmt.Errorf("failed to edit leaderboard: %w", err)
		}

		log.LogWarn("Leaderboard message gone, recreating",
			zap.Int64("token_id", token.TokenID),
			zap.Int("message_id", token.LeaderboardMessageID))
		token.LeaderboardMessageID = 0
		if err := d.persistMessageID(token.TokenID, 0); err != nil {
			return err
		}
	}

	messageID, err := d.messenger.SendLeaderboard(ctx, token.ChatID, text)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard: %w", err)
	}

	token.LeaderboardMessageID = messageID
	if err := d.persistMessageID(token.TokenID, messageID); err != nil {
		return err
	}
	log.LogInfo("Created leaderboard message",
		zap.Int64("token_id", token.TokenID),
		zap.Int("message_id", messageID))
	return nil
}

func (d *Dispatcher) persistMessageID(tokenID int64, messageID int) error {
	err := d.registry.SetLeaderboardMessageID(tokenID, messageID)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrTokenNotFound) {
		// Token removed mid-cycle; nothing to persist against.
		log.LogDebug("Token removed while persisting leaderboard ref", zap.Int64("token_id", tokenID))
		return nil
	}
	return fmt.Errorf("failed to persist leaderboard message id: %w", err)
}
