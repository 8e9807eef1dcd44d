package telegram

import (
	"errors"
	"testing"

	"spyton-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMessageGone(t *testing.T) {
	assert.True(t, isMessageGone(errors.New("Bad Request: message to edit not found")))
	assert.True(t, isMessageGone(errors.New("Bad Request: message can't be edited")))
	assert.True(t, isMessageGone(errors.New("MESSAGE_ID_INVALID")))
	assert.False(t, isMessageGone(errors.New("Too Many Requests: retry after 5")))
	assert.False(t, isMessageGone(errors.New("Bad Request: message is not modified")))
}

func TestBuyKeyboardRows(t *testing.T) {
	c := &Client{links: Links{
		TrendingURL:     "https://t.me/trending",
		BookTrendBotURL: "https://t.me/booktrend",
		DTradeRefBase:   "https://t.me/dtrade?start=ref",
	}}

	buy := models.TradeRecord{TxHash: "abc123"}
	pool := models.PoolInfo{URL: "https://chart"}

	kb := c.buyKeyboard(buy, pool)
	require.Len(t, kb.InlineKeyboard, 3)

	first := kb.InlineKeyboard[0]
	require.Len(t, first, 2)
	assert.Equal(t, "🔍 Txn", first[0].Text)
	assert.Equal(t, "https://tonviewer.com/transaction/abc123", *first[0].URL)
	assert.Equal(t, "📊 Chart", first[1].Text)

	assert.Equal(t, "⚡ Buy via DTrade", kb.InlineKeyboard[1][0].Text)

	last := kb.InlineKeyboard[2]
	require.Len(t, last, 2)
	assert.Equal(t, "📈 Trending", last[0].Text)
	assert.Equal(t, "📣 Book Trend", last[1].Text)
}

func TestBuyKeyboardOmitsMissingLinks(t *testing.T) {
	c := &Client{}

	kb := c.buyKeyboard(models.TradeRecord{}, models.PoolInfo{})
	assert.Empty(t, kb.InlineKeyboard)

	kb = c.buyKeyboard(models.TradeRecord{TxHash: "abc"}, models.PoolInfo{})
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "🔍 Txn", kb.InlineKeyboard[0][0].Text)
}
