package storage

import (
	"path/filepath"
	"testing"

	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleToken() models.TrackedToken {
	return models.TrackedToken{
		ChatID:         -100500,
		TokenAddress:   "EQTokenAddr",
		Symbol:         "SPY",
		Name:           "SpyToken",
		Emoji:          "🚀",
		MinQuoteAmount: decimal.RequireFromString("10.5"),
	}
}

func TestAddAndGetToken(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.Equal(t, "EQTokenAddr", got.TokenAddress)
	assert.Equal(t, "SPY", got.Symbol)
	assert.Equal(t, "🚀", got.Emoji)
	assert.True(t, got.MinQuoteAmount.Equal(decimal.RequireFromString("10.5")))
	assert.Zero(t, got.LeaderboardMessageID)
	assert.Empty(t, got.LastTradeID)
}

func TestAddTokenReplacesChatToken(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.AddToken(sampleToken())
	require.NoError(t, err)

	second := sampleToken()
	second.TokenAddress = "EQOtherAddr"
	secondID, err := s.AddToken(second)
	require.NoError(t, err)

	// One chat tracks one token; the first is gone from the active set.
	tokens, err := s.ListActiveTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, secondID, tokens[0].TokenID)

	_, err = s.GetToken(first)
	assert.ErrorIs(t, err, models.ErrTokenNotFound)
}

func TestAddTokenDefaultEmoji(t *testing.T) {
	s := newTestStorage(t)

	token := sampleToken()
	token.Emoji = ""
	id, err := s.AddToken(token)
	require.NoError(t, err)

	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.Equal(t, "🟩", got.Emoji)
}

func TestListActiveTokensMultipleChats(t *testing.T) {
	s := newTestStorage(t)

	a := sampleToken()
	b := sampleToken()
	b.ChatID = -100600
	b.TokenAddress = "EQOtherAddr"

	_, err := s.AddToken(a)
	require.NoError(t, err)
	_, err = s.AddToken(b)
	require.NoError(t, err)

	tokens, err := s.ListActiveTokens()
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestSetLastTradeID(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)

	require.NoError(t, s.SetLastTradeID(id, "t-99"))

	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.Equal(t, "t-99", got.LastTradeID)
}

func TestSetLeaderboardMessageID(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)

	require.NoError(t, s.SetLeaderboardMessageID(id, 4242))
	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.Equal(t, 4242, got.LeaderboardMessageID)

	// Zero clears the reference.
	require.NoError(t, s.SetLeaderboardMessageID(id, 0))
	got, err = s.GetToken(id)
	require.NoError(t, err)
	assert.Zero(t, got.LeaderboardMessageID)
}

func TestSetMinQuoteAmount(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)

	require.NoError(t, s.SetMinQuoteAmount(id, decimal.RequireFromString("77.25")))
	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.True(t, got.MinQuoteAmount.Equal(decimal.RequireFromString("77.25")))
}

func TestRemoveToken(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)

	require.NoError(t, s.RemoveToken(id))

	tokens, err := s.ListActiveTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)

	_, err = s.GetToken(id)
	assert.ErrorIs(t, err, models.ErrTokenNotFound)
}

func TestUpdatesOnMissingToken(t *testing.T) {
	s := newTestStorage(t)

	assert.ErrorIs(t, s.SetLastTradeID(999, "t-1"), models.ErrTokenNotFound)
	assert.ErrorIs(t, s.SetLeaderboardMessageID(999, 1), models.ErrTokenNotFound)
	assert.ErrorIs(t, s.RemoveToken(999), models.ErrTokenNotFound)
}

func TestCursorSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	s, err := New(path)
	require.NoError(t, err)
	id, err := s.AddToken(sampleToken())
	require.NoError(t, err)
	require.NoError(t, s.SetLastTradeID(id, "t-42"))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetToken(id)
	require.NoError(t, err)
	assert.Equal(t, "t-42", got.LastTradeID)
}
