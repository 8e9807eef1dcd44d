package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessenger records delivery calls and lets tests script edit/send
// failures per call.
type fakeMessenger struct {
	mu sync.Mutex

	alerts    []models.TradeRecord
	sends     []string
	edits     []int
	nextMsgID int

	editErr error
	sendErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextMsgID: 100}
}

func (m *fakeMessenger) SendAlert(ctx context.Context, token models.TrackedToken, buy models.TradeRecord, pool models.PoolInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, buy)
	return nil
}

func (m *fakeMessenger) SendLeaderboard(ctx context.Context, chatID int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextMsgID++
	m.sends = append(m.sends, text)
	return m.nextMsgID, nil
}

func (m *fakeMessenger) EditLeaderboard(ctx context.Context, chatID int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return m.editErr
	}
	m.edits = append(m.edits, messageID)
	return nil
}

func (m *fakeMessenger) counts() (alerts, sends, edits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts), len(m.sends), len(m.edits)
}

// fakeRegistry is an in-memory token registry.
type fakeRegistry struct {
	mu     sync.Mutex
	tokens map[int64]*models.TrackedToken

	listErr error
}

func newFakeRegistry(tokens ...models.TrackedToken) *fakeRegistry {
	r := &fakeRegistry{tokens: make(map[int64]*models.TrackedToken)}
	for i := range tokens {
		t := tokens[i]
		r.tokens[t.TokenID] = &t
	}
	return r
}

func (r *fakeRegistry) ListActiveTokens() ([]models.TrackedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.TrackedToken, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeRegistry) SetLastTradeID(tokenID int64, tradeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenID]
	if !ok {
		return models.ErrTokenNotFound
	}
	t.LastTradeID = tradeID
	return nil
}

func (r *fakeRegistry) SetLeaderboardMessageID(tokenID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenID]
	if !ok {
		return models.ErrTokenNotFound
	}
	t.LeaderboardMessageID = messageID
	return nil
}

func (r *fakeRegistry) get(tokenID int64) models.TrackedToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tokens[tokenID]
}

func testToken() models.TrackedToken {
	return models.TrackedToken{
		TokenID:        1,
		ChatID:         -100500,
		TokenAddress:   "EQTokenAddr",
		Symbol:         "SPY",
		Name:           "SpyToken",
		MinQuoteAmount: decimal.Zero,
	}
}

func TestUpdateLeaderboardCreatesThenEdits(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry(testToken())
	d := NewDispatcher(messenger, registry)

	token := registry.get(1)
	require.Zero(t, token.LeaderboardMessageID)

	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board v1"))
	assert.Equal(t, 101, token.LeaderboardMessageID)
	assert.Equal(t, 101, registry.get(1).LeaderboardMessageID)

	// Subsequent updates edit the same message.
	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board v2"))
	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board v3"))

	_, sends, edits := messenger.counts()
	assert.Equal(t, 1, sends)
	assert.Equal(t, 2, edits)
	assert.Equal(t, []int{101, 101}, messenger.edits)
}

func TestUpdateLeaderboardRecreatesOnceOnMissingMessage(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry(testToken())
	d := NewDispatcher(messenger, registry)

	token := registry.get(1)
	token.LeaderboardMessageID = 42
	require.NoError(t, registry.SetLeaderboardMessageID(1, 42))

	messenger.editErr = models.ErrMessageNotFound
	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board"))

	// Edit failed, one create happened, new reference stored.
	_, sends, edits := messenger.counts()
	assert.Equal(t, 1, sends)
	assert.Equal(t, 0, edits)
	assert.Equal(t, 101, token.LeaderboardMessageID)
	assert.Equal(t, 101, registry.get(1).LeaderboardMessageID)
}

func TestUpdateLeaderboardRecreateFailureLeavesRefCleared(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry(testToken())
	d := NewDispatcher(messenger, registry)

	token := registry.get(1)
	token.LeaderboardMessageID = 42
	require.NoError(t, registry.SetLeaderboardMessageID(1, 42))

	messenger.editErr = models.ErrMessageNotFound
	messenger.sendErr = errors.New("telegram down")

	err := d.UpdateLeaderboard(ctx, &token, "board")
	require.Error(t, err)

	// The stale reference is cleared so the next cycle creates cleanly.
	assert.Zero(t, token.LeaderboardMessageID)
	assert.Zero(t, registry.get(1).LeaderboardMessageID)

	// Next cycle succeeds with a plain create, no further edit attempts.
	messenger.sendErr = nil
	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board"))
	_, sends, edits := messenger.counts()
	assert.Equal(t, 1, sends)
	assert.Equal(t, 0, edits)
}

func TestUpdateLeaderboardTransientEditErrorKeepsRef(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry(testToken())
	d := NewDispatcher(messenger, registry)

	token := registry.get(1)
	token.LeaderboardMessageID = 42

	messenger.editErr = errors.New("timeout")
	err := d.UpdateLeaderboard(ctx, &token, "board")
	require.Error(t, err)

	// Only the missing-message signal clears the reference.
	assert.Equal(t, 42, token.LeaderboardMessageID)
	_, sends, _ := messenger.counts()
	assert.Zero(t, sends)
}

func TestUpdateLeaderboardTokenRemovedMidCycle(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry() // token not in registry
	d := NewDispatcher(messenger, registry)

	token := testToken()
	require.NoError(t, d.UpdateLeaderboard(ctx, &token, "board"))

	// The message was still created; the orphaned persist is swallowed.
	_, sends, _ := messenger.counts()
	assert.Equal(t, 1, sends)
	assert.Equal(t, 101, token.LeaderboardMessageID)
}

func TestAlertBuy(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	registry := newFakeRegistry(testToken())
	d := NewDispatcher(messenger, registry)

	buy := buyTrade("t-1", "buyer-a", "75")
	require.NoError(t, d.AlertBuy(ctx, testToken(), buy, models.PoolInfo{Address: "pool-1"}))

	alerts, _, _ := messenger.counts()
	assert.Equal(t, 1, alerts)
	assert.Equal(t, "t-1", messenger.alerts[0].ID)
}
