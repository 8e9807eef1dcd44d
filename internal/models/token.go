package models

import "github.com/shopspring/decimal"

// TrackedToken describes one token monitored in one chat. Rows are owned by
// the registry storage; the engine holds a read-through copy refreshed each
// poll cycle.
type TrackedToken struct {
	TokenID      int64
	ChatID       int64
	TokenAddress string
	Symbol       string
	Name         string
	Emoji        string
	MediaFileID  string // Telegram file id for alert media, empty for text alerts

	// MinQuoteAmount is the qualifying-buy threshold in native currency.
	MinQuoteAmount decimal.Decimal

	// LeaderboardMessageID is the single live leaderboard message for this
	// (token, chat) pair. Zero until the first qualifying buy creates it.
	LeaderboardMessageID int

	// LastTradeID is the persisted poll cursor: the newest trade id already
	// forwarded for this token's pool.
	LastTradeID string
}

// DisplayName returns the name used in alert headers.
func (t TrackedToken) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Symbol != "" {
		return t.Symbol
	}
	return "Token"
}

// PoolInfo is the per-cycle resolution of a token's deepest-liquidity pool,
// along with the display figures the source reports for it.
type PoolInfo struct {
	Address      string
	URL          string  // chart page for the pool
	MarketCapUSD float64 // 0 when the source does not report it
	LiquidityUSD float64 // 0 when the source does not report it
}
