package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide marks the direction of a trade relative to the base token.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeRecord is the canonical normalized form of one on-chain trade.
// It is constructed once at the source-adapter boundary and never mutated;
// everything downstream (dedup, filtering, aggregation, formatting) operates
// on this type only.
type TradeRecord struct {
	ID          string          // source-assigned trade id, may be empty
	PoolID      string          // pool address the trade executed in
	Side        TradeSide       // buy or sell relative to the base token
	BaseAmount  decimal.Decimal // token units
	QuoteAmount decimal.Decimal // native currency (TON)
	Buyer       string          // trader wallet address
	TxHash      string          // transaction hash, may be empty
	Timestamp   time.Time       // wall-clock time reported by the source
}

// DedupKey returns the key used for seen-set membership. The source trade id
// is authoritative; when the source does not assign one, a composite of
// pool, timestamp, buyer and amount stands in.
func (t TradeRecord) DedupKey() string {
	if t.ID != "" {
		return t.ID
	}
	return fmt.Sprintf("%s|%d|%s|%s", t.PoolID, t.Timestamp.Unix(), t.Buyer, t.QuoteAmount.String())
}

// IsBuy reports whether the trade is buy-side.
func (t TradeRecord) IsBuy() bool {
	return t.Side == SideBuy
}
