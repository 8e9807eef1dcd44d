package monitor

import (
	"time"

	"spyton-bot/internal/models"
)

// SeenTradeSet is the per-token record of trade ids already processed. It
// guarantees at-most-once alerting: a key, once marked, is never reprocessed.
// The set is pruned by age and capacity only, never by token identity change.
type SeenTradeSet struct {
	keys    map[string]time.Time
	order   []string // insertion order, for capacity eviction
	maxAge  time.Duration
	maxSize int
}

// NewSeenTradeSet creates a seen-set bounded by maxAge and maxSize.
// Non-positive bounds disable the respective limit.
func NewSeenTradeSet(maxAge time.Duration, maxSize int) *SeenTradeSet {
	return &SeenTradeSet{
		keys:    make(map[string]time.Time),
		maxAge:  maxAge,
		maxSize: maxSize,
	}
}

// MarkSeen records the key and reports whether it was new. Already-seen keys
// return false and refresh nothing.
func (s *SeenTradeSet) MarkSeen(key string, now time.Time) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = now
	s.order = append(s.order, key)
	s.prune(now)
	return true
}

// Len returns the number of keys currently retained.
func (s *SeenTradeSet) Len() int {
	return len(s.keys)
}

func (s *SeenTradeSet) prune(now time.Time) {
	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		for len(s.order) > 0 {
			key := s.order[0]
			if ts, ok := s.keys[key]; ok && ts.After(cutoff) {
				break
			}
			delete(s.keys, key)
			s.order = s.order[1:]
		}
	}
	if s.maxSize > 0 {
		for len(s.order) > s.maxSize {
			delete(s.keys, s.order[0])
			s.order = s.order[1:]
		}
	}
}

// QualifyingBuys runs the dedup-and-filter pass over one poll's trades: drop
// everything already seen (marking the rest), drop non-buys, drop buys below
// the token's minimum quote amount. Output preserves arrival order; nothing
// is re-sorted.
func QualifyingBuys(token models.TrackedToken, seen *SeenTradeSet, trades []models.TradeRecord, now time.Time) []models.TradeRecord {
	var qualifying []models.TradeRecord
	for _, trade := range trades {
		if !seen.MarkSeen(trade.DedupKey(), now) {
			continue
		}
		if !trade.IsBuy() {
			continue
		}
		if trade.QuoteAmount.LessThan(token.MinQuoteAmount) {
			continue
		}
		qualifying = append(qualifying, trade)
	}
	return qualifying
}
