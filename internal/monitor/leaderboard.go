package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
)

// LeaderboardState is the per-token rolling aggregate. It is owned by the
// single poll cycle processing its token, so no locking is needed here.
// Volumes accumulate as decimals; repeated small additions stay exact.
type LeaderboardState struct {
	WindowStart time.Time
	BuyCount    int
	Volume      decimal.Decimal
	BestBuy     decimal.Decimal
	LastUpdate  time.Time

	buyers map[string]*buyerTotal
}

type buyerTotal struct {
	volume decimal.Decimal
	count  int
}

// BuyerStanding is one leaderboard row.
type BuyerStanding struct {
	Buyer  string
	Volume decimal.Decimal
	Count  int
}

// NewLeaderboardState starts an empty window at now.
func NewLeaderboardState(now time.Time) *LeaderboardState {
	return &LeaderboardState{
		WindowStart: now,
		Volume:      decimal.Zero,
		BestBuy:     decimal.Zero,
		buyers:      make(map[string]*buyerTotal),
	}
}

// ApplyBuys folds qualifying buys into the aggregate. If now has passed the
// window duration since WindowStart, the window rolls over first: counters
// reset and a new window starts before any buy is applied. Rollover is the
// only path that zeroes the aggregate; buys never decrement it.
func (s *LeaderboardState) ApplyBuys(buys []models.TradeRecord, window time.Duration, now time.Time) {
	if window > 0 && !now.Before(s.WindowStart.Add(window)) {
		s.reset(now)
	}

	for _, buy := range buys {
		s.BuyCount++
		s.Volume = s.Volume.Add(buy.QuoteAmount)
		if buy.QuoteAmount.GreaterThan(s.BestBuy) {
			s.BestBuy = buy.QuoteAmount
		}
		bt := s.buyers[buy.Buyer]
		if bt == nil {
			bt = &buyerTotal{volume: decimal.Zero}
			s.buyers[buy.Buyer] = bt
		}
		bt.volume = bt.volume.Add(buy.QuoteAmount)
		bt.count++
	}

	if len(buys) > 0 {
		s.LastUpdate = now
	}
}

func (s *LeaderboardState) reset(now time.Time) {
	s.WindowStart = now
	s.BuyCount = 0
	s.Volume = decimal.Zero
	s.BestBuy = decimal.Zero
	s.buyers = make(map[string]*buyerTotal)
}

// TopBuyers returns up to n buyers ranked by total volume, ties broken by
// address for stable output.
func (s *LeaderboardState) TopBuyers(n int) []BuyerStanding {
	standings := make([]BuyerStanding, 0, len(s.buyers))
	for buyer, bt := range s.buyers {
		standings = append(standings, BuyerStanding{Buyer: buyer, Volume: bt.volume, Count: bt.count})
	}
	sort.Slice(standings, func(i, j int) bool {
		if !standings[i].Volume.Equal(standings[j].Volume) {
			return standings[i].Volume.GreaterThan(standings[j].Volume)
		}
		return standings[i].Buyer < standings[j].Buyer
	})
	if n > 0 && len(standings) > n {
		standings = standings[:n]
	}
	return standings
}

// RenderLeaderboard produces the Markdown payload for the leaderboard
// message. It is a pure function of state and configuration; the dispatcher
// may call it repeatedly on retry.
func RenderLeaderboard(state *LeaderboardState, token models.TrackedToken, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 *%s Leaderboard* (Top buyers)\n", token.DisplayName())

	standings := state.TopBuyers(topN)
	if len(standings) == 0 {
		b.WriteString("\nNo buys yet.")
		return b.String()
	}

	b.WriteString("\n")
	for i, row := range standings {
		fmt.Fprintf(&b, "%d. `%s` — *%s TON* (%d %s)\n",
			i+1, shortAddr(row.Buyer), fmtAmount(row.Volume), row.Count, plural(row.Count, "buy", "buys"))
	}

	fmt.Fprintf(&b, "\n%d %s | %s TON total | best %s TON",
		state.BuyCount, plural(state.BuyCount, "buy", "buys"),
		fmtAmount(state.Volume), fmtAmount(state.BestBuy))
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

// fmtAmount renders a decimal with two fraction digits and thousands
// separators on the integer part.
func fmtAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
