package telegram

import (
	"fmt"
	"strings"

	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
)

// FormatBuyAlert assembles the buy alert text. Pure; safe to call repeatedly.
func FormatBuyAlert(token models.TrackedToken, buy models.TradeRecord, pool models.PoolInfo) string {
	emoji := token.Emoji
	if emoji == "" {
		emoji = "🟩"
	}

	lines := []string{
		fmt.Sprintf("%s | %s", emoji, token.DisplayName()),
		"BUY — TON DEX",
		"",
		fmt.Sprintf("💎 %s TON", fmtTON(buy.QuoteAmount)),
		strings.TrimSpace(fmt.Sprintf("🪙 %s %s", fmtTokenAmount(buy.BaseAmount), token.Symbol)),
		fmt.Sprintf("👤 `%s`", shortAddr(buy.Buyer)),
		fmt.Sprintf("🏦 MC: %s  |  💧 LP: %s", fmtUSD(pool.MarketCapUSD), fmtUSD(pool.LiquidityUSD)),
	}
	return strings.Join(lines, "\n")
}

func shortAddr(addr string) string {
	if len(addr) < 11 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

func fmtUSD(x float64) string {
	switch {
	case x == 0:
		return "—"
	case x >= 1e9:
		return fmt.Sprintf("$%.2fB", x/1e9)
	case x >= 1e6:
		return fmt.Sprintf("$%.2fM", x/1e6)
	case x >= 1e3:
		return fmt.Sprintf("$%.2fK", x/1e3)
	default:
		return fmt.Sprintf("$%.2f", x)
	}
}

func fmtTON(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(2))
}

func fmtTokenAmount(d decimal.Decimal) string {
	million := decimal.NewFromInt(1_000_000)
	thousand := decimal.NewFromInt(1_000)
	switch {
	case d.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return groupThousands(d.StringFixed(2))
	}
}

// groupThousands inserts comma separators into the integer part of a fixed
// decimal string.
func groupThousands(s string) string {
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
