package gecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecentTrades fetches the latest trades for a pool and returns only those
// newer than sinceCursor, ordered oldest to newest, together with the new
// cursor. The cursor is the newest trade id the API reported; an empty
// cursor means "beginning" and forwards the whole first page.
//
// The API returns trades newest-first, so the page is cut at the cursor and
// reversed. The cursor only guarantees no re-forwarding at this boundary;
// end-to-end at-most-once alerting is still the dedup engine's job.
func (c *Client) RecentTrades(ctx context.Context, poolID string, sinceCursor string) ([]models.TradeRecord, string, error) {
	if poolID == "" {
		return nil, sinceCursor, fmt.Errorf("poolID is required")
	}

	path := fmt.Sprintf("/networks/%s/pools/%s/trades", c.network, poolID)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, sinceCursor, err
	}

	var resp tradesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, sinceCursor, fmt.Errorf("%w: failed to unmarshal trades response: %v", models.ErrSourceUnavailable, err)
	}

	var page []models.TradeRecord // newest-first, as reported
	for _, res := range resp.Data {
		if sinceCursor != "" && res.ID == sinceCursor {
			break
		}
		rec, ok := normalizeTrade(poolID, res)
		if !ok {
			continue
		}
		page = append(page, rec)
	}

	// Reverse into arrival order. Equal timestamps keep the source order.
	trades := make([]models.TradeRecord, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		trades = append(trades, page[i])
	}

	newCursor := sinceCursor
	if len(resp.Data) > 0 && resp.Data[0].ID != "" {
		newCursor = resp.Data[0].ID
	}

	return trades, newCursor, nil
}

// normalizeTrade converts one wire trade into the canonical TradeRecord.
// Returns false for records too malformed to use.
func normalizeTrade(poolID string, res tradeResource) (models.TradeRecord, bool) {
	attr := res.Attributes

	baseAmount := parseDecimal(string(attr.BaseAmount))
	quoteAmount := parseDecimal(string(attr.QuoteAmount))

	side := parseSide(attr, baseAmount, quoteAmount)

	buyer := attr.TxFromAddress
	if buyer == "" {
		buyer = attr.FromAddress
	}

	txHash := attr.TxHash
	if txHash == "" {
		txHash = attr.TransactionHash
	}

	ts := parseTimestamp(string(attr.BlockTimestamp))
	if ts.IsZero() {
		ts = parseTimestamp(string(attr.Timestamp))
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	rec := models.TradeRecord{
		ID:          res.ID,
		PoolID:      poolID,
		Side:        side,
		BaseAmount:  baseAmount.Abs(),
		QuoteAmount: quoteAmount.Abs(),
		Buyer:       buyer,
		TxHash:      txHash,
		Timestamp:   ts,
	}

	if rec.ID == "" && rec.Buyer == "" && rec.QuoteAmount.IsZero() {
		log.LogDebug("Dropping unusable trade record", zap.String("pool", poolID))
		return models.TradeRecord{}, false
	}
	return rec, true
}

// parseSide resolves the trade side. The explicit trade_type/kind field wins;
// when the source omits it, the sign of the base amount stands in: sells
// report the base asset flowing out of the trader as a negative amount.
func parseSide(attr tradeAttributes, baseAmount, quoteAmount decimal.Decimal) models.TradeSide {
	switch attr.TradeType {
	case "buy":
		return models.SideBuy
	case "sell":
		return models.SideSell
	}
	switch attr.Kind {
	case "buy":
		return models.SideBuy
	case "sell":
		return models.SideSell
	}
	if baseAmount.IsNegative() || quoteAmount.IsNegative() {
		return models.SideSell
	}
	return models.SideBuy
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseTimestamp accepts unix seconds or RFC3339.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
