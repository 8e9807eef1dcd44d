package gecko

// Wire shapes for the GeckoTerminal JSON:API responses. Everything here is
// normalized into the canonical types in internal/models before leaving this
// package.

import "encoding/json"

// flexString accepts both JSON strings and bare numbers; the API is not
// consistent about which it returns for amounts and timestamps.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(b)
	return nil
}

type tradesResponse struct {
	Data []tradeResource `json:"data"`
}

type tradeResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes tradeAttributes `json:"attributes"`
}

type tradeAttributes struct {
	TradeType       string     `json:"trade_type"` // "buy" or "sell", may be absent
	Kind            string     `json:"kind"`       // alternate field name for the side
	BaseAmount      flexString `json:"base_amount"`
	QuoteAmount     flexString `json:"quote_amount"`
	TxHash          string     `json:"tx_hash"`
	TransactionHash string     `json:"transaction_hash"`
	TxFromAddress   string     `json:"tx_from_address"`
	FromAddress     string     `json:"from_address"`
	BlockTimestamp  flexString `json:"block_timestamp"`
	Timestamp       flexString `json:"timestamp"`
}

type poolsResponse struct {
	Data []poolResource `json:"data"`
}

type poolResource struct {
	ID         string         `json:"id"`
	Attributes poolAttributes `json:"attributes"`
}

type poolAttributes struct {
	Name         string     `json:"name"`
	ReserveInUSD flexString `json:"reserve_in_usd"`
	LiquidityUSD flexString `json:"liquidity_usd"`
	MarketCapUSD flexString `json:"market_cap_usd"`
	GTURL        string     `json:"gt_url"`
	URL          string     `json:"url"`
}
