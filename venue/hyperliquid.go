package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const hlVenueName = "hyperliquid"

// HyperliquidClient - Клиент REST API биржи хеджирования
type HyperliquidClient struct {
	config     HLConfig
	logger     Logger
	httpClient *http.Client
}

// NewHyperliquidClient - Создание клиента биржи хеджирования
func NewHyperliquidClient(conf HLConfig, l Logger) *HyperliquidClient {
	return &HyperliquidClient{
		config: conf,
		logger: l,
		httpClient: &http.Client{
			Timeout: 7 * time.Second,
		},
	}
}

// hlRawLevel - Уровень стакана в формате l2Book
type hlRawLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

type hlBookResponse struct {
	Coin   string          `json:"coin"`
	Time   int64           `json:"time"`
	Levels [2][]hlRawLevel `json:"levels"`
}

// OrderBook - Снимок стакана по инструменту. levels[0] - биды, levels[1] - аски
func (c *HyperliquidClient) OrderBook(ctx context.Context, instrument string) (OrderBook, error) {
	payload := map[string]any{"type": "l2Book", "coin": instrument}
	var resp hlBookResponse
	if err := c.doJSON(ctx, c.config.InfoEndpoint, payload, &resp); err != nil {
		return OrderBook{}, &SnapshotError{Venue: hlVenueName, Err: err}
	}
	return transformHLBook(instrument, resp)
}

func transformHLBook(instrument string, resp hlBookResponse) (OrderBook, error) {
	bids, err := parseHLLevels(resp.Levels[0])
	if err != nil {
		return OrderBook{}, &SnapshotError{Venue: hlVenueName, Err: err}
	}
	asks, err := parseHLLevels(resp.Levels[1])
	if err != nil {
		return OrderBook{}, &SnapshotError{Venue: hlVenueName, Err: err}
	}
	return OrderBook{
		Instrument: instrument,
		Bids:       bids,
		Asks:       asks,
		Time:       time.UnixMilli(resp.Time),
	}, nil
}

func parseHLLevels(raw []hlRawLevel) ([]BookLevel, error) {
	levels := make([]BookLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl.Px, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level px %q: %w", lvl.Px, err)
		}
		size, err := strconv.ParseFloat(lvl.Sz, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level sz %q: %w", lvl.Sz, err)
		}
		levels = append(levels, BookLevel{Price: price, Size: size})
	}
	return levels, nil
}

// Universe - Список торгуемых инструментов биржи, без делистнутых
func (c *HyperliquidClient) Universe(ctx context.Context) ([]string, error) {
	var resp struct {
		Universe []struct {
			Name       string `json:"name"`
			IsDelisted bool   `json:"isDelisted"`
		} `json:"universe"`
	}
	if err := c.doJSON(ctx, c.config.InfoEndpoint, map[string]any{"type": "meta"}, &resp); err != nil {
		return nil, err
	}
	coins := make([]string, 0, len(resp.Universe))
	for _, coin := range resp.Universe {
		if coin.IsDelisted {
			continue
		}
		coins = append(coins, coin.Name)
	}
	return coins, nil
}

// PlaceMarketOrder - Выставление рыночного хеджирующего поручения
func (c *HyperliquidClient) PlaceMarketOrder(ctx context.Context, instrument string, side Side, size float64) (OrderRecord, error) {
	payload := map[string]any{
		"action": map[string]any{
			"type": "order",
			"orders": []map[string]any{{
				"coin":  instrument,
				"isBuy": side == BUY,
				"sz":    strconv.FormatFloat(size, 'f', -1, 64),
				"cloid": CreateUid(),
			}},
		},
	}
	var resp struct {
		Status   string `json:"status"`
		Response struct {
			Data struct {
				Statuses []struct {
					Filled struct {
						Oid     int64  `json:"oid"`
						TotalSz string `json:"totalSz"`
						AvgPx   string `json:"avgPx"`
					} `json:"filled"`
					Error string `json:"error"`
				} `json:"statuses"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := c.doJSON(ctx, c.config.TradeEndpoint, payload, &resp); err != nil {
		return OrderRecord{}, err
	}
	if resp.Status != "ok" || len(resp.Response.Data.Statuses) == 0 {
		return OrderRecord{}, &OrderRejectedError{Venue: hlVenueName, Reason: fmt.Sprintf("status %q", resp.Status)}
	}
	st := resp.Response.Data.Statuses[0]
	if st.Error != "" {
		return OrderRecord{}, &OrderRejectedError{Venue: hlVenueName, Reason: st.Error}
	}
	filled, err := strconv.ParseFloat(st.Filled.TotalSz, 64)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("bad filled size %q: %w", st.Filled.TotalSz, err)
	}
	avgPx, err := strconv.ParseFloat(st.Filled.AvgPx, 64)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("bad avg price %q: %w", st.Filled.AvgPx, err)
	}
	return OrderRecord{
		ID:            strconv.FormatInt(st.Filled.Oid, 10),
		Instrument:    instrument,
		Side:          side,
		Type:          MARKET,
		RequestedSize: size,
		FilledSize:    filled,
		Price:         avgPx,
		Status:        FILLED,
		Venue:         hlVenueName,
	}, nil
}

func (c *HyperliquidClient) doJSON(ctx context.Context, url string, body any, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HL-API-KEY", c.config.ApiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf(err.Error())
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &OrderRejectedError{Venue: hlVenueName, Reason: fmt.Sprintf("http %v: %s", resp.StatusCode, raw)}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
