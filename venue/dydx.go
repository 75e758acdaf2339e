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

const dydxVenueName = "dydx"

// DYDXClient - Клиент REST API основной биржи
type DYDXClient struct {
	config     DYDXConfig
	logger     Logger
	httpClient *http.Client
}

// NewDYDXClient - Создание клиента основной биржи
func NewDYDXClient(conf DYDXConfig, l Logger) *DYDXClient {
	return &DYDXClient{
		config: conf,
		logger: l,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// rawBookLevel - Уровень стакана в формате indexer, цены и объемы приходят строками
type rawBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type dydxBookResponse struct {
	Bids []rawBookLevel `json:"bids"`
	Asks []rawBookLevel `json:"asks"`
}

// OrderBook - Снимок стакана по инструменту, тикер дополняется суффиксом -USD
func (c *DYDXClient) OrderBook(ctx context.Context, instrument string) (OrderBook, error) {
	url := fmt.Sprintf("%v/orderbooks/perpetualMarket/%v-USD", c.config.Endpoint, instrument)
	var resp dydxBookResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return OrderBook{}, &SnapshotError{Venue: dydxVenueName, Err: err}
	}
	bids, err := parseLevels(resp.Bids)
	if err != nil {
		return OrderBook{}, &SnapshotError{Venue: dydxVenueName, Err: err}
	}
	asks, err := parseLevels(resp.Asks)
	if err != nil {
		return OrderBook{}, &SnapshotError{Venue: dydxVenueName, Err: err}
	}
	return OrderBook{
		Instrument: instrument,
		Bids:       bids,
		Asks:       asks,
		Time:       time.Now(),
	}, nil
}

func parseLevels(raw []rawBookLevel) ([]BookLevel, error) {
	levels := make([]BookLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level price %q: %w", lvl.Price, err)
		}
		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level size %q: %w", lvl.Size, err)
		}
		levels = append(levels, BookLevel{Price: price, Size: size})
	}
	return levels, nil
}

// MarketInfo - Параметры рынка: шаг цены и шаг объема
type MarketInfo struct {
	Ticker   string `json:"ticker"`
	TickSize string `json:"tickSize"`
	StepSize string `json:"stepSize"`
}

// PriceStep - Шаг цены рынка как float, 0 если недоступен
func (m MarketInfo) PriceStep() float64 {
	step, err := strconv.ParseFloat(m.TickSize, 64)
	if err != nil {
		return 0
	}
	return step
}

// Markets - Список всех перпетуальных рынков биржи
func (c *DYDXClient) Markets(ctx context.Context) (map[string]MarketInfo, error) {
	var resp struct {
		Markets map[string]MarketInfo `json:"markets"`
	}
	url := fmt.Sprintf("%v/perpetualMarkets", c.config.Endpoint)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Markets, nil
}

type dydxOrderResponse struct {
	Order struct {
		ID          string `json:"id"`
		Side        string `json:"side"`
		Type        string `json:"type"`
		Size        string `json:"size"`
		TotalFilled string `json:"totalFilled"`
		Price       string `json:"price"`
		Status      string `json:"status"`
	} `json:"order"`
}

// PlaceOrder - Выставление поручения, для MARKET цена игнорируется
func (c *DYDXClient) PlaceOrder(ctx context.Context, instrument string, side Side, orderType OrderType, size, price float64) (OrderRecord, error) {
	body := map[string]any{
		"market":   instrument + "-USD",
		"side":     string(side),
		"type":     string(orderType),
		"size":     strconv.FormatFloat(size, 'f', -1, 64),
		"clientId": CreateUid(),
	}
	if orderType == LIMIT {
		body["price"] = strconv.FormatFloat(price, 'f', -1, 64)
	}
	var resp dydxOrderResponse
	url := fmt.Sprintf("%v/orders", c.config.Endpoint)
	if err := c.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return OrderRecord{}, err
	}
	return c.toRecord(resp, instrument)
}

// CancelOrder - Отмена поручения. Если биржа отвечает, что поручение уже
// исполнено, возвращается ErrOrderFilled - это событие исполнения
func (c *DYDXClient) CancelOrder(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Canceled bool   `json:"canceled"`
		Status   string `json:"status"`
	}
	url := fmt.Sprintf("%v/orders/%v", c.config.Endpoint, id)
	if err := c.doJSON(ctx, http.MethodDelete, url, nil, &resp); err != nil {
		return false, err
	}
	if !resp.Canceled && OrderStatus(resp.Status) == FILLED {
		return false, ErrOrderFilled
	}
	return resp.Canceled, nil
}

// OrderStatus - Актуальный статус поручения
func (c *DYDXClient) OrderStatus(ctx context.Context, id string) (OrderRecord, error) {
	var resp dydxOrderResponse
	url := fmt.Sprintf("%v/orders/%v", c.config.Endpoint, id)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return OrderRecord{}, err
	}
	return c.toRecord(resp, "")
}

func (c *DYDXClient) toRecord(resp dydxOrderResponse, instrument string) (OrderRecord, error) {
	size, err := strconv.ParseFloat(resp.Order.Size, 64)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("bad order size %q: %w", resp.Order.Size, err)
	}
	var filled float64
	if resp.Order.TotalFilled != "" {
		filled, err = strconv.ParseFloat(resp.Order.TotalFilled, 64)
		if err != nil {
			return OrderRecord{}, fmt.Errorf("bad filled size %q: %w", resp.Order.TotalFilled, err)
		}
	}
	var price float64
	if resp.Order.Price != "" {
		price, err = strconv.ParseFloat(resp.Order.Price, 64)
		if err != nil {
			return OrderRecord{}, fmt.Errorf("bad order price %q: %w", resp.Order.Price, err)
		}
	}
	return OrderRecord{
		ID:            resp.Order.ID,
		Instrument:    instrument,
		Side:          Side(resp.Order.Side),
		Type:          OrderType(resp.Order.Type),
		RequestedSize: size,
		FilledSize:    filled,
		Price:         price,
		Status:        OrderStatus(resp.Order.Status),
		Venue:         dydxVenueName,
	}, nil
}

func (c *DYDXClient) doJSON(ctx context.Context, method, url string, body any, dst any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DYDX-API-KEY", c.config.ApiKey)
	req.Header.Set("DYDX-PASSPHRASE", c.config.Passphrase)
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
		return &OrderRejectedError{Venue: dydxVenueName, Reason: fmt.Sprintf("http %v: %s", resp.StatusCode, raw)}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
