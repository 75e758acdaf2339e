package bot

import (
	"github.com/spreadcapture/arbbot/venue"
)

// Quote - Целевые цены котирования, рассчитанные по одному снимку стакана.
// При непустых сторонах стакана Bid < Ask
type Quote struct {
	Bid float64
	Ask float64
}

// PricingFunc - Алгоритм котирования: снимок стакана - пара цен bid/ask.
// Чистая функция без состояния, безопасна при конкурентных вызовах
type PricingFunc func(ob venue.OrderBook) (Quote, error)

const (
	// BEST_BID_ASK - Котирование по лучшим ценам стакана
	BEST_BID_ASK = "best_bid_ask"
	// MID_PRICE_OFFSET - Котирование с отступом от середины спреда
	MID_PRICE_OFFSET = "mid_price_offset"
)

// NewPricing - Выбор алгоритма котирования по имени из конфига.
// Неизвестное имя - ошибка конфигурации на старте, а не в торговом цикле
func NewPricing(name string, offsetBps float64) (PricingFunc, error) {
	switch name {
	case BEST_BID_ASK:
		return bestBidAsk, nil
	case MID_PRICE_OFFSET:
		return midPriceOffset(offsetBps), nil
	default:
		return nil, &venue.ConfigError{Field: "PricingAlgorithm", Reason: "unknown algorithm " + name}
	}
}

// bestBidAsk - Заявки встают на текущие лучшие bid и ask
func bestBidAsk(ob venue.OrderBook) (Quote, error) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return Quote{}, venue.ErrEmptyBook
	}
	return Quote{Bid: bid, Ask: ask}, nil
}

// midPriceOffset - Заявки встают с отступом offsetBps базисных пунктов от середины спреда
func midPriceOffset(offsetBps float64) PricingFunc {
	return func(ob venue.OrderBook) (Quote, error) {
		bid, okBid := ob.BestBid()
		ask, okAsk := ob.BestAsk()
		if !okBid || !okAsk {
			return Quote{}, venue.ErrEmptyBook
		}
		mid := (bid + ask) / 2
		offset := mid * offsetBps / 10000
		return Quote{Bid: mid - offset, Ask: mid + offset}, nil
	}
}
