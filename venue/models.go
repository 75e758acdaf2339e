package venue

import (
	"context"
	"time"
)

// Side - Направление торгового поручения
type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// Opposite - Противоположное направление, используется при хеджировании исполненной заявки
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

// OrderType - Тип торгового поручения
type OrderType string

const (
	LIMIT  OrderType = "LIMIT"
	MARKET OrderType = "MARKET"
)

// OrderStatus - Статус торгового поручения на бирже
type OrderStatus string

const (
	PENDING          OrderStatus = "PENDING"
	OPEN             OrderStatus = "OPEN"
	FILLED           OrderStatus = "FILLED"
	PARTIALLY_FILLED OrderStatus = "PARTIALLY_FILLED"
	CANCELED         OrderStatus = "CANCELED"
)

// Resting - Заявка считается стоящей в стакане, пока она не исполнена и не отменена
func (s OrderStatus) Resting() bool {
	return s == PENDING || s == OPEN || s == PARTIALLY_FILLED
}

// BookLevel - Уровень стакана: цена и суммарный объем на этой цене
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook - Снимок стакана. Bids отсортированы по убыванию цены, Asks по возрастанию
type OrderBook struct {
	Instrument string
	Bids       []BookLevel
	Asks       []BookLevel
	Time       time.Time
}

// BestBid - Лучшая цена покупки, ok = false если сторона пуста
func (ob OrderBook) BestBid() (float64, bool) {
	if len(ob.Bids) == 0 {
		return 0, false
	}
	return ob.Bids[0].Price, true
}

// BestAsk - Лучшая цена продажи, ok = false если сторона пуста
func (ob OrderBook) BestAsk() (float64, bool) {
	if len(ob.Asks) == 0 {
		return 0, false
	}
	return ob.Asks[0].Price, true
}

// OrderRecord - Локальная запись о выставленном поручении. Биржа остается
// источником истины, запись обновляется только по ответам venue
type OrderRecord struct {
	ID            string
	Instrument    string
	Side          Side
	Type          OrderType
	RequestedSize float64
	FilledSize    float64
	Price         float64
	Status        OrderStatus
	Venue         string
}

// PrimaryConnector - Контракт основной биржи, на которой бот держит лимитные заявки
type PrimaryConnector interface {
	// OrderBook - Текущий снимок стакана по инструменту
	OrderBook(ctx context.Context, instrument string) (OrderBook, error)
	// PlaceOrder - Выставление поручения, для MARKET цена игнорируется
	PlaceOrder(ctx context.Context, instrument string, side Side, orderType OrderType, size, price float64) (OrderRecord, error)
	// CancelOrder - Отмена поручения. Если поручение уже исполнено, возвращает ErrOrderFilled
	CancelOrder(ctx context.Context, id string) (bool, error)
	// OrderStatus - Актуальный статус поручения
	OrderStatus(ctx context.Context, id string) (OrderRecord, error)
}

// SecondaryConnector - Контракт биржи, на которой исполняются хеджирующие рыночные поручения
type SecondaryConnector interface {
	PlaceMarketOrder(ctx context.Context, instrument string, side Side, size float64) (OrderRecord, error)
}
