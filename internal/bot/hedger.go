package bot

import (
	"context"
	"sync"
	"time"

	"github.com/spreadcapture/arbbot/venue"
)

// SecondaryBook - Последний снимок стакана вторичной биржи. Бот пишет в него
// из стрима, хеджер читает. Только кэш для отчетности, не источник решений
type SecondaryBook struct {
	mx sync.Mutex
	ob venue.OrderBook
	ok bool
}

func NewSecondaryBook() *SecondaryBook {
	return &SecondaryBook{}
}

// Update - Обновление снимка
func (b *SecondaryBook) Update(ob venue.OrderBook) {
	b.mx.Lock()
	b.ob = ob
	b.ok = true
	b.mx.Unlock()
}

// Get - Получение снимка, ok = false пока стрим не принес ни одного
func (b *SecondaryBook) Get() (venue.OrderBook, bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.ob, b.ok
}

// TouchPrice - Цена, по которой рыночное поручение стороны side начнет исполняться
func (b *SecondaryBook) TouchPrice(side venue.Side) (float64, bool) {
	ob, ok := b.Get()
	if !ok {
		return 0, false
	}
	if side == venue.BUY {
		return ob.BestAsk()
	}
	return ob.BestBid()
}

// Hedger - Исполнение хеджирующих рыночных поручений на вторичной бирже
// с ограниченным числом повторов и растущей паузой между ними
type Hedger struct {
	instrument  string
	secondary   venue.SecondaryConnector
	maxAttempts int
	backoff     time.Duration
	book        *SecondaryBook
	logger      venue.Logger
}

// NewHedger - Создание хеджера
func NewHedger(instrument string, secondary venue.SecondaryConnector, maxAttempts int, backoff time.Duration, book *SecondaryBook, l venue.Logger) *Hedger {
	return &Hedger{
		instrument:  instrument,
		secondary:   secondary,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		book:        book,
		logger:      l,
	}
}

// Hedge - Рыночное поручение на size единиц в сторону side. После исчерпания
// попыток возвращает HedgeError - для бота это сигнал остановить котирование
func (h *Hedger) Hedge(ctx context.Context, side venue.Side, size float64) (venue.OrderRecord, error) {
	if expected, ok := h.book.TouchPrice(side); ok {
		h.logger.Infof("hedge %v %v %v, expected price %v", side, size, h.instrument, expected)
	}
	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		rec, err := h.secondary.PlaceMarketOrder(ctx, h.instrument, side, size)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		h.logger.Errorf("hedge attempt %v/%v failed: %v", attempt, h.maxAttempts, err.Error())
		if attempt < h.maxAttempts {
			if !wait(ctx, time.Duration(attempt)*h.backoff) {
				break
			}
		}
	}
	return venue.OrderRecord{}, &venue.HedgeError{
		Side:     side,
		Size:     size,
		Attempts: h.maxAttempts,
		Err:      lastErr,
	}
}

// wait - Пауза с учетом отмены контекста, false если контекст отменен
func wait(ctx context.Context, dur time.Duration) bool {
	tim := time.NewTimer(dur)
	defer tim.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-tim.C:
		return true
	}
}
