package bot

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/spreadcapture/arbbot/venue"
)

// restingOrders - Стоящие заявки бота на основной бирже: не больше одной
// заявки на покупку и одной на продажу по инструменту
type restingOrders struct {
	mx  sync.Mutex
	bid *venue.OrderRecord
	ask *venue.OrderRecord
}

func newRestingOrders() *restingOrders {
	return &restingOrders{}
}

// Get - Заявка стороны side, ok = false если ее нет
func (r *restingOrders) Get(side venue.Side) (venue.OrderRecord, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()
	ord := r.slot(side)
	if *ord == nil {
		return venue.OrderRecord{}, false
	}
	return **ord, true
}

// Set - Запись заявки стороны side
func (r *restingOrders) Set(side venue.Side, rec venue.OrderRecord) {
	r.mx.Lock()
	*r.slot(side) = &rec
	r.mx.Unlock()
}

// Clear - Очистка слота стороны side
func (r *restingOrders) Clear(side venue.Side) {
	r.mx.Lock()
	*r.slot(side) = nil
	r.mx.Unlock()
}

// All - Все стоящие заявки
func (r *restingOrders) All() []venue.OrderRecord {
	r.mx.Lock()
	defer r.mx.Unlock()
	out := make([]venue.OrderRecord, 0, 2)
	if r.bid != nil {
		out = append(out, *r.bid)
	}
	if r.ask != nil {
		out = append(out, *r.ask)
	}
	return out
}

func (r *restingOrders) slot(side venue.Side) **venue.OrderRecord {
	if side == venue.BUY {
		return &r.bid
	}
	return &r.ask
}

// Executor - Владеет состоянием стоящих заявок, принимает решения
// выставить/снять/оставить, обнаруживает исполнения и запускает хеджи.
// Все мутации состояния происходят в одном торговом цикле, цикл за циклом
type Executor struct {
	instrument       string
	tradeSize        float64
	repriceThreshold float64
	priceStep        float64

	resting *restingOrders
	primary venue.PrimaryConnector
	hedger  *Hedger
	risk    *RiskGuard
	journal *Journal
	logger  venue.Logger

	// halted - После исчерпания попыток хеджа новые котировки не выставляются,
	// пока оператор не сбросит флаг через ClearFault
	halted atomic.Bool
}

// NewExecutor - Создание исполнителя
func NewExecutor(conf venue.Config, priceStep float64, primary venue.PrimaryConnector, hedger *Hedger, risk *RiskGuard, journal *Journal, l venue.Logger) *Executor {
	return &Executor{
		instrument:       conf.Instrument,
		tradeSize:        conf.TradeSize,
		repriceThreshold: conf.RepriceThreshold,
		priceStep:        priceStep,
		resting:          newRestingOrders(),
		primary:          primary,
		hedger:           hedger,
		risk:             risk,
		journal:          journal,
		logger:           l,
	}
}

// Halted - Остановлено ли выставление новых котировок
func (e *Executor) Halted() bool {
	return e.halted.Load()
}

// ClearFault - Сброс остановки оператором, котирование возобновляется
func (e *Executor) ClearFault() {
	if e.halted.CompareAndSwap(true, false) {
		e.logger.Infof("trading fault cleared by operator")
	}
}

// UpdateQuotes - Решение по котировкам для обеих сторон. Сначала снимаются
// устаревшие заявки, затем выставляются отсутствующие - порог RepriceThreshold
// защищает от лишних перестановок
func (e *Executor) UpdateQuotes(ctx context.Context, q Quote) error {
	if e.Halted() {
		return nil
	}
	if err := e.refreshSide(ctx, venue.BUY, q.Bid); err != nil {
		return err
	}
	return e.refreshSide(ctx, venue.SELL, q.Ask)
}

// refreshSide - Решение по одной стороне: снять при отклонении цены не меньше
// порога, выставить если заявки нет
func (e *Executor) refreshSide(ctx context.Context, side venue.Side, price float64) error {
	if ord, ok := e.resting.Get(side); ok {
		if math.Abs(price-ord.Price)/ord.Price < e.repriceThreshold {
			return nil
		}
		e.logger.Infof("reprice %v: %v -> %v", side, ord.Price, price)
		if err := e.cancelResting(ctx, ord); err != nil {
			var hedgeErr *venue.HedgeError
			if errors.As(err, &hedgeErr) {
				return err
			}
			// заявка остается в состоянии, попытка повторится в следующем цикле
			e.logger.Errorf("cancel %v order %v: %v", side, ord.ID, err.Error())
			return nil
		}
		if _, stillThere := e.resting.Get(side); stillThere {
			e.resting.Clear(side)
		} else {
			// отмена обернулась исполнением, слот уже освобожден
			return nil
		}
	}
	return e.place(ctx, side, price)
}

// place - Выставление лимитной заявки с проверкой риск-лимитов
func (e *Executor) place(ctx context.Context, side venue.Side, price float64) error {
	if err := e.risk.AllowPlacement(side, e.tradeSize); err != nil {
		e.logger.Infof("placement blocked: %v", err.Error())
		return nil
	}
	rounded := venue.FloatToPrice(price, e.priceStep)
	rec, err := e.primary.PlaceOrder(ctx, e.instrument, side, venue.LIMIT, e.tradeSize, rounded)
	if err != nil {
		// отклонение биржи восстановимо, повтор в следующем цикле
		e.logger.Errorf("place %v order: %v", side, err.Error())
		return nil
	}
	e.resting.Set(side, rec)
	e.journal.Placement(rec)
	e.logger.Infof("placed %v limit order %v: %v x %v", side, rec.ID, rounded, e.tradeSize)
	return nil
}

// cancelResting - Снятие заявки. Если биржа отвечает, что заявка уже
// исполнена, это событие исполнения и оно уходит в обработку филлов
func (e *Executor) cancelResting(ctx context.Context, ord venue.OrderRecord) error {
	_, err := e.primary.CancelOrder(ctx, ord.ID)
	if errors.Is(err, venue.ErrOrderFilled) {
		rec, serr := e.primary.OrderStatus(ctx, ord.ID)
		if serr != nil {
			// статус недоступен - считаем заявку исполненной полностью
			rec = ord
			rec.Status = venue.FILLED
			rec.FilledSize = ord.RequestedSize
		}
		return e.applyStatus(ctx, ord, rec)
	}
	if err != nil {
		return err
	}
	e.journal.Cancel(ord, "reprice")
	e.logger.Infof("canceled %v order %v", ord.Side, ord.ID)
	return nil
}

// CheckFills - Опрос статусов стоящих заявок, один раз за цикл. Обнаруженные
// исполнения хеджируются на инкрементальный объем
func (e *Executor) CheckFills(ctx context.Context) error {
	for _, ord := range e.resting.All() {
		rec, err := e.primary.OrderStatus(ctx, ord.ID)
		if err != nil {
			e.logger.Errorf("order %v status: %v", ord.ID, err.Error())
			continue
		}
		if err := e.applyStatus(ctx, ord, rec); err != nil {
			return err
		}
	}
	return nil
}

// applyStatus - Применение ответа биржи к локальному состоянию. Слот заявки
// мутируется до запуска хеджа, поэтому повторный опрос того же исполнения
// не породит второй хедж
func (e *Executor) applyStatus(ctx context.Context, prev, rec venue.OrderRecord) error {
	// статусный ответ биржи может не содержать инструмент и цену
	if rec.Instrument == "" {
		rec.Instrument = prev.Instrument
	}
	if rec.Price == 0 {
		rec.Price = prev.Price
	}
	switch {
	case rec.Status == venue.FILLED:
		filled := rec.FilledSize
		if filled <= prev.FilledSize {
			// биржа не вернула объем - заявка исполнена целиком
			filled = prev.RequestedSize
		}
		incremental := filled - prev.FilledSize
		e.resting.Clear(prev.Side)
		if incremental <= 0 {
			return nil
		}
		return e.dispatchHedge(ctx, prev, rec, incremental)
	case rec.Status == venue.PARTIALLY_FILLED && rec.FilledSize > prev.FilledSize:
		incremental := rec.FilledSize - prev.FilledSize
		// запоминаем наблюдаемый объем до хеджа
		e.resting.Set(prev.Side, rec)
		return e.dispatchHedge(ctx, prev, rec, incremental)
	case rec.Status == venue.CANCELED:
		e.resting.Clear(prev.Side)
		e.journal.Cancel(rec, "confirmed by venue")
		return nil
	default:
		return nil
	}
}

// dispatchHedge - Ровно один хедж на инкрементальный объем исполнения.
// Неуспех после всех попыток останавливает котирование
func (e *Executor) dispatchHedge(ctx context.Context, prev, rec venue.OrderRecord, size float64) error {
	fillPrice := rec.Price
	e.journal.Fill(rec, size)
	e.risk.RecordFill(prev.Side, size)
	e.logger.Infof("%v order %v filled for %v at %v, hedging", prev.Side, prev.ID, size, fillPrice)

	hedgeSide := prev.Side.Opposite()
	hedgeRec, err := e.hedger.Hedge(ctx, hedgeSide, size)
	if err != nil {
		e.halted.Store(true)
		e.journal.Failure(e.instrument, err.Error())
		e.logger.Errorf("quoting halted, unhedged exposure %v %v: %v", prev.Side, size, err.Error())
		return err
	}
	e.risk.RecordHedge(hedgeSide, size, fillPrice, hedgeRec.Price)
	e.journal.Hedge(hedgeRec)
	e.logger.Infof("hedged %v %v at %v, position = %v, pnl = %.9f",
		hedgeSide, size, hedgeRec.Price, e.risk.Position(), e.risk.RealizedPnL())
	return nil
}

// CancelAll - Снятие всех стоящих заявок, по одной попытке на заявку.
// Отмена, обернувшаяся исполнением, все равно хеджируется. Если отмена
// не удалась, заявка может стоять на бирже и остается под опросом исполнений
func (e *Executor) CancelAll(ctx context.Context) {
	for _, ord := range e.resting.All() {
		if err := e.cancelResting(ctx, ord); err != nil {
			e.logger.Errorf("cancel %v order %v: %v", ord.Side, ord.ID, err.Error())
			var hedgeErr *venue.HedgeError
			if !errors.As(err, &hedgeErr) {
				continue
			}
		}
		e.resting.Clear(ord.Side)
	}
}
