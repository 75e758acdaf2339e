package bot

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spreadcapture/arbbot/venue"
)

// RiskGuard - Риск-лимиты, проверяются синхронно перед каждым выставлением
// поручения. Нулевое значение лимита означает, что лимит выключен
type RiskGuard struct {
	mx sync.Mutex

	maxPosition    float64
	maxDailyTrades int
	stopLossPct    float64

	// position - Чистая позиция по инструменту: исполнения на основной бирже
	// и хеджи на вторичной в сумме держат ее около нуля
	position float64
	// trades - Число сделок за текущий день, день считается по UTC
	trades int
	day    time.Time
	// realizedPnL - Реализованный результат закрытых хеджем объемов
	realizedPnL float64
	// hedgedNotional - Суммарный оборот хеджей, база для стоп-лосса
	hedgedNotional float64
}

// NewRiskGuard - Создание риск-контроля по лимитам из конфига
func NewRiskGuard(maxPosition float64, maxDailyTrades int, stopLossPct float64) *RiskGuard {
	return &RiskGuard{
		maxPosition:    maxPosition,
		maxDailyTrades: maxDailyTrades,
		stopLossPct:    stopLossPct,
		day:            time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// AllowPlacement - Проверка лимитов перед выставлением поручения размера size.
// Возвращает RiskError с нарушенным лимитом
func (g *RiskGuard) AllowPlacement(side venue.Side, size float64) error {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.rollDay(time.Now().UTC())

	projected := g.position + signedSize(side, size)
	if g.maxPosition > 0 && math.Abs(projected) > g.maxPosition {
		return &venue.RiskError{
			Limit:  "max_position",
			Reason: fmt.Sprintf("projected position %v exceeds %v", projected, g.maxPosition),
		}
	}
	if g.maxDailyTrades > 0 && g.trades >= g.maxDailyTrades {
		return &venue.RiskError{
			Limit:  "max_daily_trades",
			Reason: fmt.Sprintf("%v trades today", g.trades),
		}
	}
	if g.stopLossPct > 0 && g.hedgedNotional > 0 && g.realizedPnL < 0 &&
		-g.realizedPnL/g.hedgedNotional >= g.stopLossPct {
		return &venue.RiskError{
			Limit:  "stop_loss",
			Reason: fmt.Sprintf("realized pnl %v on notional %v", g.realizedPnL, g.hedgedNotional),
		}
	}
	return nil
}

// RecordFill - Учет исполнения на основной бирже
func (g *RiskGuard) RecordFill(side venue.Side, size float64) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.rollDay(time.Now().UTC())
	g.position += signedSize(side, size)
	g.trades++
}

// RecordHedge - Учет хеджа: позиция закрывается, фиксируется реализованный результат.
// fillPrice - цена исполнения на основной бирже, hedgePrice - на вторичной
func (g *RiskGuard) RecordHedge(hedgeSide venue.Side, size, fillPrice, hedgePrice float64) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.position += signedSize(hedgeSide, size)
	g.trades++
	// купили на основной - продали хеджем, и наоборот
	if hedgeSide == venue.SELL {
		g.realizedPnL += (hedgePrice - fillPrice) * size
	} else {
		g.realizedPnL += (fillPrice - hedgePrice) * size
	}
	g.hedgedNotional += hedgePrice * size
}

// Position - Текущая чистая позиция
func (g *RiskGuard) Position() float64 {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.position
}

// RealizedPnL - Реализованный результат с начала работы
func (g *RiskGuard) RealizedPnL() float64 {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.realizedPnL
}

// rollDay - Сброс дневного счетчика сделок при смене дня UTC
func (g *RiskGuard) rollDay(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	if day.After(g.day) {
		g.day = day
		g.trades = 0
	}
}

func signedSize(side venue.Side, size float64) float64 {
	if side == venue.BUY {
		return size
	}
	return -size
}
