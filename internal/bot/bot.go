package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spreadcapture/arbbot/venue"
)

// Bot - Торговый луп: снимок стакана - котировка - решение по заявкам -
// проверка исполнений - хедж, строго в этом порядке. Циклы никогда не
// перекрываются, следующий начинается только после завершения предыдущего
type Bot struct {
	Config venue.Config

	ctx       context.Context
	cancelBot context.CancelFunc
	wg        *sync.WaitGroup

	primary       venue.PrimaryConnector
	pricing       PricingFunc
	executor      *Executor
	journal       *Journal
	secondaryBook *SecondaryBook
	// bookFeed - Снимки стакана вторичной биржи из стрима, может быть nil
	bookFeed <-chan venue.OrderBook
	logger   venue.Logger

	lastQuote Quote
	hasQuote  bool
	// cancelOnHaltDone - Политика снятия заявок после остановки котирования
	// применяется один раз на остановку
	cancelOnHaltDone bool
}

// NewBot - Создание бота. Неизвестный алгоритм котирования - фатальная ошибка
// конфигурации, бот не стартует
func NewBot(ctx context.Context, conf venue.Config, priceStep float64, primary venue.PrimaryConnector, secondary venue.SecondaryConnector, bookFeed <-chan venue.OrderBook, l venue.Logger) (*Bot, error) {
	pricing, err := NewPricing(conf.PricingAlgorithm, conf.PricingOffsetBps)
	if err != nil {
		return nil, err
	}
	journal, err := NewJournal(conf.JournalDBPath, l)
	if err != nil {
		return nil, err
	}
	botCtx, cancel := context.WithCancel(ctx)
	book := NewSecondaryBook()
	risk := NewRiskGuard(conf.MaxPositionSize, conf.MaxDailyTrades, conf.StopLossPct)
	hedger := NewHedger(conf.Instrument, secondary, conf.HedgeMaxAttempts, conf.HedgeBackoff(), book, l)
	return &Bot{
		Config:        conf,
		ctx:           botCtx,
		cancelBot:     cancel,
		wg:            &sync.WaitGroup{},
		primary:       primary,
		pricing:       pricing,
		executor:      NewExecutor(conf, priceStep, primary, hedger, risk, journal, l),
		journal:       journal,
		secondaryBook: book,
		bookFeed:      bookFeed,
		logger:        l,
	}, nil
}

// Run - Запуск торгового лупа, блокируется до Stop или отмены контекста.
// Ошибка цикла логируется и увеличивает паузу до следующего цикла
func (b *Bot) Run() error {
	b.logger.Infof("start trading %v, algorithm %v, trade size %v",
		b.Config.Instrument, b.Config.PricingAlgorithm, b.Config.TradeSize)

	// чтение стрима вторичного стакана в кэш, только для отчетности хеджера
	if b.bookFeed != nil {
		b.wg.Add(1)
		go func(ctx context.Context) {
			defer b.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ob, ok := <-b.bookFeed:
					if !ok {
						return
					}
					b.secondaryBook.Update(ob)
				}
			}
		}(b.ctx)
	}

	for {
		select {
		case <-b.ctx.Done():
			b.shutdown()
			return nil
		default:
		}
		delay := b.Config.LoopInterval()
		if err := b.cycle(b.ctx); err != nil {
			b.logger.Errorf("trading cycle: %v", err.Error())
			delay = b.Config.ErrorRetryDelay()
		}
		if !wait(b.ctx, delay) {
			b.shutdown()
			return nil
		}
	}
}

// cycle - Один торговый цикл, строго последовательный
func (b *Bot) cycle(ctx context.Context) error {
	ob, err := b.primary.OrderBook(ctx, b.Config.Instrument)
	if err != nil {
		return err
	}
	q, err := b.pricing(ob)
	if err != nil {
		return err
	}
	if !b.hasQuote || q != b.lastQuote {
		b.journal.Quote(b.Config.Instrument, q)
		b.lastQuote = q
		b.hasQuote = true
	}

	if err := b.executor.UpdateQuotes(ctx, q); err != nil {
		b.haltPolicy(ctx, err)
		return nil
	}
	if err := b.executor.CheckFills(ctx); err != nil {
		b.haltPolicy(ctx, err)
		return nil
	}
	return nil
}

// haltPolicy - Реакция на эскалированную ошибку хеджа: котирование уже
// остановлено исполнителем, по конфигу снимаются стоящие заявки.
// Исполнения продолжают опрашиваться, восстановление - через ClearFault
func (b *Bot) haltPolicy(ctx context.Context, err error) {
	var hedgeErr *venue.HedgeError
	if !errors.As(err, &hedgeErr) {
		b.logger.Errorf("trading cycle: %v", err.Error())
		return
	}
	if b.Config.CancelOnHalt && !b.cancelOnHaltDone {
		b.logger.Infof("canceling resting orders on halt")
		b.executor.CancelAll(ctx)
		b.cancelOnHaltDone = true
	}
}

// ClearFault - Сброс остановки котирования оператором
func (b *Bot) ClearFault() {
	b.executor.ClearFault()
	b.cancelOnHaltDone = false
}

// Stop - Остановка бота, выполняется на границе цикла
func (b *Bot) Stop() {
	b.cancelBot()
}

// shutdown - Снятие стоящих заявок перед выходом, best effort
func (b *Bot) shutdown() {
	b.logger.Infof("stop trading loop...")
	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.executor.CancelAll(cancelCtx)
	if err := b.journal.Close(); err != nil {
		b.logger.Errorf("journal close: %v", err.Error())
	}
	b.wg.Wait()
	b.logger.Infof("trading loop stopped")
}
