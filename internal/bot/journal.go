package bot

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spreadcapture/arbbot/venue"
)

// Виды событий журнала
const (
	EVENT_QUOTE     = "quote"
	EVENT_PLACEMENT = "placement"
	EVENT_CANCEL    = "cancel"
	EVENT_FILL      = "fill"
	EVENT_HEDGE     = "hedge"
	EVENT_FAILURE   = "failure"
)

var journalSchema = `
create table if not exists events (
    id integer primary key autoincrement,
    time integer,
    kind text,
    instrument text,
    side text,
    price real,
    size real,
    order_id text,
    venue text,
    detail text
);
`

// Journal - Журнал событий бота в sqlite, только добавление.
// Строки никогда не обновляются и не удаляются
type Journal struct {
	db     *sqlx.DB
	logger venue.Logger
}

// NewJournal - Открытие журнала событий
func NewJournal(dbpath string, l venue.Logger) (*Journal, error) {
	db, err := sqlx.Open("sqlite3", dbpath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(journalSchema); err != nil {
		return nil, err
	}
	l.Infof("journal database initialized")
	return &Journal{db: db, logger: l}, nil
}

// Close - Закрытие журнала
func (j *Journal) Close() error {
	return j.db.Close()
}

// EventRow - Строка журнала
type EventRow struct {
	Id         int     `db:"id"`
	Time       int64   `db:"time"`
	Kind       string  `db:"kind"`
	Instrument string  `db:"instrument"`
	Side       string  `db:"side"`
	Price      float64 `db:"price"`
	Size       float64 `db:"size"`
	OrderId    string  `db:"order_id"`
	Venue      string  `db:"venue"`
	Detail     string  `db:"detail"`
}

func (j *Journal) append(row EventRow) {
	row.Time = time.Now().Unix()
	_, err := j.db.Exec(`insert into events (time, kind, instrument, side, price, size, order_id, venue, detail)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Time, row.Kind, row.Instrument, row.Side, row.Price, row.Size, row.OrderId, row.Venue, row.Detail)
	if err != nil {
		// журнал не должен останавливать торговлю
		j.logger.Errorf("journal append: %v", err.Error())
	}
}

// Quote - Изменение котировок
func (j *Journal) Quote(instrument string, q Quote) {
	j.append(EventRow{Kind: EVENT_QUOTE, Instrument: instrument, Side: string(venue.BUY), Price: q.Bid, Detail: "bid"})
	j.append(EventRow{Kind: EVENT_QUOTE, Instrument: instrument, Side: string(venue.SELL), Price: q.Ask, Detail: "ask"})
}

// Placement - Выставление поручения
func (j *Journal) Placement(rec venue.OrderRecord) {
	j.append(EventRow{
		Kind:       EVENT_PLACEMENT,
		Instrument: rec.Instrument,
		Side:       string(rec.Side),
		Price:      rec.Price,
		Size:       rec.RequestedSize,
		OrderId:    rec.ID,
		Venue:      rec.Venue,
	})
}

// Cancel - Отмена поручения
func (j *Journal) Cancel(rec venue.OrderRecord, reason string) {
	j.append(EventRow{
		Kind:       EVENT_CANCEL,
		Instrument: rec.Instrument,
		Side:       string(rec.Side),
		Price:      rec.Price,
		OrderId:    rec.ID,
		Venue:      rec.Venue,
		Detail:     reason,
	})
}

// Fill - Исполнение на основной бирже, size - инкрементальный объем
func (j *Journal) Fill(rec venue.OrderRecord, size float64) {
	j.append(EventRow{
		Kind:       EVENT_FILL,
		Instrument: rec.Instrument,
		Side:       string(rec.Side),
		Price:      rec.Price,
		Size:       size,
		OrderId:    rec.ID,
		Venue:      rec.Venue,
	})
}

// Hedge - Хеджирующее поручение на вторичной бирже
func (j *Journal) Hedge(rec venue.OrderRecord) {
	j.append(EventRow{
		Kind:       EVENT_HEDGE,
		Instrument: rec.Instrument,
		Side:       string(rec.Side),
		Price:      rec.Price,
		Size:       rec.FilledSize,
		OrderId:    rec.ID,
		Venue:      rec.Venue,
	})
}

// Failure - Эскалированная ошибка
func (j *Journal) Failure(instrument, detail string) {
	j.append(EventRow{Kind: EVENT_FAILURE, Instrument: instrument, Detail: detail})
}

// Events - Все события по возрастанию id, используется в тестах и отчетах
func (j *Journal) Events() ([]EventRow, error) {
	rows := make([]EventRow, 0)
	err := j.db.Select(&rows, `select * from events order by id`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
