package venue

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

// HLBookStream - Стрим стаканов l2Book биржи хеджирования. Каждое сообщение
// содержит полный снимок, инкрементальная сборка стакана не требуется
type HLBookStream struct {
	conn   *websocket.Conn
	logger Logger

	instrument string
	books      chan OrderBook
	cancel     context.CancelFunc
	ctx        context.Context
}

// NewHLBookStream - Подписка на стаканы по инструменту
func NewHLBookStream(ctx context.Context, conf HLConfig, instrument string, l Logger) (*HLBookStream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, conf.WSEndpoint, nil)
	if err != nil {
		return nil, err
	}
	sub := map[string]any{
		"method": "subscribe",
		"subscription": map[string]any{
			"type": "l2Book",
			"coin": instrument,
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		closeErr := conn.Close()
		if closeErr != nil {
			l.Errorf(closeErr.Error())
		}
		return nil, err
	}
	streamCtx, cancel := context.WithCancel(ctx)
	return &HLBookStream{
		conn:       conn,
		logger:     l,
		instrument: instrument,
		books:      make(chan OrderBook, 1),
		ctx:        streamCtx,
		cancel:     cancel,
	}, nil
}

// Books - Канал снимков стакана, только для чтения
func (s *HLBookStream) Books() <-chan OrderBook {
	return s.books
}

type hlStreamMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Listen - Чтение сообщений стрима, блокируется до Stop или ошибки соединения
func (s *HLBookStream) Listen() error {
	defer s.shutdown()
	for {
		select {
		case <-s.ctx.Done():
			return nil
		default:
			_, raw, err := s.conn.ReadMessage()
			if err != nil {
				if s.ctx.Err() != nil {
					return nil
				}
				return err
			}
			var msg hlStreamMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				s.logger.Errorf("book stream decode: %v", err.Error())
				continue
			}
			if msg.Channel != "l2Book" {
				continue
			}
			var resp hlBookResponse
			if err := json.Unmarshal(msg.Data, &resp); err != nil {
				s.logger.Errorf("book stream decode: %v", err.Error())
				continue
			}
			book, err := transformHLBook(s.instrument, resp)
			if err != nil {
				s.logger.Errorf(err.Error())
				continue
			}
			select {
			case <-s.ctx.Done():
				return nil
			case s.books <- book:
			}
		}
	}
}

// Stop - Завершение работы стрима, канал Books закрывается
func (s *HLBookStream) Stop() {
	s.cancel()
	if err := s.conn.Close(); err != nil {
		s.logger.Errorf(err.Error())
	}
}

func (s *HLBookStream) shutdown() {
	s.logger.Infof("stop %v book stream", s.instrument)
	close(s.books)
}
