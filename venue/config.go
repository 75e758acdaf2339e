package venue

import (
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// DYDXConfig - Доступ к основной бирже
type DYDXConfig struct {
	Endpoint   string `yaml:"Endpoint"`
	ApiKey     string `yaml:"ApiKey"`
	ApiSecret  string `yaml:"ApiSecret"`
	Passphrase string `yaml:"Passphrase"`
}

// HLConfig - Доступ к бирже хеджирования
type HLConfig struct {
	InfoEndpoint  string `yaml:"InfoEndpoint"`
	TradeEndpoint string `yaml:"TradeEndpoint"`
	WSEndpoint    string `yaml:"WSEndpoint"`
	ApiKey        string `yaml:"ApiKey"`
	ApiSecret     string `yaml:"ApiSecret"`
}

// Config - Конфигурация бота
type Config struct {
	// Instrument - Торгуемая пара, без суффикса котируемой валюты
	Instrument string `yaml:"Instrument"`
	// TradeSize - Размер одной лимитной заявки в единицах инструмента
	TradeSize float64 `yaml:"TradeSize"`
	// PricingAlgorithm - Имя алгоритма котирования: best_bid_ask или mid_price_offset
	PricingAlgorithm string `yaml:"PricingAlgorithm"`
	// PricingOffsetBps - Отступ от mid в базисных пунктах, для mid_price_offset
	PricingOffsetBps float64 `yaml:"PricingOffsetBps"`
	// RepriceThreshold - Минимальное относительное изменение цены для перестановки заявки
	RepriceThreshold float64 `yaml:"RepriceThreshold"`
	// LoopIntervalSec - Пауза между циклами торгового лупа
	LoopIntervalSec float64 `yaml:"LoopIntervalSec"`
	// ErrorRetryDelaySec - Пауза после ошибки цикла
	ErrorRetryDelaySec float64 `yaml:"ErrorRetryDelaySec"`
	// HedgeMaxAttempts - Максимальное число попыток хеджирующего поручения
	HedgeMaxAttempts int `yaml:"HedgeMaxAttempts"`
	// HedgeBackoffSec - Начальная пауза между попытками хеджа, растет линейно
	HedgeBackoffSec float64 `yaml:"HedgeBackoffSec"`
	// MaxPositionSize - Максимальная чистая позиция в единицах инструмента
	MaxPositionSize float64 `yaml:"MaxPositionSize"`
	// MaxDailyTrades - Максимальное число сделок за день
	MaxDailyTrades int `yaml:"MaxDailyTrades"`
	// StopLossPct - Доля реализованного убытка от оборота, после которой торги блокируются
	StopLossPct float64 `yaml:"StopLossPct"`
	// CancelOnHalt - Если true, при остановке котирования снимаются стоящие заявки
	CancelOnHalt bool `yaml:"CancelOnHalt"`
	// JournalDBPath - Путь к бд sqlite с журналом событий
	JournalDBPath string `yaml:"JournalDBPath"`

	DYDX        DYDXConfig `yaml:"DYDX"`
	Hyperliquid HLConfig   `yaml:"Hyperliquid"`
}

// LoadConfig - Чтение конфигурации из yaml файла
func LoadConfig(filename string) (Config, error) {
	var c Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(input, &c)
	if err != nil {
		return Config{}, err
	}
	setDefaultConfig(&c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaultConfig(c *Config) {
	if c.PricingAlgorithm == "" {
		c.PricingAlgorithm = "best_bid_ask"
	}
	if c.RepriceThreshold == 0 {
		c.RepriceThreshold = 0.001
	}
	if c.LoopIntervalSec == 0 {
		c.LoopIntervalSec = 1.0
	}
	if c.ErrorRetryDelaySec == 0 {
		c.ErrorRetryDelaySec = 5.0
	}
	if c.HedgeMaxAttempts == 0 {
		c.HedgeMaxAttempts = 3
	}
	if c.HedgeBackoffSec == 0 {
		c.HedgeBackoffSec = 0.5
	}
	if c.JournalDBPath == "" {
		c.JournalDBPath = "arbbot_journal.db"
	}
	if c.DYDX.Endpoint == "" {
		c.DYDX.Endpoint = "https://indexer.dydx.trade/v4"
	}
	if c.Hyperliquid.InfoEndpoint == "" {
		c.Hyperliquid.InfoEndpoint = "https://api.hyperliquid.xyz/info"
	}
	if c.Hyperliquid.TradeEndpoint == "" {
		c.Hyperliquid.TradeEndpoint = "https://api.hyperliquid.xyz/exchange"
	}
	if c.Hyperliquid.WSEndpoint == "" {
		c.Hyperliquid.WSEndpoint = "wss://api.hyperliquid.xyz/ws"
	}
}

// Validate - Проверка обязательных полей, ошибки конфигурации фатальны на старте
func (c Config) Validate() error {
	if c.Instrument == "" {
		return &ConfigError{Field: "Instrument", Reason: "required"}
	}
	if c.TradeSize <= 0 {
		return &ConfigError{Field: "TradeSize", Reason: "must be positive"}
	}
	if c.DYDX.ApiKey == "" || c.DYDX.ApiSecret == "" {
		return &ConfigError{Field: "DYDX", Reason: "missing credentials"}
	}
	if c.Hyperliquid.ApiKey == "" || c.Hyperliquid.ApiSecret == "" {
		return &ConfigError{Field: "Hyperliquid", Reason: "missing credentials"}
	}
	return nil
}

// LoopInterval - Пауза между циклами
func (c Config) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalSec * float64(time.Second))
}

// ErrorRetryDelay - Пауза после ошибки цикла
func (c Config) ErrorRetryDelay() time.Duration {
	return time.Duration(c.ErrorRetryDelaySec * float64(time.Second))
}

// HedgeBackoff - Начальная пауза между попытками хеджа
func (c Config) HedgeBackoff() time.Duration {
	return time.Duration(c.HedgeBackoffSec * float64(time.Second))
}
