package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spreadcapture/arbbot/venue"
)

// WORKERS - Число параллельных запросов стаканов
const WORKERS = 8

// marketSpread - Спреды одного инструмента на обеих биржах
type marketSpread struct {
	coin       string
	dydxSpread float64
	hlSpread   float64
}

// differential - Разница спредов, положительная когда котировать выгоднее на основной бирже
func (m marketSpread) differential() float64 {
	return m.dydxSpread - m.hlSpread
}

// relativeSpread - Относительный спред стакана (ask - bid) / mid
func relativeSpread(ob venue.OrderBook) (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk || bid <= 0 {
		return 0, false
	}
	mid := (bid + ask) / 2
	return (ask - bid) / mid, true
}

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	zapConfig.EncoderConfig.TimeKey = "time"
	l, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("logger creating error %v", err)
	}
	logger := l.Sugar()
	defer func() {
		err := logger.Sync()
		if err != nil {
			log.Printf("logger sync %v", err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// публичные эндпоинты, ключи для чтения стаканов не нужны
	dydxConf := venue.DYDXConfig{Endpoint: "https://indexer.dydx.trade/v4"}
	hlConf := venue.HLConfig{
		InfoEndpoint: "https://api.hyperliquid.xyz/info",
	}
	dydxClient := venue.NewDYDXClient(dydxConf, logger)
	hlClient := venue.NewHyperliquidClient(hlConf, logger)

	markets, err := dydxClient.Markets(ctx)
	if err != nil {
		logger.Fatalf("markets loading error %v", err.Error())
	}
	universe, err := hlClient.Universe(ctx)
	if err != nil {
		logger.Fatalf("universe loading error %v", err.Error())
	}

	// пересечение инструментов двух бирж, тикеры dydx без суффикса -USD
	hlCoins := make(map[string]string, len(universe))
	for _, coin := range universe {
		hlCoins[strings.ToUpper(coin)] = coin
	}
	coins := make([]string, 0, len(markets))
	for ticker := range markets {
		base := strings.TrimSuffix(ticker, "-USD")
		if base == ticker {
			continue
		}
		if _, ok := hlCoins[strings.ToUpper(base)]; ok {
			coins = append(coins, base)
		}
	}
	sort.Strings(coins)
	logger.Infof("scanning %v markets listed on both venues", len(coins))

	bar := progressbar.Default(int64(len(coins)), "fetching books")
	var mx sync.Mutex
	spreads := make([]marketSpread, 0, len(coins))

	p := pool.New().WithMaxGoroutines(WORKERS)
	for _, coin := range coins {
		coin := coin
		p.Go(func() {
			defer func() {
				err := bar.Add(1)
				if err != nil {
					logger.Errorf(err.Error())
				}
			}()
			dydxBook, err := dydxClient.OrderBook(ctx, coin)
			if err != nil {
				logger.Errorf("%v dydx book: %v", coin, err.Error())
				return
			}
			hlBook, err := hlClient.OrderBook(ctx, hlCoins[strings.ToUpper(coin)])
			if err != nil {
				logger.Errorf("%v hyperliquid book: %v", coin, err.Error())
				return
			}
			dydxSpread, okD := relativeSpread(dydxBook)
			hlSpread, okH := relativeSpread(hlBook)
			if !okD || !okH {
				return
			}
			mx.Lock()
			spreads = append(spreads, marketSpread{coin: coin, dydxSpread: dydxSpread, hlSpread: hlSpread})
			mx.Unlock()
		})
	}
	p.Wait()

	if len(spreads) == 0 {
		logger.Fatalf("no markets with live books on both venues")
	}
	sort.Slice(spreads, func(i, j int) bool {
		return spreads[i].differential() > spreads[j].differential()
	})

	fmt.Fprintf(os.Stdout, "\n%-10v %14v %14v %14v\n", "MARKET", "DYDX BPS", "HL BPS", "DIFF BPS")
	for _, s := range spreads {
		fmt.Fprintf(os.Stdout, "%-10v %14.2f %14.2f %14.2f\n",
			s.coin, s.dydxSpread*10000, s.hlSpread*10000, s.differential()*10000)
	}

	diffs := make([]float64, 0, len(spreads))
	for _, s := range spreads {
		diffs = append(diffs, s.differential()*10000)
	}
	median, err := stats.Median(diffs)
	if err != nil {
		logger.Fatalf("stats calculation error %v", err.Error())
	}
	p90, err := stats.Percentile(diffs, 90)
	if err != nil {
		logger.Fatalf("stats calculation error %v", err.Error())
	}
	logger.Infof("spread differential: median %.2f bps, p90 %.2f bps over %v markets",
		median, p90, len(spreads))
}
