package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spreadcapture/arbbot/internal/bot"
	"github.com/spreadcapture/arbbot/venue"
)

func main() {
	// загружаем конфигурацию бота
	botConfig, err := venue.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("config loading error %v", err.Error())
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// сигналы для завершения работы и сброса остановки котирования
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

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

	dydxClient := venue.NewDYDXClient(botConfig.DYDX, logger)
	hlClient := venue.NewHyperliquidClient(botConfig.Hyperliquid, logger)

	// шаг цены инструмента нужен для округления котировок
	markets, err := dydxClient.Markets(ctx)
	if err != nil {
		logger.Fatalf("markets loading error %v", err.Error())
	}
	market, ok := markets[botConfig.Instrument+"-USD"]
	if !ok {
		logger.Fatalf("market %v-USD not found", botConfig.Instrument)
	}
	priceStep := market.PriceStep()
	if priceStep <= 0 {
		logger.Fatalf("market %v-USD has no price step", botConfig.Instrument)
	}

	// стрим стаканов биржи хеджирования, бот переживает его падение
	bookStream, err := venue.NewHLBookStream(ctx, botConfig.Hyperliquid, botConfig.Instrument, logger)
	if err != nil {
		logger.Fatalf("book stream creating error %v", err.Error())
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := bookStream.Listen()
		if err != nil {
			logger.Errorf("book stream listen error %v", err.Error())
		}
	}()

	tradingBot, err := bot.NewBot(ctx, botConfig, priceStep, dydxClient, hlClient, bookStream.Books(), logger)
	if err != nil {
		logger.Fatalf("bot creating error %v", err.Error())
	}

	wg.Add(1)
	go func(ctx context.Context) {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				if sig == syscall.SIGHUP {
					logger.Infof("clear fault requested")
					tradingBot.ClearFault()
					continue
				}
				logger.Infof("shutdown, cancel resting orders...")
				tradingBot.Stop()
				bookStream.Stop()
				return
			}
		}
	}(ctx)

	err = tradingBot.Run()
	if err != nil {
		logger.Errorf(err.Error())
	}
	cancel()
	wg.Wait()
}
