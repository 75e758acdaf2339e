package venue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
Instrument: ETH
TradeSize: 0.05
DYDX:
  ApiKey: key
  ApiSecret: secret
  Passphrase: phrase
Hyperliquid:
  ApiKey: key
  ApiSecret: secret
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ETH", conf.Instrument)
	assert.Equal(t, "best_bid_ask", conf.PricingAlgorithm)
	assert.Equal(t, 0.001, conf.RepriceThreshold)
	assert.Equal(t, time.Second, conf.LoopInterval())
	assert.Equal(t, 5*time.Second, conf.ErrorRetryDelay())
	assert.Equal(t, 3, conf.HedgeMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, conf.HedgeBackoff())
	assert.Equal(t, "https://indexer.dydx.trade/v4", conf.DYDX.Endpoint)
	assert.Equal(t, "wss://api.hyperliquid.xyz/ws", conf.Hyperliquid.WSEndpoint)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
Instrument: BTC
TradeSize: 0.01
PricingAlgorithm: mid_price_offset
PricingOffsetBps: 2.5
LoopIntervalSec: 0.5
CancelOnHalt: true
DYDX:
  Endpoint: http://localhost:8080
  ApiKey: key
  ApiSecret: secret
  Passphrase: phrase
Hyperliquid:
  ApiKey: key
  ApiSecret: secret
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mid_price_offset", conf.PricingAlgorithm)
	assert.Equal(t, 2.5, conf.PricingOffsetBps)
	assert.Equal(t, 500*time.Millisecond, conf.LoopInterval())
	assert.True(t, conf.CancelOnHalt)
	assert.Equal(t, "http://localhost:8080", conf.DYDX.Endpoint)
}

func TestLoadConfigValidation(t *testing.T) {
	for name, body := range map[string]string{
		"no instrument": `
TradeSize: 0.05
DYDX: {ApiKey: k, ApiSecret: s}
Hyperliquid: {ApiKey: k, ApiSecret: s}
`,
		"no trade size": `
Instrument: ETH
DYDX: {ApiKey: k, ApiSecret: s}
Hyperliquid: {ApiKey: k, ApiSecret: s}
`,
		"no credentials": `
Instrument: ETH
TradeSize: 0.05
`,
	} {
		_, err := LoadConfig(writeConfig(t, body))
		var confErr *ConfigError
		assert.ErrorAs(t, err, &confErr, name)
	}
}
