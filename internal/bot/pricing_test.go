package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spreadcapture/arbbot/venue"
)

func testBook() venue.OrderBook {
	return venue.OrderBook{
		Instrument: "ETH",
		Bids: []venue.BookLevel{
			{Price: 100, Size: 1},
			{Price: 99.9, Size: 2},
		},
		Asks: []venue.BookLevel{
			{Price: 100.1, Size: 1},
			{Price: 100.2, Size: 2},
		},
	}
}

func TestBestBidAskPricing(t *testing.T) {
	pricing, err := NewPricing(BEST_BID_ASK, 0)
	require.NoError(t, err)

	q, err := pricing(testBook())
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Bid)
	assert.Equal(t, 100.1, q.Ask)
}

func TestMidPriceOffsetPricing(t *testing.T) {
	pricing, err := NewPricing(MID_PRICE_OFFSET, 1)
	require.NoError(t, err)

	q, err := pricing(testBook())
	require.NoError(t, err)

	mid := (100.0 + 100.1) / 2
	assert.InDelta(t, mid-mid*0.0001, q.Bid, 1e-9)
	assert.InDelta(t, mid+mid*0.0001, q.Ask, 1e-9)
	// ширина котировки равна двум отступам от mid
	assert.InDelta(t, 2*mid*0.0001, q.Ask-q.Bid, 1e-9)
	assert.Less(t, q.Bid, mid)
	assert.Greater(t, q.Ask, mid)
}

func TestPricingEmptyBook(t *testing.T) {
	for _, name := range []string{BEST_BID_ASK, MID_PRICE_OFFSET} {
		pricing, err := NewPricing(name, 1)
		require.NoError(t, err)

		_, err = pricing(venue.OrderBook{
			Bids: []venue.BookLevel{{Price: 100, Size: 1}},
		})
		assert.ErrorIs(t, err, venue.ErrEmptyBook, name)

		_, err = pricing(venue.OrderBook{
			Asks: []venue.BookLevel{{Price: 100.1, Size: 1}},
		})
		assert.ErrorIs(t, err, venue.ErrEmptyBook, name)
	}
}

func TestPricingUnknownAlgorithm(t *testing.T) {
	_, err := NewPricing("magic", 0)
	require.Error(t, err)

	var confErr *venue.ConfigError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "PricingAlgorithm", confErr.Field)
}
