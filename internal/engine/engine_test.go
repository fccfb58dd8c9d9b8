package engine_test

import (
	"context"
	"testing"

	. "ladder/internal/common"
	"ladder/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_BooksAreIndependent(t *testing.T) {
	eng := engine.New(context.Background(), "NVDA", "AAPL", "NVDA")
	defer func() { assert.NoError(t, eng.Shutdown()) }()

	assert.Equal(t, []string{"AAPL", "NVDA"}, eng.Tickers())

	aapl, err := eng.Book("AAPL")
	require.NoError(t, err)
	nvda, err := eng.Book("NVDA")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", aapl.Ticker())

	aapl.Add(1, 180.0, Bid, 10)
	nvda.Add(1, 900.0, Offer, 5)

	waitForBookToContain(t, aapl, Bid, bid(1, 180.0, 10))
	waitForBookToContain(t, nvda, Offer, offer(1, 900.0, 5))
	assert.Empty(t, aapl.AllOf(Offer))
	assert.Empty(t, nvda.AllOf(Bid))
}

func TestEngine_UnknownTicker(t *testing.T) {
	eng := engine.New(context.Background(), "AAPL")
	defer func() { assert.NoError(t, eng.Shutdown()) }()

	_, err := eng.Book("MSFT")
	assert.ErrorIs(t, err, engine.ErrUnknownTicker)
}

func TestEngine_ShutdownStopsEveryBook(t *testing.T) {
	eng := engine.New(context.Background(), "AAPL", "NVDA")
	require.NoError(t, eng.Shutdown())

	for _, ticker := range eng.Tickers() {
		book, err := eng.Book(ticker)
		require.NoError(t, err)
		select {
		case <-book.Dead():
		default:
			t.Fatalf("book %s still running", ticker)
		}
	}
}
