package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

var ErrUnknownTicker = errors.New("unknown ticker")

// Engine owns one order book per ticker.
type Engine struct {
	Books map[string]*OrderBook
}

func New(ctx context.Context, tickers ...string) *Engine {
	engine := &Engine{
		Books: make(map[string]*OrderBook, len(tickers)),
	}

	for _, ticker := range tickers {
		if _, ok := engine.Books[ticker]; ok {
			continue
		}
		engine.Books[ticker] = NewOrderBook(ctx, ticker)
	}

	log.Info().Strs("tickers", engine.Tickers()).Msg("engine started")
	return engine
}

func (engine *Engine) Book(ticker string) (*OrderBook, error) {
	book, ok := engine.Books[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTicker, ticker)
	}
	return book, nil
}

// Tickers lists the books in lexical order.
func (engine *Engine) Tickers() []string {
	tickers := make([]string, 0, len(engine.Books))
	for ticker := range engine.Books {
		tickers = append(tickers, ticker)
	}
	slices.Sort(tickers)
	return tickers
}

// Shutdown closes every book, returning the first error seen.
func (engine *Engine) Shutdown() error {
	var first error
	for _, ticker := range engine.Tickers() {
		if err := engine.Books[ticker].Close(); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("unable to close order book")
			if first == nil {
				first = err
			}
		}
	}
	log.Info().Msg("engine stopped")
	return first
}
