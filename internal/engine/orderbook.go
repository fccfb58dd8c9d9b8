package engine

import (
	"context"
	"errors"
	"fmt"

	. "ladder/internal/common"
	"ladder/internal/metrics"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

var (
	ErrInvalidLevel  = errors.New("invalid level")
	ErrLevelNotFound = errors.New("level not found")
)

// OrderBook holds the resting orders of one instrument. Mutations go straight
// to the store and nudge the affected side's sorter; queries are answered from
// the sorter's last published view and never wait on either.
//
// Views are eventually consistent: a query issued right after a mutation may
// not reflect it yet.
type OrderBook struct {
	ticker  string
	store   *OrderStore
	sorters [len(Sides)]*SideSorter
	t       *tomb.Tomb
}

// NewOrderBook starts one sorter per side. They run until Close is called or
// ctx is cancelled.
func NewOrderBook(ctx context.Context, ticker string) *OrderBook {
	t, _ := tomb.WithContext(ctx)
	book := &OrderBook{
		ticker: ticker,
		store:  NewOrderStore(),
		t:      t,
	}

	for _, side := range Sides {
		book.sorters[side] = NewSideSorter(ticker, side, book.store)
	}
	// tomb rejects t.Go once every tracked goroutine has returned, so the
	// sorters are spawned from a goroutine the tomb already tracks.
	t.Go(func() error {
		for _, sorter := range book.sorters {
			t.Go(func() error {
				return sorter.Run(t)
			})
		}
		return nil
	})

	log.Debug().Str("ticker", ticker).Msg("order book running")
	return book
}

func (book *OrderBook) Ticker() string { return book.ticker }

// Add places a new order or overwrites an existing one with the same id.
func (book *OrderBook) Add(id int64, price float64, side Side, size int64) {
	sorter := book.sorterFor(side)
	if sorter == nil {
		log.Warn().Str("ticker", book.ticker).Int64("id", id).Int("side", int(side)).Msg("dropping order with unknown side")
		return
	}

	_, prev, replaced := book.store.Put(id, price, side, size)
	metrics.MutationsTotal.WithLabelValues(book.ticker, "add").Inc()
	sorter.RequestResort()
	// An id re-added on the other side has to leave its old view too.
	if replaced && prev.Side != side {
		book.sorterFor(prev.Side).RequestResort()
	}
}

// Remove deletes id. Unknown ids are ignored.
func (book *OrderBook) Remove(id int64) {
	record, ok := book.store.Delete(id)
	if !ok {
		return
	}

	metrics.MutationsTotal.WithLabelValues(book.ticker, "remove").Inc()
	book.sorterFor(record.Side).RequestResort()
}

// Modify changes the size of id. The order loses its time priority, even when
// the size is unchanged. Unknown ids are ignored.
func (book *OrderBook) Modify(id int64, newSize int64) {
	record, ok := book.store.UpdateSize(id, newSize)
	if !ok {
		return
	}

	metrics.MutationsTotal.WithLabelValues(book.ticker, "modify").Inc()
	book.sorterFor(record.Side).RequestResort()
}

// Price returns the price ranked at level (1 is best) on side.
func (book *OrderBook) Price(side Side, level int) (float64, error) {
	view, err := book.viewWithLevel(side, level)
	if err != nil {
		return 0, err
	}
	return view.At(level - 1).Price, nil
}

// TotalSizeAvailable sums the size of every order ranked 1 through level.
func (book *OrderBook) TotalSizeAvailable(side Side, level int) (int64, error) {
	view, err := book.viewWithLevel(side, level)
	if err != nil {
		return 0, err
	}

	var total int64
	for i := 0; i < level; i++ {
		total += view.At(i).Size
	}
	return total, nil
}

// AllOf lists side best first.
func (book *OrderBook) AllOf(side Side) []Order {
	view := book.View(side)
	if view == nil {
		return nil
	}
	return view.Orders()
}

// Depth is the number of orders in the current view of side.
func (book *OrderBook) Depth(side Side) int {
	view := book.View(side)
	if view == nil {
		return 0
	}
	return view.Len()
}

// View exposes the current published view of side, or nil for an unknown side.
func (book *OrderBook) View(side Side) *View {
	sorter := book.sorterFor(side)
	if sorter == nil {
		return nil
	}
	return sorter.CurrentView()
}

// Close stops both sorters and waits for them to exit.
func (book *OrderBook) Close() error {
	book.t.Kill(nil)
	if err := book.t.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Debug().Str("ticker", book.ticker).Msg("order book closed")
	return nil
}

// Dead is closed once both sorters have exited.
func (book *OrderBook) Dead() <-chan struct{} {
	return book.t.Dead()
}

func (book *OrderBook) viewWithLevel(side Side, level int) (*View, error) {
	if level <= 0 {
		return nil, fmt.Errorf("%w: level must be > 0, but is %d", ErrInvalidLevel, level)
	}

	view := book.View(side)
	if view == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, int(side))
	}
	if level > view.Len() {
		return nil, fmt.Errorf("%w: level %d requested, %s depth is %d", ErrLevelNotFound, level, side, view.Len())
	}
	return view, nil
}

func (book *OrderBook) sorterFor(side Side) *SideSorter {
	if side < 0 || int(side) >= len(book.sorters) {
		return nil
	}
	return book.sorters[side]
}
