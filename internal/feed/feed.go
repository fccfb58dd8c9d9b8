package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	. "ladder/internal/common"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

var (
	ErrNoWorkers = errors.New("feed needs at least one worker")
	ErrBadConfig = errors.New("bad feed config")
)

// Book is the part of an order book the feed drives.
type Book interface {
	Add(id int64, price float64, side Side, size int64)
	Remove(id int64)
	Modify(id int64, newSize int64)
}

type Config struct {
	Workers  int
	Orders   int // Total operations across all workers
	MinPrice float64
	MaxPrice float64
	MaxSize  int64
	Seed     int64
}

func (c Config) validate() error {
	switch {
	case c.Workers <= 0:
		return ErrNoWorkers
	case c.Orders < 0:
		return fmt.Errorf("%w: orders must not be negative, but is %d", ErrBadConfig, c.Orders)
	case c.MaxPrice < c.MinPrice:
		return fmt.Errorf("%w: price range [%v, %v] is inverted", ErrBadConfig, c.MinPrice, c.MaxPrice)
	case c.MaxSize <= 0:
		return fmt.Errorf("%w: max size must be > 0, but is %d", ErrBadConfig, c.MaxSize)
	}
	return nil
}

// IDs hands out unique order ids, shared by every worker of a feed.
type IDs struct {
	next atomic.Int64
}

func (ids *IDs) Next() int64 {
	return ids.next.Add(1)
}

type Stats struct {
	Added    atomic.Int64
	Modified atomic.Int64
	Removed  atomic.Int64
}

// Resting is how many orders the feed left in the book.
func (s *Stats) Resting() int64 {
	return s.Added.Load() - s.Removed.Load()
}

// Feed fires random add/modify/remove traffic at a book from several
// goroutines at once.
type Feed struct {
	book  Book
	cfg   Config
	ids   *IDs
	Stats Stats
}

func New(book Book, cfg Config, ids *IDs) *Feed {
	if ids == nil {
		ids = &IDs{}
	}
	return &Feed{
		book: book,
		cfg:  cfg,
		ids:  ids,
	}
}

// Run blocks until every worker has issued its share of operations or ctx is
// cancelled.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.cfg.validate(); err != nil {
		return err
	}

	t, _ := tomb.WithContext(ctx)
	t.Go(func() error {
		share := f.cfg.Orders / f.cfg.Workers
		for w := 0; w < f.cfg.Workers; w++ {
			n := share
			if w == 0 {
				n += f.cfg.Orders % f.cfg.Workers
			}
			rng := rand.New(rand.NewPCG(uint64(f.cfg.Seed), uint64(w)))
			t.Go(func() error {
				return f.worker(t, rng, n)
			})
		}
		return nil
	})

	err := t.Wait()
	log.Info().
		Int64("added", f.Stats.Added.Load()).
		Int64("modified", f.Stats.Modified.Load()).
		Int64("removed", f.Stats.Removed.Load()).
		Err(err).
		Msg("feed finished")
	return err
}

// worker only modifies and removes orders it added itself, so no two workers
// ever race on the same id.
func (f *Feed) worker(t *tomb.Tomb, rng *rand.Rand, n int) error {
	var live []int64
	for i := 0; i < n; i++ {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		roll := rng.IntN(10)
		switch {
		case len(live) == 0 || roll < 6:
			id := f.ids.Next()
			f.book.Add(id, f.price(rng), Sides[rng.IntN(len(Sides))], f.size(rng))
			live = append(live, id)
			f.Stats.Added.Add(1)
		case roll < 8:
			f.book.Modify(live[rng.IntN(len(live))], f.size(rng))
			f.Stats.Modified.Add(1)
		default:
			k := rng.IntN(len(live))
			f.book.Remove(live[k])
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			f.Stats.Removed.Add(1)
		}
	}
	return nil
}

// price picks a price on a cent grid so that levels get shared.
func (f *Feed) price(rng *rand.Rand) float64 {
	p := f.cfg.MinPrice + rng.Float64()*(f.cfg.MaxPrice-f.cfg.MinPrice)
	return math.Round(p*100) / 100
}

func (f *Feed) size(rng *rand.Rand) int64 {
	return 1 + rng.Int64N(f.cfg.MaxSize)
}
