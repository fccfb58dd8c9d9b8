package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	. "ladder/internal/common"
	"ladder/internal/metrics"
	"ladder/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
	tomb "gopkg.in/tomb.v2"
)

var ErrDuplicatePriority = errors.New("two records share a priority slot")

// Snapshotter is the source a sorter rebuilds its view from.
type Snapshotter interface {
	SnapshotValues() []OrderRecord
}

// SideSorter keeps a sorted View of one side of the book. Resorts run on the
// sorter's own goroutine and each one publishes a brand new View with a single
// pointer store, so readers see either the old list or the new one.
type SideSorter struct {
	ticker string
	side   Side
	source Snapshotter
	view   atomic.Pointer[View]
	worker *worker.Coalescer
}

func NewSideSorter(ticker string, side Side, source Snapshotter) *SideSorter {
	sorter := &SideSorter{
		ticker: ticker,
		side:   side,
		source: source,
	}
	sorter.view.Store(emptyView(side))

	logger := log.With().
		Str("ticker", ticker).
		Stringer("side", side).
		Logger()
	sorter.worker = worker.NewCoalescer(logger, sorter.resort, func(error) {
		metrics.ResortFailuresTotal.WithLabelValues(ticker, side.String()).Inc()
	})
	return sorter
}

// RequestResort never blocks. Requests made while one is already pending are
// dropped: the pending pass re-reads the whole store anyway.
func (sorter *SideSorter) RequestResort() {
	if !sorter.worker.Signal() {
		metrics.ResortRequestsCoalescedTotal.WithLabelValues(sorter.ticker, sorter.side.String()).Inc()
	}
}

// CurrentView returns the latest published view. It is never nil.
func (sorter *SideSorter) CurrentView() *View {
	return sorter.view.Load()
}

// Run serves resort requests until the tomb starts dying.
func (sorter *SideSorter) Run(t *tomb.Tomb) error {
	return sorter.worker.Run(t)
}

// resort builds the side's view from a full store snapshot. The records are
// loaded into a btree ordered by price-time priority, the same way bids and
// asks are kept greatest-first and least-first in a price ladder.
func (sorter *SideSorter) resort() error {
	start := time.Now()
	snapshot := sorter.source.SnapshotValues()

	tree := btree.NewBTreeGOptions(priorityLess(sorter.side), btree.Options{NoLocks: true})
	for _, record := range snapshot {
		if record.Side != sorter.side {
			continue
		}
		if prev, replaced := tree.Set(record); replaced {
			// Seq is unique per record, so this only happens if the source is
			// handing out broken stamps. Keep the last good view.
			return fmt.Errorf("%w: orders %d and %d at seq %d", ErrDuplicatePriority, prev.ID, record.ID, record.Seq)
		}
	}

	sorter.view.Store(&View{
		side:    sorter.side,
		records: tree.Items(),
		builtAt: start,
	})

	labels := []string{sorter.ticker, sorter.side.String()}
	metrics.ResortsTotal.WithLabelValues(labels...).Inc()
	metrics.ResortDurationSeconds.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	metrics.ViewDepth.WithLabelValues(labels...).Set(float64(tree.Len()))
	return nil
}
