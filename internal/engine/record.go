package engine

import (
	"cmp"
	"time"

	. "ladder/internal/common"
)

// OrderRecord is a resting order as the book tracks it. It is never mutated:
// a size change produces a new record with a fresh Seq.
type OrderRecord struct {
	ID         int64     // Caller assigned id
	Price      float64   // Limit price
	Side       Side      // Order side
	Size       int64     // Resting size
	Seq        uint64    // Arrival sequence, the FIFO tie-break within a price level
	InsertedAt time.Time // Wall time of the add or last modify
}

// Order strips the book-internal fields.
func (r OrderRecord) Order() Order {
	return Order{
		ID:    r.ID,
		Price: r.Price,
		Side:  r.Side,
		Size:  r.Size,
	}
}

// withSize returns a copy carrying a new size and arrival stamp.
func (r OrderRecord) withSize(size int64, seq uint64, now time.Time) OrderRecord {
	r.Size = size
	r.Seq = seq
	r.InsertedAt = now
	return r
}

// comparePriority orders two records of the same side by price-time priority:
// a negative result means a ranks ahead of b. Bids rank the highest price first,
// offers the lowest; equal prices fall back to arrival order.
func comparePriority(side Side, a, b OrderRecord) int {
	c := cmp.Compare(a.Price, b.Price)
	if side == Bid {
		c = -c
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// priorityLess adapts comparePriority to the less function btree expects.
func priorityLess(side Side) func(a, b OrderRecord) bool {
	return func(a, b OrderRecord) bool {
		return comparePriority(side, a, b) < 0
	}
}
