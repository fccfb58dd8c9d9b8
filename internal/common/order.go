package common

import (
	"errors"
	"fmt"
)

var ErrInvalidSide = errors.New("invalid side")

type Side int

const (
	Bid Side = iota
	Offer
)

// Sides lists every side in a stable order.
var Sides = [...]Side{Bid, Offer}

// ParseSide accepts the single character tags 'B' (bid) and 'O' (offer).
func ParseSide(c rune) (Side, error) {
	switch c {
	case 'B':
		return Bid, nil
	case 'O':
		return Offer, nil
	}
	return 0, fmt.Errorf("%w: side can only be 'B' or 'O', got %q", ErrInvalidSide, c)
}

// Char is the inverse of ParseSide.
func (s Side) Char() rune {
	if s == Bid {
		return 'B'
	}
	return 'O'
}

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Offer:
		return "offer"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Order is the plain value handed back to callers of the book. Two orders are
// equal when every field matches.
type Order struct {
	ID    int64   // Caller assigned id
	Price float64 // Limit price
	Side  Side    // Order side
	Size  int64   // Resting size
}

func (order Order) String() string {
	return fmt.Sprintf(
		"Order{id=%d, price=%v, side=%c, size=%d}",
		order.ID,
		order.Price,
		order.Side.Char(),
		order.Size,
	)
}
