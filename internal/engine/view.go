package engine

import (
	"time"

	. "ladder/internal/common"
)

// View is one side of the book, fully sorted best first. A published View is
// never modified, so readers may hold on to it for as long as they like.
type View struct {
	side    Side
	records []OrderRecord
	builtAt time.Time
}

func emptyView(side Side) *View {
	return &View{side: side}
}

func (v *View) Side() Side { return v.side }

func (v *View) Len() int { return len(v.records) }

// At returns the record ranked i (0 is best).
func (v *View) At(i int) OrderRecord { return v.records[i] }

// BuiltAt is when the view's source snapshot was taken. Zero for the initial
// empty view.
func (v *View) BuiltAt() time.Time { return v.builtAt }

// Orders copies the view out as plain order values.
func (v *View) Orders() []Order {
	orders := make([]Order, len(v.records))
	for i, record := range v.records {
		orders[i] = record.Order()
	}
	return orders
}
