package engine

import (
	"sync"
	"time"

	. "ladder/internal/common"
)

// OrderStore maps order id to its current record. Every method is safe to call
// from any goroutine.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[int64]OrderRecord
	seq    Sequencer
	now    func() time.Time
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[int64]OrderRecord),
		now:    time.Now,
	}
}

// Put inserts or overwrites the record for id. When a record was overwritten
// it is returned as prev with replaced set.
func (s *OrderStore) Put(id int64, price float64, side Side, size int64) (record, prev OrderRecord, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, replaced = s.orders[id]

	// Stamp under the lock so that sequence order matches the order in which
	// writes become visible.
	record = OrderRecord{
		ID:         id,
		Price:      price,
		Side:       side,
		Size:       size,
		Seq:        s.seq.Next(),
		InsertedAt: s.now(),
	}
	s.orders[id] = record
	return record, prev, replaced
}

// Delete removes id, returning the record that was removed if there was one.
func (s *OrderStore) Delete(id int64) (OrderRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.orders[id]
	if ok {
		delete(s.orders, id)
	}
	return record, ok
}

// UpdateSize replaces the record for id with one carrying newSize and a fresh
// arrival stamp, which sends it to the back of its price level.
func (s *OrderStore) UpdateSize(id int64, newSize int64) (OrderRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.orders[id]
	if !ok {
		return OrderRecord{}, false
	}
	record = record.withSize(newSize, s.seq.Next(), s.now())
	s.orders[id] = record
	return record, true
}

func (s *OrderStore) Get(id int64) (OrderRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.orders[id]
	return record, ok
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.orders)
}

// SnapshotValues copies every current record. Writers are held off only for the
// duration of the copy.
func (s *OrderStore) SnapshotValues() []OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]OrderRecord, 0, len(s.orders))
	for _, record := range s.orders {
		records = append(records, record)
	}
	return records
}
