// Package orderbook holds the caller-facing order container the path finder
// searches over, plus the fill evaluation used to derive edge capacities.
package orderbook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// Book is an append-only container of orders. It is not safe for concurrent
// mutation; searches borrow it read-only.
type Book struct {
	orders []*types.Order
	byID   map[string]*types.Order
}

// New builds an empty book.
func New() *Book {
	return &Book{byID: make(map[string]*types.Order)}
}

// FromOrders builds a book over the given orders. Duplicate IDs are
// rejected.
func FromOrders(orders ...*types.Order) (*Book, error) {
	b := New()
	for _, o := range orders {
		if err := b.Add(o); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add appends an order.
func (b *Book) Add(o *types.Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", types.ErrInvalidInput)
	}
	if _, dup := b.byID[o.ID]; dup {
		return fmt.Errorf("%w: duplicate order id %s", types.ErrInvalidInput, o.ID)
	}
	b.orders = append(b.orders, o)
	b.byID[o.ID] = o
	return nil
}

// Len returns the number of orders.
func (b *Book) Len() int { return len(b.orders) }

// Orders returns the orders in insertion order. The slice is shared; do not
// mutate.
func (b *Book) Orders() []*types.Order { return b.orders }

// Get looks an order up by ID.
func (b *Book) Get(id string) (*types.Order, bool) {
	o, ok := b.byID[id]
	return o, ok
}

// BySide returns the orders with the given side, in insertion order.
func (b *Book) BySide(side types.Side) []*types.Order {
	var out []*types.Order
	for _, o := range b.orders {
		if o.Side == side {
			out = append(out, o)
		}
	}
	return out
}

// ByPair returns the orders on the given pair, in insertion order.
func (b *Book) ByPair(pair types.AssetPair) []*types.Order {
	var out []*types.Order
	for _, o := range b.orders {
		if o.Pair == pair {
			out = append(out, o)
		}
	}
	return out
}

// ByCurrency returns the orders touching the given currency on either side
// of the pair.
func (b *Book) ByCurrency(currency string) []*types.Order {
	var out []*types.Order
	for _, o := range b.orders {
		if o.Pair.Base == currency || o.Pair.Quote == currency {
			out = append(out, o)
		}
	}
	return out
}

// Fingerprint digests the order fingerprints order-insensitively, so two
// books holding the same orders in any order share a fingerprint. Used as a
// graph-cache key.
func (b *Book) Fingerprint() string {
	var acc [sha256.Size]byte
	for _, o := range b.orders {
		h := sha256.Sum256([]byte(o.Fingerprint()))
		for i := range acc {
			acc[i] ^= h[i]
		}
	}
	return hex.EncodeToString(acc[:])
}
