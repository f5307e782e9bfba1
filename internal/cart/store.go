package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Listener receives a snapshot of the cart after each change.
type Listener func(Cart)

// Store owns a single cart and is the only way to mutate it.
type Store struct {
	mu        sync.Mutex
	cart      Cart
	listeners map[int]Listener
	nextID    int
}

func NewStore(initial Cart) *Store {
	return &Store{
		cart:      Normalize(initial),
		listeners: make(map[int]Listener),
	}
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Add increments the quantity of an existing (product, variant) entry or
// appends a new entry with quantity 1.
func (s *Store) Add(p Product, variant string) error {
	s.mu.Lock()
	next, err := add(s.cart, p, variant)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove deletes the matching entry and reports whether one existed.
func (s *Store) Remove(productID uuid.UUID, variant string) bool {
	return s.apply(func(c Cart) (Cart, bool) { return remove(c, productID, variant) })
}

// SetQuantity sets the entry quantity; n <= 0 removes the entry. It reports
// whether a matching entry existed and fails with ErrQuantityLimit when n is
// above MaxQuantity.
func (s *Store) SetQuantity(productID uuid.UUID, variant string, n int) (bool, error) {
	var err error
	changed := s.apply(func(c Cart) (Cart, bool) {
		var next Cart
		var ok bool
		next, ok, err = setQuantity(c, productID, variant, n)
		return next, ok
	})
	return changed, err
}

// Merge adds the entries of other, summing quantities of matching entries.
func (s *Store) Merge(other Cart) bool {
	return s.apply(func(c Cart) (Cart, bool) { return merge(c, other) })
}

func (s *Store) Clear() {
	s.apply(func(c Cart) (Cart, bool) {
		return Cart{Items: []Item{}}, len(c.Items) > 0
	})
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems()
}

func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

func (s *Store) apply(fn func(Cart) (Cart, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.cart)
	if changed {
		s.cart = next
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.cart.Clone()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(snap.Clone())
	}
}
