// Package cart stages items per trade partner before an offer is built.
package cart

import (
	"encoding/json"
	"sort"
	"sync"
)

// Side selects the bot's items (Our) or the partner's items (Their).
type Side int

const (
	Our Side = iota
	Their
)

func (s Side) String() string {
	if s == Our {
		return "our"
	}
	return "their"
}

// Whose is the possessive used in chat replies.
func (s Side) Whose() string {
	if s == Our {
		return "my"
	}
	return "your"
}

// Line is one staged item. Amount is always positive.
type Line struct {
	SKU    string `json:"sku"`
	Amount int    `json:"amount"`
}

// Cart holds lines for both sides keyed by item display name.
type Cart struct {
	Our   map[string]Line `json:"our"`
	Their map[string]Line `json:"their"`
}

func newCart() *Cart {
	return &Cart{Our: map[string]Line{}, Their: map[string]Line{}}
}

func (c *Cart) lines(s Side) map[string]Line {
	if s == Our {
		return c.Our
	}
	return c.Their
}

// Amount is the staged quantity for name, or 0.
func (c *Cart) Amount(name string, s Side) int {
	return c.lines(s)[name].Amount
}

func (c *Cart) SKU(name string, s Side) string {
	return c.lines(s)[name].SKU
}

// Add creates or increments a line. Non-positive amounts are ignored.
func (c *Cart) Add(sku, name string, amount int, s Side) {
	if amount <= 0 {
		return
	}
	lines := c.lines(s)
	line, ok := lines[name]
	if !ok {
		line = Line{SKU: sku}
	}
	line.Amount += amount
	lines[name] = line
}

// Remove decrements a line and drops it once it reaches zero. Non-positive
// amounts are ignored.
func (c *Cart) Remove(name string, amount int, s Side) {
	if amount <= 0 {
		return
	}
	lines := c.lines(s)
	line, ok := lines[name]
	if !ok {
		return
	}
	line.Amount -= amount
	if line.Amount <= 0 {
		delete(lines, name)
		return
	}
	lines[name] = line
}

func (c *Cart) Clear() {
	c.Our = map[string]Line{}
	c.Their = map[string]Line{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Our) == 0 && len(c.Their) == 0
}

// SideEmpty reports whether one side has no lines.
func (c *Cart) SideEmpty(s Side) bool {
	return len(c.lines(s)) == 0
}

// Names lists the line names of a side in sorted order.
func (c *Cart) Names(s Side) []string {
	lines := c.lines(s)
	out := make([]string, 0, len(lines))
	for name := range lines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := newCart()
	for k, v := range c.Our {
		out.Our[k] = v
	}
	for k, v := range c.Their {
		out.Their[k] = v
	}
	return out
}

func (c *Cart) String() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

type partnerLock struct {
	mu   sync.Mutex
	refs int
}

// Store keeps one cart per partner. Operations on the same partner run one at a
// time; different partners never wait on each other beyond the map lookup.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
	locks map[string]*partnerLock
}

func NewStore() *Store {
	return &Store{
		carts: make(map[string]*Cart),
		locks: make(map[string]*partnerLock),
	}
}

func (s *Store) lock(partner string) func() {
	s.mu.Lock()
	l := s.locks[partner]
	if l == nil {
		l = &partnerLock{}
		s.locks[partner] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, partner)
		}
		s.mu.Unlock()
	}
}

func (s *Store) load(partner string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[partner]
	if !ok {
		return newCart(), false
	}
	return c.Clone(), true
}

func (s *Store) save(partner string, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil || c.IsEmpty() {
		delete(s.carts, partner)
		return
	}
	s.carts[partner] = c
}

// Modify runs fn on the partner's cart while holding the partner lock. A cart is
// created on demand; fn's changes are stored whatever fn returns and an empty
// cart is discarded. exists reports whether the cart existed before the call.
func (s *Store) Modify(partner string, fn func(c *Cart, exists bool) error) error {
	unlock := s.lock(partner)
	defer unlock()

	c, exists := s.load(partner)
	err := fn(c, exists)
	s.save(partner, c)
	return err
}

// Add stages qty units of an item on one side.
func (s *Store) Add(partner, sku, name string, qty int, side Side) {
	_ = s.Modify(partner, func(c *Cart, _ bool) error {
		c.Add(sku, name, qty, side)
		return nil
	})
}

// Remove drops qty units of name from one side, or empties the whole cart when all is set.
func (s *Store) Remove(partner, name string, qty int, side Side, all bool) {
	_ = s.Modify(partner, func(c *Cart, _ bool) error {
		if all {
			c.Clear()
			return nil
		}
		c.Remove(name, qty, side)
		return nil
	})
}

// Get returns a copy of the partner's cart.
func (s *Store) Get(partner string) (*Cart, bool) {
	unlock := s.lock(partner)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[partner]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (s *Store) IsEmpty(partner string) bool {
	c, ok := s.Get(partner)
	return !ok || c.IsEmpty()
}

// Delete discards the partner's cart.
func (s *Store) Delete(partner string) {
	unlock := s.lock(partner)
	defer unlock()
	s.save(partner, nil)
}

// Partners lists partners with a cart, sorted.
func (s *Store) Partners() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.carts))
	for p := range s.carts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
