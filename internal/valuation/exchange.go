// Package valuation sums both sides of a trade into scrap-equivalent totals.
package valuation

import (
	"tf2automatic/internal/currency"
	"tf2automatic/internal/pricelist"
)

// Kind classifies a sku for valuation.
type Kind int

const (
	KindItem Kind = iota
	KindMetal
	KindKey
)

func KindOf(sku string) Kind {
	switch {
	case sku == currency.KeySKU:
		return KindKey
	case currency.IsMetal(sku):
		return KindMetal
	default:
		return KindItem
	}
}

// Contains flags what kinds of goods a side holds.
type Contains struct {
	Items bool `json:"items"`
	Metal bool `json:"metal"`
	Keys  bool `json:"keys"`
}

func (c Contains) or(o Contains) Contains {
	return Contains{Items: c.Items || o.Items, Metal: c.Metal || o.Metal, Keys: c.Keys || o.Keys}
}

// Side is the running total for one party. Value is in scrap at the key rate of
// the side's direction; Keys and Scrap keep the two price components apart.
type Side struct {
	Value    int      `json:"value"`
	Keys     int      `json:"keys"`
	Scrap    int      `json:"scrap"`
	Contains Contains `json:"contains"`
}

// Money returns the side total as keys plus scrap.
func (s Side) Money() currency.Money {
	return currency.Money{Keys: s.Keys, Scrap: s.Scrap}
}

// AddMoney adds a price paid in keys and metal.
func (s *Side) AddMoney(m currency.Money, keyRate int) {
	s.Value += m.Value(keyRate)
	s.Keys += m.Keys
	s.Scrap += m.Scrap
}

// Exchange holds the totals of the bot's side (Our) and the partner's side (Their).
type Exchange struct {
	Our   Side `json:"our"`
	Their Side `json:"their"`
}

// Contains is the union of both sides' flags.
func (e Exchange) Contains() Contains {
	return e.Our.Contains.or(e.Their.Contains)
}

// Side returns the side whose items the bot receives when buying, else the bot's own.
func (e *Exchange) Side(buying bool) *Side {
	if buying {
		return &e.Their
	}
	return &e.Our
}

// Accumulator values items against one pricelist snapshot. It is not safe for
// concurrent use; every evaluation owns its own.
type Accumulator struct {
	prices pricelist.Snapshot
	keys   currency.KeyPrices
	ex     Exchange
}

func NewAccumulator(prices pricelist.Snapshot) *Accumulator {
	return &Accumulator{prices: prices, keys: prices.KeyPrices()}
}

// Mark records the kind of sku on the side selected by buying.
func (a *Accumulator) Mark(sku string, buying bool) Kind {
	kind := KindOf(sku)
	c := &a.ex.Side(buying).Contains
	switch kind {
	case KindMetal:
		c.Metal = true
	case KindKey:
		c.Keys = true
	default:
		c.Items = true
	}
	return kind
}

// Add values amount units of sku. Items the bot receives (buying) use the buy
// price, items it gives use the sell price. Metal is weighted by denomination.
// Keys without a price entry are still counted at the key rate. The returned
// flag reports whether a price entry was found; it is always true for metal.
func (a *Accumulator) Add(sku string, amount int, buying bool) (pricelist.Entry, bool) {
	side := a.ex.Side(buying)
	if currency.IsMetal(sku) {
		v := currency.MetalValue(sku) * amount
		side.Value += v
		side.Scrap += v
		return pricelist.Entry{}, true
	}

	rate := a.keys.Rate(buying)
	entry, ok := a.prices.Get(sku, true)
	if ok {
		price := entry.Price(buying)
		side.Value += price.Value(rate) * amount
		side.Scrap += price.Scrap * amount
		if sku != currency.KeySKU {
			side.Keys += price.Keys * amount
		}
	} else if sku == currency.KeySKU {
		side.Value += rate * amount
		side.Keys += amount
	}
	return entry, ok
}

// Exchange returns the totals accumulated so far.
func (a *Accumulator) Exchange() Exchange {
	return a.ex
}

// KeyPrices is the key rate pair taken from the snapshot.
func (a *Accumulator) KeyPrices() currency.KeyPrices {
	return a.keys
}
