package offer

import (
	"sort"
	"time"

	"tf2automatic/internal/currency"
)

// Metadata keys written onto offers.
const (
	DataPartner         = "partner"
	DataDict            = "dict"
	DataDiff            = "diff"
	DataValue           = "value"
	DataPrices          = "prices"
	DataHandleTimestamp = "handleTimestamp"
	DataHandledByUs     = "handledByUs"
	DataAction          = "action"
)

// Dict counts units per sku on each side.
type Dict struct {
	Our   map[string]int `json:"our"`
	Their map[string]int `json:"their"`
}

func NewDict() Dict {
	return Dict{Our: map[string]int{}, Their: map[string]int{}}
}

// Add counts amount units on the bot's side (giving) or the partner's side.
func (d Dict) Add(sku string, amount int, giving bool) {
	if amount == 0 {
		return
	}
	if giving {
		d.Our[sku] += amount
		return
	}
	d.Their[sku] += amount
}

// Diff is the net change in the bot's stock per sku: positive when it receives.
type Diff map[string]int

// Diff derives the net stock change from both sides.
func (d Dict) Diff() Diff {
	out := make(Diff, len(d.Our)+len(d.Their))
	for sku, n := range d.Our {
		out[sku] -= n
	}
	for sku, n := range d.Their {
		out[sku] += n
	}
	return out
}

// SKUs returns the skus in sorted order.
func (d Diff) SKUs() []string {
	out := make([]string, 0, len(d))
	for sku := range d {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// Rates are the key prices in refined at the time of valuation.
type Rates struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// Value is the valuation record stored on an offer.
type Value struct {
	Our   currency.Money `json:"our"`
	Their currency.Money `json:"their"`
	Rates Rates          `json:"rates"`
}

// NewValue records both side totals with the key rates used.
func NewValue(our, their currency.Money, keys currency.KeyPrices) Value {
	return Value{
		Our:   our,
		Their: their,
		Rates: Rates{
			Buy:  keys.Buy.Refined().InexactFloat64(),
			Sell: keys.Sell.Refined().InexactFloat64(),
		},
	}
}

// PricePair is the buy and sell price of one sku captured at construction time.
type PricePair struct {
	Buy  currency.Money `json:"buy"`
	Sell currency.Money `json:"sell"`
}

type Prices map[string]PricePair

// Meta is the structured record emitted with every decision and construction.
type Meta struct {
	Dict   Dict   `json:"dict"`
	Diff   Diff   `json:"diff"`
	Value  *Value `json:"value,omitempty"`
	Prices Prices `json:"prices,omitempty"`
}

// Apply writes the record onto o.
func (m Meta) Apply(o Offer) {
	o.SetData(DataDict, m.Dict)
	o.SetData(DataDiff, m.Diff)
	if m.Value != nil {
		o.SetData(DataValue, *m.Value)
	}
	if len(m.Prices) > 0 {
		o.SetData(DataPrices, m.Prices)
	}
}

// MarkHandled stamps o as processed by this bot at t.
func MarkHandled(o Offer, t time.Time) {
	o.SetData(DataHandledByUs, true)
	o.SetData(DataHandleTimestamp, t.UnixMilli())
}

// HandledByUs reads the handledByUs flag.
func HandledByUs(o Offer) bool {
	v, ok := o.Data(DataHandledByUs)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// DiffOf returns the stored diff, or nil.
func DiffOf(o Offer) Diff {
	v, ok := o.Data(DataDiff)
	if !ok {
		return nil
	}
	switch d := v.(type) {
	case Diff:
		return d
	case map[string]int:
		return Diff(d)
	}
	return nil
}
