// Package currency models in-game money (keys and metal) and allocates concrete
// denominations for a target value.
package currency

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency skus.
const (
	KeySKU       = "5021;6"
	RefinedSKU   = "5002;6"
	ReclaimedSKU = "5001;6"
	ScrapSKU     = "5000;6"
)

// Fixed scrap weights of the metal denominations.
const (
	ScrapValue     = 1
	ReclaimedValue = 3
	RefinedValue   = 9
)

var (
	decNine    = decimal.NewFromInt(RefinedValue)
	refinedExp = int32(2)
)

// IsMetal reports whether sku is one of the three metal denominations.
func IsMetal(sku string) bool {
	switch sku {
	case RefinedSKU, ReclaimedSKU, ScrapSKU:
		return true
	}
	return false
}

// IsCurrency reports whether sku is metal or a key.
func IsCurrency(sku string) bool {
	return sku == KeySKU || IsMetal(sku)
}

// MetalValue returns the scrap weight of a metal sku, or 0.
func MetalValue(sku string) int {
	switch sku {
	case RefinedSKU:
		return RefinedValue
	case ReclaimedSKU:
		return ReclaimedValue
	case ScrapSKU:
		return ScrapValue
	}
	return 0
}

// Money is a price expressed as whole keys plus whole scrap.
type Money struct {
	Keys  int
	Scrap int
}

type moneyJSON struct {
	Keys  int             `json:"keys"`
	Metal decimal.Decimal `json:"metal"`
}

// MarshalJSON writes the metal part in refined, matching how prices are listed.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Keys  int         `json:"keys"`
		Metal json.Number `json:"metal"`
	}{Keys: m.Keys, Metal: json.Number(m.Refined().String())})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = NewMoney(raw.Keys, raw.Metal)
	return nil
}

// NewMoney builds Money from keys and a refined amount such as 1.33.
func NewMoney(keys int, refined decimal.Decimal) Money {
	return Money{Keys: keys, Scrap: ToScrap(refined)}
}

// FromValue splits a scrap value into keys and scrap at the given key rate.
// A non-positive rate keeps the whole value in scrap.
func FromValue(value, keyRate int) Money {
	if keyRate <= 0 || value <= 0 {
		return Money{Scrap: value}
	}
	return Money{Keys: value / keyRate, Scrap: value % keyRate}
}

// Value converts m into scrap using keyRate scrap per key.
func (m Money) Value(keyRate int) int {
	return m.Keys*keyRate + m.Scrap
}

// Refined returns the metal part in refined.
func (m Money) Refined() decimal.Decimal {
	return ToRefined(m.Scrap)
}

// Scale multiplies both parts by n.
func (m Money) Scale(n int) Money {
	return Money{Keys: m.Keys * n, Scrap: m.Scrap * n}
}

func (m Money) IsZero() bool {
	return m.Keys == 0 && m.Scrap == 0
}

// String renders "2 keys, 1.33 ref".
func (m Money) String() string {
	parts := make([]string, 0, 2)
	if m.Keys != 0 {
		unit := "keys"
		if m.Keys == 1 {
			unit = "key"
		}
		parts = append(parts, fmt.Sprintf("%d %s", m.Keys, unit))
	}
	if m.Scrap != 0 {
		parts = append(parts, m.Refined().String()+" ref")
	}
	if len(parts) == 0 {
		return "0 keys, 0 ref"
	}
	return strings.Join(parts, ", ")
}

// ToRefined converts scrap to refined, truncated to two decimals (11 scrap -> 1.22).
func ToRefined(scrap int) decimal.Decimal {
	return decimal.NewFromInt(int64(scrap)).Div(decNine).Truncate(refinedExp)
}

// ToScrap converts refined to the nearest whole scrap (1.33 -> 12).
func ToScrap(refined decimal.Decimal) int {
	return int(refined.Mul(decNine).Round(0).IntPart())
}

// KeyPrices holds the metal price of one key in each direction.
type KeyPrices struct {
	Buy  Money `json:"buy"`
	Sell Money `json:"sell"`
}

// For returns the buy price when buying and the sell price otherwise.
func (k KeyPrices) For(buying bool) Money {
	if buying {
		return k.Buy
	}
	return k.Sell
}

// Rate returns the key-to-scrap rate for a direction.
func (k KeyPrices) Rate(buying bool) int {
	return k.For(buying).Scrap
}
