package pricelist

import (
	"fmt"
	"strconv"
	"strings"

	"tf2automatic/internal/currency"
)

// Intent says which directions an item is traded in.
type Intent int

const (
	IntentBuy Intent = iota
	IntentSell
	IntentBank
)

func (i Intent) String() string {
	switch i {
	case IntentBuy:
		return "buy"
	case IntentSell:
		return "sell"
	case IntentBank:
		return "bank"
	default:
		return "unknown"
	}
}

// Allows reports whether the bot may trade the item in the given direction.
func (i Intent) Allows(buying bool) bool {
	if i == IntentBank {
		return true
	}
	if buying {
		return i == IntentBuy
	}
	return i == IntentSell
}

// ParseIntent accepts buy/sell/bank (or both) and the numeric forms 0/1/2.
func ParseIntent(raw any) (Intent, error) {
	switch v := raw.(type) {
	case nil:
		return IntentBank, nil
	case int:
		return intentFromInt(v)
	case float64:
		return intentFromInt(int(v))
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "", "bank", "both":
			return IntentBank, nil
		case "buy":
			return IntentBuy, nil
		case "sell":
			return IntentSell, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return intentFromInt(n)
		}
		return 0, fmt.Errorf("unknown intent %q", v)
	default:
		return 0, fmt.Errorf("unsupported intent type %T", raw)
	}
}

func intentFromInt(n int) (Intent, error) {
	if n < int(IntentBuy) || n > int(IntentBank) {
		return 0, fmt.Errorf("intent out of range: %d", n)
	}
	return Intent(n), nil
}

// Entry is one priced item.
type Entry struct {
	SKU     string         `json:"sku"`
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Intent  Intent         `json:"intent"`
	Buy     currency.Money `json:"buy"`
	Sell    currency.Money `json:"sell"`
	// Min and Max bound the stock kept of the item; Max < 0 means unlimited.
	Min int `json:"min"`
	Max int `json:"max"`
}

// Price returns the buy price when the bot is buying and the sell price otherwise.
func (e Entry) Price(buying bool) currency.Money {
	if buying {
		return e.Buy
	}
	return e.Sell
}
