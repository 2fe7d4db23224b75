// Package inventory defines the inventory contracts the trade engine consumes
// and a few helpers over sku dictionaries.
package inventory

import (
	"context"
	"sort"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/pricelist"
)

// Dictionary maps a sku to the asset ids of the instances a party holds.
type Dictionary map[string][]string

// Inventory loads a party's tradable items.
type Inventory interface {
	Dictionary(ctx context.Context, steamID string, useCache bool) (Dictionary, error)
}

// Capacity reports how many more units of sku the bot may take in (buying) or
// give away (selling), judged against snap so that one evaluation never mixes
// pricelist versions.
type Capacity interface {
	AmountCanTrade(snap pricelist.Snapshot, sku string, buying bool) int
}

// CreateDictionary groups items by sku. Items whose sku resolves to "" are skipped.
func CreateDictionary[T any](items []T, skuOf func(T) string, idOf func(T) string) Dictionary {
	out := make(Dictionary)
	for _, it := range items {
		sku := skuOf(it)
		if sku == "" {
			continue
		}
		out[sku] = append(out[sku], idOf(it))
	}
	return out
}

// Clone copies the dictionary so callers can consume ids freely.
func (d Dictionary) Clone() Dictionary {
	out := make(Dictionary, len(d))
	for sku, ids := range d {
		out[sku] = append([]string(nil), ids...)
	}
	return out
}

// Amount is the number of instances of sku.
func (d Dictionary) Amount(sku string) int {
	return len(d[sku])
}

// Currencies keeps only key and metal entries.
func (d Dictionary) Currencies() Dictionary {
	out := make(Dictionary, 4)
	for _, sku := range []string{currency.KeySKU, currency.RefinedSKU, currency.ReclaimedSKU, currency.ScrapSKU} {
		out[sku] = append([]string(nil), d[sku]...)
	}
	return out
}

// Holdings counts the currency instances.
func (d Dictionary) Holdings() currency.Holdings {
	return currency.CountHoldings(d)
}

// SKUs returns the keys in sorted order.
func (d Dictionary) SKUs() []string {
	out := make([]string, 0, len(d))
	for sku := range d {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// Take removes and returns up to n ids of sku in encounter order.
func (d Dictionary) Take(sku string, n int) []string {
	ids := d[sku]
	if n > len(ids) {
		n = len(ids)
	}
	if n <= 0 {
		return nil
	}
	taken := append([]string(nil), ids[:n]...)
	d[sku] = ids[n:]
	return taken
}
