package inventory

import (
	"context"
	"testing"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/pricelist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type asset struct{ id, sku string }

func TestCreateDictionary(t *testing.T) {
	items := []asset{{"1", "263;6"}, {"2", currency.RefinedSKU}, {"3", "263;6"}, {"4", ""}}
	dict := CreateDictionary(items, func(a asset) string { return a.sku }, func(a asset) string { return a.id })

	assert.Equal(t, Dictionary{"263;6": {"1", "3"}, currency.RefinedSKU: {"2"}}, dict)
	assert.Equal(t, []string{"263;6", currency.RefinedSKU}, dict.SKUs())
	assert.Equal(t, currency.Holdings{currency.KeySKU: 0, currency.RefinedSKU: 1, currency.ReclaimedSKU: 0, currency.ScrapSKU: 0}, dict.Holdings())
}

func TestDictionaryTake(t *testing.T) {
	dict := Dictionary{"a": {"1", "2", "3"}}
	assert.Equal(t, []string{"1", "2"}, dict.Take("a", 2))
	assert.Equal(t, []string{"3"}, dict.Take("a", 5))
	assert.Nil(t, dict.Take("a", 1))
	assert.Nil(t, dict.Take("missing", 1))
}

func TestMemoryInventory(t *testing.T) {
	mem := NewMemory()
	_, err := mem.Dictionary(context.Background(), "bot", false)
	assert.ErrorIs(t, err, ErrNotLoaded)

	mem.Set("bot", Dictionary{"263;6": {"1"}})
	d, err := mem.Dictionary(context.Background(), "bot", true)
	require.NoError(t, err)
	d.Take("263;6", 1)
	assert.Equal(t, 1, mem.Amount("bot", "263;6"), "callers receive a copy")
}

func TestLimits(t *testing.T) {
	snap := pricelist.NewSnapshot([]pricelist.Entry{
		{SKU: "263;6", Enabled: true, Min: 1, Max: 5},
		{SKU: "30469;6", Enabled: true, Max: -1},
		{SKU: "off;6", Enabled: false, Max: 5},
	}, currency.KeyPrices{})
	stock := map[string]int{"263;6": 3, "30469;6": 7}
	lim := NewLimits(func(sku string) int { return stock[sku] })

	assert.Equal(t, 2, lim.AmountCanTrade(snap, "263;6", true))
	assert.Equal(t, 2, lim.AmountCanTrade(snap, "263;6", false))
	assert.Equal(t, Unlimited, lim.AmountCanTrade(snap, "30469;6", true))
	assert.Equal(t, 7, lim.AmountCanTrade(snap, "30469;6", false))
	assert.Zero(t, lim.AmountCanTrade(snap, "off;6", true))
	assert.Zero(t, lim.AmountCanTrade(snap, "unknown", false))

	stock["263;6"] = 9
	assert.Zero(t, lim.AmountCanTrade(snap, "263;6", true), "never negative")
}

func TestLimitsUseGivenSnapshot(t *testing.T) {
	roomy := pricelist.NewSnapshot([]pricelist.Entry{{SKU: "263;6", Enabled: true, Max: 5}}, currency.KeyPrices{})
	full := pricelist.NewSnapshot([]pricelist.Entry{{SKU: "263;6", Enabled: true, Max: 0}}, currency.KeyPrices{})
	lim := NewLimits(func(string) int { return 0 })

	assert.Equal(t, 5, lim.AmountCanTrade(roomy, "263;6", true))
	assert.Zero(t, lim.AmountCanTrade(full, "263;6", true))
}
