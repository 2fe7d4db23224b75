package valuation

import (
	"testing"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/pricelist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(entries ...pricelist.Entry) pricelist.Snapshot {
	return pricelist.NewSnapshot(entries, currency.KeyPrices{
		Buy:  currency.Money{Scrap: 450},
		Sell: currency.Money{Scrap: 459},
	})
}

func TestAccumulatorMetal(t *testing.T) {
	acc := NewAccumulator(snapshot())
	for _, sku := range []string{currency.RefinedSKU, currency.ReclaimedSKU, currency.ScrapSKU} {
		assert.Equal(t, KindMetal, acc.Mark(sku, true))
	}
	acc.Add(currency.RefinedSKU, 2, true)
	acc.Add(currency.ReclaimedSKU, 1, true)
	acc.Add(currency.ScrapSKU, 4, true)

	ex := acc.Exchange()
	assert.Equal(t, 25, ex.Their.Value)
	assert.Equal(t, 25, ex.Their.Scrap)
	assert.Equal(t, Contains{Metal: true}, ex.Their.Contains)
	assert.Zero(t, ex.Our.Value)
}

func TestAccumulatorItemsUseDirectionalPrice(t *testing.T) {
	hat := pricelist.Entry{
		SKU: "263;6", Enabled: true, Intent: pricelist.IntentBank,
		Buy:  currency.Money{Keys: 1, Scrap: 9},
		Sell: currency.Money{Keys: 1, Scrap: 18},
	}
	acc := NewAccumulator(snapshot(hat))

	_, ok := acc.Add("263;6", 2, true)
	require.True(t, ok)
	_, ok = acc.Add("263;6", 1, false)
	require.True(t, ok)

	ex := acc.Exchange()
	assert.Equal(t, 2*(450+9), ex.Their.Value)
	assert.Equal(t, 2, ex.Their.Keys)
	assert.Equal(t, 18, ex.Their.Scrap)
	assert.Equal(t, 459+18, ex.Our.Value)
	assert.Equal(t, currency.Money{Keys: 1, Scrap: 18}, ex.Our.Money())
}

func TestAccumulatorKeys(t *testing.T) {
	t.Run("unpriced keys count at the key rate", func(t *testing.T) {
		acc := NewAccumulator(snapshot())
		_, ok := acc.Add(currency.KeySKU, 2, false)
		assert.False(t, ok)
		ex := acc.Exchange()
		assert.Equal(t, 918, ex.Our.Value)
		assert.Equal(t, 2, ex.Our.Keys)
	})
	t.Run("priced keys use the entry metal", func(t *testing.T) {
		key := pricelist.Entry{
			SKU: currency.KeySKU, Enabled: true, Intent: pricelist.IntentBank,
			Buy: currency.Money{Scrap: 448}, Sell: currency.Money{Scrap: 452},
		}
		acc := NewAccumulator(snapshot(key))
		_, ok := acc.Add(currency.KeySKU, 1, true)
		assert.True(t, ok)
		ex := acc.Exchange()
		assert.Equal(t, 448, ex.Their.Value)
		assert.Zero(t, ex.Their.Keys)
	})
}

func TestUnknownItemAddsNothing(t *testing.T) {
	acc := NewAccumulator(snapshot())
	assert.Equal(t, KindItem, acc.Mark("999;6", false))
	_, ok := acc.Add("999;6", 1, false)
	assert.False(t, ok)
	ex := acc.Exchange()
	assert.Zero(t, ex.Our.Value)
	assert.Equal(t, Contains{Items: true}, ex.Contains())
}
