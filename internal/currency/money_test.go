package currency

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefinedConversion(t *testing.T) {
	assert.Equal(t, "1.33", ToRefined(12).String())
	assert.Equal(t, "1.22", ToRefined(11).String())
	assert.Equal(t, "0.11", ToRefined(1).String())
	assert.Equal(t, 12, ToScrap(decimal.RequireFromString("1.33")))
	assert.Equal(t, 9, ToScrap(decimal.NewFromInt(1)))
	assert.Equal(t, 3, ToScrap(decimal.RequireFromString("0.33")))
}

func TestMoneyValueAndString(t *testing.T) {
	m := NewMoney(2, decimal.RequireFromString("1.33"))
	assert.Equal(t, 2*450+12, m.Value(450))
	assert.Equal(t, "2 keys, 1.33 ref", m.String())
	assert.Equal(t, "1 key", Money{Keys: 1}.String())
	assert.Equal(t, "0 keys, 0 ref", Money{}.String())
	assert.Equal(t, Money{Keys: 2, Scrap: 24}, m.Scale(2))
}

func TestFromValue(t *testing.T) {
	assert.Equal(t, Money{Keys: 2, Scrap: 12}, FromValue(912, 450))
	assert.Equal(t, Money{Scrap: 912}, FromValue(912, 0))
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(NewMoney(1, decimal.RequireFromString("0.55")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"keys":1,"metal":0.55}`, string(raw))

	var back Money
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, Money{Keys: 1, Scrap: 5}, back)
}

func TestKeyPrices(t *testing.T) {
	k := KeyPrices{Buy: Money{Scrap: 450}, Sell: Money{Scrap: 459}}
	assert.Equal(t, 450, k.Rate(true))
	assert.Equal(t, 459, k.Rate(false))
}
