package currency

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metalOnly() []Denomination { return Denominations(0, false) }

func TestSolve_OvershootOnRefined(t *testing.T) {
	denoms := metalOnly()
	got := Solve(15, denoms, Holdings{RefinedSKU: 2})

	assert.Equal(t, map[string]int{RefinedSKU: 2}, got.Picked)
	assert.Equal(t, -3, got.Change)
	assert.Equal(t, 18, got.Value(denoms))
}

func TestSolve_Exact(t *testing.T) {
	denoms := metalOnly()
	got := Solve(16, denoms, Holdings{RefinedSKU: 1, ReclaimedSKU: 2, ScrapSKU: 3})

	assert.Equal(t, 0, got.Change)
	assert.Equal(t, map[string]int{RefinedSKU: 1, ReclaimedSKU: 2, ScrapSKU: 1}, got.Picked)
}

func TestSolve_InsufficientFunds(t *testing.T) {
	got := Solve(10, metalOnly(), Holdings{RefinedSKU: 1})

	assert.Equal(t, 1, got.Change)
	assert.LessOrEqual(t, got.Picked[RefinedSKU], 1)
}

func TestSolve_TrimDropsLowUnits(t *testing.T) {
	denoms := metalOnly()
	got := Solve(5, denoms, Holdings{ReclaimedSKU: 2, ScrapSKU: 1})

	assert.Equal(t, map[string]int{ReclaimedSKU: 2}, got.Picked)
	assert.Equal(t, -1, got.Change)
}

func TestSolve_PrefersExactOverGreedyOvershoot(t *testing.T) {
	denoms := Denominations(50, true)
	got := Solve(54, denoms, Holdings{KeySKU: 1, RefinedSKU: 6})

	assert.Equal(t, 0, got.Change)
	assert.Equal(t, map[string]int{RefinedSKU: 6}, got.Picked)
}

func TestSolve_UsesKeysFirst(t *testing.T) {
	denoms := Denominations(450, true)
	got := Solve(2*450+12, denoms, Holdings{KeySKU: 3, RefinedSKU: 4, ReclaimedSKU: 2})

	assert.Equal(t, 0, got.Change)
	assert.Equal(t, map[string]int{KeySKU: 2, RefinedSKU: 1, ReclaimedSKU: 1}, got.Picked)
}

func TestSolve_ZeroTarget(t *testing.T) {
	got := Solve(0, metalOnly(), Holdings{RefinedSKU: 3})
	assert.Empty(t, got.Picked)
	assert.Equal(t, 0, got.Change)
}

// bruteExact reports whether target is expressible from h.
func bruteExact(target int, denoms []Denomination, h Holdings) bool {
	var walk func(i, rem int) bool
	walk = func(i, rem int) bool {
		if rem == 0 {
			return true
		}
		if i == len(denoms) || rem < 0 {
			return false
		}
		for n := 0; n <= h[denoms[i].SKU]; n++ {
			if walk(i+1, rem-n*denoms[i].Value) {
				return true
			}
		}
		return false
	}
	return walk(0, target)
}

func TestSolve_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 400; i++ {
		keyRate := 40 + rng.Intn(30)
		denoms := Denominations(keyRate, rng.Intn(2) == 0)
		h := Holdings{
			KeySKU:       rng.Intn(3),
			RefinedSKU:   rng.Intn(6),
			ReclaimedSKU: rng.Intn(4),
			ScrapSKU:     rng.Intn(4),
		}
		target := 1 + rng.Intn(150)

		got := Solve(target, denoms, h)
		again := Solve(target, denoms, h)
		require.Equal(t, got, again, "solver must be deterministic")

		for _, d := range denoms {
			require.LessOrEqual(t, got.Picked[d.SKU], h[d.SKU], "picked more %s than available", d.SKU)
			require.GreaterOrEqual(t, got.Picked[d.SKU], 0)
		}
		require.Equal(t, target-got.Value(denoms), got.Change)

		reachable := Reachable(denoms, h)
		if target > reachable {
			require.Positive(t, got.Change, "target %d above reachable %d", target, reachable)
			continue
		}
		require.LessOrEqual(t, got.Change, 0)
		if bruteExact(target, denoms, h) {
			require.Zero(t, got.Change, "target %d is exactly expressible from %v", target, h)
		}
	}
}

func TestAmountCanAfford(t *testing.T) {
	denoms := Denominations(450, true)
	h := Holdings{KeySKU: 1, RefinedSKU: 5}

	assert.Equal(t, 4, AmountCanAfford(112, denoms, h))
	assert.Equal(t, 0, AmountCanAfford(1000, denoms, h))
	assert.Equal(t, 0, AmountCanAfford(0, denoms, h))
	assert.Equal(t, 5, AmountCanAfford(9, metalOnly(), h))
}
