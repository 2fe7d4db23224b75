package currency

// Denomination is one currency unit and its scrap value.
type Denomination struct {
	SKU   string
	Value int
}

// Denominations lists currencies by descending value. Keys lead the list only
// when useKeys is set and the rate is known.
func Denominations(keyRate int, useKeys bool) []Denomination {
	out := make([]Denomination, 0, 4)
	if useKeys && keyRate > 0 {
		out = append(out, Denomination{SKU: KeySKU, Value: keyRate})
	}
	return append(out,
		Denomination{SKU: RefinedSKU, Value: RefinedValue},
		Denomination{SKU: ReclaimedSKU, Value: ReclaimedValue},
		Denomination{SKU: ScrapSKU, Value: ScrapValue},
	)
}

// Holdings counts the available units per currency sku.
type Holdings map[string]int

// CountHoldings turns a sku -> instance ids dictionary into currency counts.
func CountHoldings(dict map[string][]string) Holdings {
	out := make(Holdings, 4)
	for _, sku := range []string{KeySKU, RefinedSKU, ReclaimedSKU, ScrapSKU} {
		out[sku] = len(dict[sku])
	}
	return out
}

func (h Holdings) available(sku string) int {
	if n := h[sku]; n > 0 {
		return n
	}
	return 0
}

// Reachable is the total scrap value of the holdings across denoms.
func Reachable(denoms []Denomination, h Holdings) int {
	total := 0
	for _, d := range denoms {
		if d.Value > 0 {
			total += d.Value * h.available(d.SKU)
		}
	}
	return total
}

// Solution is the outcome of Solve. Change == 0 is an exact match, Change < 0
// means the counterpart owes |Change| scrap back, Change > 0 means the target
// cannot be met.
type Solution struct {
	Picked map[string]int
	Change int
}

// Value sums the picked units at their denomination values.
func (s Solution) Value(denoms []Denomination) int {
	total := 0
	for _, d := range denoms {
		total += s.Picked[d.SKU] * d.Value
	}
	return total
}

// Solve picks currency units from available to pay target scrap. denoms must be
// ordered by descending value.
//
// A forward pass takes floor(remaining/value) of each denomination. If value is
// still owed, reverse passes from the lowest denomination round up into unused
// units and may overshoot. Overshoot is then trimmed by dropping whole units
// from the lowest denomination upwards. When that does not land exactly, an
// exact combination is searched for and preferred if one exists.
func Solve(target int, denoms []Denomination, available Holdings) Solution {
	picked := make(map[string]int, len(denoms))
	if target <= 0 {
		return Solution{Picked: picked, Change: target}
	}
	remaining := target

	for _, d := range denoms {
		if d.Value <= 0 {
			continue
		}
		take := min(remaining/d.Value, available.available(d.SKU))
		if take > 0 {
			picked[d.SKU] += take
			remaining -= take * d.Value
		}
	}

	for remaining > 0 {
		progress := false
		for i := len(denoms) - 1; i >= 0 && remaining > 0; i-- {
			d := denoms[i]
			free := available.available(d.SKU) - picked[d.SKU]
			if d.Value <= 0 || free <= 0 {
				continue
			}
			take := min(ceilDiv(remaining, d.Value), free)
			picked[d.SKU] += take
			remaining -= take * d.Value
			progress = true
		}
		if !progress {
			break
		}
	}

	if remaining < 0 {
		remaining = trim(remaining, denoms, picked)
		if remaining != 0 {
			exact := make(map[string]int, len(denoms))
			if exactFit(target, denoms, available, exact) {
				return Solution{Picked: exact, Change: 0}
			}
		}
	}

	for sku, n := range picked {
		if n == 0 {
			delete(picked, sku)
		}
	}
	return Solution{Picked: picked, Change: remaining}
}

// trim drops whole units, lowest denomination first, while remaining stays <= 0.
func trim(remaining int, denoms []Denomination, picked map[string]int) int {
	for i := len(denoms) - 1; i >= 0 && remaining < 0; i-- {
		d := denoms[i]
		if d.Value <= 0 {
			continue
		}
		drop := min(-remaining/d.Value, picked[d.SKU])
		if drop > 0 {
			picked[d.SKU] -= drop
			remaining += drop * d.Value
		}
	}
	return remaining
}

// exactFit searches, highest denomination first, for counts summing exactly to
// rem. Counts are bounded by availability and by what the lower denominations
// can still cover.
func exactFit(rem int, denoms []Denomination, available Holdings, out map[string]int) bool {
	if rem == 0 {
		return true
	}
	if len(denoms) == 0 {
		return false
	}
	d, rest := denoms[0], denoms[1:]
	if d.Value <= 0 {
		return exactFit(rem, rest, available, out)
	}
	hi := min(rem/d.Value, available.available(d.SKU))
	lo := 0
	if over := rem - Reachable(rest, available); over > 0 {
		lo = ceilDiv(over, d.Value)
	}
	for n := hi; n >= lo; n-- {
		if exactFit(rem-n*d.Value, rest, available, out) {
			if n > 0 {
				out[d.SKU] = n
			}
			return true
		}
	}
	return false
}

// AmountCanAfford returns how many units costing unitValue scrap each can be
// paid for from available.
func AmountCanAfford(unitValue int, denoms []Denomination, available Holdings) int {
	if unitValue <= 0 {
		return 0
	}
	n := Reachable(denoms, available) / unitValue
	for n > 0 && Solve(n*unitValue, denoms, available).Change > 0 {
		n--
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
