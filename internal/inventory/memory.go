package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"tf2automatic/internal/pricelist"
)

// ErrNotLoaded is returned for parties whose inventory has never been set.
var ErrNotLoaded = errors.New("inventory not loaded")

// Memory is an inventory fed by the transport layer (or the HTTP API) rather
// than fetched on demand.
type Memory struct {
	mu    sync.RWMutex
	dicts map[string]Dictionary
}

var _ Inventory = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{dicts: make(map[string]Dictionary)}
}

// Set replaces the dictionary of steamID.
func (m *Memory) Set(steamID string, dict Dictionary) {
	m.mu.Lock()
	m.dicts[steamID] = dict.Clone()
	m.mu.Unlock()
}

func (m *Memory) Dictionary(_ context.Context, steamID string, _ bool) (Dictionary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dicts[steamID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, steamID)
	}
	return d.Clone(), nil
}

// Amount counts instances of sku held by steamID.
func (m *Memory) Amount(steamID, sku string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dicts[steamID].Amount(sku)
}

// Unlimited is the capacity reported for items without a stock maximum.
const Unlimited = math.MaxInt32

// PriceSource hands out the current pricelist snapshot.
type PriceSource interface {
	Snapshot() pricelist.Snapshot
}

// Limits derives trade capacity from the pricelist min/max and the bot's stock.
type Limits struct {
	stock func(sku string) int
}

// NewLimits uses stock to count the bot's own instances of a sku.
func NewLimits(stock func(sku string) int) *Limits {
	return &Limits{stock: stock}
}

func (l *Limits) AmountCanTrade(snap pricelist.Snapshot, sku string, buying bool) int {
	entry, ok := snap.Get(sku, true)
	if !ok {
		return 0
	}
	have := l.stock(sku)
	if buying {
		if entry.Max < 0 {
			return Unlimited
		}
		return max(entry.Max-have, 0)
	}
	return max(have-entry.Min, 0)
}
