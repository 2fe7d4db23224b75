package app

import (
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/logger"
)

// stockLogger reports how much of an item the bot can still trade after its
// stock changed. It stands in for a listing manager.
type stockLogger struct {
	prices inventory.PriceSource
	limits inventory.Capacity
	stock  func(sku string) int
}

func newStockLogger(prices inventory.PriceSource, limits inventory.Capacity, stock func(string) int) *stockLogger {
	return &stockLogger{prices: prices, limits: limits, stock: stock}
}

func (s *stockLogger) Recheck(sku string) {
	snap := s.prices.Snapshot()
	entry, ok := snap.Get(sku, false)
	if !ok {
		logger.Debugf("Recheck %s: not priced", sku)
		return
	}
	logger.Infof("Recheck %s (%s): stock=%d buy=%d sell=%d",
		entry.Name, sku, s.stock(sku), s.limits.AmountCanTrade(snap, sku, true), s.limits.AmountCanTrade(snap, sku, false))
}
