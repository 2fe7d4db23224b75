// Package evaluator classifies inbound trade offers into accept or decline
// decisions.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/pricelist"
	"tf2automatic/internal/valuation"
)

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

type Reason string

const (
	ReasonInvalidItems   Reason = "INVALID_ITEMS"
	ReasonGift           Reason = "GIFT"
	ReasonAdmin          Reason = "ADMIN"
	ReasonOnlyMetal      Reason = "ONLY_METAL"
	ReasonNotTradingKeys Reason = "NOT_TRADING_KEYS"
	ReasonOverstocked    Reason = "OVERSTOCKED"
	ReasonInvalidValue   Reason = "INVALID_VALUE"
	ReasonEscrow         Reason = "ESCROW"
	ReasonBanned         Reason = "BANNED"
	ReasonValidOffer     Reason = "VALID_OFFER"
)

// ErrIndeterminate is returned when a remote check failed and no decision was
// made. The offer should be left for a retry.
var ErrIndeterminate = errors.New("offer evaluation indeterminate")

// EscrowChecker reports whether accepting a trade with partner would hold it in escrow.
type EscrowChecker interface {
	HasEscrow(ctx context.Context, partner string) (bool, error)
}

// BanChecker reports whether partner is banned in a trading community.
type BanChecker interface {
	IsBanned(ctx context.Context, partner string) (bool, error)
}

// Decision is the outcome for one offer.
type Decision struct {
	OfferID   string             `json:"offer_id"`
	Partner   string             `json:"partner"`
	Action    Action             `json:"action"`
	Reason    Reason             `json:"reason"`
	Meta      offer.Meta         `json:"meta"`
	Exchange  valuation.Exchange `json:"exchange"`
	Version   int64              `json:"pricelist_version"`
	DecidedAt time.Time          `json:"decided_at"`
}

func (d Decision) Accepted() bool {
	return d.Action == ActionAccept
}

type Config struct {
	Admins       []string
	GiftPhrases  []string
	AcceptEscrow bool
}

// Evaluator runs the decision pipeline. It holds no per-offer state and may be
// used from many goroutines.
type Evaluator struct {
	admins       map[string]bool
	gifts        map[string]bool
	acceptEscrow bool

	prices   inventory.PriceSource
	capacity inventory.Capacity
	escrow   EscrowChecker
	bans     BanChecker
	resolve  offer.Resolver
	now      func() time.Time
}

func New(cfg Config, prices inventory.PriceSource, capacity inventory.Capacity, escrow EscrowChecker, bans BanChecker, resolve offer.Resolver) *Evaluator {
	e := &Evaluator{
		admins:       make(map[string]bool, len(cfg.Admins)),
		gifts:        make(map[string]bool, len(cfg.GiftPhrases)),
		acceptEscrow: cfg.AcceptEscrow,
		prices:       prices,
		capacity:     capacity,
		escrow:       escrow,
		bans:         bans,
		resolve:      resolve,
		now:          time.Now,
	}
	for _, id := range cfg.Admins {
		e.admins[strings.TrimSpace(id)] = true
	}
	for _, p := range cfg.GiftPhrases {
		e.gifts[strings.ToLower(strings.TrimSpace(p))] = true
	}
	if e.resolve == nil {
		e.resolve = offer.HintResolver
	}
	return e
}

// IsAdmin reports whether partner is a configured administrator.
func (e *Evaluator) IsAdmin(partner string) bool {
	return e.admins[partner]
}

// evaluation is the per-offer working state.
type evaluation struct {
	o     offer.Offer
	snap  pricelist.Snapshot
	acc   *valuation.Accumulator
	dict  offer.Dict
	diff  offer.Diff
	value *offer.Value
	// skus per side, sorted.
	our, their []string
}

// Evaluate decides o. On a remote check failure it returns an error wrapping
// ErrIndeterminate and no decision.
func (e *Evaluator) Evaluate(ctx context.Context, o offer.Offer) (Decision, error) {
	o.Log("info", "is being processed...")

	ev := &evaluation{o: o, snap: e.prices.Snapshot(), dict: offer.NewDict()}
	ev.acc = valuation.NewAccumulator(ev.snap)

	if !ev.classify(e.resolve) {
		o.Log("info", "contains items not from TF2, declining...")
		return e.finish(ev, ActionDecline, ReasonInvalidItems), nil
	}
	ev.diff = ev.dict.Diff()

	give, receive := len(o.ItemsToGive()), len(o.ItemsToReceive())
	if give == 0 && e.gifts[strings.ToLower(strings.TrimSpace(o.Message()))] {
		o.Log("info", "is a gift offer, accepting. Summary:\n"+o.Summarize())
		return e.finish(ev, ActionAccept, ReasonGift), nil
	}
	if give == 0 || receive == 0 {
		o.Log("info", "is a gift offer, declining...")
		return e.finish(ev, ActionDecline, ReasonGift), nil
	}

	if e.IsAdmin(o.Partner()) {
		o.Log("info", "is from an admin, accepting. Summary:\n"+o.Summarize())
		return e.finish(ev, ActionAccept, ReasonAdmin), nil
	}

	if reason, ok := e.valueItems(ev); !ok {
		return e.finish(ev, ActionDecline, reason), nil
	}

	ex := ev.acc.Exchange()
	value := offer.NewValue(ex.Our.Money(), ex.Their.Money(), ev.acc.KeyPrices())
	ev.value = &value

	contains := ex.Contains()
	if contains.Metal && !contains.Keys && !contains.Items {
		o.Log("info", "only contains metal, declining...")
		return e.finish(ev, ActionDecline, ReasonOnlyMetal), nil
	}
	if contains.Keys && !contains.Items {
		if reason, ok := e.checkKeys(ev, ex); !ok {
			return e.finish(ev, ActionDecline, reason), nil
		}
	}

	if ex.Our.Value > ex.Their.Value {
		o.Log("info", "is not offering enough, declining...")
		return e.finish(ev, ActionDecline, ReasonInvalidValue), nil
	}

	if !e.acceptEscrow {
		o.Log("info", "checking escrow...")
		held, err := e.escrow.HasEscrow(ctx, o.Partner())
		if err != nil {
			o.Log("warn", "failed to check escrow: "+err.Error())
			return Decision{}, fmt.Errorf("%w: escrow check: %w", ErrIndeterminate, err)
		}
		if held {
			o.Log("info", "would be held if accepted, declining...")
			return e.finish(ev, ActionDecline, ReasonEscrow), nil
		}
	}

	o.Log("info", "checking bans...")
	banned, err := e.bans.IsBanned(ctx, o.Partner())
	if err != nil {
		o.Log("warn", "failed to check bans: "+err.Error())
		return Decision{}, fmt.Errorf("%w: ban check: %w", ErrIndeterminate, err)
	}
	if banned {
		o.Log("info", "partner is banned in one or more communities, declining...")
		return e.finish(ev, ActionDecline, ReasonBanned), nil
	}

	o.Log("trade", "accepting. Summary:\n"+o.Summarize())
	return e.finish(ev, ActionAccept, ReasonValidOffer), nil
}

// classify resolves every item to a sku, fills the dictionaries and marks what
// each side contains. It returns false on the first unrecognized item.
func (ev *evaluation) classify(resolve offer.Resolver) bool {
	sides := []struct {
		items  []offer.Item
		buying bool
	}{
		{ev.o.ItemsToGive(), false},
		{ev.o.ItemsToReceive(), true},
	}
	for _, side := range sides {
		for _, it := range side.items {
			sku, ok := resolve(it)
			if !ok {
				return false
			}
			ev.acc.Mark(sku, side.buying)
			ev.dict.Add(sku, 1, !side.buying)
		}
	}
	ev.our = sortedKeys(ev.dict.Our)
	ev.their = sortedKeys(ev.dict.Their)
	return true
}

// valueItems sums both sides and applies the per-item policy.
func (e *Evaluator) valueItems(ev *evaluation) (Reason, bool) {
	for _, buying := range []bool{false, true} {
		skus, counts := ev.our, ev.dict.Our
		if buying {
			skus, counts = ev.their, ev.dict.Their
		}
		for _, sku := range skus {
			entry, priced := ev.acc.Add(sku, counts[sku], buying)
			if valuation.KindOf(sku) != valuation.KindItem {
				continue
			}
			if !priced || !entry.Intent.Allows(buying) {
				ev.o.Log("info", "contains an item we are not trading ("+sku+"), declining...")
				return ReasonInvalidItems, false
			}
			if !e.withinCapacity(ev.snap, sku, ev.diff[sku]) {
				ev.o.Log("info", "is taking / offering too many, declining...")
				return ReasonOverstocked, false
			}
		}
	}
	return "", true
}

// withinCapacity checks the net stock change against the capacity in the
// direction of that change.
func (e *Evaluator) withinCapacity(snap pricelist.Snapshot, sku string, diff int) bool {
	if diff == 0 {
		return true
	}
	buying := diff > 0
	amount := diff
	if !buying {
		amount = -diff
	}
	return e.capacity.AmountCanTrade(snap, sku, buying)-amount >= 0
}

func (e *Evaluator) checkKeys(ev *evaluation, ex valuation.Exchange) (Reason, bool) {
	entry, ok := ev.snap.Get(currency.KeySKU, true)
	if !ok {
		ev.o.Log("info", "we are not trading keys, declining...")
		return ReasonNotTradingKeys, false
	}
	if ex.Our.Contains.Keys && !entry.Intent.Allows(false) {
		ev.o.Log("info", "we are not selling keys, declining...")
		return ReasonNotTradingKeys, false
	}
	if ex.Their.Contains.Keys && !entry.Intent.Allows(true) {
		ev.o.Log("info", "we are not buying keys, declining...")
		return ReasonNotTradingKeys, false
	}
	if !e.withinCapacity(ev.snap, currency.KeySKU, ev.diff[currency.KeySKU]) {
		ev.o.Log("info", "is taking / offering too many keys, declining...")
		return ReasonOverstocked, false
	}
	return "", true
}

func (e *Evaluator) finish(ev *evaluation, action Action, reason Reason) Decision {
	meta := offer.Meta{Dict: ev.dict, Diff: ev.diff, Value: ev.value}
	if meta.Diff == nil {
		meta.Diff = ev.dict.Diff()
	}
	meta.Apply(ev.o)
	ev.o.SetData(offer.DataAction, string(action))
	return Decision{
		OfferID:   ev.o.ID(),
		Partner:   ev.o.Partner(),
		Action:    action,
		Reason:    reason,
		Meta:      meta,
		Exchange:  ev.acc.Exchange(),
		Version:   ev.snap.Version,
		DecidedAt: e.now(),
	}
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
