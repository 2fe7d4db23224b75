package builder

import (
	"context"
	"strings"
	"time"

	"tf2automatic/internal/cart"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/pkg/text"
)

// Checkout re-validates the partner's cart against live inventories, builds the
// offer and sends it. Lines that can no longer be filled are shrunk or dropped
// and reported. The cart is discarded once the offer is sent or when nothing
// tradable is left in it.
func (b *Builder) Checkout(ctx context.Context, partner string) (Result, error) {
	if b.transport == nil {
		return Result{}, ErrNoTransport
	}
	start := b.now()
	var res Result
	err := b.carts.Modify(partner, func(c *cart.Cart, exists bool) error {
		if !exists {
			res.Message = MsgCartEmpty
			return nil
		}
		return b.checkout(ctx, partner, c, &res, start)
	})
	return res, err
}

type altered struct {
	our, their []string
}

func (a *altered) add(name string, side cart.Side) {
	if side == cart.Our {
		a.our = append(a.our, name)
		return
	}
	a.their = append(a.their, name)
}

func (a *altered) names(side cart.Side) []string {
	if side == cart.Our {
		return a.our
	}
	return a.their
}

// shrink lowers every line of side to what dict holds.
func shrink(c *cart.Cart, side cart.Side, dict inventory.Dictionary, alt *altered) {
	for _, name := range c.Names(side) {
		have := dict.Amount(c.SKU(name, side))
		inCart := c.Amount(name, side)
		if inCart > have {
			c.Remove(name, inCart-have, side)
			alt.add(name, side)
		}
	}
}

func (b *Builder) checkout(ctx context.Context, partner string, c *cart.Cart, res *Result, start time.Time) error {
	var alt altered

	ourDict, err := b.inv.Dictionary(ctx, b.cfg.BotID, true)
	if err != nil {
		logger.Warnf("Checkout for %s: load own inventory: %v", partner, err)
		res.Message = MsgInventoryDown
		return nil
	}
	shrink(c, cart.Our, ourDict, &alt)
	if c.IsEmpty() {
		res.Message = alteredMessage(c, alt)
		return nil
	}

	o := b.transport.Create(partner)
	o.SetData(offer.DataPartner, partner)
	dict := offer.NewDict()

	for _, name := range c.Names(cart.Our) {
		sku, amount := c.SKU(name, cart.Our), c.Amount(name, cart.Our)
		for _, id := range ourDict.Take(sku, amount) {
			o.AddMyItem(offer.NewItem(id).WithSKU(sku))
		}
		dict.Add(sku, amount, true)
	}

	// Only the bot's items are requested: the partner inventory is not needed.
	if !c.SideEmpty(cart.Their) {
		theirDict, err := b.inv.Dictionary(ctx, partner, false)
		if err != nil {
			logger.Warnf("Checkout for %s: load partner inventory: %v", partner, err)
			res.Message = MsgInventoryDown
			return nil
		}
		shrink(c, cart.Their, theirDict, &alt)
		for _, name := range c.Names(cart.Their) {
			sku, amount := c.SKU(name, cart.Their), c.Amount(name, cart.Their)
			for _, id := range theirDict.Take(sku, amount) {
				o.AddTheirItem(offer.NewItem(id).WithSKU(sku))
			}
			dict.Add(sku, amount, false)
		}
	}

	msg := alteredMessage(c, alt)
	if c.IsEmpty() {
		res.Message = msg
		return nil
	}

	meta := offer.Meta{Dict: dict, Diff: dict.Diff()}
	meta.Apply(o)
	res.Meta = &meta
	res.Offer = o

	if msg == "" {
		msg = MsgPleaseWait
	}
	b.chat(res, partner, msg)

	if err := b.send(ctx, o, res, start); err != nil {
		return err
	}
	if res.Sent {
		c.Clear()
	}
	return nil
}

// alteredMessage describes the lines that were shrunk (c holds what is left) or
// dropped, grouped by side: "I don't have any As or Bs" then "I only have 2 Cs and 1 D".
func alteredMessage(c *cart.Cart, alt altered) string {
	prefixes := map[cart.Side][2]string{
		cart.Our:   {"I don't have any ", "I only have "},
		cart.Their: {"You don't have any ", "You only have "},
	}
	var lines []string
	for _, side := range []cart.Side{cart.Our, cart.Their} {
		var none, some []string
		for _, name := range alt.names(side) {
			if n := c.Amount(name, side); n > 0 {
				some = append(some, text.Count(name, n))
			} else {
				none = append(none, text.Plural(name))
			}
		}
		if len(none) > 0 {
			lines = append(lines, prefixes[side][0]+text.JoinList(none, "or"))
		}
		if len(some) > 0 {
			lines = append(lines, prefixes[side][1]+text.JoinList(some, "and"))
		}
	}
	return strings.Join(lines, "\n")
}
