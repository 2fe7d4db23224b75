// Package builder turns direct buy/sell requests and staged carts into
// concrete trade offers.
package builder

import (
	"context"
	"errors"
	"time"

	"tf2automatic/internal/cart"
	"tf2automatic/internal/evaluator"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/offer"
)

// Canned replies shared by both construction paths.
const (
	MsgGenericFailure = "Something went wrong constructing the offer, try again later"
	MsgCartEmpty      = "Failed to send offer, your cart is empty"
	MsgInventoryDown  = "Failed to load inventories, Steam might be down"
	MsgPleaseWait     = "Please wait while I process your offer..."
	MsgEscrow         = "The offer would be held by escrow"
	MsgBanned         = "You are banned in one or more communities"

	DefaultOfferMessage = "Powered by TF2 Automatic"
)

// ErrNoTransport is returned when offers cannot be sent because no transport is configured.
var ErrNoTransport = errors.New("no trade offer transport configured")

// Messenger delivers chat messages to a partner.
type Messenger interface {
	ChatMessage(partner, message string)
}

// Result is the outcome of one construction. Message is the final reply for the
// partner (empty when the offer was sent without remarks); Replies holds every
// chat message sent along the way.
type Result struct {
	Offer   offer.Offer `json:"-"`
	OfferID string      `json:"offer_id,omitempty"`
	State   offer.State `json:"state"`
	Sent    bool        `json:"sent"`
	Message string      `json:"message,omitempty"`
	Replies []string    `json:"replies,omitempty"`
	Meta    *offer.Meta `json:"meta,omitempty"`
}

type Config struct {
	BotID        string
	OfferMessage string
	AcceptEscrow bool
}

// Builder constructs and sends offers. Transport may be nil, in which case every
// construction fails with ErrNoTransport.
type Builder struct {
	cfg       Config
	prices    inventory.PriceSource
	inv       inventory.Inventory
	capacity  inventory.Capacity
	carts     *cart.Store
	transport offer.Transport
	escrow    evaluator.EscrowChecker
	bans      evaluator.BanChecker
	messenger Messenger
	now       func() time.Time
}

type Deps struct {
	Prices    inventory.PriceSource
	Inventory inventory.Inventory
	Capacity  inventory.Capacity
	Carts     *cart.Store
	Transport offer.Transport
	Escrow    evaluator.EscrowChecker
	Bans      evaluator.BanChecker
	Messenger Messenger
}

func New(cfg Config, deps Deps) *Builder {
	if cfg.OfferMessage == "" {
		cfg.OfferMessage = DefaultOfferMessage
	}
	return &Builder{
		cfg:       cfg,
		prices:    deps.Prices,
		inv:       deps.Inventory,
		capacity:  deps.Capacity,
		carts:     deps.Carts,
		transport: deps.Transport,
		escrow:    deps.Escrow,
		bans:      deps.Bans,
		messenger: deps.Messenger,
		now:       time.Now,
	}
}

// HasTransport reports whether offers can be sent.
func (b *Builder) HasTransport() bool {
	return b.transport != nil
}

func (b *Builder) chat(res *Result, partner, msg string) {
	res.Replies = append(res.Replies, msg)
	if b.messenger != nil {
		b.messenger.ChatMessage(partner, msg)
	}
}

// send stamps and sends o, translating transport failures into replies.
func (b *Builder) send(ctx context.Context, o offer.Offer, res *Result, start time.Time) error {
	offer.MarkHandled(o, start)
	o.SetMessage(b.cfg.OfferMessage)

	state, err := b.transport.Send(ctx, o)
	if err != nil {
		reply, ferr := offer.ClassifySendError(err)
		if ferr != nil {
			return ferr
		}
		o.Log("warn", "failed to send: "+err.Error())
		res.Message = reply
		return nil
	}
	res.Sent = true
	res.State = state
	res.OfferID = o.ID()
	o.Log("info", "sent, state "+state.String())
	return nil
}

func (b *Builder) checkPartner(ctx context.Context, o offer.Offer, partner string) (string, error) {
	if !b.cfg.AcceptEscrow && b.escrow != nil {
		o.Log("info", "checking escrow...")
		held, err := b.escrow.HasEscrow(ctx, partner)
		if err != nil {
			return "", err
		}
		if held {
			o.Log("info", "would be held if accepted, declining...")
			return MsgEscrow, nil
		}
	}
	if b.bans != nil {
		o.Log("info", "checking bans...")
		banned, err := b.bans.IsBanned(ctx, partner)
		if err != nil {
			return "", err
		}
		if banned {
			o.Log("info", "partner is banned in one or more communities, declining...")
			return MsgBanned, nil
		}
	}
	return "", nil
}
