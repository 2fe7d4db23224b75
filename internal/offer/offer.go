// Package offer is the contract between the trade engine and the trade-offer
// transport: offer objects, their lifecycle states and the metadata the engine
// attaches to them.
package offer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tf2automatic/internal/logger"
)

// TF2 item location on Steam.
const (
	AppID     = 440
	ContextID = "2"
)

// Item is one item instance placed in an offer. SKU is a resolver hint the
// transport may fill in; it is not sent to Steam.
type Item struct {
	AssetID   string `json:"assetid"`
	AppID     int    `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    int    `json:"amount"`
	SKU       string `json:"sku,omitempty"`
}

// NewItem places one TF2 asset.
func NewItem(assetID string) Item {
	return Item{AssetID: assetID, AppID: AppID, ContextID: ContextID, Amount: 1}
}

// State follows Steam's ETradeOfferState numbering.
type State int

const (
	StateInvalid State = iota + 1
	StateActive
	StateAccepted
	StateCountered
	StateExpired
	StateCanceled
	StateDeclined
	StateInvalidItems
	StateCreatedNeedsConfirmation
	StateCanceledBySecondFactor
	StateInEscrow
)

// StateCreated is an offer that has been built but not sent yet.
const StateCreated State = 0

var stateNames = map[State]string{
	StateCreated:                  "Created",
	StateInvalid:                  "Invalid",
	StateActive:                   "Active",
	StateAccepted:                 "Accepted",
	StateCountered:                "Countered",
	StateExpired:                  "Expired",
	StateCanceled:                 "Canceled",
	StateDeclined:                 "Declined",
	StateInvalidItems:             "InvalidItems",
	StateCreatedNeedsConfirmation: "CreatedNeedsConfirmation",
	StateCanceledBySecondFactor:   "CanceledBySecondFactor",
	StateInEscrow:                 "InEscrow",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState accepts the names produced by String.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if strings.EqualFold(n, name) {
			return s, true
		}
	}
	return 0, false
}

// Offer is a trade offer owned by the transport.
type Offer interface {
	ID() string
	Partner() string
	Message() string
	SetMessage(msg string)
	IsOurOffer() bool
	State() State

	ItemsToGive() []Item
	ItemsToReceive() []Item
	// AddMyItem and AddTheirItem return false when the asset is already in the offer.
	AddMyItem(it Item) bool
	AddTheirItem(it Item) bool

	Data(key string) (any, bool)
	SetData(key string, value any)

	Summarize() string
	Log(level, message string)
}

// Transport creates and sends offers.
type Transport interface {
	Create(partner string) Offer
	Send(ctx context.Context, o Offer) (State, error)
}

// Draft is an in-memory Offer. The HTTP API decodes inbound offers into it and
// the builder fills one before handing it to a Transport.
type Draft struct {
	mu      sync.Mutex
	id      string
	partner string
	message string
	ours    bool
	state   State
	give    []Item
	receive []Item
	data    map[string]any
}

// NewDraft starts an empty offer to partner.
func NewDraft(id, partner string, ours bool) *Draft {
	return &Draft{id: id, partner: partner, ours: ours, data: make(map[string]any)}
}

// NewInbound builds an offer received from partner.
func NewInbound(id, partner, message string, give, receive []Item) *Draft {
	d := NewDraft(id, partner, false)
	d.message = message
	d.state = StateActive
	for _, it := range give {
		d.AddMyItem(it)
	}
	for _, it := range receive {
		d.AddTheirItem(it)
	}
	return d
}

func (d *Draft) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

func (d *Draft) Partner() string { return d.partner }
func (d *Draft) IsOurOffer() bool {
	return d.ours
}

func (d *Draft) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message
}

func (d *Draft) SetMessage(msg string) {
	d.mu.Lock()
	d.message = msg
	d.mu.Unlock()
}

func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetState is used by transports to record lifecycle changes.
func (d *Draft) SetState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// SetID assigns the id returned by the transport on send.
func (d *Draft) SetID(id string) {
	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
}

func (d *Draft) ItemsToGive() []Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Item(nil), d.give...)
}

func (d *Draft) ItemsToReceive() []Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Item(nil), d.receive...)
}

func (d *Draft) AddMyItem(it Item) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return addUnique(&d.give, it)
}

func (d *Draft) AddTheirItem(it Item) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return addUnique(&d.receive, it)
}

func addUnique(list *[]Item, it Item) bool {
	if it.AssetID == "" {
		return false
	}
	for _, cur := range *list {
		if cur.AssetID == it.AssetID && cur.AppID == it.AppID && cur.ContextID == it.ContextID {
			return false
		}
	}
	*list = append(*list, it)
	return true
}

func (d *Draft) Data(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[key]
	return v, ok
}

func (d *Draft) SetData(key string, value any) {
	d.mu.Lock()
	d.data[key] = value
	d.mu.Unlock()
}

// AllData copies the metadata bag.
func (d *Draft) AllData() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.data))
	for k, v := range d.data {
		out[k] = v
	}
	return out
}

// Summarize lists both sides as "N x sku" groups.
func (d *Draft) Summarize() string {
	return "Asked: " + summarizeItems(d.ItemsToGive()) + "\nOffered: " + summarizeItems(d.ItemsToReceive())
}

func summarizeItems(items []Item) string {
	if len(items) == 0 {
		return "nothing"
	}
	counts := make(map[string]int)
	for _, it := range items {
		key := it.SKU
		if key == "" {
			key = "asset " + it.AssetID
		}
		counts[key]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d x %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}

func (d *Draft) Log(level, message string) {
	logger.Offer(d.ID(), level, message)
}

// WithSKU attaches the resolver hint.
func (i Item) WithSKU(sku string) Item {
	i.SKU = sku
	return i
}

// Resolver maps an item instance to its sku. ok is false for items that cannot
// be classified (not TF2, unknown schema entry).
type Resolver func(it Item) (sku string, ok bool)

// HintResolver trusts the SKU hint carried on TF2 items.
func HintResolver(it Item) (string, bool) {
	if it.AppID != AppID || it.SKU == "" {
		return "", false
	}
	return it.SKU, true
}
