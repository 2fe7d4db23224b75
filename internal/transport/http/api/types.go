package apihttp

import (
	"strings"

	"tf2automatic/internal/cart"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/offer"
)

// OfferPayload is an inbound offer as the transport reports it.
type OfferPayload struct {
	ID             string       `json:"id" binding:"required"`
	Partner        string       `json:"partner" binding:"required"`
	Message        string       `json:"message"`
	ItemsToGive    []offer.Item `json:"items_to_give"`
	ItemsToReceive []offer.Item `json:"items_to_receive"`
}

func (p OfferPayload) draft() *offer.Draft {
	return offer.NewInbound(p.ID, p.Partner, p.Message, normalizeItems(p.ItemsToGive), normalizeItems(p.ItemsToReceive))
}

// normalizeItems fills in the TF2 location for items that omit it.
func normalizeItems(items []offer.Item) []offer.Item {
	out := make([]offer.Item, 0, len(items))
	for _, it := range items {
		if it.AppID == 0 {
			it.AppID = offer.AppID
		}
		if it.ContextID == "" {
			it.ContextID = offer.ContextID
		}
		if it.Amount == 0 {
			it.Amount = 1
		}
		out = append(out, it)
	}
	return out
}

type StateChangeRequest struct {
	State string `json:"state" binding:"required"`
}

type CartItemRequest struct {
	SKU    string `json:"sku" binding:"required"`
	Amount int    `json:"amount" binding:"required,min=1"`
}

type CartRemoveRequest struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Side   string `json:"side"`
	All    bool   `json:"all"`
}

func (r CartRemoveRequest) side() (cart.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(r.Side)) {
	case "", "our", "my", "mine":
		return cart.Our, true
	case "their", "your", "yours":
		return cart.Their, true
	}
	return 0, false
}

type InventoryRequest struct {
	Items inventory.Dictionary `json:"items"`
}
