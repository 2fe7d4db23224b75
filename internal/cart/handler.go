package cart

import (
	"tf2automatic/internal/pkg/text"
)

// Result is a cart operation outcome: the cart after the change (nil when the
// partner no longer has one) and the chat reply.
type Result struct {
	Cart    *Cart  `json:"cart,omitempty"`
	Message string `json:"message"`
}

// Handler implements the deposit/withdraw/remove commands on top of a Store.
type Handler struct {
	store *Store
	stock func(sku string) int
}

// NewHandler uses stock to count the bot's own instances of a sku.
func NewHandler(store *Store, stock func(sku string) int) *Handler {
	return &Handler{store: store, stock: stock}
}

func (h *Handler) Store() *Store {
	return h.store
}

func addedMessage(name string, n int) string {
	return text.Count(name, n) + " " + text.Either(n, "has", "have") + " been added to your cart"
}

// Deposit stages items the partner will give.
func (h *Handler) Deposit(partner, sku, name string, amount int) Result {
	var res Result
	_ = h.store.Modify(partner, func(c *Cart, _ bool) error {
		c.Add(sku, name, amount, Their)
		res = h.result(c, addedMessage(name, amount))
		return nil
	})
	return res
}

// Withdraw stages items the bot will give, limited to what it has not already
// staged for this partner.
func (h *Handler) Withdraw(partner, sku, name string, amount int) Result {
	var res Result
	_ = h.store.Modify(partner, func(c *Cart, _ bool) error {
		canTrade := h.stock(sku) - c.Amount(name, Our)
		var msg string
		switch {
		case canTrade <= 0:
			msg = "I don't have any " + text.Plural(name)
			amount = 0
		case canTrade < amount:
			amount = canTrade
			msg = "I only have " + text.Count(name, amount) + ". " +
				text.Either(amount, "It has", "They have") + " been added to your cart"
		default:
			msg = addedMessage(name, amount)
		}
		c.Add(sku, name, amount, Our)
		res = h.result(c, msg)
		return nil
	})
	return res
}

// Remove takes up to amount of name off one side, or empties the cart when all is set.
func (h *Handler) Remove(partner, name string, amount int, side Side, all bool) Result {
	var res Result
	_ = h.store.Modify(partner, func(c *Cart, exists bool) error {
		if !exists {
			res = Result{Message: "Your cart is empty"}
			return nil
		}
		var msg string
		if all {
			msg = "Your cart has been emptied"
			c.Clear()
		} else {
			whose := side.Whose()
			inCart := c.Amount(name, side)
			switch {
			case inCart == 0:
				msg = "There are no " + text.Plural(name) + " on " + whose + " side of the cart"
			case amount <= 0:
				msg = "Tell me how many " + text.Plural(name) + " to remove"
			case amount > inCart:
				amount = inCart
				msg = "There were only " + text.Count(name, amount) + " on " + whose + " side of the cart. " +
					text.Either(amount, "It has", "They have") + " been removed"
			default:
				msg = text.Count(name, amount) + " " + text.Either(amount, "has", "have") +
					" been removed from " + whose + " side of the cart"
			}
			c.Remove(name, amount, side)
		}
		res = h.result(c, msg)
		return nil
	})
	return res
}

func (h *Handler) result(c *Cart, msg string) Result {
	if c.IsEmpty() {
		return Result{Message: msg}
	}
	return Result{Cart: c.Clone(), Message: msg}
}
