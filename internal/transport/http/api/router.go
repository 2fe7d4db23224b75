package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tf2automatic/internal/agent"
	"tf2automatic/internal/builder"
	"tf2automatic/internal/cart"
	"tf2automatic/internal/inventory"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/store"

	"github.com/gin-gonic/gin"
)

const maxBatch = 100

type Router struct {
	prices    inventory.PriceSource
	agent     *agent.Service
	builder   *builder.Builder
	carts     *cart.Handler
	inventory *inventory.Memory
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{
		prices:    cfg.Prices,
		agent:     cfg.Agent,
		builder:   cfg.Builder,
		carts:     cfg.Carts,
		inventory: cfg.Inventory,
	}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/pricelist", r.handlePricelist)
	group.GET("/pricelist/:sku", r.handlePriceEntry)

	group.POST("/offers/evaluate", r.handleEvaluate)
	group.POST("/offers/evaluate/batch", r.handleEvaluateBatch)
	group.POST("/offers/:id/state", r.handleStateChange)
	group.GET("/offers/active/:partner", r.handleActiveOffer)

	group.GET("/decisions", r.handleDecisions)
	group.GET("/decisions/:offer_id", r.handleDecision)

	if r.carts != nil {
		group.GET("/carts/:partner", r.handleGetCart)
		group.POST("/carts/:partner/deposit", r.handleDeposit)
		group.POST("/carts/:partner/withdraw", r.handleWithdraw)
		group.POST("/carts/:partner/remove", r.handleRemove)
		group.DELETE("/carts/:partner", r.handleClearCart)
	}
	if r.builder != nil {
		group.POST("/carts/:partner/checkout", r.handleCheckout)
		group.POST("/trades/direct", r.handleDirect)
	}
	if r.inventory != nil {
		group.GET("/inventory/:steamid", r.handleGetInventory)
		group.PUT("/inventory/:steamid", r.handlePutInventory)
	}
}

func (r *Router) handlePricelist(c *gin.Context) {
	snap := r.prices.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version":    snap.Version,
		"loaded_at":  snap.LoadedAt,
		"key_prices": snap.KeyPrices(),
		"items":      snap.Entries(),
	})
}

func (r *Router) handlePriceEntry(c *gin.Context) {
	entry, ok := r.prices.Snapshot().Get(c.Param("sku"), false)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item is not in the pricelist"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (r *Router) handleEvaluate(c *gin.Context) {
	var req OfferPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := r.agent.HandleNewOffer(c.Request.Context(), req.draft())
	if err != nil {
		if agent.IsIndeterminate(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("[api] evaluate offer %s failed: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (r *Router) handleEvaluateBatch(c *gin.Context) {
	var req []OfferPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req) > maxBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch exceeds " + strconv.Itoa(maxBatch) + " offers"})
		return
	}
	offers := make([]offer.Offer, 0, len(req))
	for _, p := range req {
		if p.ID == "" || p.Partner == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every offer needs id and partner"})
			return
		}
		offers = append(offers, p.draft())
	}
	results, err := r.agent.EvaluateBatch(c.Request.Context(), offers)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (r *Router) handleStateChange(c *gin.Context) {
	var req StateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, ok := offer.ParseState(req.State)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown state " + req.State})
		return
	}
	replies, err := r.agent.ChangeState(c.Request.Context(), c.Param("id"), state)
	if errors.Is(err, agent.ErrUnknownOffer) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state.String(), "replies": replies})
}

func (r *Router) handleActiveOffer(c *gin.Context) {
	id, ok, err := r.agent.ActiveOffer(c.Request.Context(), c.Param("partner"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active offer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer_id": id})
}

func (r *Router) handleDecisions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := r.agent.Decisions(c.Request.Context(), strings.TrimSpace(c.Query("partner")), limit)
	if err != nil {
		logger.Errorf("[api] list decisions failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": recs})
}

func (r *Router) handleDecision(c *gin.Context) {
	rec, err := r.agent.Decision(c.Request.Context(), c.Param("offer_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "decision not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (r *Router) handleGetCart(c *gin.Context) {
	cc, ok := r.carts.Store().Get(c.Param("partner"))
	if !ok {
		c.JSON(http.StatusOK, cart.Result{Message: "Your cart is empty"})
		return
	}
	c.JSON(http.StatusOK, cart.Result{Cart: cc, Message: cc.String()})
}

// itemName resolves a sku to its pricelist name, answering 404 when unknown.
func (r *Router) itemName(c *gin.Context, sku string) (string, bool) {
	entry, ok := r.prices.Snapshot().Get(sku, true)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "The item is no longer in the pricelist"})
		return "", false
	}
	return entry.Name, true
}

func (r *Router) handleDeposit(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name, ok := r.itemName(c, req.SKU)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r.carts.Deposit(c.Param("partner"), req.SKU, name, req.Amount))
}

func (r *Router) handleWithdraw(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name, ok := r.itemName(c, req.SKU)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r.carts.Withdraw(c.Param("partner"), req.SKU, name, req.Amount))
}

func (r *Router) handleRemove(c *gin.Context) {
	var req CartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	side, ok := req.side()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be our or their"})
		return
	}
	if !req.All && (req.Name == "" || req.Amount <= 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a positive amount are required"})
		return
	}
	c.JSON(http.StatusOK, r.carts.Remove(c.Param("partner"), req.Name, req.Amount, side, req.All))
}

func (r *Router) handleClearCart(c *gin.Context) {
	c.JSON(http.StatusOK, r.carts.Remove(c.Param("partner"), "", 0, cart.Our, true))
}

func (r *Router) handleCheckout(c *gin.Context) {
	partner := c.Param("partner")
	res, err := r.builder.Checkout(c.Request.Context(), partner)
	r.respondBuild(c, res, err)
}

func (r *Router) handleDirect(c *gin.Context) {
	var req builder.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Partner == "" || req.SKU == "" || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner, sku and a positive amount are required"})
		return
	}
	res, err := r.builder.Direct(c.Request.Context(), req)
	r.respondBuild(c, res, err)
}

func (r *Router) respondBuild(c *gin.Context, res builder.Result, err error) {
	if errors.Is(err, builder.ErrNoTransport) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Errorf("[api] build offer failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	r.agent.RecordSent(c.Request.Context(), res)
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleGetInventory(c *gin.Context) {
	dict, err := r.inventory.Dictionary(c.Request.Context(), c.Param("steamid"), true)
	if errors.Is(err, inventory.ErrNotLoaded) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dict})
}

func (r *Router) handlePutInventory(c *gin.Context) {
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Items == nil {
		req.Items = inventory.Dictionary{}
	}
	r.inventory.Set(c.Param("steamid"), req.Items)
	c.JSON(http.StatusOK, gin.H{"skus": len(req.Items)})
}
