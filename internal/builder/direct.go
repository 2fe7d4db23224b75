package builder

import (
	"context"
	"fmt"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/pkg/text"
	"tf2automatic/internal/valuation"
)

// Request is a direct buy or sell command. Buying means the bot buys from the partner.
type Request struct {
	Partner string `json:"partner"`
	SKU     string `json:"sku"`
	Amount  int    `json:"amount"`
	Buying  bool   `json:"buying"`
}

// change denominations the seller may hand back, highest first.
var changeDenominations = []currency.Denomination{
	{SKU: currency.RefinedSKU, Value: currency.RefinedValue},
	{SKU: currency.ReclaimedSKU, Value: currency.ReclaimedValue},
	{SKU: currency.ScrapSKU, Value: currency.ScrapValue},
}

func pick(buying bool, ifBuying, ifSelling string) string {
	if buying {
		return ifBuying
	}
	return ifSelling
}

// Direct builds and sends an offer for one priced item. The traded amount is the
// smallest of the request, the seller's stock, the bot's capacity and what the
// buyer can afford.
func (b *Builder) Direct(ctx context.Context, req Request) (Result, error) {
	if b.transport == nil {
		return Result{}, ErrNoTransport
	}
	start := b.now()
	var res Result

	snap := b.prices.Snapshot()
	entry, ok := snap.Get(req.SKU, true)
	if !ok {
		res.Message = "The item is no longer in the pricelist"
		return res, nil
	}
	buying := req.Buying
	name := entry.Name

	if !entry.Intent.Allows(buying) {
		res.Message = "I am only " + pick(buying, "selling", "buying") + " " + text.Plural(name)
		return res, nil
	}

	canTrade := b.capacity.AmountCanTrade(snap, req.SKU, buying)
	if canTrade <= 0 {
		res.Message = "I can't " + pick(buying, "buy", "sell") + " any " + text.Plural(name)
		return res, nil
	}

	buyer, seller := req.Partner, b.cfg.BotID
	if buying {
		buyer, seller = b.cfg.BotID, req.Partner
	}

	sellerDict, err := b.inv.Dictionary(ctx, seller, false)
	if err != nil {
		return Result{}, fmt.Errorf("load seller inventory: %w", err)
	}
	sellerItems := sellerDict[req.SKU]

	amount := req.Amount
	var altered string
	if len(sellerItems) == 0 {
		res.Message = pick(buying, "You", "I") + " don't have any " + text.Plural(name)
		return res, nil
	}
	if len(sellerItems) < amount {
		amount = len(sellerItems)
		altered = pick(buying, "You", "I") + " only have " + text.Count(name, amount)
	}
	if canTrade < amount {
		amount = canTrade
		altered = "I can only " + pick(buying, "buy", "sell") + " " + text.Count(name, amount)
	}

	buyerDict, err := b.inv.Dictionary(ctx, buyer, false)
	if err != nil {
		return Result{}, fmt.Errorf("load buyer inventory: %w", err)
	}
	holdings := buyerDict.Holdings()

	keys := snap.KeyPrices()
	keyRate := keys.Rate(buying)
	isKey := req.SKU == currency.KeySKU
	denoms := currency.Denominations(keyRate, !isKey)
	price := entry.Price(buying)
	unit := price.Scrap
	if !isKey {
		unit = price.Value(keyRate)
	}

	canAfford := currency.AmountCanAfford(unit, denoms, holdings)
	if canAfford == 0 {
		res.Message = pick(buying, "I", "You") + " don't have enough pure to buy any " + text.Plural(name)
		return res, nil
	}
	if canAfford < amount {
		amount = canAfford
		altered = pick(buying, "I", "You") + " can only afford " + text.Count(name, amount)
	}
	if altered != "" {
		b.chat(&res, req.Partner, "Your offer has been altered! Reason: "+altered+".")
	}

	total := unit * amount
	sol := currency.Solve(total, denoms, holdings)
	if sol.Change > 0 {
		logger.Warnf("Failed to create offer for %s because change is positive (%d)", req.Partner, sol.Change)
		res.Message = MsgGenericFailure
		return res, nil
	}

	paid := currency.Money{Keys: sol.Picked[currency.KeySKU]}
	for _, d := range changeDenominations {
		paid.Scrap += sol.Picked[d.SKU] * d.Value
	}
	change := -sol.Change
	buyerStr := paid.String()
	sellerStr := text.Count(name, amount)
	if change != 0 {
		sellerStr += " and " + currency.ToRefined(change).String() + " ref"
	}
	b.chat(&res, req.Partner, "Please wait while I process your offer! You will be offered "+
		pick(buying, buyerStr, sellerStr)+" for your "+pick(buying, sellerStr, buyerStr))

	o := b.transport.Create(req.Partner)
	o.SetData(offer.DataPartner, req.Partner)
	res.Offer = o

	// Seller items come from the side that is not buying.
	addSeller, addBuyer := o.AddMyItem, o.AddTheirItem
	if buying {
		addSeller, addBuyer = o.AddTheirItem, o.AddMyItem
	}
	sellerGiving := !buying

	var ex valuation.Exchange
	ex.Side(!buying).AddMoney(paid, keyRate)
	sellerSide := ex.Side(buying)
	sellerSide.Value = total + change
	sellerSide.Scrap = total + change

	dict := offer.NewDict()
	if added := addInstances(addSeller, sellerItems, req.SKU, amount); added != amount {
		logger.Warnf("Failed to create offer for %s because seller items (%d/%d)", req.Partner, added, amount)
		res.Message = MsgGenericFailure
		return res, nil
	}
	dict.Add(req.SKU, amount, sellerGiving)

	if change > 0 {
		sellerCurrencies := sellerDict.Currencies()
		for _, d := range changeDenominations {
			if change < d.Value {
				continue
			}
			for _, id := range sellerCurrencies[d.SKU] {
				if !addSeller(offer.NewItem(id).WithSKU(d.SKU)) {
					continue
				}
				dict.Add(d.SKU, 1, sellerGiving)
				change -= d.Value
				if change < d.Value {
					break
				}
			}
		}
		if change != 0 {
			res.Message = "I am missing " + currency.ToRefined(change).String() + " ref as change"
			return res, nil
		}
	}

	buyerCurrencies := buyerDict.Currencies()
	for _, d := range denoms {
		need := sol.Picked[d.SKU]
		if need == 0 {
			continue
		}
		if added := addInstances(addBuyer, buyerCurrencies[d.SKU], d.SKU, need); added != need {
			logger.Warnf("Failed to create offer for %s because missing buyer pure (%s %d/%d)", req.Partner, d.SKU, added, need)
			res.Message = MsgGenericFailure
			return res, nil
		}
		dict.Add(d.SKU, need, !sellerGiving)
	}

	value := offer.NewValue(ex.Our.Money(), ex.Their.Money(), keys)
	meta := offer.Meta{
		Dict:   dict,
		Diff:   dict.Diff(),
		Value:  &value,
		Prices: offer.Prices{req.SKU: {Buy: entry.Buy, Sell: entry.Sell}},
	}
	meta.Apply(o)
	res.Meta = &meta

	reply, err := b.checkPartner(ctx, o, req.Partner)
	if err != nil {
		return Result{}, fmt.Errorf("check partner: %w", err)
	}
	if reply != "" {
		res.Message = reply
		return res, nil
	}

	if err := b.send(ctx, o, &res, start); err != nil {
		return Result{}, err
	}
	return res, nil
}

// addInstances adds up to n of ids through add, skipping ids add rejects.
func addInstances(add func(offer.Item) bool, ids []string, sku string, n int) int {
	added := 0
	for _, id := range ids {
		if added == n {
			break
		}
		if add(offer.NewItem(id).WithSKU(sku)) {
			added++
		}
	}
	return added
}
