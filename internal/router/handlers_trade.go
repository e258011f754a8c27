package router

import (
	"strconv"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/items"
	"github.com/duskhollow/engine/internal/trade"
)

// TradeHandler covers the two-party trade window and the auction board.
// Offers track item ids; the actual transfers execute here against the
// item registry only once both sides confirm.
type TradeHandler struct {
	deps *Deps
}

func (h *TradeHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.TradeRequest:
		h.request(sessionId, cmd.Arg)
	case command.TradeAdd:
		h.add(sessionId, cmd.Arg)
	case command.TradeMoney:
		h.money(sessionId, cmd.N)
	case command.TradeConfirm:
		h.confirm(sessionId)
	case command.TradeCancel:
		h.cancel(sessionId)
	case command.AuctionList:
		h.auctionList(sessionId)
	case command.AuctionPost:
		h.auctionPost(sessionId, cmd.Arg, cmd.N)
	case command.AuctionBid:
		h.auctionBid(sessionId, cmd.Arg, cmd.N)
	case command.AuctionBuyout:
		h.auctionBuyout(sessionId, cmd.Arg)
	case command.AuctionCancel:
		h.auctionCancel(sessionId, cmd.Arg)
	}
	d.prompt(sessionId)
}

func (h *TradeHandler) request(sessionId ids.SessionId, targetName string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	target := d.Players.ByName(targetName)
	if target == nil || target.RoomId != p.RoomId {
		d.errorf(sessionId, "They are not here.")
		return
	}
	if _, err := d.Trades.Request(sessionId, target.SessionId); err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "You offer to trade with %s.", title(target.Name))
	d.info(target.SessionId, "%s opens a trade with you. Use: trade add/money/confirm/cancel", title(p.Name))
	d.prompt(target.SessionId)
}

func (h *TradeHandler) add(sessionId ids.SessionId, keyword string) {
	d := h.deps

	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	t, err := d.Trades.AddItem(sessionId, inst.Id)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "You offer %s.", rarityName(&inst.Item))
	d.text(t.Other(sessionId), "%s offers %s.", title(d.Players.Get(sessionId).Name), rarityName(&inst.Item))
	d.prompt(t.Other(sessionId))
}

func (h *TradeHandler) money(sessionId ids.SessionId, gold int) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if gold > p.Gold {
		d.errorf(sessionId, "You don't have that much gold.")
		return
	}
	t, err := d.Trades.SetGold(sessionId, gold)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	d.text(sessionId, "You offer %d gold.", gold)
	d.text(t.Other(sessionId), "%s offers %d gold.", title(p.Name), gold)
	d.prompt(t.Other(sessionId))
}

func (h *TradeHandler) confirm(sessionId ids.SessionId) {
	d := h.deps

	t, ready, err := d.Trades.Confirm(sessionId)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	if !ready {
		d.text(sessionId, "You confirm the trade. Waiting on the other side.")
		d.text(t.Other(sessionId), "%s confirms the trade.", title(d.Players.Get(sessionId).Name))
		d.prompt(t.Other(sessionId))
		return
	}
	h.execute(t)
}

// execute settles a fully confirmed trade: both parties in the same
// room, both offers still valid, then items and gold swap atomically.
func (h *TradeHandler) execute(t *trade.Trade) {
	d := h.deps
	a, b := t.Initiator, t.Target
	pa, pb := d.Players.Get(a), d.Players.Get(b)

	fail := func(reason string) {
		d.Trades.Close(t)
		d.errorf(a, "The trade falls through: %s", reason)
		d.errorf(b, "The trade falls through: %s", reason)
		d.prompt(b)
	}

	if pa == nil || pb == nil || pa.RoomId != pb.RoomId {
		fail("you are no longer together")
		return
	}

	offerA, offerB := t.Offers[a], t.Offers[b]
	itemsA := h.resolveOffer(a, offerA.ItemIds)
	itemsB := h.resolveOffer(b, offerB.ItemIds)
	if itemsA == nil || itemsB == nil {
		fail("an offered item is gone")
		return
	}
	if pa.Gold < offerA.Gold || pb.Gold < offerB.Gold {
		fail("not enough gold")
		return
	}

	for _, inst := range itemsA {
		d.Items.MoveInventoryToInventory(inst, a, b)
	}
	for _, inst := range itemsB {
		d.Items.MoveInventoryToInventory(inst, b, a)
	}
	pa.Gold += offerB.Gold - offerA.Gold
	pb.Gold += offerA.Gold - offerB.Gold

	d.Trades.Close(t)
	d.text(a, "The trade is complete.")
	d.text(b, "The trade is complete.")
	d.prompt(b)
}

// resolveOffer maps offered item ids back to carried instances; nil if
// any has left the inventory since it was offered.
func (h *TradeHandler) resolveOffer(sessionId ids.SessionId, itemIds []ids.ItemId) []*items.Instance {
	carried := map[ids.ItemId]*items.Instance{}
	for _, inst := range h.deps.Items.Inventory(sessionId) {
		carried[inst.Id] = inst
	}
	out := make([]*items.Instance, 0, len(itemIds))
	for _, id := range itemIds {
		inst, ok := carried[id]
		if !ok {
			return nil
		}
		out = append(out, inst)
	}
	return out
}

func (h *TradeHandler) cancel(sessionId ids.SessionId) {
	d := h.deps
	t := d.Trades.Of(sessionId)
	if t == nil {
		d.errorf(sessionId, "You are not trading.")
		return
	}
	other := t.Other(sessionId)
	d.Trades.Close(t)
	d.text(sessionId, "You cancel the trade.")
	d.errorf(other, "The trade was canceled.")
	d.prompt(other)
}

func (h *TradeHandler) auctionList(sessionId ids.SessionId) {
	d := h.deps
	listings := d.Trades.Listings()
	if len(listings) == 0 {
		d.text(sessionId, "The auction board is empty.")
		return
	}
	d.text(sessionId, "Auction board:")
	for _, l := range listings {
		bid := "no bids"
		if l.HasBid {
			bid = strconv.Itoa(l.CurrentBid) + " gold bid"
		}
		d.text(sessionId, "  %s: %s by %s - %s (buyout %d)", l.Id, l.ItemName, title(l.SellerName), bid, buyoutPrice(l))
	}
}

// buyoutPrice is double the listing's start price.
func buyoutPrice(l *trade.Listing) int {
	return l.StartPrice * 2
}

func (h *TradeHandler) auctionPost(sessionId ids.SessionId, keyword string, price int) {
	d := h.deps
	p := d.Players.Get(sessionId)

	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	l := d.Trades.Post(sessionId, p.Name, rarityName(&inst.Item), price)
	d.Items.MoveInventoryToListing(inst, sessionId, l.Id)
	d.text(sessionId, "You post %s as %s for %d gold.", rarityName(&inst.Item), l.Id, price)
}

func (h *TradeHandler) auctionBid(sessionId ids.SessionId, lotId string, amount int) {
	d := h.deps
	p := d.Players.Get(sessionId)

	l := d.Trades.Find(lotId)
	if l == nil {
		d.errorf(sessionId, "No such lot.")
		return
	}
	if p.Gold < amount {
		d.errorf(sessionId, "You don't have that much gold.")
		return
	}
	priorBidder, priorAmount, err := d.Trades.Bid(l, sessionId, amount)
	if err != nil {
		d.sendFailure(sessionId, err)
		return
	}
	// Escrow: the new bid leaves the bidder now; an outbid refund
	// returns the prior escrow.
	p.Gold -= amount
	if priorAmount > 0 && priorBidder != 0 {
		if prior := d.Players.Get(priorBidder); prior != nil {
			prior.Gold += priorAmount
			d.info(priorBidder, "You were outbid on %s.", l.Id)
			d.prompt(priorBidder)
		}
	}
	d.text(sessionId, "You bid %d gold on %s.", amount, l.Id)
}

func (h *TradeHandler) auctionBuyout(sessionId ids.SessionId, lotId string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	l := d.Trades.Find(lotId)
	if l == nil {
		d.errorf(sessionId, "No such lot.")
		return
	}
	if l.SellerSession == sessionId {
		d.errorf(sessionId, "You cannot buy your own listing.")
		return
	}
	price := buyoutPrice(l)
	if p.Gold < price {
		d.errorf(sessionId, "You don't have that much gold.")
		return
	}

	p.Gold -= price
	if l.HasBid {
		if prior := d.Players.Get(l.BidderSession); prior != nil {
			prior.Gold += l.CurrentBid
			d.info(l.BidderSession, "%s was bought out; your bid is refunded.", l.Id)
			d.prompt(l.BidderSession)
		}
	}
	if seller := d.Players.Get(l.SellerSession); seller != nil {
		seller.Gold += price
		d.info(l.SellerSession, "%s sold for %d gold.", l.ItemName, price)
		d.prompt(l.SellerSession)
	}
	inst := d.Items.MoveListingToInventory(l.Id, sessionId)
	d.Trades.Remove(l.Id)
	if inst != nil {
		d.text(sessionId, "You buy %s for %d gold.", rarityName(&inst.Item), price)
	}
}

func (h *TradeHandler) auctionCancel(sessionId ids.SessionId, lotId string) {
	d := h.deps

	l := d.Trades.Find(lotId)
	if l == nil {
		d.errorf(sessionId, "No such lot.")
		return
	}
	if l.SellerSession != sessionId {
		d.errorf(sessionId, "That is not your listing.")
		return
	}
	if l.HasBid {
		if prior := d.Players.Get(l.BidderSession); prior != nil {
			prior.Gold += l.CurrentBid
			d.info(l.BidderSession, "%s was withdrawn; your bid is refunded.", l.Id)
			d.prompt(l.BidderSession)
		}
	}
	inst := d.Items.MoveListingToInventory(l.Id, sessionId)
	d.Trades.Remove(l.Id)
	if inst != nil {
		d.text(sessionId, "You withdraw %s.", rarityName(&inst.Item))
	}
}
