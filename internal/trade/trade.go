// Package trade implements the two-party trade window and the auction
// board. The systems here track offers and listings by item id; the
// handlers execute the actual transfers through the item registry so the
// single-owner invariant always holds.
package trade

import (
	"fmt"

	"github.com/duskhollow/engine/internal/ids"
)

// Offer is one side of a trade.
type Offer struct {
	ItemIds   []ids.ItemId
	Gold      int
	Confirmed bool
}

// Trade is an active trade between two sessions. Both parties must be in
// the same room for the duration; the handler enforces that at confirm
// time.
type Trade struct {
	Id        string
	Initiator ids.SessionId
	Target    ids.SessionId
	Offers    map[ids.SessionId]*Offer
}

// Other returns the counterparty of sessionId.
func (t *Trade) Other(sessionId ids.SessionId) ids.SessionId {
	if sessionId == t.Initiator {
		return t.Target
	}
	return t.Initiator
}

// BothConfirmed reports whether the trade is ready to execute.
func (t *Trade) BothConfirmed() bool {
	return t.Offers[t.Initiator].Confirmed && t.Offers[t.Target].Confirmed
}

// unconfirm resets both confirmations; any offer change reopens the
// window.
func (t *Trade) unconfirm() {
	t.Offers[t.Initiator].Confirmed = false
	t.Offers[t.Target].Confirmed = false
}

// Listing is one auction board entry. The escrowed instance lives in the
// item registry's listing container keyed by Id.
type Listing struct {
	Id            string
	SellerSession ids.SessionId
	SellerName    string
	ItemName      string
	StartPrice    int
	CurrentBid    int
	BidderSession ids.SessionId
	HasBid        bool
}

// System owns all open trades and auction listings on this engine.
type System struct {
	trades    map[string]*Trade
	bySession map[ids.SessionId]string
	listings  []*Listing
	nextTrade int
	nextLot   int
}

// NewSystem returns an empty trade system.
func NewSystem() *System {
	return &System{
		trades:    make(map[string]*Trade),
		bySession: make(map[ids.SessionId]string),
		nextTrade: 1,
		nextLot:   1,
	}
}

// Of returns the open trade sessionId is part of, nil if none.
func (s *System) Of(sessionId ids.SessionId) *Trade {
	tradeId, ok := s.bySession[sessionId]
	if !ok {
		return nil
	}
	return s.trades[tradeId]
}

// Request opens a trade between initiator and target.
func (s *System) Request(initiator, target ids.SessionId) (*Trade, error) {
	if initiator == target {
		return nil, fmt.Errorf("you cannot trade with yourself")
	}
	if s.Of(initiator) != nil {
		return nil, fmt.Errorf("you are already trading")
	}
	if s.Of(target) != nil {
		return nil, fmt.Errorf("they are already trading")
	}
	t := &Trade{
		Id:        fmt.Sprintf("trade-%d", s.nextTrade),
		Initiator: initiator,
		Target:    target,
		Offers: map[ids.SessionId]*Offer{
			initiator: {},
			target:    {},
		},
	}
	s.nextTrade++
	s.trades[t.Id] = t
	s.bySession[initiator] = t.Id
	s.bySession[target] = t.Id
	return t, nil
}

// AddItem puts itemId on sessionId's side of their open trade and resets
// both confirmations.
func (s *System) AddItem(sessionId ids.SessionId, itemId ids.ItemId) (*Trade, error) {
	t := s.Of(sessionId)
	if t == nil {
		return nil, fmt.Errorf("you are not trading")
	}
	offer := t.Offers[sessionId]
	offer.ItemIds = append(offer.ItemIds, itemId)
	t.unconfirm()
	return t, nil
}

// SetGold sets the gold on sessionId's side and resets confirmations.
func (s *System) SetGold(sessionId ids.SessionId, gold int) (*Trade, error) {
	t := s.Of(sessionId)
	if t == nil {
		return nil, fmt.Errorf("you are not trading")
	}
	t.Offers[sessionId].Gold = gold
	t.unconfirm()
	return t, nil
}

// Confirm marks sessionId's side confirmed. ready is true once both
// sides have confirmed; the caller then executes and closes the trade.
func (s *System) Confirm(sessionId ids.SessionId) (t *Trade, ready bool, err error) {
	t = s.Of(sessionId)
	if t == nil {
		return nil, false, fmt.Errorf("you are not trading")
	}
	t.Offers[sessionId].Confirmed = true
	return t, t.BothConfirmed(), nil
}

// Close removes the trade, whether completed or canceled.
func (s *System) Close(t *Trade) {
	delete(s.trades, t.Id)
	delete(s.bySession, t.Initiator)
	delete(s.bySession, t.Target)
}

// Post creates an auction listing; the caller escrows the instance under
// the returned listing id.
func (s *System) Post(seller ids.SessionId, sellerName, itemName string, startPrice int) *Listing {
	l := &Listing{
		Id:            fmt.Sprintf("lot-%d", s.nextLot),
		SellerSession: seller,
		SellerName:    sellerName,
		ItemName:      itemName,
		StartPrice:    startPrice,
		CurrentBid:    startPrice,
	}
	s.nextLot++
	s.listings = append(s.listings, l)
	return l
}

// Listings returns the open listings in posting order.
func (s *System) Listings() []*Listing {
	return s.listings
}

// Find resolves a listing by lot id.
func (s *System) Find(lotId string) *Listing {
	for _, l := range s.listings {
		if l.Id == lotId {
			return l
		}
	}
	return nil
}

// Bid records a bid. The first bid must be at least the start price; later
// bids must beat the current bid. The caller refunds the prior bidder's
// escrowed gold.
func (s *System) Bid(l *Listing, bidder ids.SessionId, amount int) (priorBidder ids.SessionId, priorAmount int, err error) {
	if bidder == l.SellerSession {
		return 0, 0, fmt.Errorf("you cannot bid on your own listing")
	}
	if l.HasBid && amount <= l.CurrentBid || !l.HasBid && amount < l.StartPrice {
		return 0, 0, fmt.Errorf("bid too low")
	}
	priorBidder, priorAmount = l.BidderSession, l.CurrentBid
	hadBid := l.HasBid
	l.BidderSession = bidder
	l.CurrentBid = amount
	l.HasBid = true
	if !hadBid {
		return 0, 0, nil
	}
	return priorBidder, priorAmount, nil
}

// Remove deletes a listing (sold, bought out, or canceled).
func (s *System) Remove(lotId string) {
	for i, l := range s.listings {
		if l.Id == lotId {
			s.listings = append(s.listings[:i], s.listings[i+1:]...)
			return
		}
	}
}
