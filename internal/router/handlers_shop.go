package router

import (
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
)

// ShopHandler covers the shop surface: list, buy, sell, balance. Shop
// presence comes from the current room's static definition; prices come
// from the economy multipliers.
type ShopHandler struct {
	deps *Deps
}

func (h *ShopHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.ShopList:
		h.list(sessionId)
	case command.Buy:
		h.buy(sessionId, cmd.Arg)
	case command.Sell:
		h.sell(sessionId, cmd.Arg)
	case command.Balance:
		d.text(sessionId, "You have %d gold.", p.Gold)
	}
	d.prompt(sessionId)
}

func (h *ShopHandler) list(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)
	shop := d.Shops.At(p.RoomId)
	if shop == nil {
		d.text(sessionId, "There is no shop here.")
		return
	}
	pricing := d.Shops.Pricing()
	d.text(sessionId, "%s", shop.Name)
	for _, tmpl := range d.Shops.StockTemplates(shop) {
		d.text(sessionId, "  %s - %d gold", rarityName(tmpl), pricing.BuyPrice(tmpl.BasePrice))
	}
}

func (h *ShopHandler) buy(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	shop := d.Shops.At(p.RoomId)
	if shop == nil {
		d.text(sessionId, "There is no shop here.")
		return
	}
	tmpl := d.Shops.StockItem(shop, keyword)
	if tmpl == nil {
		d.text(sessionId, "This shop doesn't sell that.")
		return
	}
	price := d.Shops.Pricing().BuyPrice(tmpl.BasePrice)
	if p.Gold < price {
		d.errorf(sessionId, "You can't afford that.")
		return
	}
	p.Gold -= price
	inst := d.Items.SpawnInInventory(tmpl, sessionId)
	d.text(sessionId, "You buy %s for %d gold.", rarityName(&inst.Item), price)
}

func (h *ShopHandler) sell(sessionId ids.SessionId, keyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	shop := d.Shops.At(p.RoomId)
	if shop == nil {
		d.text(sessionId, "There is no shop here.")
		return
	}
	inst := d.Items.FindInInventory(sessionId, keyword)
	if inst == nil {
		d.errorf(sessionId, "You are not carrying a %s.", keyword)
		return
	}
	price := d.Shops.Pricing().SellPrice(inst.Item.BasePrice)
	if price == 0 {
		d.text(sessionId, "That is worthless.")
		return
	}
	d.Items.Destroy(inst)
	p.Gold += price
	d.text(sessionId, "You sell %s for %d gold.", rarityName(&inst.Item), price)
}
