// Package economy implements shop lookup and pricing. Prices derive from
// an item template's base price and the configured multipliers, rounded
// to the nearest integer with ties to even.
package economy

import (
	"math"
	"strings"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// Pricing holds the configured buy/sell multipliers.
type Pricing struct {
	BuyMultiplier  float64
	SellMultiplier float64
}

// DefaultPricing matches the spec defaults.
func DefaultPricing() Pricing {
	return Pricing{BuyMultiplier: 1.0, SellMultiplier: 0.5}
}

// BuyPrice is what a shop charges for an item with the given base price.
func (p Pricing) BuyPrice(basePrice int) int {
	return int(math.RoundToEven(float64(basePrice) * p.BuyMultiplier))
}

// SellPrice is what a shop pays for an item with the given base price.
// A result of 0 means the item is worthless and must be rejected.
func (p Pricing) SellPrice(basePrice int) int {
	if basePrice == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(basePrice) * p.SellMultiplier))
}

// Shops resolves shop definitions against the static world.
type Shops struct {
	world   *worldstatic.World
	pricing Pricing
}

// NewShops builds the shop registry view over the immutable world.
func NewShops(world *worldstatic.World, pricing Pricing) *Shops {
	return &Shops{world: world, pricing: pricing}
}

// Pricing returns the configured multipliers.
func (s *Shops) Pricing() Pricing { return s.pricing }

// At returns the shop bound to roomId, or nil if the room has no shop.
func (s *Shops) At(roomId ids.RoomId) *worldstatic.ShopDefinition {
	return s.world.ShopsByRoom[roomId]
}

// StockItem resolves a stocked item template by keyword (case-insensitive
// exact match), or nil if the shop does not sell it.
func (s *Shops) StockItem(shop *worldstatic.ShopDefinition, keyword string) *worldstatic.ItemTemplate {
	for _, entry := range shop.Stock {
		tmpl := s.world.ItemTemplates[entry.TemplateId]
		if tmpl != nil && strings.EqualFold(tmpl.Keyword, keyword) {
			return tmpl
		}
	}
	return nil
}

// StockTemplates resolves the full stock list in definition order,
// skipping dangling template references.
func (s *Shops) StockTemplates(shop *worldstatic.ShopDefinition) []*worldstatic.ItemTemplate {
	out := make([]*worldstatic.ItemTemplate, 0, len(shop.Stock))
	for _, entry := range shop.Stock {
		if tmpl := s.world.ItemTemplates[entry.TemplateId]; tmpl != nil {
			out = append(out, tmpl)
		}
	}
	return out
}
