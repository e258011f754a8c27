package economy

import (
	"testing"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/worldstatic"
)

func TestPricing(t *testing.T) {
	p := DefaultPricing()
	tests := []struct {
		base, buy, sell int
	}{
		{50, 50, 25},
		{0, 0, 0},
		{1, 1, 0}, // 0.5 rounds to even -> 0, worthless
		{3, 3, 2}, // 1.5 rounds to even -> 2
		{5, 5, 2}, // 2.5 rounds to even -> 2
	}
	for _, tt := range tests {
		if got := p.BuyPrice(tt.base); got != tt.buy {
			t.Errorf("BuyPrice(%d) = %d, want %d", tt.base, got, tt.buy)
		}
		if got := p.SellPrice(tt.base); got != tt.sell {
			t.Errorf("SellPrice(%d) = %d, want %d", tt.base, got, tt.sell)
		}
	}
}

func testWorld() *worldstatic.World {
	shopRoom := ids.RoomId("town:market")
	return &worldstatic.World{
		Rooms: map[ids.RoomId]*worldstatic.Room{
			shopRoom: {Id: shopRoom, Title: "Market"},
		},
		ItemTemplates: map[string]*worldstatic.ItemTemplate{
			"sword":  {Id: "sword", Keyword: "sword", DisplayName: "a steel sword", BasePrice: 50},
			"potion": {Id: "potion", Keyword: "potion", DisplayName: "a red potion", BasePrice: 10},
		},
		ShopsByRoom: map[ids.RoomId]*worldstatic.ShopDefinition{
			shopRoom: {
				Room: shopRoom,
				Name: "The Rusty Blade",
				Stock: []worldstatic.ShopStockEntry{
					{TemplateId: "sword"},
					{TemplateId: "potion"},
					{TemplateId: "missing"},
				},
			},
		},
	}
}

func TestShopLookup(t *testing.T) {
	shops := NewShops(testWorld(), DefaultPricing())

	if shops.At("town:nowhere") != nil {
		t.Error("expected no shop in town:nowhere")
	}
	shop := shops.At("town:market")
	if shop == nil {
		t.Fatal("expected shop in town:market")
	}

	if tmpl := shops.StockItem(shop, "SWORD"); tmpl == nil || tmpl.Id != "sword" {
		t.Errorf("StockItem(SWORD) = %v", tmpl)
	}
	if tmpl := shops.StockItem(shop, "shield"); tmpl != nil {
		t.Errorf("StockItem(shield) = %v, want nil", tmpl)
	}

	stock := shops.StockTemplates(shop)
	if len(stock) != 2 {
		t.Errorf("stock length = %d, want 2 (dangling ref skipped)", len(stock))
	}
}
