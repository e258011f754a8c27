package router

import (
	"strings"
	"testing"

	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/clock"
	"github.com/duskhollow/engine/internal/combat"
	"github.com/duskhollow/engine/internal/dialogue"
	"github.com/duskhollow/engine/internal/economy"
	"github.com/duskhollow/engine/internal/group"
	"github.com/duskhollow/engine/internal/guild"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/items"
	"github.com/duskhollow/engine/internal/mobs"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/phase"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/repo"
	"github.com/duskhollow/engine/internal/scheduler"
	"github.com/duskhollow/engine/internal/trade"
	"github.com/duskhollow/engine/internal/worldstate"
	"github.com/duskhollow/engine/internal/worldstatic"
)

// seqRand yields a fixed sequence of Intn results, then zeroes.
type seqRand struct {
	values []int
	i      int
}

func (r *seqRand) Intn(int) int {
	if r.i >= len(r.values) {
		return 0
	}
	v := r.values[r.i]
	r.i++
	return v
}

func testWorld() *worldstatic.World {
	square := ids.RoomId("town:square")
	market := ids.RoomId("town:market")
	vault := ids.RoomId("town:vault")
	crypt := ids.RoomId("under:crypt")

	return &worldstatic.World{
		StartRoom:      square,
		ClassStartRoom: map[string]ids.RoomId{},
		Rooms: map[ids.RoomId]*worldstatic.Room{
			square: {
				Id:    square,
				Title: "The Town Square",
				Description: "A broad cobbled square under a grey sky.",
				Exits: map[ids.Direction]worldstatic.ExitDef{
					ids.DirEast: {Direction: ids.DirEast, To: market},
					ids.DirWest: {Direction: ids.DirWest, To: vault},
					ids.DirDown: {Direction: ids.DirDown, To: crypt},
				},
			},
			market: {
				Id:    market,
				Title: "The Market",
				Exits: map[ids.Direction]worldstatic.ExitDef{
					ids.DirWest: {Direction: ids.DirWest, To: square},
				},
			},
			vault: {
				Id:    vault,
				Title: "The Vault Antechamber",
				Exits: map[ids.Direction]worldstatic.ExitDef{
					ids.DirEast:  {Direction: ids.DirEast, To: square},
					ids.DirNorth: {Direction: ids.DirNorth, To: vault, DoorLocal: "gate", RequiresKey: "iron-key"},
				},
				Features: []worldstatic.FeatureDef{
					{Local: "gate", Kind: worldstatic.FeatureDoor, RequiresKey: "iron-key"},
					{Local: "chest", Kind: worldstatic.FeatureContainer},
					{Local: "lever", Kind: worldstatic.FeatureLever, LinkedLocal: "gate"},
					{Local: "plaque", Kind: worldstatic.FeatureSign, SignText: "Vault of the Nine"},
				},
			},
			crypt: {
				Id:    crypt,
				Title: "A Dusty Crypt",
				Exits: map[ids.Direction]worldstatic.ExitDef{
					ids.DirUp: {Direction: ids.DirUp, To: square},
				},
			},
		},
		MobTemplates: map[string]*worldstatic.MobTemplate{
			"rat": {
				Id: "rat", Name: "a sewer rat", MaxHp: 6, Defense: 0,
				MinDamage: 1, MaxDamage: 1, SwingMs: 2000, XPReward: 50,
				LootTable: []worldstatic.ItemTemplateRef{{TemplateId: "cap", Weight: 1}},
			},
			"sage": {
				Id: "sage", Name: "an old sage", MaxHp: 20,
				MinDamage: 1, MaxDamage: 1, SwingMs: 2000,
			},
		},
		ItemTemplates: map[string]*worldstatic.ItemTemplate{
			"cap":      {Id: "cap", Keyword: "cap", DisplayName: "a leather cap", Slot: ids.SlotHead, Armor: 1, BasePrice: 5},
			"sword":    {Id: "sword", Keyword: "sword", DisplayName: "a steel sword", Slot: ids.SlotHand, BasePrice: 50},
			"pebble":   {Id: "pebble", Keyword: "pebble", DisplayName: "a grey pebble", BasePrice: 0},
			"iron-key": {Id: "iron-key", Keyword: "key", DisplayName: "an iron key", BasePrice: 1},
		},
		ShopsByRoom: map[ids.RoomId]*worldstatic.ShopDefinition{
			market: {
				Room: market, Name: "The Rusty Blade",
				Stock: []worldstatic.ShopStockEntry{{TemplateId: "sword"}},
			},
		},
	}
}

type fixture struct {
	engine *Engine
	deps   *Deps
	clock  *clock.MutableClock
	out    *outbound.Bus
	rng    *seqRand
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil)
}

func newFixtureWith(t *testing.T, engineBus bus.Bus, location bus.LocationIndex) *fixture {
	t.Helper()
	world := testWorld()
	out := outbound.New()
	clk := clock.NewMutableClock(1_000_000)
	rng := &seqRand{}
	playerRepo := repo.NewMemoryPlayerRepository()
	playerReg := players.NewRegistry(playerRepo, out)

	deps := &Deps{
		EngineId: "e1",
		World:    world,
		Clock:    clk,
		Sched:    scheduler.New(clk),
		Out:      out,
		Players:  playerReg,
		Mobs:     mobs.NewRegistry(),
		Items:    items.NewRegistry(),
		Features: worldstate.NewRegistry(),
		Combat:   combat.NewSystem(combat.Config{MinDamage: 2, MaxDamage: 2, SwingIntervalMs: 2000}, rng),
		Shops:    economy.NewShops(world, economy.DefaultPricing()),
		Groups:   group.NewSystem(),
		Guilds:   guild.NewSystem(repo.NewMemoryGuildRepository()),
		Trades:   trade.NewSystem(),
		Phase:    phase.NewManager("e1"),
		Dialogues: map[string]*dialogue.Tree{
			"sage": {
				NpcTemplateId: "sage",
				StartNodeId:   "hello",
				Nodes: map[string]*dialogue.Node{
					"hello": {
						Id:     "hello",
						Prompt: "The sage peers at you. \"Seeking wisdom?\"",
						Choices: []dialogue.Choice{
							{Text: "Yes.", NextNodeId: "gift"},
							{Text: "No.", Action: dialogue.ChoiceAction{Kind: dialogue.ActionEndDialogue}},
						},
					},
					"gift": {
						Id:     "gift",
						Prompt: "\"Then take this.\"",
						Choices: []dialogue.Choice{
							{Text: "Thank you.", Action: dialogue.ChoiceAction{Kind: dialogue.ActionGrantItem, ItemTmplId: "cap"}},
						},
					},
				},
			},
		},
		Bus:        engineBus,
		Location:   location,
		PlayerRepo: playerRepo,
		BaseMaxHp:  10,
	}
	engine := NewEngine(deps)
	playerReg.PersistHook = engine.PersistHook
	return &fixture{engine: engine, deps: deps, clock: clk, out: out, rng: rng}
}

// login drives a session through the connect/name/password flow and
// drains the welcome output.
func (f *fixture) login(t *testing.T, sessionId ids.SessionId, name string) *players.PlayerState {
	t.Helper()
	f.engine.OnConnect(sessionId)
	f.engine.OnLine(sessionId, name)
	f.engine.OnLine(sessionId, "secret")
	f.out.Drain(sessionId)
	p := f.deps.Players.Get(sessionId)
	if p == nil {
		t.Fatalf("login failed for %s", name)
	}
	return p
}

func (f *fixture) send(sessionId ids.SessionId, line string) []outbound.Event {
	f.engine.OnLine(sessionId, line)
	return f.out.Drain(sessionId)
}

func eventTexts(events []outbound.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Text)
	}
	return out
}

func hasText(events []outbound.Event, want string) bool {
	for _, ev := range events {
		if strings.Contains(ev.Text, want) {
			return true
		}
	}
	return false
}

func endsWithPrompt(events []outbound.Event) bool {
	return len(events) > 0 && events[len(events)-1].Kind == outbound.KindSendPrompt
}

func TestMovementBlocked(t *testing.T) {
	f := newFixture(t)
	p := f.login(t, 1, "Alice")

	events := f.send(1, "s")
	if !hasText(events, "You can't go that way.") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if !endsWithPrompt(events) {
		t.Error("turn must end with a prompt")
	}
	if p.RoomId != "town:square" {
		t.Errorf("room = %s, want town:square", p.RoomId)
	}
}

func TestMovementBroadcasts(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.login(t, 2, "Bob")
	f.out.Drain(1) // Bob's arrival broadcast

	events := f.send(1, "e")
	if !hasText(events, "The Market") {
		t.Errorf("mover should see the new room: %v", eventTexts(events))
	}
	if alice.RoomId != "town:market" {
		t.Errorf("room = %s", alice.RoomId)
	}
	bobEvents := f.out.Drain(2)
	if !hasText(bobEvents, "Alice leaves.") {
		t.Errorf("bystander should see the leave: %v", eventTexts(bobEvents))
	}
}

func TestTellCrossEngine(t *testing.T) {
	hub := bus.NewLocalHub()
	e1Bus := hub.Join("e1")
	location := bus.NewMapLocationIndex()
	location.Set("bob", "e2")
	f := newFixtureWith(t, e1Bus, location)
	f.login(t, 1, "Alice")

	e2Bus := hub.Join("e2")
	events := f.send(1, "tell Bob hi")
	if !hasText(events, "You tell Bob: hi") {
		t.Errorf("events = %v", eventTexts(events))
	}
	for _, ev := range events {
		if ev.Kind == outbound.KindSendError {
			t.Errorf("unexpected error event: %v", ev.Text)
		}
	}

	select {
	case msg := <-e2Bus.Incoming():
		if msg.Type != bus.TypeTell || msg.FromName != "Alice" || msg.ToName != "Bob" || msg.Text != "hi" {
			t.Errorf("bus message = %+v", msg)
		}
	default:
		t.Error("e2 did not receive the targeted tell")
	}
}

func TestTellNoBusNoPlayer(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	events := f.send(1, "tell Ghost hi")
	if !hasText(events, "No such player.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestShopBuySell(t *testing.T) {
	f := newFixture(t)
	p := f.login(t, 1, "Alice")
	p.Gold = 100
	f.send(1, "e") // into the market

	events := f.send(1, "buy sword")
	if !hasText(events, "50 gold") {
		t.Errorf("buy events = %v", eventTexts(events))
	}
	if p.Gold != 50 {
		t.Errorf("gold after buy = %d, want 50", p.Gold)
	}
	if f.deps.Items.FindInInventory(1, "sword") == nil {
		t.Fatal("sword not in inventory")
	}

	events = f.send(1, "sell sword")
	if !hasText(events, "25 gold") {
		t.Errorf("sell events = %v", eventTexts(events))
	}
	if p.Gold != 75 {
		t.Errorf("gold after sell = %d, want 75", p.Gold)
	}
	if len(f.deps.Items.Inventory(1)) != 0 {
		t.Error("inventory should be empty after sell")
	}
}

func TestSellWorthless(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.deps.Items.SpawnInInventory(f.deps.World.ItemTemplates["pebble"], 1)
	f.send(1, "e")

	events := f.send(1, "sell pebble")
	if !hasText(events, "worthless") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if len(f.deps.Items.Inventory(1)) != 1 {
		t.Error("worthless item must stay in inventory")
	}
}

func TestShopOutsideShopRoom(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	events := f.send(1, "list")
	if !hasText(events, "There is no shop here.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestMailComposeScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "mail send Bob")
	f.engine.OnLine(1, "Hello Bob,")
	f.engine.OnLine(1, "How are you?")
	events := f.send(1, ".")

	if !hasText(events, "on its way") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if alice.MailCompose != nil {
		t.Error("compose state should clear")
	}
	if len(bob.Inbox) != 1 {
		t.Fatalf("bob inbox = %d messages, want 1", len(bob.Inbox))
	}
	msg := bob.Inbox[0]
	if msg.FromName != "alice" || msg.Body != "Hello Bob,\nHow are you?" || msg.Read {
		t.Errorf("message = %+v", msg)
	}
}

func TestMailComposeEmptyBodyRejected(t *testing.T) {
	f := newFixture(t)
	p := f.login(t, 1, "Alice")
	f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "mail send Bob")
	events := f.send(1, ".")
	if !hasText(events, "empty") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if p.MailCompose == nil {
		t.Error("compose should survive an empty-body attempt")
	}
	f.send(1, "mail abort")
	if p.MailCompose != nil {
		t.Error("abort should clear compose")
	}
}

func TestMailSendWhileComposing(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "mail send Bob")
	events := f.send(1, "mail send Bob")
	if !hasText(events, "already composing") {
		t.Errorf("double send should conflict: %v", eventTexts(events))
	}
	events = f.send(1, "mail abort")
	if !hasText(events, "set your letter aside") {
		t.Errorf("abort during compose: %v", eventTexts(events))
	}
}

func TestMailDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)

	before := len(bob.Inbox)
	f.send(1, "mail send Bob")
	f.engine.OnLine(1, "ping")
	f.send(1, ".")
	if len(bob.Inbox) != before+1 {
		t.Fatal("delivery failed")
	}
	f.out.Drain(2)
	f.send(2, "mail delete 1")
	if len(bob.Inbox) != before {
		t.Errorf("inbox size = %d, want %d", len(bob.Inbox), before)
	}
}

func TestWearGiveConservation(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.deps.Items.SpawnInRoom(f.deps.World.ItemTemplates["cap"], alice.RoomId)
	countBefore := f.deps.Items.Count()

	f.send(1, "get cap")
	f.send(1, "wear cap")
	if alice.MaxHp != 11 || alice.Hp != 11 {
		t.Errorf("after wear hp = %d/%d, want 11/11", alice.Hp, alice.MaxHp)
	}

	f.send(1, "give cap Bob")
	if alice.MaxHp != 10 || alice.Hp != 10 {
		t.Errorf("after give hp = %d/%d, want 10/10", alice.Hp, alice.MaxHp)
	}
	if f.deps.Items.Equipped(1, ids.SlotHead) != nil {
		t.Error("alice's head slot should be empty")
	}
	if len(f.deps.Items.Inventory(bob.SessionId)) != 1 {
		t.Error("bob should hold exactly one cap")
	}
	if f.deps.Items.Count() != countBefore {
		t.Errorf("instance count changed: %d != %d", f.deps.Items.Count(), countBefore)
	}
}

func TestWearRemoveRoundTrip(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.deps.Items.SpawnInInventory(f.deps.World.ItemTemplates["cap"], 1)

	f.send(1, "wear cap")
	f.send(1, "remove head")
	if alice.MaxHp != 10 || alice.Hp != 10 {
		t.Errorf("hp = %d/%d, want 10/10", alice.Hp, alice.MaxHp)
	}
	if len(f.deps.Items.Inventory(1)) != 1 {
		t.Error("cap should be back in inventory")
	}
}

func TestCombatKillAwardsXpAndLoot(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	rat := f.deps.Mobs.Spawn(f.deps.World.MobTemplates["rat"], alice.RoomId)

	events := f.send(1, "kill rat")
	if !hasText(events, "You attack") {
		t.Fatalf("events = %v", eventTexts(events))
	}

	// Swings land at +2000ms; damage is pinned at 2, rat has 6 hp.
	for i := 0; i < 3; i++ {
		f.clock.Advance(2000)
		f.engine.Tick(10)
	}
	events = f.out.Drain(1)
	if !hasText(events, "is dead!") {
		t.Fatalf("rat should die after three swings: %v", eventTexts(events))
	}
	if f.deps.Mobs.Get(rat.Id) != nil {
		t.Error("dead mob should be removed")
	}
	if alice.XpTotal != 50 {
		t.Errorf("xp = %d, want 50", alice.XpTotal)
	}
	if f.deps.Items.FindInRoom(alice.RoomId, "cap") == nil {
		t.Error("loot should drop to the floor")
	}
	if f.deps.Combat.Engaged(1) {
		t.Error("combat should disengage on death")
	}
}

func TestMovementBlockedInCombat(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.deps.Mobs.Spawn(f.deps.World.MobTemplates["rat"], alice.RoomId)
	f.send(1, "kill rat")

	events := f.send(1, "e")
	if !hasText(events, "You are in combat.") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if alice.RoomId != "town:square" {
		t.Error("combat should block movement")
	}
}

func TestFleeFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.deps.Mobs.Spawn(f.deps.World.MobTemplates["rat"], alice.RoomId)
	f.send(1, "kill rat")

	f.rng.values = []int{99} // flee roll fails
	f.rng.i = 0
	events := f.send(1, "flee")
	if !hasText(events, "You fail to flee.") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if !f.deps.Combat.Engaged(1) {
		t.Error("failed flee should stay engaged")
	}
}

func TestRecallCooldown(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")

	f.send(1, "recall")
	events := f.send(1, "recall")
	if !hasText(events, "seconds remaining") {
		t.Errorf("events = %v", eventTexts(events))
	}
	f.clock.Advance(RecallCooldownMs)
	events = f.send(1, "recall")
	if hasText(events, "seconds remaining") {
		t.Errorf("cooldown should have expired: %v", eventTexts(events))
	}
}

func TestPoseRequiresOwnName(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")

	events := f.send(1, "pose dances a jig")
	if !hasText(events, "must include your own name") {
		t.Errorf("events = %v", eventTexts(events))
	}
	events = f.send(1, "pose Alice dances a jig")
	if !hasText(events, "Alice dances a jig") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestAdminRequiresStaff(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	events := f.send(1, "goto town:market")
	if !hasText(events, "You are not staff.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestAdminGotoRoomSpecs(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	alice.IsStaff = true

	f.send(1, "goto market")
	if alice.RoomId != "town:market" {
		t.Errorf("bare local spec: room = %s", alice.RoomId)
	}
	f.send(1, "goto under:crypt")
	if alice.RoomId != "under:crypt" {
		t.Errorf("full spec: room = %s", alice.RoomId)
	}
	f.send(1, "goto town:")
	if alice.RoomId.Zone() != "town" {
		t.Errorf("zone spec: room = %s", alice.RoomId)
	}
	events := f.send(1, "goto nowhere:at_all")
	if !hasText(events, "No such room.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestAdminSetLevelClamps(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	alice.IsStaff = true
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "setlevel Bob 99")
	if bob.Level != 20 {
		t.Errorf("level = %d, want clamped to 20", bob.Level)
	}
	f.send(1, "setlevel Bob 0")
	if bob.Level != 1 {
		t.Errorf("level = %d, want clamped to 1", bob.Level)
	}
	if bob.XpTotal != 0 {
		t.Errorf("xp = %d, want threshold for level 1", bob.XpTotal)
	}
}

func TestAdminKickSelfRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	alice.IsStaff = true
	events := f.send(1, "kick Alice")
	if !hasText(events, "You cannot kick yourself.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestDoorBlocksAndLeverOpens(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.send(1, "w") // vault antechamber

	events := f.send(1, "n")
	if !hasText(events, "locked") {
		t.Errorf("locked door should block: %v", eventTexts(events))
	}

	events = f.send(1, "unlock n")
	if !hasText(events, "don't have the key") {
		t.Errorf("unlock without key: %v", eventTexts(events))
	}

	f.send(1, "pull lever")
	events = f.send(1, "n")
	if hasText(events, "locked") || hasText(events, "closed") {
		t.Errorf("lever should have opened the gate: %v", eventTexts(events))
	}
	_ = alice
}

func TestContainerFlow(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.send(1, "w")
	chest := ids.NewFeatureId("town:vault", "chest")
	f.deps.Items.SpawnInContainer(f.deps.World.ItemTemplates["iron-key"], chest)

	events := f.send(1, "search chest")
	if !hasText(events, "closed") {
		t.Errorf("closed container should refuse search: %v", eventTexts(events))
	}
	f.send(1, "open chest")
	events = f.send(1, "search chest")
	if !hasText(events, "an iron key") {
		t.Errorf("search should list contents: %v", eventTexts(events))
	}
	f.send(1, "get key from chest")
	if f.deps.Items.FindInInventory(1, "key") == nil {
		t.Error("key should be in inventory")
	}
	events = f.send(1, "unlock n")
	if !hasText(events, "You unlock") {
		t.Errorf("unlock with key: %v", eventTexts(events))
	}
}

func TestSignRead(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.send(1, "w")
	events := f.send(1, "read plaque")
	if !hasText(events, "Vault of the Nine") {
		t.Errorf("events = %v", eventTexts(events))
	}
	events = f.send(1, "read ghost")
	if !hasText(events, "There is no ghost to read here.") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestDialogueFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.deps.Mobs.Spawn(f.deps.World.MobTemplates["sage"], alice.RoomId)

	events := f.send(1, "talk sage")
	if !hasText(events, "Seeking wisdom?") || !hasText(events, "1. Yes.") {
		t.Fatalf("events = %v", eventTexts(events))
	}
	f.send(1, "1")
	events = f.send(1, "1")
	if !hasText(events, "You receive a leather cap.") {
		t.Errorf("events = %v", eventTexts(events))
	}
	if alice.Dialogue != nil {
		t.Error("dialogue should end after the terminal choice")
	}
	if f.deps.Items.FindInInventory(1, "cap") == nil {
		t.Error("granted item missing")
	}
}

func TestDialogueDigitWithoutConversation(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	events := f.send(1, "3")
	if !hasText(events, "Huh?") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestDialogueClearsOnMovement(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	f.deps.Mobs.Spawn(f.deps.World.MobTemplates["sage"], alice.RoomId)
	f.send(1, "talk sage")
	if alice.Dialogue == nil {
		t.Fatal("dialogue should start")
	}
	f.send(1, "e")
	if alice.Dialogue != nil {
		t.Error("movement should clear dialogue")
	}
}

func TestGroupFlowAndGtell(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "group invite Bob")
	f.out.Drain(2)
	f.send(2, "group accept")
	f.out.Drain(1)

	f.send(1, "gtell onward")
	bobEvents := f.out.Drain(2)
	if !hasText(bobEvents, "[GROUP] Alice: onward") {
		t.Errorf("bob events = %v", eventTexts(bobEvents))
	}

	events := f.send(2, "group kick Alice")
	if !hasText(events, "only the group leader") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestGuildLifecycle(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)

	f.send(1, "guild create Night Watch")
	if alice.GuildId != "night-watch" || alice.GuildRank != ids.RankLeader {
		t.Fatalf("alice guild = %q rank %v", alice.GuildId, alice.GuildRank)
	}
	f.send(1, "guild invite Bob")
	f.out.Drain(2)
	f.send(2, "guild accept")
	if bob.GuildId != "night-watch" {
		t.Fatalf("bob guild = %q", bob.GuildId)
	}

	f.send(1, "gchat hold the wall")
	bobEvents := f.out.Drain(2)
	if !hasText(bobEvents, "Alice: hold the wall") {
		t.Errorf("bob events = %v", eventTexts(bobEvents))
	}

	f.send(1, "guild disband")
	if alice.GuildId != "" || bob.GuildId != "" {
		t.Error("disband should clear membership from online members")
	}
}

func TestTradeExecution(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)
	f.deps.Items.SpawnInInventory(f.deps.World.ItemTemplates["sword"], 1)
	bob.Gold = 100

	f.send(1, "trade request Bob")
	f.out.Drain(2)
	f.send(1, "trade add sword")
	f.out.Drain(2)
	f.send(2, "trade money 60")
	f.out.Drain(1)
	f.send(1, "trade confirm")
	f.out.Drain(2)
	f.send(2, "trade confirm")

	if f.deps.Items.FindInInventory(2, "sword") == nil {
		t.Error("sword should move to bob")
	}
	if alice.Gold != 60 || bob.Gold != 40 {
		t.Errorf("gold = %d/%d, want 60/40", alice.Gold, bob.Gold)
	}
	if f.deps.Trades.Of(1) != nil {
		t.Error("trade should close after execution")
	}
}

func TestAuctionBuyout(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, 1, "Alice")
	bob := f.login(t, 2, "Bob")
	f.out.Drain(1)
	f.deps.Items.SpawnInInventory(f.deps.World.ItemTemplates["sword"], 1)
	bob.Gold = 200

	f.send(1, "auction post sword 50")
	if len(f.deps.Items.Inventory(1)) != 0 {
		t.Fatal("posted item should escrow out of inventory")
	}
	f.send(2, "auction buyout lot-1")
	if f.deps.Items.FindInInventory(2, "sword") == nil {
		t.Error("buyout should deliver the item")
	}
	if bob.Gold != 100 {
		t.Errorf("bob gold = %d, want 100", bob.Gold)
	}
	if alice.Gold != 100 {
		t.Errorf("alice gold = %d, want 100", alice.Gold)
	}
}

func TestRespawnTick(t *testing.T) {
	f := newFixture(t)
	f.deps.World.MobSpawns = []worldstatic.MobSpawn{{Room: "town:square", TemplateId: "rat"}}
	f.engine.SeedWorld()
	f.engine.StartMaintenance()
	if len(f.deps.Mobs.InRoom("town:square")) != 1 {
		t.Fatal("seed should spawn the rat")
	}

	rat := f.deps.Mobs.InRoom("town:square")[0]
	f.deps.Mobs.Remove(rat.Id)

	f.clock.Advance(respawnIntervalMs)
	f.engine.Tick(10)
	if len(f.deps.Mobs.InRoom("town:square")) != 1 {
		t.Error("respawn tick should restore the static placement")
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	events := f.send(1, "dance wildly")
	if !hasText(events, "Huh?") {
		t.Errorf("events = %v", eventTexts(events))
	}
}

func TestQuitClosesAfterPendingEvents(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.engine.OnLine(1, "quit")
	events := f.out.Drain(1)
	if len(events) == 0 || events[len(events)-1].Kind != outbound.KindClose {
		t.Errorf("events = %v", events)
	}
	if f.deps.Players.Get(1) != nil {
		t.Error("player should be logged out")
	}
}

func TestLoginTakeover(t *testing.T) {
	f := newFixture(t)
	f.login(t, 1, "Alice")
	f.deps.Items.SpawnInInventory(f.deps.World.ItemTemplates["cap"], 1)

	f.engine.OnConnect(2)
	f.engine.OnLine(2, "Alice")
	f.engine.OnLine(2, "secret")

	events := f.out.Drain(1)
	if !hasText(events, "You have been disconnected.") {
		t.Errorf("prior session events = %v", eventTexts(events))
	}
	if len(events) == 0 || events[len(events)-1].Kind != outbound.KindClose {
		t.Error("prior session should end with Close")
	}

	alice := f.deps.Players.Get(2)
	if alice == nil || alice.Name != "alice" {
		t.Fatal("state should rebind to the new session")
	}
	if f.deps.Items.FindInInventory(2, "cap") == nil {
		t.Error("inventory should follow the takeover")
	}
	if f.deps.Items.FindInInventory(1, "cap") != nil {
		t.Error("old session should hold nothing")
	}
}

func TestZoneHandoffBetweenEngines(t *testing.T) {
	hub := bus.NewLocalHub()
	e1 := newFixtureWith(t, hub.Join("e1"), nil)
	e2 := newFixtureWith(t, hub.Join("e2"), nil)

	alice := e1.login(t, 1, "Alice")
	alice.Gold = 77
	e1.deps.Items.SpawnInInventory(e1.deps.World.ItemTemplates["cap"], 1)

	// Moving down crosses zones (town -> under) and publishes a handoff.
	e1.send(1, "d")
	if e1.deps.Players.Get(1) != nil {
		t.Fatal("source engine should drop the player record")
	}

	// The receiving engine consumes the bus message as an input.
	select {
	case msg := <-e2.deps.Bus.Incoming():
		e2.engine.ApplyBusMessage(msg)
	default:
		t.Fatal("no handoff message on the bus")
	}

	arrived := e2.deps.Players.ByName("alice")
	if arrived == nil {
		t.Fatal("player should materialize on e2")
	}
	if arrived.RoomId != "under:crypt" || arrived.Gold != 77 {
		t.Errorf("arrived = %+v", arrived)
	}
	if e2.deps.Items.FindInInventory(arrived.SessionId, "cap") == nil {
		t.Error("inventory should survive the handoff")
	}
}
