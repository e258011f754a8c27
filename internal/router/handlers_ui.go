package router

import (
	"strings"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/progression"
)

// UiHandler covers the read-only surface: look, exits, who, score,
// inventory, equipment, help, prompt customization, and quit; plus the
// Noop/Invalid/Unknown fallthroughs.
type UiHandler struct {
	deps *Deps
}

func (h *UiHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Noop:

	case command.Invalid:
		d.errorf(sessionId, "%s", cmd.Hint)

	case command.Unknown:
		d.text(sessionId, "Huh?")

	case command.Look:
		d.clearDialogue(p)
		d.sendRoomView(sessionId, p.RoomId)

	case command.Exits:
		room := d.room(p)
		if room == nil {
			d.errorf(sessionId, "You are nowhere.")
			break
		}
		d.text(sessionId, "Exits: %s", exitList(room))

	case command.Who:
		h.who(sessionId)

	case command.Score:
		h.score(sessionId)

	case command.Inventory:
		h.inventory(sessionId)

	case command.Equipment:
		h.equipment(sessionId)

	case command.Help:
		h.help(sessionId, cmd.Arg)

	case command.Prompt:
		if cmd.Text == "" {
			p.PromptFormat = ""
			d.info(sessionId, "Prompt reset.")
		} else {
			p.PromptFormat = cmd.Text
			d.info(sessionId, "Prompt set.")
		}

	case command.Quit:
		d.text(sessionId, "Farewell.")
		d.Combat.Disengage(sessionId)
		if t := d.Trades.Of(sessionId); t != nil {
			other := t.Other(sessionId)
			d.Trades.Close(t)
			d.errorf(other, "The trade was canceled.")
			d.prompt(other)
		}
		if g := d.Groups.Leave(sessionId); g != nil {
			for _, member := range g.MembersOf() {
				d.text(member, "%s leaves your group.", title(p.Name))
				d.prompt(member)
			}
		}
		d.Players.Logout(sessionId)
		d.Items.DropSession(sessionId)
		d.Out.Push(sessionId, outbound.Close())
		return
	}
	d.prompt(sessionId)
}

func (h *UiHandler) who(sessionId ids.SessionId) {
	d := h.deps
	d.text(sessionId, "Players online:")
	for _, p := range d.Players.All() {
		marker := ""
		if d.Groups.Of(p.SessionId) != nil {
			marker = "[G] "
		}
		d.text(sessionId, "  %s%s (level %d)", marker, title(p.Name), p.Level)
	}
	if d.OnRemoteWho != nil {
		d.OnRemoteWho(sessionId)
	}
}

func (h *UiHandler) score(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)
	d.text(sessionId, "%s, level %d", title(p.Name), p.Level)
	d.text(sessionId, "HP: %d/%d", p.Hp, p.MaxHp)
	if p.Level < progression.MaxLevel {
		need := progression.TotalXpForLevel(p.Level+1) - p.XpTotal
		d.text(sessionId, "XP: %d (%d to next level)", p.XpTotal, need)
	} else {
		d.text(sessionId, "XP: %d", p.XpTotal)
	}
	d.text(sessionId, "Gold: %d", p.Gold)
	if p.GuildId != "" {
		if g := d.Guilds.Get(p.GuildId); g != nil {
			d.text(sessionId, "Guild: %s (%s)", g.DisplayName, p.GuildRank)
		}
	}
}

func (h *UiHandler) inventory(sessionId ids.SessionId) {
	d := h.deps
	inv := d.Items.Inventory(sessionId)
	if len(inv) == 0 {
		d.text(sessionId, "You are carrying nothing.")
		return
	}
	d.text(sessionId, "You are carrying:")
	for _, inst := range inv {
		d.text(sessionId, "  %s", rarityName(&inst.Item))
	}
}

func (h *UiHandler) equipment(sessionId ids.SessionId) {
	d := h.deps
	slots := d.Items.Equipment(sessionId)
	if len(slots) == 0 {
		d.text(sessionId, "You are wearing nothing special.")
		return
	}
	d.text(sessionId, "You are wearing:")
	for _, slot := range []ids.ItemSlot{ids.SlotHead, ids.SlotBody, ids.SlotHand, ids.SlotFeet} {
		if inst := slots[slot]; inst != nil {
			d.text(sessionId, "  [%s] %s", slot, rarityName(&inst.Item))
		}
	}
}

var helpTopics = map[string]string{
	"":       "Commands: look, exits, who, score, inventory, equipment, say, tell, get, drop, wear, kill, flee, list, buy, sell, mail, group, guild, trade, auction, quit. Try: help <topic>.",
	"move":   "Move with n, s, e, w, u, d or their long forms.",
	"combat": "kill <target> engages. flee attempts to escape. cast <spell> uses an ability.",
	"mail":   "mail list | mail read <n> | mail delete <n> | mail send <name> (end with a single .) | mail abort",
	"shop":   "list shows stock, buy <item> purchases, sell <item> sells, balance shows your gold.",
}

func (h *UiHandler) help(sessionId ids.SessionId, topic string) {
	text, ok := helpTopics[strings.ToLower(topic)]
	if !ok {
		h.deps.errorf(sessionId, "No help on that.")
		return
	}
	h.deps.text(sessionId, "%s", text)
}
