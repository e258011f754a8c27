package router

import (
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/dialogue"
	"github.com/duskhollow/engine/internal/ids"
)

// DialogueQuestHandler covers NPC conversations: starting one with talk,
// advancing with bare digits, and quest-style choice actions (item and
// xp grants, recall-point setting).
type DialogueQuestHandler struct {
	deps *Deps
}

func (h *DialogueQuestHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.Talk:
		h.talk(sessionId, cmd.Arg)
	case command.DialogueChoice:
		h.choose(sessionId, cmd.N)
	case command.QuitDialogue:
		if p.Dialogue == nil {
			d.errorf(sessionId, "You are not talking to anyone.")
		} else {
			p.Dialogue = nil
			d.text(sessionId, "You end the conversation.")
		}
	}
	d.prompt(sessionId)
}

func (h *DialogueQuestHandler) talk(sessionId ids.SessionId, npcKeyword string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	mob := d.Mobs.FindInRoom(p.RoomId, npcKeyword)
	if mob == nil {
		d.errorf(sessionId, "There is no %s here.", npcKeyword)
		return
	}
	tree := d.Dialogues[mob.Template.Id]
	if tree == nil {
		d.text(sessionId, "%s has nothing to say.", mob.Name)
		return
	}

	p.Dialogue = dialogue.NewState(mob.Id, tree)
	h.sendNode(sessionId, p.Dialogue.CurrentNode(tree))
}

func (h *DialogueQuestHandler) sendNode(sessionId ids.SessionId, node *dialogue.Node) {
	d := h.deps
	if node == nil {
		return
	}
	prompt, lines := dialogue.FormatNode(node)
	d.info(sessionId, "%s", prompt)
	for _, line := range lines {
		d.text(sessionId, "%s", line)
	}
}

func (h *DialogueQuestHandler) choose(sessionId ids.SessionId, n int) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if p.Dialogue == nil {
		d.text(sessionId, "Huh?")
		return
	}
	tree := h.treeFor(p.Dialogue)
	if tree == nil {
		p.Dialogue = nil
		d.text(sessionId, "The conversation trails off.")
		return
	}

	next, action, err := dialogue.SelectChoice(tree, p.Dialogue, n)
	if err != nil {
		d.errorf(sessionId, "That is not one of the choices.")
		return
	}

	h.applyAction(sessionId, action)

	if next == nil {
		p.Dialogue = nil
		d.text(sessionId, "The conversation ends.")
		return
	}
	h.sendNode(sessionId, next)
}

// treeFor re-resolves the tree for an active conversation; nil if the
// NPC has despawned since.
func (h *DialogueQuestHandler) treeFor(state *dialogue.State) *dialogue.Tree {
	mob := h.deps.Mobs.Get(state.NpcMobId)
	if mob == nil {
		return nil
	}
	return h.deps.Dialogues[mob.Template.Id]
}

func (h *DialogueQuestHandler) applyAction(sessionId ids.SessionId, action dialogue.ChoiceAction) {
	d := h.deps
	p := d.Players.Get(sessionId)

	switch action.Kind {
	case dialogue.ActionGrantItem:
		if tmpl := d.World.ItemTemplates[action.ItemTmplId]; tmpl != nil {
			inst := d.Items.SpawnInInventory(tmpl, sessionId)
			d.info(sessionId, "You receive %s.", rarityName(&inst.Item))
		}
	case dialogue.ActionGrantXp:
		if action.XpAmount > 0 {
			levels := d.Players.GrantXp(sessionId, action.XpAmount)
			d.info(sessionId, "You gain %d experience.", action.XpAmount)
			if levels > 0 {
				d.info(sessionId, "You are now level %d!", p.Level)
			}
		}
	case dialogue.ActionSetRecall:
		p.RecallRoomId = action.RecallRoom
		d.info(sessionId, "You feel anchored to this place.")
	}
}
