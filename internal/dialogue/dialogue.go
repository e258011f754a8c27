// Package dialogue implements NPC conversations and quest progression:
// a session-scoped State pointing at a node in a static conversation
// Tree, plus numbered choices that can transition nodes, grant
// items/xp, set the player's recall room, or end the conversation.
package dialogue

import (
	"errors"
	"strconv"

	"github.com/duskhollow/engine/internal/ids"
)

// Errors returned by SelectChoice.
var (
	ErrNoActiveNode     = errors.New("no active dialogue node")
	ErrChoiceOutOfRange = errors.New("no such choice")
)

// ActionKind tags what a Choice does when selected, beyond moving to the
// next node.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionGrantItem
	ActionGrantXp
	ActionSetRecall
	ActionEndDialogue
)

// ChoiceAction is the side effect attached to a Choice.
type ChoiceAction struct {
	Kind       ActionKind
	ItemTmplId string    // ActionGrantItem
	XpAmount   int       // ActionGrantXp
	RecallRoom ids.RoomId // ActionSetRecall
}

// Choice is one numbered option presented at a Node.
type Choice struct {
	Text       string
	NextNodeId string // "" if this choice ends the dialogue
	Action     ChoiceAction
}

// Node is one prompt in a conversation tree, with up to 9 numbered
// choices so a bare digit 1..9 can select one.
type Node struct {
	Id      string
	Prompt  string
	Choices []Choice
}

// Tree is a complete static conversation bound to an NPC mob template.
type Tree struct {
	NpcTemplateId string
	StartNodeId   string
	Nodes         map[string]*Node
}

// State is the session-scoped dialogue progress. Cleared on movement,
// look, or explicit "quit-dialogue".
type State struct {
	NpcMobId      ids.MobId
	NodeId        string
	VisitedNodes  map[string]bool
}

// NewState begins tracking a conversation at tree's start node.
func NewState(npcMobId ids.MobId, tree *Tree) *State {
	return &State{
		NpcMobId:     npcMobId,
		NodeId:       tree.StartNodeId,
		VisitedNodes: map[string]bool{tree.StartNodeId: true},
	}
}

// CurrentNode resolves the node the state currently points at, nil if the
// tree has no such node (a dangling reference is treated as end-of-dialogue).
func (s *State) CurrentNode(tree *Tree) *Node {
	if s == nil {
		return nil
	}
	return tree.Nodes[s.NodeId]
}

// SelectChoice validates and applies choiceNum (1-based, matching the
// numbered prompt) against the current node, returning the resulting node
// (nil if the dialogue ended) and the action to apply, or an error if the
// choice index is out of range.
func SelectChoice(tree *Tree, s *State, choiceNum int) (*Node, ChoiceAction, error) {
	node := s.CurrentNode(tree)
	if node == nil {
		return nil, ChoiceAction{}, ErrNoActiveNode
	}
	idx := choiceNum - 1
	if idx < 0 || idx >= len(node.Choices) {
		return nil, ChoiceAction{}, ErrChoiceOutOfRange
	}
	choice := node.Choices[idx]

	if choice.Action.Kind == ActionEndDialogue || choice.NextNodeId == "" {
		return nil, choice.Action, nil
	}

	next, ok := tree.Nodes[choice.NextNodeId]
	if !ok {
		return nil, choice.Action, nil
	}
	s.NodeId = next.Id
	s.VisitedNodes[next.Id] = true
	return next, choice.Action, nil
}

// FormatNode renders a node's prompt and numbered choices for display.
func FormatNode(node *Node) (prompt string, lines []string) {
	prompt = node.Prompt
	for i, c := range node.Choices {
		lines = append(lines, strconv.Itoa(i+1)+". "+c.Text)
	}
	return prompt, lines
}
