// Package command turns one inbound line into a Command value: a tagged
// variant the router dispatches on exhaustively. Parsing is pure; no
// registry access, no session state beyond the raw line.
package command

import (
	"strconv"
	"strings"

	"github.com/duskhollow/engine/internal/ids"
)

// Kind tags the Command sum type.
type Kind int

const (
	Noop Kind = iota
	Invalid
	Unknown

	Move
	Look
	LookDir
	Exits
	Who
	Score
	Inventory
	Equipment
	Help
	Quit
	Prompt

	Say
	Tell
	Gossip
	Whisper
	Shout
	OOC
	Pose

	Get
	Drop
	Give
	Use
	Wear
	RemoveSlot

	ShopList
	Buy
	Sell
	Balance

	Talk
	DialogueChoice
	QuitDialogue

	Kill
	Flee
	Cast
	Spells
	Effects
	Dispel
	Recall

	Open
	CloseFeature
	Unlock
	Search
	GetFrom
	PutIn
	Pull
	ReadSign

	GroupInvite
	GroupAccept
	GroupLeave
	GroupKick
	GroupList
	Gtell

	GuildCreate
	GuildInvite
	GuildAccept
	GuildLeave
	GuildKick
	GuildPromote
	GuildDemote
	GuildDisband
	GuildMotd
	GuildRoster
	GuildInfo
	Gchat

	MailList
	MailRead
	MailDelete
	MailSend
	MailAbort

	TradeRequest
	TradeAdd
	TradeMoney
	TradeConfirm
	TradeCancel

	AuctionList
	AuctionPost
	AuctionBid
	AuctionBuyout
	AuctionCancel

	Goto
	Transfer
	Spawn
	Shutdown
	Smite
	KickPlayer
	SetLevel
	Phase
)

// Command is one parsed inbound line.
type Command struct {
	Kind Kind
	Dir  ids.Direction
	Slot ids.ItemSlot
	Arg  string // primary argument: keyword, name, spell, feature
	Arg2 string // secondary argument: target name, container, room spec
	Text string // free text: message bodies, pose text, motd
	N    int    // numeric argument: dialogue choice, mail index, level, gold
	Raw  string // original line, for Unknown
	Hint string // usage hint, for Invalid
}

func invalid(hint string) Command { return Command{Kind: Invalid, Hint: hint} }

// Parse turns a raw line into a Command. Whitespace is trimmed and
// collapsed; keywords match case-insensitively.
func Parse(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: Noop}
	}

	// Apostrophe prefix is a say without a separating space.
	if strings.HasPrefix(trimmed, "'") {
		msg := strings.TrimSpace(trimmed[1:])
		if msg == "" {
			return invalid("Say what?")
		}
		return Command{Kind: Say, Text: msg}
	}

	fields := strings.Fields(trimmed)
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.Join(args, " ")

	// Bare digits route to dialogue while a conversation is active.
	if n, err := strconv.Atoi(verb); err == nil && len(args) == 0 {
		if n >= 1 && n <= 9 {
			return Command{Kind: DialogueChoice, N: n}
		}
		return Command{Kind: Unknown, Raw: trimmed}
	}

	if dir, ok := ids.ParseDirection(verb); ok && len(args) == 0 {
		return Command{Kind: Move, Dir: dir}
	}

	switch verb {
	case "look", "l":
		if len(args) == 0 {
			return Command{Kind: Look}
		}
		if dir, ok := ids.ParseDirection(args[0]); ok {
			return Command{Kind: LookDir, Dir: dir}
		}
		return invalid("Look where?")
	case "exits", "ex":
		return Command{Kind: Exits}
	case "who":
		return Command{Kind: Who}
	case "score":
		return Command{Kind: Score}
	case "inventory", "inv", "i":
		return Command{Kind: Inventory}
	case "equipment", "eq":
		return Command{Kind: Equipment}
	case "help", "?":
		return Command{Kind: Help, Arg: rest}
	case "quit", "exit":
		return Command{Kind: Quit}
	case "prompt":
		return Command{Kind: Prompt, Text: rest}

	case "say":
		if rest == "" {
			return invalid("Say what?")
		}
		return Command{Kind: Say, Text: rest}
	case "tell", "t":
		if len(args) < 2 {
			return invalid("Usage: tell <name> <message>")
		}
		return Command{Kind: Tell, Arg: args[0], Text: strings.Join(args[1:], " ")}
	case "gossip", "gs":
		if rest == "" {
			return invalid("Gossip what?")
		}
		return Command{Kind: Gossip, Text: rest}
	case "whisper", "wh":
		if len(args) < 2 {
			return invalid("Usage: whisper <name> <message>")
		}
		return Command{Kind: Whisper, Arg: args[0], Text: strings.Join(args[1:], " ")}
	case "shout", "sh":
		if rest == "" {
			return invalid("Shout what?")
		}
		return Command{Kind: Shout, Text: rest}
	case "ooc":
		if rest == "" {
			return invalid("Usage: ooc <message>")
		}
		return Command{Kind: OOC, Text: rest}
	case "pose", "po":
		if rest == "" {
			return invalid("Pose what?")
		}
		return Command{Kind: Pose, Text: rest}

	case "get", "take", "pickup":
		return parseGet(args)
	case "pick":
		// "pick up <kw>" or "pick <kw>"
		if len(args) > 0 && strings.EqualFold(args[0], "up") {
			args = args[1:]
		}
		return parseGet(args)
	case "drop":
		if rest == "" {
			return invalid("Drop what?")
		}
		return Command{Kind: Drop, Arg: rest}
	case "give":
		// Last token is the recipient; the prefix is the item keyword.
		if len(args) < 2 {
			return invalid("Usage: give <item> <player>")
		}
		return Command{
			Kind: Give,
			Arg:  strings.Join(args[:len(args)-1], " "),
			Arg2: args[len(args)-1],
		}
	case "use":
		if rest == "" {
			return invalid("Use what?")
		}
		return Command{Kind: Use, Arg: rest}
	case "wear", "equip":
		if rest == "" {
			return invalid("Wear what?")
		}
		return Command{Kind: Wear, Arg: rest}
	case "remove", "unequip":
		if rest == "" {
			return invalid("Remove which slot?")
		}
		slot, ok := ids.ParseItemSlot(rest)
		if !ok {
			return invalid("Remove which slot? (head, body, hand, feet)")
		}
		return Command{Kind: RemoveSlot, Slot: slot}

	case "list", "shop":
		return Command{Kind: ShopList}
	case "buy", "purchase":
		if rest == "" {
			return invalid("Buy what?")
		}
		return Command{Kind: Buy, Arg: rest}
	case "sell":
		if rest == "" {
			return invalid("Sell what?")
		}
		return Command{Kind: Sell, Arg: rest}
	case "balance", "gold", "wealth":
		return Command{Kind: Balance}

	case "talk":
		if rest == "" {
			return invalid("Talk to whom?")
		}
		return Command{Kind: Talk, Arg: rest}
	case "quit-dialogue":
		return Command{Kind: QuitDialogue}

	case "kill", "k", "attack":
		if rest == "" {
			return invalid("Kill what?")
		}
		return Command{Kind: Kill, Arg: rest}
	case "flee":
		return Command{Kind: Flee}
	case "cast", "c":
		if len(args) == 0 {
			return invalid("Cast what?")
		}
		cmd := Command{Kind: Cast, Arg: args[0]}
		if len(args) > 1 {
			cmd.Arg2 = strings.Join(args[1:], " ")
		}
		return cmd
	case "spells", "abilities":
		return Command{Kind: Spells}
	case "effects", "buffs", "debuffs":
		return Command{Kind: Effects}
	case "dispel":
		if rest == "" {
			return invalid("Dispel what?")
		}
		return Command{Kind: Dispel, Arg: rest}
	case "recall":
		return Command{Kind: Recall}

	case "open":
		if rest == "" {
			return invalid("Open what?")
		}
		return Command{Kind: Open, Arg: rest}
	case "close":
		if rest == "" {
			return invalid("Close what?")
		}
		return Command{Kind: CloseFeature, Arg: rest}
	case "unlock":
		if rest == "" {
			return invalid("Unlock what?")
		}
		return Command{Kind: Unlock, Arg: rest}
	case "search":
		if rest == "" {
			return invalid("Search what?")
		}
		return Command{Kind: Search, Arg: rest}
	case "put":
		// "put <item> in <container>"
		if idx := indexFold(args, "in"); idx > 0 && idx < len(args)-1 {
			return Command{
				Kind: PutIn,
				Arg:  strings.Join(args[:idx], " "),
				Arg2: strings.Join(args[idx+1:], " "),
			}
		}
		return invalid("Usage: put <item> in <container>")
	case "pull":
		if rest == "" {
			return invalid("Pull what?")
		}
		return Command{Kind: Pull, Arg: rest}
	case "read":
		if rest == "" {
			return invalid("Read what?")
		}
		return Command{Kind: ReadSign, Arg: rest}

	case "group":
		return parseGroup(args)
	case "gtell", "gt":
		if rest == "" {
			return invalid("Usage: gtell <message>")
		}
		return Command{Kind: Gtell, Text: rest}

	case "guild":
		return parseGuild(args)
	case "gchat":
		if rest == "" {
			return invalid("Usage: gchat <message>")
		}
		return Command{Kind: Gchat, Text: rest}

	case "mail":
		return parseMail(args)

	case "trade":
		return parseTrade(args)
	case "auction":
		return parseAuction(args)

	case "goto":
		if rest == "" {
			return invalid("Usage: goto <room>")
		}
		return Command{Kind: Goto, Arg: rest}
	case "transfer":
		if len(args) != 2 {
			return invalid("Usage: transfer <name> <room>")
		}
		return Command{Kind: Transfer, Arg: args[0], Arg2: args[1]}
	case "spawn":
		if rest == "" {
			return invalid("Usage: spawn <template>")
		}
		return Command{Kind: Spawn, Arg: rest}
	case "shutdown":
		return Command{Kind: Shutdown}
	case "smite":
		if rest == "" {
			return invalid("Smite what?")
		}
		return Command{Kind: Smite, Arg: rest}
	case "kick":
		if rest == "" {
			return invalid("Usage: kick <name>")
		}
		return Command{Kind: KickPlayer, Arg: rest}
	case "setlevel":
		if len(args) != 2 {
			return invalid("Usage: setlevel <name> <level>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return invalid("Usage: setlevel <name> <level>")
		}
		return Command{Kind: SetLevel, Arg: args[0], N: n}
	case "phase", "layer":
		return Command{Kind: Phase, Arg: rest}
	}

	return Command{Kind: Unknown, Raw: trimmed}
}

func parseGet(args []string) Command {
	if len(args) == 0 {
		return invalid("Get what?")
	}
	// "get <item> from <container>"
	if idx := indexFold(args, "from"); idx > 0 && idx < len(args)-1 {
		return Command{
			Kind: GetFrom,
			Arg:  strings.Join(args[:idx], " "),
			Arg2: strings.Join(args[idx+1:], " "),
		}
	}
	return Command{Kind: Get, Arg: strings.Join(args, " ")}
}

func parseGroup(args []string) Command {
	if len(args) == 0 {
		return invalid("Usage: group invite|accept|leave|kick|list")
	}
	sub := strings.ToLower(args[0])
	rest := strings.Join(args[1:], " ")
	switch sub {
	case "invite", "inv":
		if rest == "" {
			return invalid("Usage: group invite <name>")
		}
		return Command{Kind: GroupInvite, Arg: rest}
	case "accept", "acc":
		return Command{Kind: GroupAccept}
	case "leave":
		return Command{Kind: GroupLeave}
	case "kick":
		if rest == "" {
			return invalid("Usage: group kick <name>")
		}
		return Command{Kind: GroupKick, Arg: rest}
	case "list":
		return Command{Kind: GroupList}
	}
	return invalid("Usage: group invite|accept|leave|kick|list")
}

func parseGuild(args []string) Command {
	if len(args) == 0 {
		return invalid("Usage: guild create|invite|accept|leave|kick|promote|demote|disband|motd|roster|info")
	}
	sub := strings.ToLower(args[0])
	rest := strings.Join(args[1:], " ")
	switch sub {
	case "create":
		if rest == "" {
			return invalid("Usage: guild create <name>")
		}
		return Command{Kind: GuildCreate, Arg: rest}
	case "invite":
		if rest == "" {
			return invalid("Usage: guild invite <name>")
		}
		return Command{Kind: GuildInvite, Arg: rest}
	case "accept":
		return Command{Kind: GuildAccept}
	case "leave":
		return Command{Kind: GuildLeave}
	case "kick":
		if rest == "" {
			return invalid("Usage: guild kick <name>")
		}
		return Command{Kind: GuildKick, Arg: rest}
	case "promote":
		if rest == "" {
			return invalid("Usage: guild promote <name>")
		}
		return Command{Kind: GuildPromote, Arg: rest}
	case "demote":
		if rest == "" {
			return invalid("Usage: guild demote <name>")
		}
		return Command{Kind: GuildDemote, Arg: rest}
	case "disband":
		return Command{Kind: GuildDisband}
	case "motd":
		return Command{Kind: GuildMotd, Text: rest}
	case "roster":
		return Command{Kind: GuildRoster}
	case "info":
		return Command{Kind: GuildInfo}
	}
	return invalid("Usage: guild create|invite|accept|leave|kick|promote|demote|disband|motd|roster|info")
}

func parseMail(args []string) Command {
	if len(args) == 0 {
		return invalid("Usage: mail list|read <n>|delete <n>|send <name>|abort")
	}
	sub := strings.ToLower(args[0])
	rest := strings.Join(args[1:], " ")
	switch sub {
	case "list":
		return Command{Kind: MailList}
	case "read":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return invalid("Usage: mail read <n>")
		}
		return Command{Kind: MailRead, N: n}
	case "delete":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return invalid("Usage: mail delete <n>")
		}
		return Command{Kind: MailDelete, N: n}
	case "send":
		if rest == "" {
			return invalid("Usage: mail send <name>")
		}
		return Command{Kind: MailSend, Arg: rest}
	case "abort":
		return Command{Kind: MailAbort}
	}
	return invalid("Usage: mail list|read <n>|delete <n>|send <name>|abort")
}

func parseTrade(args []string) Command {
	if len(args) == 0 {
		return invalid("Usage: trade request|add|money|confirm|cancel")
	}
	sub := strings.ToLower(args[0])
	rest := strings.Join(args[1:], " ")
	switch sub {
	case "request":
		if rest == "" {
			return invalid("Usage: trade request <name>")
		}
		return Command{Kind: TradeRequest, Arg: rest}
	case "add":
		if rest == "" {
			return invalid("Usage: trade add <item>")
		}
		return Command{Kind: TradeAdd, Arg: rest}
	case "money":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return invalid("Usage: trade money <gold>")
		}
		return Command{Kind: TradeMoney, N: n}
	case "confirm":
		return Command{Kind: TradeConfirm}
	case "cancel":
		return Command{Kind: TradeCancel}
	}
	return invalid("Usage: trade request|add|money|confirm|cancel")
}

func parseAuction(args []string) Command {
	if len(args) == 0 {
		return invalid("Usage: auction list|post|bid|buyout|cancel")
	}
	sub := strings.ToLower(args[0])
	rest := args[1:]
	switch sub {
	case "list":
		return Command{Kind: AuctionList}
	case "post":
		// auction post <item> <price>
		if len(rest) < 2 {
			return invalid("Usage: auction post <item> <price>")
		}
		n, err := strconv.Atoi(rest[len(rest)-1])
		if err != nil || n < 1 {
			return invalid("Usage: auction post <item> <price>")
		}
		return Command{Kind: AuctionPost, Arg: strings.Join(rest[:len(rest)-1], " "), N: n}
	case "bid":
		if len(rest) != 2 {
			return invalid("Usage: auction bid <lot> <gold>")
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil || n < 1 {
			return invalid("Usage: auction bid <lot> <gold>")
		}
		return Command{Kind: AuctionBid, Arg: rest[0], N: n}
	case "buyout":
		if len(rest) != 1 {
			return invalid("Usage: auction buyout <lot>")
		}
		return Command{Kind: AuctionBuyout, Arg: rest[0]}
	case "cancel":
		if len(rest) != 1 {
			return invalid("Usage: auction cancel <lot>")
		}
		return Command{Kind: AuctionCancel, Arg: rest[0]}
	}
	return invalid("Usage: auction list|post|bid|buyout|cancel")
}

func indexFold(args []string, word string) int {
	for i, a := range args {
		if strings.EqualFold(a, word) {
			return i
		}
	}
	return -1
}
