// Package router dispatches parsed commands to per-domain handlers and
// hosts the engine loop gluing every registry together. All handler code
// runs on the single engine task; handlers validate preconditions,
// mutate registries, and push ordered events to the outbound bus,
// always ending the turn with a prompt unless the session quit or was
// handed off.
package router

import (
	"fmt"

	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/clock"
	"github.com/duskhollow/engine/internal/combat"
	"github.com/duskhollow/engine/internal/command"
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
	gameerrors "github.com/duskhollow/engine/pkg/errors"
	"github.com/duskhollow/engine/pkg/logging"
)

// Deps bundles everything the handlers touch. One Deps exists per
// engine process, created at boot.
type Deps struct {
	EngineId string
	World    *worldstatic.World
	Clock    clock.Clock
	Sched    *scheduler.Scheduler
	Out      *outbound.Bus
	Players  *players.Registry
	Mobs     *mobs.Registry
	Items    *items.Registry
	Features *worldstate.Registry
	Combat   *combat.System
	Shops    *economy.Shops
	Groups   *group.System
	Guilds   *guild.System
	Trades   *trade.System
	Phase    *phase.Manager

	// Dialogues maps an NPC mob template id to its conversation tree.
	Dialogues map[string]*dialogue.Tree

	// Bus and Location are nil on single-engine deployments.
	Bus      bus.Bus
	Location bus.LocationIndex

	PlayerRepo repo.PlayerRepository
	BaseMaxHp  int

	// OnCrossZoneMove, when configured, intercepts zone-crossing moves
	// and performs the handoff described by the engine's handoff flow.
	// The handler must not prompt after invoking it.
	OnCrossZoneMove func(ids.SessionId, ids.RoomId)
	// OnShutdown is invoked by the admin shutdown command after the
	// warning broadcast.
	OnShutdown func()
	// OnMobSmited fires after an admin smites a mob out of existence.
	OnMobSmited func(ids.MobId)
	// OnPhaseSwitch performs the instance handoff once the phase manager
	// approves a switch.
	OnPhaseSwitch func(ids.SessionId, string)
	// OnRemoteWho, when configured, requests remote engine rosters for a
	// who listing; results arrive later as ordinary session output.
	OnRemoteWho func(ids.SessionId)

	// effects holds the transient per-session buff list; lazily built so
	// Deps can be constructed as a plain literal.
	effects map[ids.SessionId][]*activeEffect
}

func (d *Deps) effectsFor(sessionId ids.SessionId) []*activeEffect {
	return d.effects[sessionId]
}

func (d *Deps) setEffects(sessionId ids.SessionId, list []*activeEffect) {
	if d.effects == nil {
		d.effects = make(map[ids.SessionId][]*activeEffect)
	}
	if len(list) == 0 {
		delete(d.effects, sessionId)
		return
	}
	d.effects[sessionId] = list
}

// Handler processes one command variant family.
type Handler interface {
	Handle(sessionId ids.SessionId, cmd command.Command)
}

// Router maps each command variant to exactly one handler.
type Router struct {
	deps     *Deps
	handlers map[command.Kind]Handler
}

// NewRouter wires the standard handler set over deps.
func NewRouter(deps *Deps) *Router {
	r := &Router{deps: deps, handlers: make(map[command.Kind]Handler)}

	ui := &UiHandler{deps}
	comm := &CommunicationHandler{deps}
	nav := &NavigationHandler{deps}
	cbt := &CombatHandler{deps}
	prog := &ProgressionHandler{deps}
	item := &ItemHandler{deps}
	shop := &ShopHandler{deps}
	dlg := &DialogueQuestHandler{deps}
	grp := &GroupHandler{deps}
	gld := &GuildHandler{deps}
	feat := &WorldFeaturesHandler{deps}
	ml := &MailHandler{deps}
	adm := &AdminHandler{deps}
	trd := &TradeHandler{deps}

	register := func(h Handler, kinds ...command.Kind) {
		for _, k := range kinds {
			r.handlers[k] = h
		}
	}

	register(ui, command.Noop, command.Invalid, command.Unknown, command.Look,
		command.Exits, command.Who, command.Score, command.Inventory,
		command.Equipment, command.Help, command.Quit, command.Prompt)
	register(comm, command.Say, command.Tell, command.Gossip, command.Whisper,
		command.Shout, command.OOC, command.Pose)
	register(nav, command.Move, command.LookDir, command.Recall)
	register(cbt, command.Kill, command.Flee)
	register(prog, command.Cast, command.Spells, command.Effects, command.Dispel)
	register(item, command.Get, command.Drop, command.Give, command.Use,
		command.Wear, command.RemoveSlot)
	register(shop, command.ShopList, command.Buy, command.Sell, command.Balance)
	register(dlg, command.Talk, command.DialogueChoice, command.QuitDialogue)
	register(grp, command.GroupInvite, command.GroupAccept, command.GroupLeave,
		command.GroupKick, command.GroupList, command.Gtell)
	register(gld, command.GuildCreate, command.GuildInvite, command.GuildAccept,
		command.GuildLeave, command.GuildKick, command.GuildPromote,
		command.GuildDemote, command.GuildDisband, command.GuildMotd,
		command.GuildRoster, command.GuildInfo, command.Gchat)
	register(feat, command.Open, command.CloseFeature, command.Unlock,
		command.Search, command.GetFrom, command.PutIn, command.Pull,
		command.ReadSign)
	register(ml, command.MailList, command.MailRead, command.MailDelete,
		command.MailSend, command.MailAbort)
	register(adm, command.Goto, command.Transfer, command.Spawn,
		command.Shutdown, command.Smite, command.KickPlayer,
		command.SetLevel, command.Phase)
	register(trd, command.TradeRequest, command.TradeAdd, command.TradeMoney,
		command.TradeConfirm, command.TradeCancel, command.AuctionList,
		command.AuctionPost, command.AuctionBid, command.AuctionBuyout,
		command.AuctionCancel)

	return r
}

// Dispatch routes cmd to its handler. Unexpected panics are recovered
// into a generic error so one bad command never kills the engine task.
func (r *Router) Dispatch(sessionId ids.SessionId, cmd command.Command) {
	handler, ok := r.handlers[cmd.Kind]
	if !ok {
		r.deps.Out.Push(sessionId, outbound.SendError("Internal error."))
		r.deps.Out.Push(sessionId, outbound.SendPrompt())
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			err := gameerrors.Wrap("Router.Dispatch", "", fmt.Errorf("%v", rec))
			log := logging.WithSession(int64(sessionId))
			log.Error().
				Err(err).Int("command", int(cmd.Kind)).
				Msg("command handler panicked")
			r.deps.Out.Push(sessionId, outbound.SendError("Internal error."))
			r.deps.Out.Push(sessionId, outbound.SendPrompt())
		}
	}()
	handler.Handle(sessionId, cmd)
}
