package router

import (
	"encoding/json"
	"strings"

	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mail"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/repo"
	"github.com/duskhollow/engine/pkg/logging"
)

// sessionPhase is the connection lifecycle state. Only phasePlaying
// processes world commands; the earlier phases run the login prompts.
type sessionPhase int

const (
	phaseNaming sessionPhase = iota
	phasePassword
	phasePlaying
)

type sessionState struct {
	phase       sessionPhase
	pendingName string
}

// InboundLine is one unit of work for the engine task: a raw line from a
// session.
type InboundLine struct {
	SessionId ids.SessionId
	Line      string
}

// Engine is the single-threaded core: it owns the session lifecycle
// state machine, routes lines through the parser and router, applies
// inter-engine messages, and drives scheduler ticks. All methods must be
// called from the one engine task.
type Engine struct {
	deps     *Deps
	router   *Router
	mailer   *MailHandler
	sessions map[ids.SessionId]*sessionState

	// handoffSeq mints session ids for players arriving via zone
	// handoff until the I/O layer rebinds them.
	handoffSeq int64
}

// NewEngine builds the engine over deps, wiring the default cross-zone
// and phase handoff callbacks when a bus is configured.
func NewEngine(deps *Deps) *Engine {
	e := &Engine{
		deps:     deps,
		router:   NewRouter(deps),
		mailer:   &MailHandler{deps},
		sessions: make(map[ids.SessionId]*sessionState),
	}
	if deps.Bus != nil && deps.OnCrossZoneMove == nil {
		deps.OnCrossZoneMove = e.handOff
	}
	if deps.Bus != nil && deps.OnPhaseSwitch == nil {
		deps.OnPhaseSwitch = func(sessionId ids.SessionId, targetEngineId string) {
			p := deps.Players.Get(sessionId)
			if p == nil {
				return
			}
			e.publishHandoff(sessionId, p.RoomId, targetEngineId)
		}
	}
	return e
}

// OnConnect registers a fresh session and starts the login prompts.
func (e *Engine) OnConnect(sessionId ids.SessionId) {
	e.deps.Out.Register(sessionId)
	e.sessions[sessionId] = &sessionState{phase: phaseNaming}
	e.deps.text(sessionId, "Welcome to Duskhollow.")
	e.deps.text(sessionId, "What is your name?")
	e.deps.prompt(sessionId)
}

// OnDisconnect tears a session down (socket dropped). Playing sessions
// are persisted and logged out.
func (e *Engine) OnDisconnect(sessionId ids.SessionId) {
	if state := e.sessions[sessionId]; state != nil && state.phase == phasePlaying {
		e.deps.Combat.Disengage(sessionId)
		if t := e.deps.Trades.Of(sessionId); t != nil {
			other := t.Other(sessionId)
			e.deps.Trades.Close(t)
			e.deps.errorf(other, "The trade was canceled.")
			e.deps.prompt(other)
		}
		if g := e.deps.Groups.Leave(sessionId); g != nil {
			for _, member := range g.MembersOf() {
				if mp := e.deps.Players.Get(member); mp != nil {
					e.deps.text(member, "%s leaves your group.", title(e.nameOf(sessionId)))
					e.deps.prompt(member)
				}
			}
		}
		e.deps.Players.Logout(sessionId)
		e.deps.Items.DropSession(sessionId)
	}
	delete(e.sessions, sessionId)
	e.deps.Out.Unregister(sessionId)
}

func (e *Engine) nameOf(sessionId ids.SessionId) string {
	if p := e.deps.Players.Get(sessionId); p != nil {
		return p.Name
	}
	return "someone"
}

// OnLine processes one inbound line for a session, per its lifecycle
// phase.
func (e *Engine) OnLine(sessionId ids.SessionId, line string) {
	state := e.sessions[sessionId]
	if state == nil {
		return
	}

	switch state.phase {
	case phaseNaming:
		name := strings.TrimSpace(line)
		if !players.ValidName(name) {
			e.deps.errorf(sessionId, "Names are 2-16 letters. What is your name?")
			e.deps.prompt(sessionId)
			return
		}
		state.pendingName = name
		state.phase = phasePassword
		e.deps.text(sessionId, "Password?")
		e.deps.prompt(sessionId)

	case phasePassword:
		e.finishLogin(sessionId, state, strings.TrimSpace(line))

	case phasePlaying:
		p := e.deps.Players.Get(sessionId)
		if p == nil {
			return
		}
		if p.MailCompose != nil {
			e.mailer.ComposeLine(sessionId, line)
			return
		}
		p.PushHistory(line)
		e.router.Dispatch(sessionId, command.Parse(line))
	}
}

func (e *Engine) finishLogin(sessionId ids.SessionId, state *sessionState, password string) {
	d := e.deps
	outcome := d.Players.Login(sessionId, state.pendingName, password, d.World.StartRoom, d.BaseMaxHp)

	switch outcome.Result {
	case players.LoginNameInvalid:
		state.phase = phaseNaming
		d.errorf(sessionId, "That name will not do. What is your name?")
		d.prompt(sessionId)

	case players.LoginBadPassword:
		state.phase = phaseNaming
		d.errorf(sessionId, "Wrong password. What is your name?")
		d.prompt(sessionId)

	case players.LoginFailed:
		state.phase = phaseNaming
		d.errorf(sessionId, "The realm is unavailable. Try again. What is your name?")
		d.prompt(sessionId)

	case players.LoginTakeover:
		delete(e.sessions, outcome.PriorSession)
		d.Items.RebindSession(outcome.PriorSession, sessionId)
		d.Groups.Rebind(outcome.PriorSession, sessionId)
		d.Combat.Disengage(outcome.PriorSession)
		if t := d.Trades.Of(outcome.PriorSession); t != nil {
			other := t.Other(outcome.PriorSession)
			d.Trades.Close(t)
			d.errorf(other, "The trade was canceled.")
			d.prompt(other)
		}
		state.phase = phasePlaying
		e.afterLogin(sessionId, outcome.Record, true)

	case players.LoginOk:
		state.phase = phasePlaying
		e.afterLogin(sessionId, outcome.Record, false)
	}
}

// afterLogin materializes inventory and equipment from the persisted
// record and shows the arrival view.
func (e *Engine) afterLogin(sessionId ids.SessionId, record *repo.PlayerRecord, takeover bool) {
	d := e.deps
	p := d.Players.Get(sessionId)

	if !takeover && record != nil {
		for _, tmplId := range record.Inventory {
			if tmpl := d.World.ItemTemplates[tmplId]; tmpl != nil {
				d.Items.SpawnInInventory(tmpl, sessionId)
			}
		}
		for slot, tmplId := range record.Equipment {
			tmpl := d.World.ItemTemplates[tmplId]
			if tmpl == nil || tmpl.Slot != slot {
				continue
			}
			inst := d.Items.SpawnInInventory(tmpl, sessionId)
			if _, ok := d.Items.Equip(sessionId, inst); ok {
				applyArmorDelta(p, inst.Item.Armor)
			}
		}
	}

	if d.Location != nil {
		if idx, ok := d.Location.(*bus.MapLocationIndex); ok {
			idx.Set(p.Name, d.EngineId)
		}
	}

	d.text(sessionId, "Welcome, %s.", title(p.Name))
	d.broadcastRoom(p.RoomId, title(p.Name)+" awakens.", sessionId)
	d.sendRoomView(sessionId, p.RoomId)
	d.prompt(sessionId)
}

// Tick runs one scheduler pass and returns its (ran, deferred) counts
// for the metrics exporter.
func (e *Engine) Tick(maxActions int) (ran, deferred int) {
	return e.deps.Sched.RunDue(maxActions)
}

// SeedWorld spawns the static item and mob placements. Call once at
// boot, after the registries exist and before any session connects.
func (e *Engine) SeedWorld() {
	d := e.deps
	for _, spawn := range d.World.ItemSpawns {
		if tmpl := d.World.ItemTemplates[spawn.TemplateId]; tmpl != nil {
			d.Items.SpawnInRoom(tmpl, spawn.Room)
		}
	}
	for _, spawn := range d.World.MobSpawns {
		if tmpl := d.World.MobTemplates[spawn.TemplateId]; tmpl != nil {
			d.Mobs.Spawn(tmpl, spawn.Room)
		}
	}
}

// Maintenance cadences.
const (
	respawnIntervalMs      = 60_000
	featureFlushIntervalMs = 5_000
)

// StartMaintenance schedules the recurring respawn and world-state
// flush ticks. Call once at boot.
func (e *Engine) StartMaintenance() {
	var respawn func()
	respawn = func() {
		e.respawnMissing()
		e.deps.Sched.ScheduleIn(respawnIntervalMs, respawn)
	}
	e.deps.Sched.ScheduleIn(respawnIntervalMs, respawn)

	var flush func()
	flush = func() {
		if dirty := e.deps.Features.DirtyFeatures(); len(dirty) > 0 {
			logging.Debug().Int("features", len(dirty)).Msg("world state flushed")
		}
		e.deps.Sched.ScheduleIn(featureFlushIntervalMs, flush)
	}
	e.deps.Sched.ScheduleIn(featureFlushIntervalMs, flush)
}

// respawnMissing re-spawns any static mob placement whose template no
// longer has a live mob in its room.
func (e *Engine) respawnMissing() {
	d := e.deps
	for _, spawn := range d.World.MobSpawns {
		tmpl := d.World.MobTemplates[spawn.TemplateId]
		if tmpl == nil {
			continue
		}
		alive := false
		for _, mob := range d.Mobs.InRoom(spawn.Room) {
			if mob.Template.Id == spawn.TemplateId {
				alive = true
				break
			}
		}
		if !alive {
			mob := d.Mobs.Spawn(tmpl, spawn.Room)
			d.broadcastRoom(spawn.Room, mob.Name+" arrives.")
		}
	}
}

// PersistHook builds the full player record, folding in the item
// registry's view of inventory and equipment. Install on the player
// registry at boot.
func (e *Engine) PersistHook(p *players.PlayerState) *repo.PlayerRecord {
	d := e.deps
	record := players.BaseRecord(p)
	for _, inst := range d.Items.Inventory(p.SessionId) {
		record.Inventory = append(record.Inventory, inst.Item.Id)
	}
	record.Equipment = make(map[ids.ItemSlot]string)
	for slot, inst := range d.Items.Equipment(p.SessionId) {
		record.Equipment[slot] = inst.Item.Id
	}
	if existing, err := d.PlayerRepo.FindByName(p.Name); err == nil && existing != nil {
		record.PasswordHash = existing.PasswordHash
	}
	return record
}

// handOff migrates a session's player to the engine owning the target
// zone: snapshot, publish, drop local state (socket stays open).
func (e *Engine) handOff(sessionId ids.SessionId, target ids.RoomId) {
	e.publishHandoff(sessionId, target, "")
}

func (e *Engine) publishHandoff(sessionId ids.SessionId, target ids.RoomId, targetEngineId string) {
	d := e.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	snapshot := &bus.PlayerSnapshot{
		Name:         p.Name,
		Hp:           p.Hp,
		BaseMaxHp:    p.BaseMaxHp,
		Level:        p.Level,
		XpTotal:      p.XpTotal,
		Gold:         p.Gold,
		IsStaff:      p.IsStaff,
		Class:        p.Class,
		GuildId:      p.GuildId,
		GuildRank:    int(p.GuildRank),
		GroupId:      p.GroupId,
		RecallRoomId: string(p.RecallRoomId),
		Equipment:    make(map[string]string),
	}
	for _, inst := range d.Items.Inventory(sessionId) {
		snapshot.Inventory = append(snapshot.Inventory, inst.Item.Id)
	}
	for slot, inst := range d.Items.Equipment(sessionId) {
		snapshot.Equipment[slot.String()] = inst.Item.Id
	}
	if inboxJSON, err := json.Marshal(p.Inbox); err == nil {
		snapshot.InboxJSON = inboxJSON
	}

	msg := bus.NewMessage(bus.TypeZoneHandoff, d.EngineId)
	msg.TargetPlayerName = p.Name
	msg.TargetRoomId = target
	msg.Snapshot = snapshot

	sent := false
	if targetEngineId != "" {
		sent = d.Bus.SendTo(targetEngineId, msg) == nil
	} else if d.Location != nil {
		if engineId, ok := d.Location.LookupEngineId(p.Name); ok && engineId != d.EngineId {
			sent = d.Bus.SendTo(engineId, msg) == nil
		}
	}
	if !sent {
		_ = d.Bus.Broadcast(msg)
	}

	d.broadcastRoom(p.RoomId, title(p.Name)+" fades from view.", sessionId)
	d.info(sessionId, "The world blurs around you...")
	d.Combat.Disengage(sessionId)
	d.Players.Remove(sessionId)
	d.Items.DropSession(sessionId)
	delete(e.sessions, sessionId)
	log := logging.Scoped(logging.Fields{Session: int64(sessionId), Room: target.String(), Zone: target.Zone()})
	log.Info().Str("player", p.Name).Msg("zone handoff published")
}

// ApplyBusMessage folds one inter-engine message into local state, with
// the same tick discipline as a local command.
func (e *Engine) ApplyBusMessage(msg bus.Message) {
	d := e.deps

	switch msg.Type {
	case bus.TypeGlobalBroadcast:
		switch msg.Broadcast {
		case bus.BroadcastGossip:
			d.broadcastAll("[GOSSIP] " + msg.SenderName + ": " + msg.Text)
		case bus.BroadcastOOC:
			d.broadcastAll("[OOC] " + msg.SenderName + ": " + msg.Text)
		case bus.BroadcastShutdown:
			d.broadcastAll("The world shudders: " + msg.Text)
		}

	case bus.TypeTell:
		if target := d.Players.ByName(msg.ToName); target != nil {
			d.text(target.SessionId, "%s tells you: %s", msg.FromName, msg.Text)
			d.prompt(target.SessionId)
		}
		// Not here: drop, another engine holds the player.

	case bus.TypeKickRequest:
		if target := d.Players.ByName(msg.TargetPlayerName); target != nil {
			targetSession := target.SessionId
			d.text(targetSession, "You have been removed from the realm.")
			d.Combat.Disengage(targetSession)
			d.Players.Logout(targetSession)
			d.Items.DropSession(targetSession)
			d.Out.Push(targetSession, outbound.Close())
		}

	case bus.TypeTransferRequest:
		if target := d.Players.ByName(msg.TargetPlayerName); target != nil {
			if _, ok := d.World.Rooms[msg.TargetRoomId]; !ok {
				return
			}
			d.broadcastRoom(target.RoomId, title(target.Name)+" vanishes.", target.SessionId)
			d.Players.MoveTo(target.SessionId, msg.TargetRoomId)
			d.broadcastRoom(msg.TargetRoomId, title(target.Name)+" appears out of thin air.", target.SessionId)
			d.text(target.SessionId, "A greater power moves you.")
			d.sendRoomView(target.SessionId, msg.TargetRoomId)
			d.prompt(target.SessionId)
		}

	case bus.TypeZoneHandoff:
		e.applyHandoff(msg)
	}
}

// applyHandoff materializes a handed-off player if this engine owns the
// target room's zone.
func (e *Engine) applyHandoff(msg bus.Message) {
	d := e.deps
	if msg.Snapshot == nil {
		return
	}
	if _, ok := d.World.Rooms[msg.TargetRoomId]; !ok {
		return
	}

	e.handoffSeq++
	sessionId := ids.SessionId(-e.handoffSeq)
	d.Out.Register(sessionId)
	e.sessions[sessionId] = &sessionState{phase: phasePlaying}

	snap := msg.Snapshot
	p := &players.PlayerState{
		Name:         snap.Name,
		SessionId:    sessionId,
		RoomId:       msg.TargetRoomId,
		Hp:           snap.Hp,
		MaxHp:        snap.BaseMaxHp,
		BaseMaxHp:    snap.BaseMaxHp,
		Level:        snap.Level,
		XpTotal:      snap.XpTotal,
		Gold:         snap.Gold,
		IsStaff:      snap.IsStaff,
		Class:        snap.Class,
		GuildId:      snap.GuildId,
		GuildRank:    ids.GuildRank(snap.GuildRank),
		GroupId:      snap.GroupId,
		RecallRoomId: ids.RoomId(snap.RecallRoomId),
	}
	if len(snap.InboxJSON) > 0 {
		var inbox []mail.Message
		if err := json.Unmarshal(snap.InboxJSON, &inbox); err == nil {
			p.Inbox = inbox
		}
	}
	d.Players.Materialize(p)

	for _, tmplId := range snap.Inventory {
		if tmpl := d.World.ItemTemplates[tmplId]; tmpl != nil {
			d.Items.SpawnInInventory(tmpl, sessionId)
		}
	}
	for slotName, tmplId := range snap.Equipment {
		slot, ok := ids.ParseItemSlot(slotName)
		if !ok {
			continue
		}
		tmpl := d.World.ItemTemplates[tmplId]
		if tmpl == nil || tmpl.Slot != slot {
			continue
		}
		inst := d.Items.SpawnInInventory(tmpl, sessionId)
		if _, equipped := d.Items.Equip(sessionId, inst); equipped {
			applyArmorDelta(p, inst.Item.Armor)
		}
	}

	if d.Location != nil {
		if idx, ok := d.Location.(*bus.MapLocationIndex); ok {
			idx.Set(p.Name, d.EngineId)
		}
	}

	d.broadcastRoom(p.RoomId, title(p.Name)+" shimmers into view.", sessionId)
	d.sendRoomView(sessionId, p.RoomId)
	d.prompt(sessionId)
	log := logging.Scoped(logging.Fields{Session: int64(sessionId), Room: p.RoomId.String(), Engine: msg.SourceEngineId})
	log.Info().Str("player", p.Name).Msg("zone handoff applied")
}
