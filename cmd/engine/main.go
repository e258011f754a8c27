// Command engine boots a Duskhollow engine process: it loads the TOML
// config and the YAML world, opens the SQLite store, joins the
// inter-engine bus when NATS is configured, starts the telnet and
// websocket listeners, and runs the single-threaded engine loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/duskhollow/engine/internal/bus"
	"github.com/duskhollow/engine/internal/clock"
	"github.com/duskhollow/engine/internal/combat"
	"github.com/duskhollow/engine/internal/economy"
	"github.com/duskhollow/engine/internal/engineconfig"
	"github.com/duskhollow/engine/internal/group"
	"github.com/duskhollow/engine/internal/guild"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/items"
	"github.com/duskhollow/engine/internal/mobs"
	"github.com/duskhollow/engine/internal/outbound"
	"github.com/duskhollow/engine/internal/phase"
	"github.com/duskhollow/engine/internal/players"
	"github.com/duskhollow/engine/internal/repo"
	"github.com/duskhollow/engine/internal/repo/sqlite"
	"github.com/duskhollow/engine/internal/router"
	"github.com/duskhollow/engine/internal/scheduler"
	"github.com/duskhollow/engine/internal/trade"
	"github.com/duskhollow/engine/internal/worldstate"
	"github.com/duskhollow/engine/internal/worldstatic"
	"github.com/duskhollow/engine/pkg/logging"
)

const tickInterval = 100 * time.Millisecond

// inboundEvent is one unit of work for the engine goroutine.
type inboundEvent struct {
	kind      int // 0 connect, 1 line, 2 disconnect, 3 bus message
	sessionId ids.SessionId
	line      string
	busMsg    bus.Message
}

func main() {
	configPath := flag.String("config", "duskhollow.toml", "path to the engine config")
	flag.Parse()

	cfg, err := engineconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	printBanner(cfg.EngineId)

	world, err := worldstatic.Load(cfg.WorldFile)
	if err != nil {
		logging.Fatal().Err(err).Str("file", cfg.WorldFile).Msg("world load failed")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	defer store.Close()

	out := outbound.New()
	clk := clock.SystemClock{}
	sched := scheduler.New(clk)
	playerRepo := repo.NewRetryingPlayerRepository(store.Players())
	playerReg := players.NewRegistry(playerRepo, out)

	var engineBus bus.Bus
	var location bus.LocationIndex
	if cfg.NatsURL != "" {
		natsBus, err := bus.ConnectNats(cfg.NatsURL, cfg.EngineId)
		if err != nil {
			logging.Fatal().Err(err).Str("url", cfg.NatsURL).Msg("nats connect failed")
		}
		engineBus = natsBus
		location = bus.NewMapLocationIndex()
		defer natsBus.Close()
	}

	shutdown := make(chan struct{})
	deps := &router.Deps{
		EngineId:   cfg.EngineId,
		World:      world,
		Clock:      clk,
		Sched:      sched,
		Out:        out,
		Players:    playerReg,
		Mobs:       mobs.NewRegistry(),
		Items:      items.NewRegistry(),
		Features:   worldstate.NewRegistry(),
		Combat:     combat.NewSystem(combat.Config(cfg.Combat), combat.NewRand(time.Now().UnixNano())),
		Shops:      economy.NewShops(world, economy.Pricing{BuyMultiplier: cfg.Economy.BuyMultiplier, SellMultiplier: cfg.Economy.SellMultiplier}),
		Groups:     group.NewSystem(),
		Guilds:     guild.NewSystem(store.Guilds()),
		Trades:     trade.NewSystem(),
		Phase:      phase.NewManager(cfg.EngineId),
		Dialogues:  nil,
		Bus:        engineBus,
		Location:   location,
		PlayerRepo: playerRepo,
		BaseMaxHp:  20,
		OnShutdown: func() { close(shutdown) },
	}

	engine := router.NewEngine(deps)
	playerReg.PersistHook = engine.PersistHook
	engine.SeedWorld()
	engine.StartMaintenance()

	inbound := make(chan inboundEvent, 1024)
	var nextSession int64

	// Inter-engine messages are inputs like any other.
	if engineBus != nil {
		go func() {
			for msg := range engineBus.Incoming() {
				inbound <- inboundEvent{kind: 3, busMsg: msg}
			}
		}()
	}

	go telnetListener(cfg.TelnetPort, &nextSession, inbound, out)
	go websocketListener(cfg.WebPort, &nextSession, inbound, out)

	log := logging.WithEngine(cfg.EngineId)
	log.Info().
		Str("telnet", cfg.TelnetPort).Str("web", cfg.WebPort).
		Msg("engine up")

	// The engine task: the sole mutator of all registries.
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdown:
			logging.Info().Msg("engine stopped")
			return
		case ev := <-inbound:
			switch ev.kind {
			case 0:
				engine.OnConnect(ev.sessionId)
			case 1:
				engine.OnLine(ev.sessionId, ev.line)
			case 2:
				engine.OnDisconnect(ev.sessionId)
			case 3:
				engine.ApplyBusMessage(ev.busMsg)
			}
		case <-ticker.C:
			ran, deferred := engine.Tick(cfg.Scheduler.MaxActionsPerTick)
			if deferred > 0 {
				logging.Warn().Int("ran", ran).Int("deferred", deferred).Msg("tick backlog")
			}
		}
	}
}

func printBanner(engineId string) {
	w := colorable.NewColorableStdout()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintf(w, "\x1b[35mDuskhollow\x1b[0m engine %s\n", engineId)
	} else {
		fmt.Fprintf(w, "Duskhollow engine %s\n", engineId)
	}
}

// telnetListener accepts raw TCP connections and bridges lines into the
// engine channel, draining the session's outbound queue to the socket.
func telnetListener(port string, nextSession *int64, inbound chan<- inboundEvent, out *outbound.Bus) {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logging.Fatal().Err(err).Str("port", port).Msg("telnet listen failed")
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			logging.Error().Err(err).Msg("telnet accept failed")
			continue
		}
		sessionId := ids.SessionId(atomic.AddInt64(nextSession, 1))
		go serveTelnet(conn, sessionId, inbound, out)
	}
}

func serveTelnet(conn net.Conn, sessionId ids.SessionId, inbound chan<- inboundEvent, out *outbound.Bus) {
	defer conn.Close()
	inbound <- inboundEvent{kind: 0, sessionId: sessionId}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			inbound <- inboundEvent{kind: 1, sessionId: sessionId, line: scanner.Text()}
		}
	}()

	drain := time.NewTicker(20 * time.Millisecond)
	defer drain.Stop()
	for {
		select {
		case <-done:
			inbound <- inboundEvent{kind: 2, sessionId: sessionId}
			return
		case <-drain.C:
			for _, ev := range out.Drain(sessionId) {
				if writeEvent(conn, ev) {
					inbound <- inboundEvent{kind: 2, sessionId: sessionId}
					return
				}
			}
		}
	}
}

// writeEvent serializes one event; returns true when the session must
// close.
func writeEvent(conn net.Conn, ev outbound.Event) bool {
	switch ev.Kind {
	case outbound.KindSendText:
		fmt.Fprintf(conn, "%s\r\n", ev.Text)
	case outbound.KindSendInfo:
		fmt.Fprintf(conn, "* %s\r\n", ev.Text)
	case outbound.KindSendError:
		fmt.Fprintf(conn, "! %s\r\n", ev.Text)
	case outbound.KindSendPrompt:
		fmt.Fprint(conn, "> ")
	case outbound.KindClose:
		return true
	}
	return false
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocketListener serves the same line protocol over websockets, the
// ambient counterpart to the telnet port.
func websocketListener(port string, nextSession *int64, inbound chan<- inboundEvent, out *outbound.Bus) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		sessionId := ids.SessionId(atomic.AddInt64(nextSession, 1))
		go serveWebsocket(conn, sessionId, inbound, out)
	})
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logging.Fatal().Err(err).Str("port", port).Msg("websocket listen failed")
	}
}

func serveWebsocket(conn *websocket.Conn, sessionId ids.SessionId, inbound chan<- inboundEvent, out *outbound.Bus) {
	defer conn.Close()
	inbound <- inboundEvent{kind: 0, sessionId: sessionId}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			inbound <- inboundEvent{kind: 1, sessionId: sessionId, line: string(data)}
		}
	}()

	drain := time.NewTicker(20 * time.Millisecond)
	defer drain.Stop()
	for {
		select {
		case <-done:
			inbound <- inboundEvent{kind: 2, sessionId: sessionId}
			return
		case <-drain.C:
			for _, ev := range out.Drain(sessionId) {
				closing := false
				switch ev.Kind {
				case outbound.KindSendPrompt:
					closing = conn.WriteMessage(websocket.TextMessage, []byte("> ")) != nil
				case outbound.KindClose:
					closing = true
				default:
					closing = conn.WriteMessage(websocket.TextMessage, []byte(ev.Text)) != nil
				}
				if closing {
					inbound <- inboundEvent{kind: 2, sessionId: sessionId}
					return
				}
			}
		}
	}
}
