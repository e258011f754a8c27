package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/duskhollow/engine/pkg/logging"
)

const (
	broadcastSubject    = "duskhollow.bus.broadcast"
	engineSubjectPrefix = "duskhollow.engine."
)

// NatsBus is the production Bus implementation over a NATS connection.
// Broadcasts go to a shared subject; targeted sends go to a per-engine
// subject. Undecodable payloads and self-origin broadcasts are dropped
// before reaching the engine loop.
type NatsBus struct {
	conn     *nats.Conn
	engineId string
	incoming chan Message
	subs     []*nats.Subscription
}

// ConnectNats dials url and subscribes the engine's subjects.
func ConnectNats(url, engineId string) (*NatsBus, error) {
	conn, err := nats.Connect(url, nats.Name("duskhollow-"+engineId))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	b := &NatsBus{
		conn:     conn,
		engineId: engineId,
		incoming: make(chan Message, 256),
	}

	handler := func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log := logging.WithEngine(engineId)
			log.Warn().Err(err).Msg("undecodable bus message dropped")
			return
		}
		if msg.SourceEngineId == engineId {
			return
		}
		select {
		case b.incoming <- msg:
		default:
			log := logging.WithEngine(engineId)
			log.Warn().Str("correlation", msg.CorrelationId).Msg("bus queue full, message dropped")
		}
	}

	sub, err := conn.Subscribe(broadcastSubject, handler)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats subscribe broadcast: %w", err)
	}
	b.subs = append(b.subs, sub)

	sub, err = conn.Subscribe(engineSubjectPrefix+engineId, handler)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats subscribe engine subject: %w", err)
	}
	b.subs = append(b.subs, sub)

	return b, nil
}

// SendTo implements Bus.
func (b *NatsBus) SendTo(targetEngineId string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.conn.Publish(engineSubjectPrefix+targetEngineId, data)
}

// Broadcast implements Bus.
func (b *NatsBus) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.conn.Publish(broadcastSubject, data)
}

// Incoming implements Bus.
func (b *NatsBus) Incoming() <-chan Message {
	return b.incoming
}

// Close implements Bus.
func (b *NatsBus) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.conn.Close()
	close(b.incoming)
}
