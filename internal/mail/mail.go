// Package mail implements the in-memory inbox and the compose buffer.
// It holds no registry of its own: Message and Compose are embedded
// directly on a player's state.
package mail

import (
	"github.com/google/uuid"
)

// Message is one delivered mail item.
type Message struct {
	Id            string
	FromName      string
	Body          string
	SentAtEpochMs int64
	Read          bool
}

// Compose is the in-progress state of a "mail send <name>" session: lines
// are buffered until a line equal to "." ends composition.
type Compose struct {
	RecipientName string
	Lines         []string
}

// NewMessage builds a Message with a fresh id, ready for insertion into a
// recipient's inbox.
func NewMessage(fromName, body string, sentAtEpochMs int64) Message {
	return Message{
		Id:            uuid.NewString(),
		FromName:      fromName,
		Body:          body,
		SentAtEpochMs: sentAtEpochMs,
		Read:          false,
	}
}

// Insert adds msg to inbox, keeping the slice ordered by SentAtEpochMs
// ascending (stable: msg goes after entries with an equal timestamp).
func Insert(inbox []Message, msg Message) []Message {
	i := len(inbox)
	for i > 0 && inbox[i-1].SentAtEpochMs > msg.SentAtEpochMs {
		i--
	}
	inbox = append(inbox, Message{})
	copy(inbox[i+1:], inbox[i:])
	inbox[i] = msg
	return inbox
}

// Body joins the buffered compose lines the way a multi-line mail is
// stored once composition ends.
func (c *Compose) Body() string {
	body := ""
	for i, line := range c.Lines {
		if i > 0 {
			body += "\n"
		}
		body += line
	}
	return body
}
