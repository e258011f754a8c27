package router

import (
	"strings"

	"github.com/duskhollow/engine/internal/command"
	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mail"
)

// MailHandler covers the inbox and compose flows. Compose input lines
// are intercepted by the engine loop before parsing and fed to
// ComposeLine; everything else arrives as parsed commands.
type MailHandler struct {
	deps *Deps
}

func (h *MailHandler) Handle(sessionId ids.SessionId, cmd command.Command) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if p == nil {
		return
	}

	switch cmd.Kind {
	case command.MailList:
		h.list(sessionId)
	case command.MailRead:
		h.read(sessionId, cmd.N)
	case command.MailDelete:
		h.delete(sessionId, cmd.N)
	case command.MailSend:
		h.send(sessionId, cmd.Arg)
	case command.MailAbort:
		if p.MailCompose == nil {
			d.errorf(sessionId, "You are not composing a letter.")
		} else {
			p.MailCompose = nil
			d.text(sessionId, "You set your letter aside.")
		}
	}
	d.prompt(sessionId)
}

// newestFirst returns indices into the inbox ordered newest first. The
// inbox itself stays oldest-first; display and the 1-based read/delete
// indices use this view.
func newestFirst(inbox []mail.Message) []int {
	out := make([]int, len(inbox))
	for i := range inbox {
		out[i] = len(inbox) - 1 - i
	}
	return out
}

func (h *MailHandler) list(sessionId ids.SessionId) {
	d := h.deps
	p := d.Players.Get(sessionId)
	if len(p.Inbox) == 0 {
		d.text(sessionId, "Your inbox is empty.")
		return
	}
	d.text(sessionId, "Your mail:")
	for n, idx := range newestFirst(p.Inbox) {
		msg := p.Inbox[idx]
		marker := "     "
		if !msg.Read {
			marker = "[NEW]"
		}
		d.text(sessionId, "%2d. %s from %s", n+1, marker, title(msg.FromName))
	}
}

func (h *MailHandler) read(sessionId ids.SessionId, n int) {
	d := h.deps
	p := d.Players.Get(sessionId)
	order := newestFirst(p.Inbox)
	if n < 1 || n > len(order) {
		d.errorf(sessionId, "No such message.")
		return
	}
	msg := &p.Inbox[order[n-1]]
	msg.Read = true
	d.text(sessionId, "From: %s", title(msg.FromName))
	d.text(sessionId, "%s", msg.Body)
}

func (h *MailHandler) delete(sessionId ids.SessionId, n int) {
	d := h.deps
	p := d.Players.Get(sessionId)
	order := newestFirst(p.Inbox)
	if n < 1 || n > len(order) {
		d.errorf(sessionId, "No such message.")
		return
	}
	idx := order[n-1]
	p.Inbox = append(p.Inbox[:idx], p.Inbox[idx+1:]...)
	d.text(sessionId, "Message deleted.")
}

func (h *MailHandler) send(sessionId ids.SessionId, recipient string) {
	d := h.deps
	p := d.Players.Get(sessionId)

	if p.MailCompose != nil {
		d.errorf(sessionId, "You are already composing a letter.")
		return
	}
	if strings.EqualFold(recipient, p.Name) {
		d.errorf(sessionId, "Sending mail to yourself seems pointless.")
		return
	}
	if d.Players.ByName(recipient) == nil {
		record, err := d.PlayerRepo.FindByName(recipient)
		if err != nil || record == nil {
			d.errorf(sessionId, "No such player.")
			return
		}
	}
	p.MailCompose = &mail.Compose{RecipientName: strings.ToLower(recipient)}
	d.info(sessionId, "Composing to %s. End with a single . on its own line.", title(recipient))
}

// ComposeLine consumes one raw input line while a compose is active.
// A line of "." finishes and delivers; "mail abort" still cancels and
// "mail send" still errors as a conflict; anything else is buffered.
func (h *MailHandler) ComposeLine(sessionId ids.SessionId, line string) {
	d := h.deps
	p := d.Players.Get(sessionId)
	compose := p.MailCompose

	switch {
	case strings.EqualFold(strings.TrimSpace(line), "mail abort"):
		p.MailCompose = nil
		d.text(sessionId, "You set your letter aside.")
		d.prompt(sessionId)
		return
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "mail send"):
		d.errorf(sessionId, "You are already composing a letter.")
		d.prompt(sessionId)
		return
	}

	if strings.TrimSpace(line) != "." {
		compose.Lines = append(compose.Lines, line)
		return
	}

	body := compose.Body()
	if body == "" {
		d.errorf(sessionId, "Your letter is empty. Write something or mail abort.")
		d.prompt(sessionId)
		return
	}

	msg := mail.NewMessage(p.Name, body, d.Clock.NowMs())
	p.MailCompose = nil
	if h.deliver(compose.RecipientName, msg) {
		d.text(sessionId, "Your letter is on its way to %s.", title(compose.RecipientName))
	} else {
		d.errorf(sessionId, "No such player.")
	}
	d.prompt(sessionId)
}

// deliver appends the message to an online recipient's inbox, or to the
// persisted record for an offline one.
func (h *MailHandler) deliver(recipientName string, msg mail.Message) bool {
	d := h.deps

	if target := d.Players.ByName(recipientName); target != nil {
		target.Inbox = mail.Insert(target.Inbox, msg)
		d.info(target.SessionId, "You have new mail from %s.", title(msg.FromName))
		d.prompt(target.SessionId)
		return true
	}

	record, err := d.PlayerRepo.FindByName(recipientName)
	if err != nil || record == nil {
		return false
	}
	record.Inbox = mail.Insert(record.Inbox, msg)
	return d.PlayerRepo.Save(record) == nil
}
