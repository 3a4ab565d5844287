package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

// Notifier is the side-notification surface the dispatcher needs.
type Notifier interface {
	UnreadPromptUser(ctx context.Context, t *protocol.Ticket) error
	UnreadPromptAgent(ctx context.Context, t *protocol.Ticket) error
	DeliveryFailure(ctx context.Context, senderChatID int64, cause error)
}

// Dispatcher delivers due batches to the ticket's other side, applying
// the unread gating rules:
//
//   - agent → user: an unselected user gets an unread prompt first,
//     then the content anyway, so they never miss an answer;
//   - user → agent: an unassigned agent selection means nobody is
//     actively reading, so only the prompt is sent and the content
//     stays in the store until the agent opens the ticket.
type Dispatcher struct {
	store    store.Store
	gw       gateway.Gateway
	notifier Notifier
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(st store.Store, gw gateway.Gateway, n Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    st,
		gw:       gw,
		notifier: n,
		logger:   logger.With("component", "relay"),
	}
}

// Dispatch renders and delivers one batch. Used as the scheduler's
// fire function.
func (d *Dispatcher) Dispatch(ctx context.Context, b Batch) {
	t, err := d.store.Ticket(b.TicketID)
	if err != nil {
		d.logger.Error("dispatch: load ticket", "ticket_id", b.TicketID, "error", err)
		return
	}
	if t.State != protocol.TicketInProgress {
		d.logger.Warn("dispatch: ticket not in progress, dropping", "ticket_id", t.ID, "state", t.State)
		return
	}

	recipient := t.Counterpart(b.From)

	switch b.From {
	case protocol.SideAgent:
		if !t.SelectedByUser {
			if err := d.notifier.UnreadPromptUser(ctx, t); err != nil {
				d.logger.Error("unread prompt", "ticket_id", t.ID, "error", err)
			}
			// The user still gets the content: an answer must not
			// wait for them to reopen the ticket.
		}
	case protocol.SideUser:
		if t.SelectedBySupport == 0 {
			if err := d.notifier.UnreadPromptAgent(ctx, t); err != nil {
				d.logger.Error("unread prompt", "ticket_id", t.ID, "error", err)
			}
			// Nobody is reading on the support side. The content is
			// already stored and will surface when the ticket is
			// selected.
			return
		}
	}

	header := d.header(b.From, recipient)
	if b.Single != nil {
		err = d.deliverSingle(ctx, recipient, header, b.Single)
	} else {
		err = d.deliverGroup(ctx, recipient, t, header, b)
	}
	if err != nil {
		d.notifier.DeliveryFailure(ctx, b.Issuer, err)
	}
}

func (d *Dispatcher) localeOf(chatID int64) string {
	if chat, err := d.store.Chat(chatID); err == nil {
		return chat.Language
	}
	return lang.Fallback
}

// header returns the attribution line prepended to relayed content.
// Agent messages carry none: the user knows who support is.
func (d *Dispatcher) header(from protocol.Side, recipient int64) string {
	if from != protocol.SideUser {
		return ""
	}
	return lang.T(d.localeOf(recipient), "message_from_user")
}

// replayHeader attributes both sides: replayed history interleaves the
// agent's own answers with the user's messages.
func (d *Dispatcher) replayHeader(from protocol.Side, recipient int64) string {
	key := "message_from_user"
	if from == protocol.SideAgent {
		key = "message_from_agent"
	}
	return lang.T(d.localeOf(recipient), key)
}

func joinCaption(header, caption string) string {
	if header == "" {
		return caption
	}
	if caption == "" {
		return header
	}
	return header + "\n\n" + caption
}

func (d *Dispatcher) deliverSingle(ctx context.Context, recipient int64, header string, m *protocol.Message) error {
	switch m.Kind {
	case protocol.KindText:
		_, err := d.gw.Send(ctx, recipient, joinCaption(header, m.Text), nil)
		return err
	case protocol.KindSticker, protocol.KindVideoNote:
		// These kinds cannot carry a caption.
		_, err := d.gw.SendMedia(ctx, recipient, m.Kind, m.FileID, "")
		return err
	default:
		_, err := d.gw.SendMedia(ctx, recipient, m.Kind, m.FileID, joinCaption(header, m.Caption))
		return err
	}
}

// deliverGroup reconstructs a media group from the store and sends it
// as one album. Photo and video items form one album, document and
// audio another; a mixed group yields the photo/video album only since
// the API refuses albums mixing the two families.
func (d *Dispatcher) deliverGroup(ctx context.Context, recipient int64, t *protocol.Ticket, header string, b Batch) error {
	msgs, err := d.groupMessages(t.ChatID, b)
	if err != nil {
		d.logger.Error("dispatch: reconstruct group", "ticket_id", b.TicketID, "group", b.GroupID, "error", err)
		return nil
	}
	if len(msgs) == 0 {
		d.logger.Warn("dispatch: empty media group", "ticket_id", b.TicketID, "group", b.GroupID)
		return nil
	}

	var visual, files []protocol.Message
	for _, m := range msgs {
		switch m.Kind {
		case protocol.KindPhoto, protocol.KindVideo:
			visual = append(visual, m)
		case protocol.KindDocument, protocol.KindAudio:
			files = append(files, m)
		}
	}
	album := visual
	if len(album) == 0 {
		album = files
	}

	return d.sendAlbum(ctx, recipient, header, album)
}

// sendAlbum delivers one prepared run of batchable messages, carrying
// the attribution header on the first caption only.
func (d *Dispatcher) sendAlbum(ctx context.Context, recipient int64, header string, album []protocol.Message) error {
	items := make([]gateway.AlbumItem, 0, len(album))
	for i, m := range album {
		caption := m.Caption
		if i == 0 {
			caption = joinCaption(header, caption)
		}
		items = append(items, gateway.AlbumItem{Kind: m.Kind, FileID: m.FileID, Caption: caption})
	}
	return d.gw.SendAlbum(ctx, recipient, items)
}

// Replay sends the ticket's full stored history, both sides, to the
// assigned agent, oldest first, re-assembling contiguous media-group
// runs into albums. Every replayed message is attributed to its side.
// Called when an agent selects a ticket so that nothing submitted while
// the ticket sat unattended is lost.
func (d *Dispatcher) Replay(ctx context.Context, t *protocol.Ticket) error {
	if t.SupportAgent == 0 {
		return nil
	}
	msgs, err := d.store.TicketMessages(t.ID, t.ChatID, false)
	if err != nil {
		return fmt.Errorf("relay: replay %s: %w", t.ID, err)
	}

	var run []protocol.Message
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		var visual, files []protocol.Message
		for _, m := range run {
			switch m.Kind {
			case protocol.KindPhoto, protocol.KindVideo:
				visual = append(visual, m)
			case protocol.KindDocument, protocol.KindAudio:
				files = append(files, m)
			}
		}
		album := visual
		if len(album) == 0 {
			album = files
		}
		header := d.replayHeader(run[0].From, t.SupportAgent)
		run = nil
		if len(album) == 0 {
			return nil
		}
		return d.sendAlbum(ctx, t.SupportAgent, header, album)
	}

	for i := range msgs {
		m := msgs[i]
		if m.IsMediaGroup() {
			if len(run) > 0 && run[len(run)-1].MediaGroupID != m.MediaGroupID {
				if err := flush(); err != nil {
					return err
				}
			}
			run = append(run, m)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		if err := d.deliverSingle(ctx, t.SupportAgent, d.replayHeader(m.From, t.SupportAgent), &m); err != nil {
			return err
		}
	}
	return flush()
}

// groupMessages walks the ticket's stored messages newest first,
// collects the contiguous run belonging to the batch's media group and
// returns it in chronological order.
func (d *Dispatcher) groupMessages(ownerChatID int64, b Batch) ([]protocol.Message, error) {
	all, err := d.store.TicketMessages(b.TicketID, ownerChatID, true)
	if err != nil {
		return nil, err
	}

	var run []protocol.Message
	collecting := false
	for _, m := range all {
		if m.MediaGroupID == b.GroupID {
			run = append(run, m)
			collecting = true
			continue
		}
		if collecting {
			break
		}
	}

	// Reverse into send order, oldest first.
	for i, j := 0, len(run)-1; i < j; i, j = i+1, j-1 {
		run[i], run[j] = run[j], run[i]
	}
	return run, nil
}
