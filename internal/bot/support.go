package bot

import (
	"context"
	"errors"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/query"
	"github.com/refback-io/refback/internal/relay"
	"github.com/refback-io/refback/pkg/protocol"
)

func (b *Bot) handleCallback(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback) {
	q, err := query.Parse(cb.Data)
	if err != nil {
		b.answer(ctx, cb, "")
		return
	}

	switch q.Category {
	case query.CategoryCommands:
		b.handleCommandCallback(ctx, chat, cb, q)

	case query.CategoryNewTicket:
		b.answer(ctx, cb, "")
		b.startSession(chat.ChatID, &session{kind: sessionNewTicket})
		b.say(ctx, chat, "ticket_creation_process_start")

	case query.CategorySupport:
		b.handleSupportCallback(ctx, chat, cb, q)

	case query.CategoryAdmin:
		if !b.isAgent(chat) {
			b.answer(ctx, cb, "")
			return
		}
		b.handleAdminCallback(ctx, chat, cb, q)

	case query.CategoryConversation:
		if !b.isAgent(chat) {
			b.answer(ctx, cb, "")
			return
		}
		b.handleConversationCallback(ctx, chat, cb, q)

	default:
		b.answer(ctx, cb, "")
	}
}

func (b *Bot) handleSupportCallback(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, q query.Query) {
	loc := chat.Language

	switch {
	case q.Command == query.CmdSupport:
		b.edit(ctx, cb, lang.T(loc, "choose"), supportKeyboard(loc))
		b.answer(ctx, cb, "")

	case q.Command == query.CmdSupportHelp:
		kb := (&gateway.Keyboard{}).Row(gateway.Button{
			Text: lang.T(loc, "back"),
			Data: query.Build(query.CategorySupport, query.CmdSupport),
		})
		b.edit(ctx, cb, lang.T(loc, "support_help"), kb)
		b.answer(ctx, cb, "")

	case q.Command == query.CmdMyOpenTickets && q.Arg(0) != "":
		if _, err := b.tickets.Select(ctx, q.Arg(0), chat.ChatID, protocol.SideUser); err != nil {
			b.answer(ctx, cb, lang.T(loc, "nothing_found"))
			return
		}
		b.answer(ctx, cb, lang.T(loc, "success"))

	case q.Command == query.CmdMyOpenTickets:
		open, err := b.store.OpenTickets(chat.ChatID)
		if err != nil {
			b.logger.Error("list open tickets", "chat_id", chat.ChatID, "error", err)
			b.answer(ctx, cb, lang.T(loc, "error"))
			return
		}
		b.edit(ctx, cb, lang.T(loc, "your_open_tickets"), openTicketsKeyboard(loc, open))
		b.answer(ctx, cb, "")

	default:
		b.answer(ctx, cb, "")
	}
}

// handleInbound routes a plain (non-command) message: into the active
// conversation if one is running, otherwise into the selected ticket.
func (b *Bot) handleInbound(ctx context.Context, chat *protocol.Chat, in *gateway.Inbound) {
	if s := b.currentSession(chat.ChatID); s != nil {
		b.runSession(ctx, chat, s, inboundInput{
			Text:     in.Text,
			FileID:   in.FileID,
			FileName: in.FileName,
			IsDoc:    in.Kind == protocol.KindDocument,
		})
		return
	}

	if in.Kind == protocol.KindUnsupported {
		if _, err := b.tickets.Selected(chat.ChatID, chat.Side()); err != nil {
			b.say(ctx, chat, "unknown_text_no_tickets_selected")
			return
		}
		b.say(ctx, chat, "we_dont_support_this_type_of_message")
		return
	}

	if err := b.capturer.Capture(ctx, chat, in); err != nil {
		if errors.Is(err, relay.ErrNoSelection) {
			b.say(ctx, chat, "unknown_text_no_tickets_selected")
			return
		}
		b.logger.Error("capture", "chat_id", chat.ChatID, "error", err)
		b.say(ctx, chat, "error")
	}
}

func (b *Bot) edit(ctx context.Context, cb *gateway.Callback, text string, kb *gateway.Keyboard) {
	if err := b.gw.Edit(ctx, cb.ChatID, cb.MessageID, text, kb); err != nil {
		b.logger.Warn("edit message", "chat_id", cb.ChatID, "error", err)
	}
}

func supportKeyboard(loc string) *gateway.Keyboard {
	return (&gateway.Keyboard{}).
		Row(gateway.Button{
			Text: lang.T(loc, "open_new_ticket"),
			Data: string(query.CategoryNewTicket),
		}).
		Row(gateway.Button{
			Text: lang.T(loc, "my_open_tickets"),
			Data: query.Build(query.CategorySupport, query.CmdMyOpenTickets),
		}).
		Row(gateway.Button{
			Text: lang.T(loc, "get_support_help"),
			Data: query.Build(query.CategorySupport, query.CmdSupportHelp),
		}).
		Row(gateway.Button{
			Text: lang.T(loc, "back"),
			Data: query.Build(query.CategoryCommands, query.CmdMenu),
		})
}

func openTicketsKeyboard(loc string, tickets []*protocol.Ticket) *gateway.Keyboard {
	kb := &gateway.Keyboard{}
	for _, t := range tickets {
		kb.Row(gateway.Button{
			Text: t.Heading,
			Data: query.Build(query.CategorySupport, query.CmdMyOpenTickets, t.ID),
		})
	}
	kb.Row(gateway.Button{
		Text: lang.T(loc, "back"),
		Data: query.Build(query.CategorySupport, query.CmdSupport),
	})
	return kb
}
