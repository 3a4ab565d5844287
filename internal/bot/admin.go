package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/refback-io/refback/internal/cashback"
	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/notify"
	"github.com/refback-io/refback/internal/query"
	"github.com/refback-io/refback/internal/ticket"
	"github.com/refback-io/refback/pkg/protocol"
)

func adminKeyboard(loc string) *gateway.Keyboard {
	return (&gateway.Keyboard{}).
		Row(gateway.Button{
			Text: lang.T(loc, "admin.new_calculation"),
			Data: query.Build(query.CategoryConversation, query.CmdNewCalc),
		}).
		Row(
			gateway.Button{
				Text: lang.T(loc, "my_open_tickets"),
				Data: query.Build(query.CategoryAdmin, query.CmdMyOpenTickets),
			},
			gateway.Button{
				Text: lang.T(loc, "open_new_ticket"),
				Data: query.Build(query.CategoryAdmin, query.CmdNewTicket),
			},
		).
		Row(gateway.Button{
			Text: lang.T(loc, "admin.notify_all_users_about_payoff"),
			Data: query.Build(query.CategoryAdmin, query.CmdConfirm, string(query.CmdNewPayoff)),
		}).
		Row(gateway.Button{
			Text: lang.T(loc, "admin.withdraw_list"),
			Data: query.Build(query.CategoryAdmin, query.CmdWithdrawList),
		}).
		Row(
			gateway.Button{
				Text: lang.T(loc, "admin.increase_level"),
				Data: query.Build(query.CategoryConversation, query.CmdIncreaseLevel),
			},
			gateway.Button{
				Text: lang.T(loc, "admin.decrease_level"),
				Data: query.Build(query.CategoryConversation, query.CmdDecreaseLevel),
			},
		)
}

// handleConversationCallback starts the admin conversations reachable
// from the menu.
func (b *Bot) handleConversationCallback(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, q query.Query) {
	switch q.Command {
	case query.CmdNewCalc:
		b.answer(ctx, cb, "")
		b.startSession(chat.ChatID, &session{kind: sessionCalc})
		b.say(ctx, chat, "admin.send_a_file_or_a_link")
	case query.CmdIncreaseLevel, query.CmdDecreaseLevel:
		b.answer(ctx, cb, "")
		b.startSession(chat.ChatID, &session{
			kind:     sessionLevel,
			increase: q.Command == query.CmdIncreaseLevel,
		})
		b.say(ctx, chat, "admin.send_binance_id")
	default:
		b.answer(ctx, cb, "")
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, q query.Query) {
	loc := chat.Language

	switch {
	case q.Command == query.CmdAdmin:
		b.edit(ctx, cb, lang.T(loc, "choose"), adminKeyboard(loc))
		b.answer(ctx, cb, "")

	case q.Command == query.CmdConfirm && q.Arg(0) != "":
		// Wrap the requested action behind a confirm / cancel pair.
		kb := (&gateway.Keyboard{}).
			Row(gateway.Button{
				Text: lang.T(loc, "confirm"),
				Data: query.Build(query.CategoryAdmin, query.Command(q.Arg(0)), q.Args[1:]...),
			}).
			Row(gateway.Button{
				Text: lang.T(loc, "cancel"),
				Data: query.Build(query.CategoryAdmin, query.CmdDelete),
			})
		b.sayKB(ctx, chat, kb, "confirm")
		b.answer(ctx, cb, "")

	case q.Command == query.CmdDelete:
		b.answer(ctx, cb, "")
		b.deleteMessage(ctx, cb)

	case q.Command == query.CmdNewTicket:
		b.listNewTickets(ctx, chat)
		b.answer(ctx, cb, "")

	case q.Command == query.CmdMyOpenTickets:
		b.listAgentTickets(ctx, chat)
		b.answer(ctx, cb, "")

	case q.Command == query.CmdNewPayoff:
		b.broadcastPayoffs(ctx, chat)
		b.answer(ctx, cb, "")
		b.say(ctx, chat, "success")

	case q.Command == query.CmdWithdrawList:
		b.answer(ctx, cb, "")
		b.sendWithdrawList(ctx, chat, nil)

	case q.Command == query.CmdTicket && q.Arg(0) != "":
		b.claimTicket(ctx, chat, cb, q.Arg(0))

	case q.Command == query.CmdTicketSelect && q.Arg(0) != "":
		b.selectTicket(ctx, chat, cb, q.Arg(0))

	case q.Command == query.CmdTicketClose && len(q.Args) == 1:
		b.confirmClose(ctx, chat, q.Arg(0))
		b.answer(ctx, cb, "")

	case q.Command == query.CmdTicketClose && len(q.Args) == 2:
		b.closeTicket(ctx, chat, cb, q.Arg(0), q.Arg(1) == "True")

	default:
		b.answer(ctx, cb, "")
	}
}

func (b *Bot) listNewTickets(ctx context.Context, chat *protocol.Chat) {
	tickets, err := b.store.NewTickets()
	if err != nil {
		b.logger.Error("list new tickets", "error", err)
		b.say(ctx, chat, "error")
		return
	}
	if len(tickets) == 0 {
		b.say(ctx, chat, "nothing_found")
		return
	}
	for _, t := range tickets {
		kb := (&gateway.Keyboard{}).Row(gateway.Button{
			Text: lang.T(chat.Language, "start"),
			Data: query.Build(query.CategoryAdmin, query.CmdTicket, t.ID),
		})
		if _, err := b.gw.Send(ctx, chat.ChatID, t.Heading, kb); err != nil {
			b.logger.Warn("send ticket entry", "ticket_id", t.ID, "error", err)
		}
	}
}

func (b *Bot) listAgentTickets(ctx context.Context, chat *protocol.Chat) {
	tickets, err := b.store.AgentTickets(chat.ChatID, false)
	if err != nil {
		b.logger.Error("list agent tickets", "chat_id", chat.ChatID, "error", err)
		b.say(ctx, chat, "error")
		return
	}
	if len(tickets) == 0 {
		b.say(ctx, chat, "nothing_found")
		return
	}
	for _, t := range tickets {
		kb := (&gateway.Keyboard{}).Row(
			gateway.Button{
				Text: lang.T(chat.Language, "select"),
				Data: query.Build(query.CategoryAdmin, query.CmdTicketSelect, t.ID),
			},
			gateway.Button{
				Text: lang.T(chat.Language, "close"),
				Data: query.Build(query.CategoryAdmin, query.CmdTicketClose, t.ID),
			},
		)
		if _, err := b.gw.Send(ctx, chat.ChatID, t.Heading, kb); err != nil {
			b.logger.Warn("send ticket entry", "ticket_id", t.ID, "error", err)
		}
	}
}

// claimTicket takes a new ticket for this agent and selects it. The
// owning user is notified by the ticket manager.
func (b *Bot) claimTicket(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, id string) {
	t, err := b.tickets.Claim(ctx, id, chat.ChatID)
	if err != nil {
		b.answer(ctx, cb, lang.T(chat.Language, "nothing_found"))
		if !errors.Is(err, ticket.ErrAlreadyClaimed) {
			b.logger.Error("claim ticket", "ticket_id", id, "error", err)
		}
		return
	}
	if _, err := b.tickets.Select(ctx, id, chat.ChatID, protocol.SideAgent); err != nil {
		b.logger.Warn("select claimed ticket", "ticket_id", id, "error", err)
	}
	b.answer(ctx, cb, lang.T(chat.Language, "success"))
	b.say(ctx, chat, "you_have_selected_ticket_no", t.ID, t.Heading)
}

// selectTicket makes an already-claimed ticket this agent's active
// one and replays what the user sent while nobody was reading.
func (b *Bot) selectTicket(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, id string) {
	t, err := b.store.Ticket(id)
	if err != nil {
		b.answer(ctx, cb, lang.T(chat.Language, "nothing_found"))
		return
	}
	if t.SelectedBySupport != 0 || t.State == protocol.TicketClosed {
		b.answer(ctx, cb, "")
		return
	}
	if _, err := b.tickets.Select(ctx, id, chat.ChatID, protocol.SideAgent); err != nil {
		b.answer(ctx, cb, lang.T(chat.Language, "nothing_found"))
		return
	}
	b.answer(ctx, cb, "")
	b.say(ctx, chat, "you_have_selected_ticket_no", t.ID, t.Heading)

	if err := b.dispatcher.Replay(ctx, t); err != nil {
		b.logger.Error("replay ticket", "ticket_id", id, "error", err)
	}
}

func (b *Bot) confirmClose(ctx context.Context, chat *protocol.Chat, id string) {
	kb := (&gateway.Keyboard{}).
		Row(gateway.Button{
			Text: lang.T(chat.Language, "confirm"),
			Data: query.Build(query.CategoryAdmin, query.CmdTicketClose, id, "True"),
		}).
		Row(gateway.Button{
			Text: lang.T(chat.Language, "cancel"),
			Data: query.Build(query.CategoryAdmin, query.CmdTicketClose, id, "False"),
		})
	b.sayKB(ctx, chat, kb, "please_confirm")
}

func (b *Bot) closeTicket(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, id string, confirmed bool) {
	if !confirmed {
		b.deleteMessage(ctx, cb)
		b.answer(ctx, cb, lang.T(chat.Language, "cancelled"))
		return
	}
	if _, err := b.tickets.Close(ctx, id); err != nil {
		b.say(ctx, chat, "nothing_happened")
		b.answer(ctx, cb, "")
		return
	}
	b.answer(ctx, cb, lang.T(chat.Language, "success"))
	b.deleteMessage(ctx, cb)
}

func (b *Bot) broadcastPayoffs(ctx context.Context, chat *protocol.Chat) {
	_, failed, err := b.notifier.BroadcastPayoffs(ctx)
	if err != nil {
		b.logger.Error("payoff broadcast", "error", err)
		b.say(ctx, chat, "error")
		return
	}
	for _, u := range failed {
		b.say(ctx, chat, "admin.failed_to_notify_user", u.RealName, u.TgLink)
	}
}

// runCalculation is the calc-session step: ingest a CSV ledger from an
// uploaded document or a supported file-hosting link, push it through
// the calculation service and store the per-user balances.
func (b *Bot) runCalculation(ctx context.Context, chat *protocol.Chat, in inboundInput) {
	var raw string

	switch {
	case in.IsDoc:
		if !strings.HasSuffix(in.FileName, ".csv") {
			b.say(ctx, chat, "admin.unknown_input")
			return
		}
		data, err := b.gw.DownloadFile(ctx, in.FileID)
		if err != nil {
			b.logger.Error("download ledger", "error", err)
			b.endSession(chat.ChatID)
			b.say(ctx, chat, "error")
			return
		}
		raw = string(data)

	case in.Text != "":
		if !cashback.SupportedLedgerLink(in.Text) {
			b.endSession(chat.ChatID)
			b.say(ctx, chat, "admin.wrong_link")
			return
		}
		var err error
		raw, err = b.calc.FetchLedgerLink(ctx, in.Text)
		if err != nil {
			b.logger.Error("fetch ledger link", "error", err)
			b.endSession(chat.ChatID)
			b.say(ctx, chat, "error")
			return
		}

	default:
		b.say(ctx, chat, "admin.unknown_input")
		return
	}

	b.endSession(chat.ChatID)
	b.say(ctx, chat, "admin.started_calculation")

	if err := b.calc.Prune(ctx, b.internalID); err != nil {
		b.logger.Error("prune calc service", "error", err)
		b.say(ctx, chat, "admin.error_during_db_prune")
		return
	}
	if err := b.ledger.InsertCommissionRows(cashback.ParseLedger(b.internalID, raw)); err != nil {
		b.logger.Error("insert ledger rows", "error", err)
		b.say(ctx, chat, "error")
		return
	}

	results, err := b.calc.Results(ctx, b.internalID)
	if err != nil {
		b.logger.Error("fetch calc results", "error", err)
		b.say(ctx, chat, "admin.error_during_api_calculations")
		return
	}
	if err := cashback.Apply(ctx, b.store, results, b.logger); err != nil {
		b.logger.Error("apply calc results", "error", err)
		b.say(ctx, chat, "error")
		return
	}

	b.say(ctx, chat, "admin.calculation_successful")
	b.sendWithdrawList(ctx, chat, results)
}

// sendWithdrawList renders the pending-withdraw report. When results
// is nil they are fetched from the calculation service first.
func (b *Bot) sendWithdrawList(ctx context.Context, chat *protocol.Chat, results map[string]cashback.CalcResult) {
	if results == nil {
		var err error
		results, err = b.calc.Results(ctx, b.internalID)
		if err != nil {
			b.logger.Error("fetch calc results", "error", err)
			b.say(ctx, chat, "admin.error_during_api_calculations")
			return
		}
	}
	pending, err := b.store.UsersWithPendingWithdraw(notify.MinPayoffUSDT, notify.MinPayoffBNB)
	if err != nil {
		b.logger.Error("pending withdraws", "error", err)
		b.say(ctx, chat, "error")
		return
	}
	text := lang.T(chat.Language, "admin.withdraw_list") + cashback.WithdrawReport(pending, results)
	if _, err := b.gw.Send(ctx, chat.ChatID, text, nil); err != nil {
		b.logger.Warn("send withdraw list", "chat_id", chat.ChatID, "error", err)
	}
}
