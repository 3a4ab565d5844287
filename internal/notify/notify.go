// Package notify sends the bot's side notifications: unread prompts,
// ticket lifecycle notices, payoff and level announcements. It is the
// only place outside the dispatcher that talks to the gateway on
// behalf of ticket events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/refback-io/refback/internal/cashback"
	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/query"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

// Payoff announcement thresholds mirror the withdraw minimums: a
// balance below both is not worth a transfer and stays for the next
// sweep.
const (
	MinPayoffUSDT = cashback.MinWithdrawUSDT
	MinPayoffBNB  = cashback.MinWithdrawBNB
)

// Notifier delivers out-of-band notifications to chats.
type Notifier struct {
	gw             gateway.Gateway
	store          store.Store
	logger         *slog.Logger
	supportContact string
}

// New builds a Notifier.
func New(gw gateway.Gateway, st store.Store, supportContact string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		gw:             gw,
		store:          st,
		logger:         logger.With("component", "notify"),
		supportContact: supportContact,
	}
}

// locale returns the stored language of a chat, falling back to the
// default when the chat is unknown.
func (n *Notifier) locale(ctx context.Context, chatID int64) string {
	chat, err := n.store.Chat(chatID)
	if err != nil {
		return lang.Fallback
	}
	return chat.Language
}

// UnreadPromptUser tells the ticket owner that unseen messages arrived
// and offers a button that reopens the ticket list.
func (n *Notifier) UnreadPromptUser(ctx context.Context, t *protocol.Ticket) error {
	loc := n.locale(ctx, t.ChatID)
	text := lang.Tf(loc, "you_have_new_unread_messages", t.Heading) +
		"\n" + lang.T(loc, "please_click_the_button_to_answer")
	kb := (&gateway.Keyboard{}).Row(gateway.Button{
		Text: lang.T(loc, "select"),
		Data: query.Build(query.CategorySupport, query.CmdMyOpenTickets, t.ID),
	})
	if _, err := n.gw.Send(ctx, t.ChatID, text, kb); err != nil {
		return fmt.Errorf("notify: unread prompt user: %w", err)
	}
	return nil
}

// UnreadPromptAgent tells the assigned agent that the ticket has unseen
// messages and offers a button that selects it.
func (n *Notifier) UnreadPromptAgent(ctx context.Context, t *protocol.Ticket) error {
	loc := n.locale(ctx, t.SupportAgent)
	text := lang.Tf(loc, "you_have_new_unread_messages", t.Heading)
	kb := (&gateway.Keyboard{}).Row(gateway.Button{
		Text: lang.T(loc, "select"),
		Data: query.Build(query.CategoryAdmin, query.CmdTicketSelect, t.ID),
	})
	if _, err := n.gw.Send(ctx, t.SupportAgent, text, kb); err != nil {
		return fmt.Errorf("notify: unread prompt agent: %w", err)
	}
	return nil
}

// TicketOpened tells the ticket owner that an agent joined.
func (n *Notifier) TicketOpened(ctx context.Context, t *protocol.Ticket) error {
	loc := n.locale(ctx, t.ChatID)
	if _, err := n.gw.Send(ctx, t.ChatID, lang.Tf(loc, "your_ticket_was_opened", t.Heading), nil); err != nil {
		return fmt.Errorf("notify: ticket opened: %w", err)
	}
	return nil
}

// TicketClosed tells the ticket owner that the ticket was closed.
func (n *Notifier) TicketClosed(ctx context.Context, t *protocol.Ticket) error {
	loc := n.locale(ctx, t.ChatID)
	if _, err := n.gw.Send(ctx, t.ChatID, lang.Tf(loc, "the_ticket_was_closed", t.Heading), nil); err != nil {
		return fmt.Errorf("notify: ticket closed: %w", err)
	}
	return nil
}

// NewTicketToAdmins announces a fresh ticket to every support-level
// admin. Individual delivery failures are logged and skipped.
func (n *Notifier) NewTicketToAdmins(ctx context.Context, t *protocol.Ticket) error {
	admins, err := n.store.Admins(protocol.LevelSupport)
	if err != nil {
		return fmt.Errorf("notify: list admins: %w", err)
	}
	for _, a := range admins {
		text := lang.T(a.Language, "new_ticket_was_opened") + "\n" + t.Heading
		kb := (&gateway.Keyboard{}).Row(gateway.Button{
			Text: lang.T(a.Language, "select"),
			Data: query.Build(query.CategoryAdmin, query.CmdTicket, t.ID),
		})
		if _, err := n.gw.Send(ctx, a.ChatID, text, kb); err != nil {
			n.logger.Error("new ticket announce failed", "chat_id", a.ChatID, "error", err)
		}
	}
	return nil
}

// NewUserToAdmins announces a first interaction to every admin.
func (n *Notifier) NewUserToAdmins(ctx context.Context, chat *protocol.Chat) {
	admins, err := n.store.Admins(protocol.LevelAnyAdmin)
	if err != nil {
		n.logger.Error("list admins", "error", err)
		return
	}
	for _, a := range admins {
		text := lang.Tf(a.Language, "new_user", chat.TgName, chat.TgLink, chat.ChatID)
		if _, err := n.gw.Send(ctx, a.ChatID, text, nil); err != nil {
			n.logger.Error("new user announce failed", "chat_id", a.ChatID, "error", err)
		}
	}
}

// LevelChanged tells a user about a cashback level change.
func (n *Notifier) LevelChanged(ctx context.Context, chatID int64, increased bool) error {
	loc := n.locale(ctx, chatID)
	key := "level_decreased"
	if increased {
		key = "level_increased"
	}
	if _, err := n.gw.Send(ctx, chatID, lang.T(loc, key), nil); err != nil {
		return fmt.Errorf("notify: level changed: %w", err)
	}
	return nil
}

// PayoffDue reports whether a balance pair is worth announcing. The
// thresholds are exclusive: a balance sitting exactly at the minimum
// waits for the next sweep.
func PayoffDue(usdt, bnb float64) bool {
	return usdt > MinPayoffUSDT || bnb > MinPayoffBNB
}

// NewPayoff tells a user about an available payoff. Balances below the
// announcement thresholds are silently skipped, and only the currencies
// over their threshold appear in the notice.
func (n *Notifier) NewPayoff(ctx context.Context, chat *protocol.Chat) error {
	if !PayoffDue(chat.WithdrawUSDT, chat.WithdrawBNB) {
		return nil
	}
	var amount string
	switch {
	case chat.WithdrawUSDT > MinPayoffUSDT && chat.WithdrawBNB > MinPayoffBNB:
		amount = fmt.Sprintf("%.3f USDT / %.4f BNB", chat.WithdrawUSDT, chat.WithdrawBNB)
	case chat.WithdrawUSDT > MinPayoffUSDT:
		amount = fmt.Sprintf("%.3f USDT", chat.WithdrawUSDT)
	default:
		amount = fmt.Sprintf("%.4f BNB", chat.WithdrawBNB)
	}
	if _, err := n.gw.Send(ctx, chat.ChatID, lang.Tf(chat.Language, "you_got_new_payoff", amount), nil); err != nil {
		return fmt.Errorf("notify: new payoff: %w", err)
	}
	return nil
}

// BroadcastPayoffs announces every pending payoff at or above the
// thresholds. Returns the number of users notified and the chats the
// notice could not reach.
func (n *Notifier) BroadcastPayoffs(ctx context.Context) (int, []protocol.Chat, error) {
	pending, err := n.store.UsersWithPendingWithdraw(MinPayoffUSDT, MinPayoffBNB)
	if err != nil {
		return 0, nil, fmt.Errorf("notify: broadcast payoffs: %w", err)
	}

	var failed []protocol.Chat
	notified := 0
	for i := range pending {
		chat := &pending[i]
		if err := n.NewPayoff(ctx, chat); err != nil {
			n.logger.Error("payoff notice failed", "chat_id", chat.ChatID, "error", err)
			failed = append(failed, *chat)
			continue
		}
		notified++
	}
	return notified, failed, nil
}

// DeliveryFailure tells the sender why their relayed message did not
// arrive. A blocked counterpart gets a dedicated notice, everything
// else a generic one.
func (n *Notifier) DeliveryFailure(ctx context.Context, senderChatID int64, cause error) {
	loc := n.locale(ctx, senderChatID)

	var text string
	if errors.Is(cause, gateway.ErrBlocked) {
		text = lang.T(loc, "interlocutor_have_blocked_the_bot")
	} else {
		n.logger.Error("relay delivery failed", "chat_id", senderChatID, "error", cause)
		text = lang.Tf(loc, "something_went_wrong_please_notify", n.supportContact)
	}
	if _, err := n.gw.Send(ctx, senderChatID, text, nil); err != nil {
		n.logger.Error("failure notice undeliverable", "chat_id", senderChatID, "error", err)
	}
}
