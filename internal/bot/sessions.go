package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

// sessionKind names a multi-step conversation a chat can be in.
type sessionKind int

const (
	sessionNewTicket sessionKind = iota
	sessionRegister
	sessionCalc
	sessionLevel
)

// Registration conversation steps.
const (
	stepName = iota
	stepBID
	stepWallet
)

// session is the per-chat conversation state. At most one session per
// chat; starting a new one replaces the old.
type session struct {
	kind sessionKind
	step int

	// register
	name string
	bid  int64

	// level change
	increase bool
}

var (
	nameRe   = regexp.MustCompile(`^[a-zA-Z\x{0400}-\x{04FF} ]+$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	walletRe = regexp.MustCompile(`^T[a-zA-Z0-9]{33}$`)
)

func (b *Bot) startSession(chatID int64, s *session) {
	b.mu.Lock()
	b.sessions[chatID] = s
	b.mu.Unlock()
}

func (b *Bot) endSession(chatID int64) {
	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()
}

func (b *Bot) currentSession(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

// runSession feeds one inbound message into the chat's active session.
func (b *Bot) runSession(ctx context.Context, chat *protocol.Chat, s *session, in inboundInput) {
	switch s.kind {
	case sessionNewTicket:
		b.sessionNewTicketStep(ctx, chat, in)
	case sessionRegister:
		b.sessionRegisterStep(ctx, chat, s, in)
	case sessionCalc:
		b.runCalculation(ctx, chat, in)
	case sessionLevel:
		b.sessionLevelStep(ctx, chat, s, in)
	}
}

// inboundInput is the slice of an inbound message sessions care about.
type inboundInput struct {
	Text     string
	FileID   string
	FileName string
	IsDoc    bool
}

func (b *Bot) sessionNewTicketStep(ctx context.Context, chat *protocol.Chat, in inboundInput) {
	if in.Text == "" {
		b.endSession(chat.ChatID)
		b.say(ctx, chat, "ticket_creation_process_is_cancelled")
		return
	}

	t, err := b.tickets.Create(ctx, chat.ChatID, in.Text)
	if err != nil {
		b.logger.Error("create ticket", "chat_id", chat.ChatID, "error", err)
		b.endSession(chat.ChatID)
		b.say(ctx, chat, "error")
		return
	}
	if _, err := b.tickets.Select(ctx, t.ID, chat.ChatID, protocol.SideUser); err != nil {
		b.logger.Warn("select fresh ticket", "ticket_id", t.ID, "error", err)
	}
	b.endSession(chat.ChatID)
	b.say(ctx, chat, "your_ticket_was_successfully_created")
}

func (b *Bot) sessionRegisterStep(ctx context.Context, chat *protocol.Chat, s *session, in inboundInput) {
	fail := func() {
		b.endSession(chat.ChatID)
		b.say(ctx, chat, "wrong_input")
	}

	switch s.step {
	case stepName:
		if !nameRe.MatchString(in.Text) {
			fail()
			return
		}
		s.name = in.Text
		s.step = stepBID
		b.say(ctx, chat, "send_your_bid")

	case stepBID:
		if !digitsRe.MatchString(in.Text) {
			fail()
			return
		}
		bid, err := strconv.ParseInt(in.Text, 10, 64)
		if err != nil {
			fail()
			return
		}
		// A Binance ID identifies one account; refuse ids already
		// claimed by another chat.
		if _, err := b.store.ChatByBinanceID(bid); !errors.Is(err, store.ErrNotFound) {
			fail()
			return
		}
		s.bid = bid
		s.step = stepWallet
		b.say(ctx, chat, "send_your_wallet")

	case stepWallet:
		if !walletRe.MatchString(in.Text) {
			fail()
			return
		}
		if err := b.store.CompleteRegistration(chat.ChatID, s.name, s.bid, in.Text); err != nil {
			b.logger.Error("complete registration", "chat_id", chat.ChatID, "error", err)
			fail()
			return
		}
		b.endSession(chat.ChatID)
		b.say(ctx, chat, "successfully_registered", "my_data")

		if updated, err := b.store.Chat(chat.ChatID); err == nil {
			b.notifier.NewUserToAdmins(ctx, updated)
		}
	}
}

func (b *Bot) sessionLevelStep(ctx context.Context, chat *protocol.Chat, s *session, in inboundInput) {
	b.endSession(chat.ChatID)

	if !digitsRe.MatchString(in.Text) {
		b.say(ctx, chat, "wrong_input")
		return
	}
	bid, err := strconv.ParseInt(in.Text, 10, 64)
	if err != nil {
		b.say(ctx, chat, "wrong_input")
		return
	}

	target, err := b.store.ChatByBinanceID(bid)
	if err != nil {
		b.say(ctx, chat, "admin.level_wasnt_changed")
		return
	}

	level := target.UserLevel - 1
	if s.increase {
		level = target.UserLevel + 1
	}
	if level < protocol.MinUserLevel || level > protocol.MaxUserLevel {
		b.say(ctx, chat, "admin.level_wasnt_changed")
		return
	}

	changed, err := b.store.SetUserLevelByBinanceID(bid, level)
	if err != nil || !changed {
		b.say(ctx, chat, "admin.level_wasnt_changed")
		return
	}
	b.say(ctx, chat, "success")
	if err := b.notifier.LevelChanged(ctx, target.ChatID, s.increase); err != nil {
		b.logger.Warn("level change notice", "chat_id", target.ChatID, "error", err)
	}
}
