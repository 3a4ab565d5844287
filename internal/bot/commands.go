package bot

import (
	"context"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/query"
	"github.com/refback-io/refback/pkg/protocol"
)

func (b *Bot) handleCommand(ctx context.Context, chat *protocol.Chat, cmd *gateway.Command) {
	// Any explicit command abandons a running conversation, /cancel
	// with a confirmation, the rest silently.
	if s := b.currentSession(chat.ChatID); s != nil {
		b.endSession(chat.ChatID)
		if cmd.Name == "cancel" {
			b.say(ctx, chat, "cancelled")
			return
		}
	} else if cmd.Name == "cancel" {
		b.say(ctx, chat, "nothing_to_cancel")
		return
	}

	switch cmd.Name {
	case "start", "help":
		b.sendHelp(ctx, chat)
	case "my_data":
		b.myData(ctx, chat)
	case "set_data":
		b.startSession(chat.ChatID, &session{kind: sessionRegister, step: stepName})
		b.say(ctx, chat, "send_your_full_name")
	case "support":
		b.sayKB(ctx, chat, supportKeyboard(chat.Language), "choose")
	case "exit":
		n, err := b.store.UnselectAll(chat.ChatID, protocol.SideUser)
		if err != nil || n == 0 {
			b.say(ctx, chat, "nothing_happened")
			return
		}
		b.say(ctx, chat, "success")
	case "admin":
		if !b.isAgent(chat) {
			return
		}
		b.sayKB(ctx, chat, adminKeyboard(chat.Language), "choose")
	default:
		b.say(ctx, chat, "unknown_text")
	}
}

func (b *Bot) sendHelp(ctx context.Context, chat *protocol.Chat) {
	b.say(ctx, chat, "help", "start", "support", "my_data", "set_data")
}

func (b *Bot) myData(ctx context.Context, chat *protocol.Chat) {
	if !chat.Registered() {
		b.say(ctx, chat, "you_have_not_registered_yet")
		return
	}
	b.say(ctx, chat, "my_data", chat.RealName, chat.BinanceID, chat.WithdrawWallet)
}

// handleCommandCallback serves the "c" callback category: language
// switching and the back-to-menu button.
func (b *Bot) handleCommandCallback(ctx context.Context, chat *protocol.Chat, cb *gateway.Callback, q query.Query) {
	switch q.Command {
	case query.CmdLangCode:
		code := q.Arg(0)
		supported := false
		for _, l := range lang.Locales {
			if l == code {
				supported = true
			}
		}
		if !supported {
			b.answer(ctx, cb, "")
			return
		}
		if err := b.store.SetLanguage(chat.ChatID, code); err != nil {
			b.logger.Error("set language", "chat_id", chat.ChatID, "error", err)
			b.answer(ctx, cb, "")
			return
		}
		chat.Language = code
		b.answer(ctx, cb, "")
		b.deleteMessage(ctx, cb)
		b.sendHelp(ctx, chat)

	case query.CmdMenu, query.CmdDeleteMessage:
		b.answer(ctx, cb, "")
		b.deleteMessage(ctx, cb)
		if q.Command == query.CmdMenu {
			b.sendHelp(ctx, chat)
		}
	}
}

func (b *Bot) answer(ctx context.Context, cb *gateway.Callback, text string) {
	if err := b.gw.AnswerCallback(ctx, cb.ID, text); err != nil {
		b.logger.Warn("answer callback", "callback_id", cb.ID, "error", err)
	}
}

func (b *Bot) deleteMessage(ctx context.Context, cb *gateway.Callback) {
	if err := b.gw.Delete(ctx, cb.ChatID, cb.MessageID); err != nil {
		b.logger.Warn("delete message", "chat_id", cb.ChatID, "error", err)
	}
}
