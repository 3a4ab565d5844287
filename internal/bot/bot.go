// Package bot is the top-level update handler: it keeps the chat
// registry current, runs the conversation sessions and routes commands,
// callbacks and plain messages to the ticket and cashback machinery.
package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/refback-io/refback/internal/cashback"
	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/lang"
	"github.com/refback-io/refback/internal/notify"
	"github.com/refback-io/refback/internal/query"
	"github.com/refback-io/refback/internal/relay"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/internal/ticket"
	"github.com/refback-io/refback/pkg/protocol"
)

// Ledger is the slice of the store the calculation flow writes raw
// commission rows into.
type Ledger interface {
	InsertCommissionRows(rows []store.CommissionRow) error
}

// Config carries the collaborators a Bot needs.
type Config struct {
	Gateway    gateway.Gateway
	Store      store.Store
	Ledger     Ledger
	Tickets    *ticket.Manager
	Capturer   *relay.Capturer
	Dispatcher *relay.Dispatcher
	Notifier   *notify.Notifier
	Calc       *cashback.Client
	InternalID int
	Logger     *slog.Logger
}

// Bot distributes normalized gateway updates.
type Bot struct {
	gw         gateway.Gateway
	store      store.Store
	ledger     Ledger
	tickets    *ticket.Manager
	capturer   *relay.Capturer
	dispatcher *relay.Dispatcher
	notifier   *notify.Notifier
	calc       *cashback.Client
	internalID int
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// New builds a Bot from its collaborators.
func New(cfg Config) *Bot {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		gw:         cfg.Gateway,
		store:      cfg.Store,
		ledger:     cfg.Ledger,
		tickets:    cfg.Tickets,
		capturer:   cfg.Capturer,
		dispatcher: cfg.Dispatcher,
		notifier:   cfg.Notifier,
		calc:       cfg.Calc,
		internalID: cfg.InternalID,
		logger:     logger.With("component", "bot"),
		sessions:   make(map[int64]*session),
	}
}

// HandleUpdate is the gateway handler: one call per normalized update.
func (b *Bot) HandleUpdate(ctx context.Context, u gateway.Update) {
	chatID := u.ChatID()
	if chatID <= 0 {
		// Group and channel ids are negative; the bot only serves
		// direct chats.
		return
	}

	restricted, err := b.store.Restricted(chatID)
	if err != nil {
		b.logger.Error("restriction check", "chat_id", chatID, "error", err)
		return
	}
	if restricted {
		return
	}

	created, err := b.store.EnsureChat(chatID)
	if err != nil {
		b.logger.Error("ensure chat", "chat_id", chatID, "error", err)
		return
	}
	if u.Name != "" {
		if err := b.store.UpdateNicknames(chatID, u.Name, u.Username); err != nil {
			b.logger.Warn("update nicknames", "chat_id", chatID, "error", err)
		}
	}
	if created {
		b.firstInteraction(ctx, chatID)
		return
	}

	chat, err := b.store.Chat(chatID)
	if err != nil {
		b.logger.Error("load chat", "chat_id", chatID, "error", err)
		return
	}

	if u.ChatType != "" && u.ChatType != "private" {
		b.say(ctx, chat, "the_chat_is_not_private")
		return
	}

	switch {
	case u.Command != nil:
		b.handleCommand(ctx, chat, u.Command)
	case u.Callback != nil:
		b.handleCallback(ctx, chat, u.Callback)
	case u.Inbound != nil:
		b.handleInbound(ctx, chat, u.Inbound)
	}
}

// firstInteraction greets a brand-new chat and offers the language
// choice up front.
func (b *Bot) firstInteraction(ctx context.Context, chatID int64) {
	kb := (&gateway.Keyboard{}).Row(
		gateway.Button{Text: "English", Data: query.Build(query.CategoryCommands, query.CmdLangCode, "en")},
		gateway.Button{Text: "Русский", Data: query.Build(query.CategoryCommands, query.CmdLangCode, "ru")},
		gateway.Button{Text: "Українська", Data: query.Build(query.CategoryCommands, query.CmdLangCode, "ua")},
	)
	if _, err := b.gw.Send(ctx, chatID, lang.T(lang.Fallback, "first_interaction"), kb); err != nil {
		b.logger.Warn("greet", "chat_id", chatID, "error", err)
	}
}

// say sends a catalog message in the chat's locale.
func (b *Bot) say(ctx context.Context, chat *protocol.Chat, key string, args ...any) {
	if _, err := b.gw.Send(ctx, chat.ChatID, lang.Tf(chat.Language, key, args...), nil); err != nil {
		b.logger.Warn("send", "chat_id", chat.ChatID, "key", key, "error", err)
	}
}

// sayKB is say with an inline keyboard attached.
func (b *Bot) sayKB(ctx context.Context, chat *protocol.Chat, kb *gateway.Keyboard, key string, args ...any) {
	if _, err := b.gw.Send(ctx, chat.ChatID, lang.Tf(chat.Language, key, args...), kb); err != nil {
		b.logger.Warn("send", "chat_id", chat.ChatID, "key", key, "error", err)
	}
}

func (b *Bot) isAgent(chat *protocol.Chat) bool {
	return chat.IsAdmin(protocol.LevelSupport)
}
