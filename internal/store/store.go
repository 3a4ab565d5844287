package store

import (
	"errors"

	"github.com/refback-io/refback/pkg/protocol"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface for chats, tickets and ticket
// messages. All state transitions are conditional updates: callers
// inspect the returned bool (or row count) to detect lost races instead
// of receiving an error.
type Store interface {
	// Chats.
	EnsureChat(chatID int64) (created bool, err error)
	Chat(chatID int64) (*protocol.Chat, error)
	ChatByBinanceID(binanceID int64) (*protocol.Chat, error)
	SetLanguage(chatID int64, lang string) error
	UpdateNicknames(chatID int64, name, link string) error
	CompleteRegistration(chatID int64, realName string, binanceID int64, wallet string) error
	SetUserLevelByBinanceID(binanceID int64, level int) (bool, error)
	SetAdminLevel(chatID int64, level int) error
	SetWithdrawBalances(chatID int64, usdt, bnb float64) error
	Admins(minLevel int) ([]protocol.Chat, error)
	UsersWithPendingWithdraw(usdtMin, bnbMin float64) ([]protocol.Chat, error)
	ResetPendingWithdraws(usdtMin, bnbMin float64) (int64, error)
	Restricted(chatID int64) (bool, error)

	// Tickets.
	CreateTicket(t *protocol.Ticket) error
	Ticket(id string) (*protocol.Ticket, error)
	OpenTickets(chatID int64) ([]*protocol.Ticket, error)
	NewTickets() ([]*protocol.Ticket, error)
	AgentTickets(agentID int64, includeClosed bool) ([]*protocol.Ticket, error)
	SelectedTicket(actorID int64, side protocol.Side) (*protocol.Ticket, error)
	SelectTicket(id string, actorID int64, side protocol.Side) (bool, error)
	UnselectAll(actorID int64, side protocol.Side) (int64, error)
	ClaimTicket(id string, agentID int64) (bool, error)
	CloseTicket(id string) (bool, error)

	// Messages.
	AppendMessage(m *protocol.Message) error
	TicketMessages(ticketID string, issuerChatID int64, newestFirst bool) ([]protocol.Message, error)
}
