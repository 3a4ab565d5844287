// Package ticket implements the support ticket lifecycle: creation,
// claiming by an agent, selection and closing. State transitions are
// conditional store updates, so concurrent actors race safely and the
// loser gets a typed error instead of a double transition.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

var (
	// ErrAlreadyClaimed is returned when another agent claimed the
	// ticket first.
	ErrAlreadyClaimed = errors.New("ticket: already claimed")

	// ErrClosed is returned for operations on a closed ticket.
	ErrClosed = errors.New("ticket: closed")
)

// Notifier receives lifecycle events. Implemented by internal/notify.
type Notifier interface {
	TicketOpened(ctx context.Context, t *protocol.Ticket) error
	TicketClosed(ctx context.Context, t *protocol.Ticket) error
	NewTicketToAdmins(ctx context.Context, t *protocol.Ticket) error
}

// Manager drives ticket state transitions against the store and emits
// notifications for them.
type Manager struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

// New builds a Manager.
func New(st store.Store, n Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    st,
		notifier: n,
		logger:   logger.With("component", "ticket"),
	}
}

// Create opens a new ticket for a user and announces it to the support
// staff. The announcement failing does not fail the creation.
func (m *Manager) Create(ctx context.Context, chatID int64, heading string) (*protocol.Ticket, error) {
	t := &protocol.Ticket{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Heading:   heading,
		State:     protocol.TicketNew,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateTicket(t); err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}
	m.logger.Info("ticket created", "ticket_id", t.ID, "chat_id", chatID)

	if m.notifier != nil {
		if err := m.notifier.NewTicketToAdmins(ctx, t); err != nil {
			m.logger.Error("ticket announce failed", "ticket_id", t.ID, "error", err)
		}
	}
	return t, nil
}

// Claim assigns the agent to a new ticket and moves it in progress.
// Exactly one concurrent claim wins; losers get ErrAlreadyClaimed. The
// owning user is told their ticket was opened.
func (m *Manager) Claim(ctx context.Context, id string, agentID int64) (*protocol.Ticket, error) {
	ok, err := m.store.ClaimTicket(id, agentID)
	if err != nil {
		return nil, fmt.Errorf("ticket: claim: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyClaimed
	}
	t, err := m.store.Ticket(id)
	if err != nil {
		return nil, fmt.Errorf("ticket: claim: reload: %w", err)
	}
	m.logger.Info("ticket claimed", "ticket_id", id, "agent", agentID)

	if m.notifier != nil {
		if err := m.notifier.TicketOpened(ctx, t); err != nil {
			m.logger.Error("open notice failed", "ticket_id", id, "error", err)
		}
	}
	return t, nil
}

// Select binds the actor to the ticket, dropping any other selection
// they held. Selecting a closed ticket returns ErrClosed.
func (m *Manager) Select(ctx context.Context, id string, actorID int64, side protocol.Side) (*protocol.Ticket, error) {
	ok, err := m.store.SelectTicket(id, actorID, side)
	if err != nil {
		return nil, fmt.Errorf("ticket: select: %w", err)
	}
	if !ok {
		return nil, ErrClosed
	}
	t, err := m.store.Ticket(id)
	if err != nil {
		return nil, fmt.Errorf("ticket: select: reload: %w", err)
	}
	return t, nil
}

// Unselect clears the actor's active selection, if any.
func (m *Manager) Unselect(actorID int64, side protocol.Side) error {
	if _, err := m.store.UnselectAll(actorID, side); err != nil {
		return fmt.Errorf("ticket: unselect: %w", err)
	}
	return nil
}

// Selected returns the actor's currently selected in-progress ticket,
// or store.ErrNotFound.
func (m *Manager) Selected(actorID int64, side protocol.Side) (*protocol.Ticket, error) {
	return m.store.SelectedTicket(actorID, side)
}

// Close moves the ticket to closed, clearing both selections, and
// tells the owning user. Closing twice returns ErrClosed.
func (m *Manager) Close(ctx context.Context, id string) (*protocol.Ticket, error) {
	ok, err := m.store.CloseTicket(id)
	if err != nil {
		return nil, fmt.Errorf("ticket: close: %w", err)
	}
	if !ok {
		return nil, ErrClosed
	}
	t, err := m.store.Ticket(id)
	if err != nil {
		return nil, fmt.Errorf("ticket: close: reload: %w", err)
	}
	m.logger.Info("ticket closed", "ticket_id", id)

	if m.notifier != nil {
		if err := m.notifier.TicketClosed(ctx, t); err != nil {
			m.logger.Error("close notice failed", "ticket_id", id, "error", err)
		}
	}
	return t, nil
}
