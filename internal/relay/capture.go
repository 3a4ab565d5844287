// Package relay moves ticket messages between the two sides of a
// support conversation. Capture persists an inbound message and queues
// it, the scheduler coalesces media group parts, and the dispatcher
// renders and delivers due batches.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

// ErrNoSelection is returned when the sender has no selected ticket to
// relay into.
var ErrNoSelection = errors.New("relay: no selected ticket")

// DefaultCoalesceDelay is how long a media group waits for further
// parts before it is delivered as one album.
const DefaultCoalesceDelay = 2 * time.Second

// Capturer persists inbound ticket messages and queues their delivery.
type Capturer struct {
	store     store.Store
	scheduler *Scheduler
	logger    *slog.Logger
	delay     time.Duration
}

// NewCapturer builds a Capturer. A non-positive delay falls back to
// DefaultCoalesceDelay.
func NewCapturer(st store.Store, sched *Scheduler, delay time.Duration, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultCoalesceDelay
	}
	return &Capturer{
		store:     st,
		scheduler: sched,
		logger:    logger.With("component", "relay"),
		delay:     delay,
	}
}

// SideOf resolves which end of a ticket a chat speaks from. Support
// staff relay as agents, everyone else as the ticket owner.
func SideOf(chat *protocol.Chat) protocol.Side {
	if chat.IsAdmin(protocol.LevelSupport) {
		return protocol.SideAgent
	}
	return protocol.SideUser
}

// Capture persists the inbound message under the sender's selected
// ticket and schedules its delivery. The store write happens before
// any delivery attempt, so a transport failure never loses content.
func (c *Capturer) Capture(_ context.Context, sender *protocol.Chat, in *gateway.Inbound) error {
	side := SideOf(sender)

	t, err := c.store.SelectedTicket(sender.ChatID, side)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoSelection
	}
	if err != nil {
		return fmt.Errorf("relay: capture: %w", err)
	}

	// Messages of both sides are keyed by the ticket owner's chat, so
	// one query yields the full conversation. The sending side lives in
	// From and OriginChatID.
	msg := &protocol.Message{
		ID:           uuid.NewString(),
		TicketID:     t.ID,
		IssuerChatID: t.ChatID,
		From:         side,
		Kind:         in.Kind,
		Text:         in.Text,
		FileID:       in.FileID,
		Caption:      in.Caption,
		MediaGroupID: in.MediaGroupID,
		ReplyTo:      in.ReplyTo,
		OriginMsgID:  in.MessageID,
		OriginChatID: in.ChatID,
		Date:         time.Now(),
	}
	if err := c.store.AppendMessage(msg); err != nil {
		return fmt.Errorf("relay: capture: %w", err)
	}

	b := Batch{TicketID: t.ID, Issuer: sender.ChatID, From: side}
	if msg.IsMediaGroup() {
		b.GroupID = msg.MediaGroupID
		c.scheduler.Schedule("group:"+msg.MediaGroupID, c.delay, b)
	} else {
		b.Single = msg
		c.scheduler.Schedule("msg:"+msg.ID, 0, b)
	}

	c.logger.Debug("message captured",
		"ticket_id", t.ID,
		"kind", msg.Kind,
		"media_group", msg.MediaGroupID,
	)
	return nil
}
