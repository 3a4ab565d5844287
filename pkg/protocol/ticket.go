package protocol

import "time"

// TicketState represents the lifecycle state of a support ticket.
type TicketState string

const (
	TicketNew        TicketState = "new"
	TicketInProgress TicketState = "in_progress"
	TicketClosed     TicketState = "closed"
)

// Side identifies which end of a ticket an actor is on.
type Side string

const (
	SideUser  Side = "user"
	SideAgent Side = "support_agent"
)

// Ticket is a support conversation thread between one user and at most
// one agent. Selection flags bind an actor to the ticket: an actor with
// a selected ticket has their next inbound message relayed through it.
type Ticket struct {
	ID                string      `json:"id"`
	ChatID            int64       `json:"chat_id"` // owning user
	Heading           string      `json:"heading"`
	State             TicketState `json:"state"`
	SupportAgent      int64       `json:"support_agent,omitempty"` // 0 = unassigned
	SelectedByUser    bool        `json:"is_selected_by_user"`
	SelectedBySupport int64       `json:"selected_by_support,omitempty"` // 0 = none
	CreatedAt         time.Time   `json:"created_at"`
	ClosedAt          *time.Time  `json:"closed_at,omitempty"`
}

// Counterpart returns the chat that should receive a message sent into
// the ticket from the given side.
func (t *Ticket) Counterpart(from Side) int64 {
	if from == SideAgent {
		return t.ChatID
	}
	return t.SupportAgent
}
