package protocol

import "time"

// MessageKind classifies the payload of a captured conversational turn.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindPhoto     MessageKind = "photo"
	KindVideo     MessageKind = "video"
	KindDocument  MessageKind = "document"
	KindVoice     MessageKind = "voice"
	KindVideoNote MessageKind = "video_note"
	KindAudio     MessageKind = "audio"
	KindAnimation MessageKind = "animation"
	KindSticker   MessageKind = "sticker"

	// KindUnsupported marks content the bot cannot relay (locations,
	// contacts, polls). Such turns are rejected at the capture boundary
	// and never stored.
	KindUnsupported MessageKind = "unsupported"
)

// Batchable reports whether messages of this kind may be delivered as
// part of an album. Voice, sticker, video note and text turns are only
// ever sent individually.
func (k MessageKind) Batchable() bool {
	switch k {
	case KindPhoto, KindVideo, KindDocument, KindAudio:
		return true
	}
	return false
}

// Message is one immutable conversational turn stored against a ticket.
// Text turns carry Text; media turns carry the gateway file reference
// plus an optional caption.
type Message struct {
	ID           string      `json:"id"`
	TicketID     string      `json:"ticket_id"`
	IssuerChatID int64       `json:"issuer_chat_id"` // ticket owner's chat
	From         Side        `json:"from"`
	Kind         MessageKind `json:"kind"`
	Text         string      `json:"text,omitempty"`
	FileID       string      `json:"file_id,omitempty"`
	Caption      string      `json:"caption,omitempty"`
	MediaGroupID string      `json:"media_group_id,omitempty"`
	ReplyTo      int         `json:"reply_to,omitempty"` // origin message id replied to
	OriginMsgID  int         `json:"origin_msg_id"`
	OriginChatID int64       `json:"origin_chat_id"`
	Date         time.Time   `json:"date"`
}

// IsMediaGroup reports whether the turn arrived as part of a
// multi-attachment submission.
func (m *Message) IsMediaGroup() bool { return m.MediaGroupID != "" }

// IsReply reports whether the turn replied to an earlier message.
func (m *Message) IsReply() bool { return m.ReplyTo != 0 }
