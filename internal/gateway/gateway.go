// Package gateway abstracts the messenger transport. The bot logic
// works with normalized updates and a narrow send surface so that it
// can be driven by a fake in tests.
package gateway

import (
	"context"
	"errors"

	"github.com/refback-io/refback/pkg/protocol"
)

// ErrBlocked reports that the recipient has blocked the bot.
var ErrBlocked = errors.New("gateway: recipient blocked the bot")

// Button is a single inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard struct {
	Rows [][]Button
}

// Row appends a row of buttons and returns the keyboard for chaining.
func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// AlbumItem is one entry of a media group send.
type AlbumItem struct {
	Kind    protocol.MessageKind
	FileID  string
	Caption string
}

// Inbound is a content-bearing message received from a chat.
type Inbound struct {
	MessageID    int
	ChatID       int64
	Kind         protocol.MessageKind
	Text         string
	FileID       string
	Caption      string
	MediaGroupID string
	ReplyTo      int
	FileName     string
}

// Command is a received bot command, e.g. /start.
type Command struct {
	MessageID int
	ChatID    int64
	Name      string
	Args      string
}

// Callback is a pressed inline keyboard button.
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	Data      string
}

// Update is a normalized incoming event. Exactly one of Inbound,
// Command and Callback is set.
type Update struct {
	Inbound  *Inbound
	Command  *Command
	Callback *Callback

	ChatType string // "private", "group", "supergroup", "channel"
	Name     string // sender's display name
	Username string // sender's handle, may be empty
}

// ChatID returns the chat the update originated from.
func (u Update) ChatID() int64 {
	switch {
	case u.Inbound != nil:
		return u.Inbound.ChatID
	case u.Command != nil:
		return u.Command.ChatID
	case u.Callback != nil:
		return u.Callback.ChatID
	}
	return 0
}

// Handler consumes normalized updates.
type Handler func(ctx context.Context, u Update)

// Gateway is the transport used to deliver messages to chats.
type Gateway interface {
	// Send delivers a text message and returns the sent message id.
	Send(ctx context.Context, chatID int64, text string, kb *Keyboard) (int, error)

	// SendMedia delivers a single media message by file id.
	SendMedia(ctx context.Context, chatID int64, kind protocol.MessageKind, fileID, caption string) (int, error)

	// SendAlbum delivers up to ten items as one media group.
	SendAlbum(ctx context.Context, chatID int64, items []AlbumItem) error

	// Edit replaces the text and keyboard of a previously sent message.
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb *Keyboard) error

	// Delete removes a previously sent message.
	Delete(ctx context.Context, chatID int64, messageID int) error

	// AnswerCallback acknowledges a callback query.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// DownloadFile fetches the raw bytes of an uploaded file.
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
