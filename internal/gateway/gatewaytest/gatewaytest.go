// Package gatewaytest provides a recording in-memory Gateway for
// tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/pkg/protocol"
)

// Sent records one delivered message.
type Sent struct {
	ChatID   int64
	Text     string
	Kind     protocol.MessageKind
	FileID   string
	Caption  string
	Album    []gateway.AlbumItem
	Keyboard *gateway.Keyboard
}

// Fake implements gateway.Gateway and records every call. Err, when
// set, is returned from all send methods; FailFor limits the failure
// to a single chat.
type Fake struct {
	mu      sync.Mutex
	sent    []Sent
	nextID  int
	Err     error
	FailFor int64

	Deleted  []int
	Answered []string
	Files    map[string][]byte
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{Files: map[string][]byte{}}
}

// Sent returns a copy of everything delivered so far.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// SentTo returns messages delivered to one chat.
func (f *Fake) SentTo(chatID int64) []Sent {
	var out []Sent
	for _, s := range f.Sent() {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Reset clears the recorded messages.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.Deleted = nil
	f.Answered = nil
}

func (f *Fake) fail(chatID int64) error {
	if f.Err == nil {
		return nil
	}
	if f.FailFor != 0 && f.FailFor != chatID {
		return nil
	}
	return f.Err
}

func (f *Fake) record(s Sent) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, s)
	return f.nextID
}

func (f *Fake) Send(_ context.Context, chatID int64, text string, kb *gateway.Keyboard) (int, error) {
	if err := f.fail(chatID); err != nil {
		return 0, err
	}
	return f.record(Sent{ChatID: chatID, Text: text, Keyboard: kb}), nil
}

func (f *Fake) SendMedia(_ context.Context, chatID int64, kind protocol.MessageKind, fileID, caption string) (int, error) {
	if err := f.fail(chatID); err != nil {
		return 0, err
	}
	return f.record(Sent{ChatID: chatID, Kind: kind, FileID: fileID, Caption: caption}), nil
}

func (f *Fake) SendAlbum(_ context.Context, chatID int64, items []gateway.AlbumItem) error {
	if err := f.fail(chatID); err != nil {
		return err
	}
	f.record(Sent{ChatID: chatID, Album: items})
	return nil
}

func (f *Fake) Edit(_ context.Context, chatID int64, messageID int, text string, kb *gateway.Keyboard) error {
	if err := f.fail(chatID); err != nil {
		return err
	}
	f.record(Sent{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (f *Fake) Delete(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *Fake) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answered = append(f.Answered, callbackID)
	return nil
}

func (f *Fake) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data, ok := f.Files[fileID]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("gatewaytest: no such file %q", fileID)
}
