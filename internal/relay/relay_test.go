package relay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/gateway/gatewaytest"
	"github.com/refback-io/refback/internal/notify"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

const (
	userChat  = int64(100)
	agentChat = int64(900)
)

type fixture struct {
	store     *store.SQLite
	gw        *gatewaytest.Fake
	capturer  *Capturer
	scheduler *Scheduler
	ticket    *protocol.Ticket
	user      *protocol.Chat
	agent     *protocol.Chat
}

// newFixture builds a claimed in-progress ticket with both sides
// selected, relayed through a fake gateway.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	for _, id := range []int64{userChat, agentChat} {
		if _, err := st.EnsureChat(id); err != nil {
			t.Fatal(err)
		}
		if err := st.SetLanguage(id, "en"); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.SetAdminLevel(agentChat, protocol.LevelSupport); err != nil {
		t.Fatal(err)
	}

	tk := &protocol.Ticket{ID: "t1", ChatID: userChat, Heading: "missing cashback", State: protocol.TicketNew, CreatedAt: time.Now()}
	if err := st.CreateTicket(tk); err != nil {
		t.Fatal(err)
	}
	if ok, err := st.ClaimTicket(tk.ID, agentChat); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if _, err := st.SelectTicket(tk.ID, userChat, protocol.SideUser); err != nil {
		t.Fatal(err)
	}
	if _, err := st.SelectTicket(tk.ID, agentChat, protocol.SideAgent); err != nil {
		t.Fatal(err)
	}
	tk, err = st.Ticket(tk.ID)
	if err != nil {
		t.Fatal(err)
	}

	gw := gatewaytest.New()
	n := notify.New(gw, st, "@support", nil)
	d := NewDispatcher(st, gw, n, nil)
	sched := NewScheduler(d.Dispatch, nil)
	t.Cleanup(sched.Stop)
	cap := NewCapturer(st, sched, 100*time.Millisecond, nil)

	user, _ := st.Chat(userChat)
	agent, _ := st.Chat(agentChat)
	return &fixture{store: st, gw: gw, capturer: cap, scheduler: sched, ticket: tk, user: user, agent: agent}
}

func (f *fixture) captureText(t *testing.T, sender *protocol.Chat, text string) {
	t.Helper()
	err := f.capturer.Capture(context.Background(), sender, &gateway.Inbound{
		MessageID: 1, ChatID: sender.ChatID, Kind: protocol.KindText, Text: text,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
}

func TestRelayTextUserToAgent(t *testing.T) {
	f := newFixture(t)
	f.captureText(t, f.user, "where is my cashback?")

	waitFor(t, "delivery", func() bool { return len(f.gw.SentTo(agentChat)) > 0 })
	sent := f.gw.SentTo(agentChat)
	if len(sent) != 1 {
		t.Fatalf("agent got %d messages, want 1", len(sent))
	}
	if want := "From: user\n\nwhere is my cashback?"; sent[0].Text != want {
		t.Errorf("text = %q, want %q", sent[0].Text, want)
	}

	msgs, err := f.store.TicketMessages(f.ticket.ID, userChat, false)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("stored messages = %d (%v), want 1", len(msgs), err)
	}
}

func TestRelayTextAgentToUser(t *testing.T) {
	f := newFixture(t)
	f.captureText(t, f.agent, "we are looking into it")

	waitFor(t, "delivery", func() bool { return len(f.gw.SentTo(userChat)) > 0 })
	sent := f.gw.SentTo(userChat)
	if len(sent) != 1 {
		t.Fatalf("user got %d messages, want 1", len(sent))
	}
	// Agent messages carry no attribution header.
	if sent[0].Text != "we are looking into it" {
		t.Errorf("text = %q", sent[0].Text)
	}
}

func TestCaptureWithoutSelection(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.UnselectAll(userChat, protocol.SideUser); err != nil {
		t.Fatal(err)
	}

	err := f.capturer.Capture(context.Background(), f.user, &gateway.Inbound{
		ChatID: userChat, Kind: protocol.KindText, Text: "hello?",
	})
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	time.Sleep(60 * time.Millisecond)
	if len(f.gw.Sent()) != 0 {
		t.Error("nothing should be delivered without a selection")
	}
}

func TestUnselectedUserGetsPromptAndContent(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.UnselectAll(userChat, protocol.SideUser); err != nil {
		t.Fatal(err)
	}

	f.captureText(t, f.agent, "any update?")

	waitFor(t, "prompt and content", func() bool { return len(f.gw.SentTo(userChat)) >= 2 })
	sent := f.gw.SentTo(userChat)
	if len(sent) != 2 {
		t.Fatalf("user got %d messages, want prompt + content", len(sent))
	}
	if !strings.Contains(sent[0].Text, "missing cashback") {
		t.Errorf("prompt = %q, want ticket heading in it", sent[0].Text)
	}
	if sent[0].Keyboard == nil || sent[0].Keyboard.Rows[0][0].Data != "sp*my_o_t*t1" {
		t.Errorf("prompt keyboard = %+v", sent[0].Keyboard)
	}
	if sent[1].Text != "any update?" {
		t.Errorf("content = %q", sent[1].Text)
	}
}

func TestUnassignedAgentGetsPromptOnly(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.UnselectAll(agentChat, protocol.SideAgent); err != nil {
		t.Fatal(err)
	}

	f.captureText(t, f.user, "hello?")

	waitFor(t, "prompt", func() bool { return len(f.gw.SentTo(agentChat)) > 0 })
	time.Sleep(60 * time.Millisecond)
	sent := f.gw.SentTo(agentChat)
	if len(sent) != 1 {
		t.Fatalf("agent got %d messages, want the prompt only", len(sent))
	}
	if strings.Contains(sent[0].Text, "hello?") {
		t.Error("content must not be delivered while the agent has no selection")
	}
	if sent[0].Keyboard == nil || sent[0].Keyboard.Rows[0][0].Data != "adm*t_sel*t1" {
		t.Errorf("prompt keyboard = %+v", sent[0].Keyboard)
	}

	// The content is stored and survives for later reading.
	msgs, err := f.store.TicketMessages(f.ticket.ID, userChat, false)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("stored messages = %d (%v), want 1", len(msgs), err)
	}
}

func TestMediaGroupCoalesces(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		caption := ""
		if i == 0 {
			caption = "receipts"
		}
		err := f.capturer.Capture(context.Background(), f.user, &gateway.Inbound{
			MessageID:    10 + i,
			ChatID:       userChat,
			Kind:         protocol.KindPhoto,
			FileID:       fmt.Sprintf("photo-%d", i),
			Caption:      caption,
			MediaGroupID: "album-1",
		})
		if err != nil {
			t.Fatalf("capture part %d: %v", i, err)
		}
	}

	waitFor(t, "album delivery", func() bool { return len(f.gw.SentTo(agentChat)) > 0 })
	sent := f.gw.SentTo(agentChat)
	if len(sent) != 1 {
		t.Fatalf("agent got %d sends, want one album", len(sent))
	}
	album := sent[0].Album
	if len(album) != 3 {
		t.Fatalf("album has %d items, want 3", len(album))
	}
	for i, it := range album {
		if want := fmt.Sprintf("photo-%d", i); it.FileID != want {
			t.Errorf("item %d = %q, want %q (chronological order)", i, it.FileID, want)
		}
	}
	if want := "From: user\n\nreceipts"; album[0].Caption != want {
		t.Errorf("first caption = %q, want %q", album[0].Caption, want)
	}
	if album[1].Caption != "" || album[2].Caption != "" {
		t.Error("only the first item carries the attribution header")
	}
}

func TestMixedGroupSendsVisualAlbumOnly(t *testing.T) {
	f := newFixture(t)

	parts := []struct {
		kind protocol.MessageKind
		file string
	}{
		{protocol.KindDocument, "doc-1"},
		{protocol.KindPhoto, "photo-1"},
		{protocol.KindVideo, "video-1"},
	}
	for i, p := range parts {
		err := f.capturer.Capture(context.Background(), f.user, &gateway.Inbound{
			MessageID: 20 + i, ChatID: userChat, Kind: p.kind, FileID: p.file, MediaGroupID: "album-2",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, "album delivery", func() bool { return len(f.gw.SentTo(agentChat)) > 0 })
	sent := f.gw.SentTo(agentChat)
	if len(sent) != 1 {
		t.Fatalf("agent got %d sends, want 1", len(sent))
	}
	album := sent[0].Album
	if len(album) != 2 {
		t.Fatalf("album has %d items, want the 2 visual ones", len(album))
	}
	for _, it := range album {
		if it.Kind == protocol.KindDocument {
			t.Error("documents must not mix into a photo/video album")
		}
	}
}

func TestStickerRelaysWithoutCaption(t *testing.T) {
	f := newFixture(t)

	err := f.capturer.Capture(context.Background(), f.user, &gateway.Inbound{
		MessageID: 30, ChatID: userChat, Kind: protocol.KindSticker, FileID: "sticker-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, "delivery", func() bool { return len(f.gw.SentTo(agentChat)) > 0 })
	sent := f.gw.SentTo(agentChat)
	if sent[0].Kind != protocol.KindSticker || sent[0].FileID != "sticker-1" {
		t.Errorf("sent = %+v", sent[0])
	}
	if sent[0].Caption != "" {
		t.Error("stickers cannot carry a caption")
	}
}

func TestBlockedRecipientNotifiesSender(t *testing.T) {
	f := newFixture(t)
	f.gw.Err = gateway.ErrBlocked
	f.gw.FailFor = agentChat

	f.captureText(t, f.user, "hello")

	waitFor(t, "failure notice", func() bool { return len(f.gw.SentTo(userChat)) > 0 })
	sent := f.gw.SentTo(userChat)
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "blocked") {
		t.Errorf("notice = %+v", sent)
	}

	// The message is stored even though delivery failed.
	msgs, err := f.store.TicketMessages(f.ticket.ID, userChat, false)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("stored messages = %d (%v), want 1", len(msgs), err)
	}
}

func TestReplaySendsBothSides(t *testing.T) {
	f := newFixture(t)
	f.captureText(t, f.user, "first question")
	f.captureText(t, f.agent, "the answer")
	waitFor(t, "live delivery", func() bool {
		return len(f.gw.SentTo(agentChat)) > 0 && len(f.gw.SentTo(userChat)) > 0
	})
	f.gw.Reset()

	d := NewDispatcher(f.store, f.gw, notify.New(f.gw, f.store, "@support", nil), nil)
	if err := d.Replay(context.Background(), f.ticket); err != nil {
		t.Fatalf("replay: %v", err)
	}

	sent := f.gw.SentTo(agentChat)
	if len(sent) != 2 {
		t.Fatalf("agent got %d messages, want the full history", len(sent))
	}
	if want := "From: user\n\nfirst question"; sent[0].Text != want {
		t.Errorf("first = %q, want %q", sent[0].Text, want)
	}
	if want := "From: support agent\n\nthe answer"; sent[1].Text != want {
		t.Errorf("second = %q, want %q", sent[1].Text, want)
	}
}

func TestClosedTicketDropsDelivery(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.store, f.gw, notify.New(f.gw, f.store, "@support", nil), nil)

	if ok, err := f.store.CloseTicket(f.ticket.ID); err != nil || !ok {
		t.Fatalf("close: ok=%v err=%v", ok, err)
	}

	d.Dispatch(context.Background(), Batch{
		TicketID: f.ticket.ID,
		Issuer:   userChat,
		From:     protocol.SideUser,
		Single:   &protocol.Message{ID: "m1", Kind: protocol.KindText, Text: "late"},
	})
	if len(f.gw.Sent()) != 0 {
		t.Error("closed tickets must not relay")
	}
}

func TestSideOf(t *testing.T) {
	if got := SideOf(&protocol.Chat{AdminLevel: protocol.LevelSupport}); got != protocol.SideAgent {
		t.Errorf("support admin side = %q", got)
	}
	if got := SideOf(&protocol.Chat{AdminLevel: protocol.LevelAnyAdmin}); got != protocol.SideUser {
		t.Errorf("low-level admin side = %q", got)
	}
	if got := SideOf(&protocol.Chat{}); got != protocol.SideUser {
		t.Errorf("plain user side = %q", got)
	}
}
