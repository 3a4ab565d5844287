package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/refback-io/refback/internal/gateway"
	"github.com/refback-io/refback/internal/gateway/gatewaytest"
	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

func newStore(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedChat(t *testing.T, st *store.SQLite, chatID int64, locale string) {
	t.Helper()
	if _, err := st.EnsureChat(chatID); err != nil {
		t.Fatalf("ensure chat: %v", err)
	}
	if err := st.SetLanguage(chatID, locale); err != nil {
		t.Fatalf("set language: %v", err)
	}
}

func TestUnreadPromptUser(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 100, "en")

	n := New(gw, st, "@support", nil)
	tk := &protocol.Ticket{ID: "t1", ChatID: 100, Heading: "no cashback", State: protocol.TicketInProgress, CreatedAt: time.Now()}
	if err := n.UnreadPromptUser(context.Background(), tk); err != nil {
		t.Fatalf("unread prompt: %v", err)
	}

	sent := gw.SentTo(100)
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Text, "no cashback") {
		t.Errorf("text = %q, want ticket heading in it", sent[0].Text)
	}
	if got := sent[0].Keyboard.Rows[0][0].Data; got != "sp*my_o_t*t1" {
		t.Errorf("button data = %q", got)
	}
}

func TestUnreadPromptAgent(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 900, "en")

	n := New(gw, st, "@support", nil)
	tk := &protocol.Ticket{ID: "t2", ChatID: 100, SupportAgent: 900, Heading: "h", State: protocol.TicketInProgress, CreatedAt: time.Now()}
	if err := n.UnreadPromptAgent(context.Background(), tk); err != nil {
		t.Fatalf("unread prompt: %v", err)
	}

	sent := gw.SentTo(900)
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if got := sent[0].Keyboard.Rows[0][0].Data; got != "adm*t_sel*t2" {
		t.Errorf("button data = %q", got)
	}
	if strings.Contains(sent[0].Text, "Press the button") {
		t.Errorf("agent prompt carries the answer hint: %q", sent[0].Text)
	}
}

func TestNewTicketToAdmins(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 900, "en")
	seedChat(t, st, 901, "en")
	seedChat(t, st, 555, "en") // not an admin
	for _, id := range []int64{900, 901} {
		if err := st.SetAdminLevel(id, protocol.LevelSupport); err != nil {
			t.Fatal(err)
		}
	}

	n := New(gw, st, "@support", nil)
	tk := &protocol.Ticket{ID: "t3", ChatID: 555, Heading: "help", State: protocol.TicketNew, CreatedAt: time.Now()}
	if err := n.NewTicketToAdmins(context.Background(), tk); err != nil {
		t.Fatalf("announce: %v", err)
	}

	if len(gw.SentTo(900)) != 1 || len(gw.SentTo(901)) != 1 {
		t.Error("every support admin should be notified once")
	}
	if len(gw.SentTo(555)) != 0 {
		t.Error("plain users must not receive the announcement")
	}
}

func TestNewPayoffThresholds(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 100, "en")
	n := New(gw, st, "@support", nil)

	cases := []struct {
		usdt, bnb float64
		want      bool
	}{
		{0.999, 0.009, false},
		{1, 0, false}, // exactly at the minimum waits for the next sweep
		{0, 0.01, false},
		{1.001, 0, true},
		{0, 0.011, true},
		{5.2, 0.5, true},
		{0, 0, false},
	}
	for _, tc := range cases {
		gw.Reset()
		chat := &protocol.Chat{ChatID: 100, Language: "en", WithdrawUSDT: tc.usdt, WithdrawBNB: tc.bnb}
		if err := n.NewPayoff(context.Background(), chat); err != nil {
			t.Fatalf("payoff(%v, %v): %v", tc.usdt, tc.bnb, err)
		}
		if got := len(gw.SentTo(100)) > 0; got != tc.want {
			t.Errorf("payoff(%v, %v): notified=%v, want %v", tc.usdt, tc.bnb, got, tc.want)
		}
	}
}

func TestNewPayoffListsOnlyDueCurrencies(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 100, "en")
	n := New(gw, st, "@support", nil)

	cases := []struct {
		usdt, bnb float64
		wantUSDT  bool
		wantBNB   bool
	}{
		{1.5, 0.005, true, false},
		{0.4, 0.05, false, true},
		{2.25, 0.02, true, true},
	}
	for _, tc := range cases {
		gw.Reset()
		chat := &protocol.Chat{ChatID: 100, Language: "en", WithdrawUSDT: tc.usdt, WithdrawBNB: tc.bnb}
		if err := n.NewPayoff(context.Background(), chat); err != nil {
			t.Fatalf("payoff(%v, %v): %v", tc.usdt, tc.bnb, err)
		}
		sent := gw.SentTo(100)
		if len(sent) != 1 {
			t.Fatalf("payoff(%v, %v): sent %d messages, want 1", tc.usdt, tc.bnb, len(sent))
		}
		text := sent[0].Text
		if got := strings.Contains(text, "USDT"); got != tc.wantUSDT {
			t.Errorf("payoff(%v, %v): USDT in %q = %v, want %v", tc.usdt, tc.bnb, text, got, tc.wantUSDT)
		}
		if got := strings.Contains(text, "BNB"); got != tc.wantBNB {
			t.Errorf("payoff(%v, %v): BNB in %q = %v, want %v", tc.usdt, tc.bnb, text, got, tc.wantBNB)
		}
	}
}

func TestDeliveryFailure(t *testing.T) {
	st := newStore(t)
	gw := gatewaytest.New()
	seedChat(t, st, 100, "en")
	n := New(gw, st, "@helpdesk", nil)

	n.DeliveryFailure(context.Background(), 100, gateway.ErrBlocked)
	sent := gw.SentTo(100)
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "blocked") {
		t.Errorf("blocked notice = %+v", sent)
	}

	gw.Reset()
	n.DeliveryFailure(context.Background(), 100, errors.New("Bad Request: chat not found"))
	sent = gw.SentTo(100)
	if len(sent) != 1 || !strings.Contains(sent[0].Text, "@helpdesk") {
		t.Errorf("generic notice = %+v", sent)
	}
}
