package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/refback-io/refback/pkg/protocol"
)

func newStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustTicket(t *testing.T, s *SQLite, id string, chatID int64) *protocol.Ticket {
	t.Helper()
	tk := &protocol.Ticket{ID: id, ChatID: chatID, Heading: "h " + id, State: protocol.TicketNew, CreatedAt: time.Now()}
	if err := s.CreateTicket(tk); err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestEnsureChatIdempotent(t *testing.T) {
	s := newStore(t)

	created, err := s.EnsureChat(1)
	if err != nil || !created {
		t.Fatalf("first ensure: created=%v err=%v", created, err)
	}
	created, err = s.EnsureChat(1)
	if err != nil || created {
		t.Fatalf("second ensure: created=%v err=%v", created, err)
	}

	chat, err := s.Chat(1)
	if err != nil {
		t.Fatal(err)
	}
	if chat.Language != "ru" || chat.UserLevel != 1 || chat.AdminLevel != 0 {
		t.Errorf("defaults: %+v", chat)
	}
}

func TestChatNotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.Chat(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.ChatByBinanceID(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistrationRoundTrip(t *testing.T) {
	s := newStore(t)
	if _, err := s.EnsureChat(1); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteRegistration(1, "John Doe", 12345, "Twallet"); err != nil {
		t.Fatal(err)
	}

	chat, err := s.ChatByBinanceID(12345)
	if err != nil {
		t.Fatal(err)
	}
	if chat.ChatID != 1 || chat.RealName != "John Doe" || !chat.Registered() {
		t.Errorf("chat = %+v", chat)
	}
	if chat.RegisteredAt == nil {
		t.Error("registration time not set")
	}
}

func TestSetUserLevelByBinanceID(t *testing.T) {
	s := newStore(t)
	s.EnsureChat(1)
	s.CompleteRegistration(1, "John", 12345, "Tw")

	ok, err := s.SetUserLevelByBinanceID(12345, 2)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	chat, _ := s.Chat(1)
	if chat.UserLevel != 2 {
		t.Errorf("level = %d", chat.UserLevel)
	}

	ok, err = s.SetUserLevelByBinanceID(99999, 2)
	if err != nil || ok {
		t.Errorf("unknown bid: ok=%v err=%v", ok, err)
	}
}

func TestAdminsFilterByLevel(t *testing.T) {
	s := newStore(t)
	for id, lvl := range map[int64]int{1: 0, 2: protocol.LevelAnyAdmin, 3: protocol.LevelSupport, 4: protocol.LevelOwner} {
		s.EnsureChat(id)
		if lvl > 0 {
			if err := s.SetAdminLevel(id, lvl); err != nil {
				t.Fatal(err)
			}
		}
	}

	admins, err := s.Admins(protocol.LevelSupport)
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 2 {
		t.Errorf("support admins = %d, want 2", len(admins))
	}
	admins, _ = s.Admins(protocol.LevelAnyAdmin)
	if len(admins) != 3 {
		t.Errorf("any admins = %d, want 3", len(admins))
	}
}

func TestPendingWithdraws(t *testing.T) {
	s := newStore(t)
	s.EnsureChat(1)
	s.EnsureChat(2)
	s.EnsureChat(3)
	s.SetWithdrawBalances(1, 5.5, 0)
	s.SetWithdrawBalances(2, 0, 0.02)
	// Chat 3 stays below both thresholds.
	s.SetWithdrawBalances(3, 0.5, 0.001)

	pending, err := s.UsersWithPendingWithdraw(1, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	n, err := s.ResetPendingWithdraws(1, 0.01)
	if err != nil || n != 2 {
		t.Fatalf("reset: n=%d err=%v", n, err)
	}
	pending, _ = s.UsersWithPendingWithdraw(1, 0.01)
	if len(pending) != 0 {
		t.Errorf("pending after reset = %d", len(pending))
	}
	// The below-threshold balance is untouched.
	chat, _ := s.Chat(3)
	if chat.WithdrawUSDT != 0.5 {
		t.Errorf("chat 3 usdt = %v", chat.WithdrawUSDT)
	}
}

func TestRestrict(t *testing.T) {
	s := newStore(t)
	s.EnsureChat(1)

	restricted, err := s.Restricted(1)
	if err != nil || restricted {
		t.Fatalf("fresh chat restricted=%v err=%v", restricted, err)
	}
	if err := s.Restrict(1, "spam"); err != nil {
		t.Fatal(err)
	}
	if err := s.Restrict(1, "spam again"); err != nil {
		t.Fatalf("restrict not idempotent: %v", err)
	}
	restricted, _ = s.Restricted(1)
	if !restricted {
		t.Error("chat should be restricted")
	}
}

func TestClaimTicketOnlyOnce(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)

	ok, err := s.ClaimTicket("t1", 900)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = s.ClaimTicket("t1", 901)
	if err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}

	tk, _ := s.Ticket("t1")
	if tk.State != protocol.TicketInProgress || tk.SupportAgent != 900 {
		t.Errorf("ticket = %+v", tk)
	}
}

func TestSelectTicketIsExclusive(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	mustTicket(t, s, "t2", 100)

	if ok, _ := s.SelectTicket("t1", 100, protocol.SideUser); !ok {
		t.Fatal("select t1 failed")
	}
	if ok, _ := s.SelectTicket("t2", 100, protocol.SideUser); !ok {
		t.Fatal("select t2 failed")
	}

	t1, _ := s.Ticket("t1")
	t2, _ := s.Ticket("t2")
	if t1.SelectedByUser {
		t.Error("t1 still selected")
	}
	if !t2.SelectedByUser {
		t.Error("t2 not selected")
	}
}

func TestSelectClosedTicketFails(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	if ok, _ := s.CloseTicket("t1"); !ok {
		t.Fatal("close failed")
	}
	if ok, _ := s.SelectTicket("t1", 100, protocol.SideUser); ok {
		t.Error("closed ticket should not be selectable")
	}
}

func TestSelectedTicketRequiresInProgress(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	if ok, _ := s.SelectTicket("t1", 100, protocol.SideUser); !ok {
		t.Fatal("select failed")
	}

	// Still 'new': nothing to relay into yet.
	if _, err := s.SelectedTicket(100, protocol.SideUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	s.ClaimTicket("t1", 900)
	tk, err := s.SelectedTicket(100, protocol.SideUser)
	if err != nil {
		t.Fatal(err)
	}
	if tk.ID != "t1" {
		t.Errorf("selected = %s", tk.ID)
	}
}

func TestCloseClearsSelections(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	s.ClaimTicket("t1", 900)
	s.SelectTicket("t1", 100, protocol.SideUser)
	s.SelectTicket("t1", 900, protocol.SideAgent)

	ok, err := s.CloseTicket("t1")
	if err != nil || !ok {
		t.Fatalf("close: ok=%v err=%v", ok, err)
	}
	tk, _ := s.Ticket("t1")
	if tk.State != protocol.TicketClosed || tk.SelectedByUser || tk.SelectedBySupport != 0 {
		t.Errorf("ticket after close = %+v", tk)
	}
	if tk.ClosedAt == nil {
		t.Error("closed_at not set")
	}

	if ok, _ := s.CloseTicket("t1"); ok {
		t.Error("second close should change nothing")
	}
}

func TestUnselectAll(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	s.SelectTicket("t1", 100, protocol.SideUser)

	n, err := s.UnselectAll(100, protocol.SideUser)
	if err != nil || n != 1 {
		t.Fatalf("unselect: n=%d err=%v", n, err)
	}
	n, _ = s.UnselectAll(100, protocol.SideUser)
	if n != 0 {
		t.Errorf("second unselect touched %d rows", n)
	}
}

func TestTicketListings(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)
	mustTicket(t, s, "t2", 100)
	mustTicket(t, s, "t3", 200)
	s.ClaimTicket("t2", 900)
	s.CloseTicket("t3")

	open, err := s.OpenTickets(100)
	if err != nil || len(open) != 2 {
		t.Fatalf("open(100) = %d err=%v", len(open), err)
	}
	fresh, _ := s.NewTickets()
	if len(fresh) != 1 || fresh[0].ID != "t1" {
		t.Errorf("new tickets = %+v", fresh)
	}
	agent, _ := s.AgentTickets(900, false)
	if len(agent) != 1 || agent[0].ID != "t2" {
		t.Errorf("agent tickets = %+v", agent)
	}

	s.CloseTicket("t2")
	agent, _ = s.AgentTickets(900, false)
	if len(agent) != 0 {
		t.Errorf("agent open tickets after close = %d", len(agent))
	}
	agent, _ = s.AgentTickets(900, true)
	if len(agent) != 1 {
		t.Errorf("agent all tickets = %d", len(agent))
	}
}

func TestMessageOrdering(t *testing.T) {
	s := newStore(t)
	mustTicket(t, s, "t1", 100)

	base := time.Now()
	for i, id := range []string{"m1", "m2", "m3"} {
		err := s.AppendMessage(&protocol.Message{
			ID: id, TicketID: "t1", IssuerChatID: 100, From: protocol.SideUser,
			Kind: protocol.KindText, Text: id, Date: base.Add(time.Duration(i) * time.Second),
			OriginChatID: 100, OriginMsgID: i + 1,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	// Both sides are keyed by the ticket owner's chat; agent turns live
	// in the same history.
	err := s.AppendMessage(&protocol.Message{
		ID: "m4", TicketID: "t1", IssuerChatID: 100, From: protocol.SideAgent,
		Kind: protocol.KindText, Text: "m4", Date: base.Add(3 * time.Second),
		OriginChatID: 900, OriginMsgID: 9,
	})
	if err != nil {
		t.Fatal(err)
	}
	// A row keyed under a different chat must not leak in.
	s.AppendMessage(&protocol.Message{
		ID: "m5", TicketID: "t1", IssuerChatID: 999, From: protocol.SideUser,
		Kind: protocol.KindText, Text: "m5", Date: base, OriginChatID: 999, OriginMsgID: 10,
	})

	asc, err := s.TicketMessages("t1", 100, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(asc) != 4 || asc[0].ID != "m1" || asc[3].ID != "m4" {
		t.Errorf("ascending = %+v", asc)
	}
	desc, _ := s.TicketMessages("t1", 100, true)
	if len(desc) != 4 || desc[0].ID != "m4" {
		t.Errorf("descending first = %s", desc[0].ID)
	}
}
