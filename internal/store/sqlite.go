package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/refback-io/refback/pkg/protocol"
)

// SQLite implements Store backed by a single SQLite database.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: wal: %w", err)
	}
	// Concurrent writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: busy timeout: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			chat_id           INTEGER PRIMARY KEY,
			language          TEXT NOT NULL DEFAULT 'ru',
			user_level        INTEGER NOT NULL DEFAULT 1,
			admin_level       INTEGER NOT NULL DEFAULT 0,
			tg_name           TEXT NOT NULL DEFAULT '',
			tg_link           TEXT NOT NULL DEFAULT '',
			real_name         TEXT NOT NULL DEFAULT '',
			binance_id        INTEGER NOT NULL DEFAULT 0,
			withdraw_wallet   TEXT NOT NULL DEFAULT '',
			first_interaction TEXT NOT NULL,
			registered_at     TEXT,
			withdraw_usdt     REAL NOT NULL DEFAULT 0,
			withdraw_bnb      REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS restrictions (
			chat_id    INTEGER PRIMARY KEY,
			reason     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tickets (
			id                  TEXT PRIMARY KEY,
			chat_id             INTEGER NOT NULL,
			heading             TEXT NOT NULL,
			state               TEXT NOT NULL DEFAULT 'new',
			support_agent       INTEGER NOT NULL DEFAULT 0,
			selected_by_user    INTEGER NOT NULL DEFAULT 0,
			selected_by_support INTEGER NOT NULL DEFAULT 0,
			created_at          TEXT NOT NULL,
			closed_at           TEXT
		);

		CREATE TABLE IF NOT EXISTS ticket_messages (
			id             TEXT PRIMARY KEY,
			ticket_id      TEXT NOT NULL REFERENCES tickets(id),
			issuer_chat_id INTEGER NOT NULL,
			sender         TEXT NOT NULL,
			kind           TEXT NOT NULL,
			text           TEXT NOT NULL DEFAULT '',
			file_id        TEXT NOT NULL DEFAULT '',
			caption        TEXT NOT NULL DEFAULT '',
			media_group_id TEXT NOT NULL DEFAULT '',
			reply_to       INTEGER NOT NULL DEFAULT 0,
			origin_msg_id  INTEGER NOT NULL DEFAULT 0,
			origin_chat_id INTEGER NOT NULL DEFAULT 0,
			date           TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS commissions (
			internal_id       INTEGER NOT NULL,
			order_type        TEXT NOT NULL,
			friend_id         INTEGER NOT NULL,
			sub_id            TEXT NOT NULL DEFAULT '',
			asset             TEXT NOT NULL,
			coin_earned       REAL NOT NULL DEFAULT 0,
			usdt_earned       REAL NOT NULL DEFAULT 0,
			commission_time   TEXT NOT NULL,
			registration_time TEXT NOT NULL,
			trial_end         TEXT NOT NULL,
			referral_id       TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_messages_ticket ON ticket_messages(ticket_id, issuer_chat_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_state ON tickets(state);
		CREATE INDEX IF NOT EXISTS idx_tickets_chat ON tickets(chat_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_agent ON tickets(support_agent);
		CREATE INDEX IF NOT EXISTS idx_chats_binance ON chats(binance_id);
		CREATE INDEX IF NOT EXISTS idx_commissions_internal ON commissions(internal_id);
	`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLite) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// --- Chats ---

func (s *SQLite) EnsureChat(chatID int64) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO chats (chat_id, first_interaction) VALUES (?, ?)
		ON CONFLICT(chat_id) DO NOTHING
	`, chatID, time.Now().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("store: ensure chat: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) Chat(chatID int64) (*protocol.Chat, error) {
	row := s.db.QueryRow(chatColumns+` WHERE chat_id = ?`, chatID)
	c, err := scanChat(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: chat: %w", err)
	}
	return c, nil
}

func (s *SQLite) ChatByBinanceID(binanceID int64) (*protocol.Chat, error) {
	row := s.db.QueryRow(chatColumns+` WHERE binance_id = ?`, binanceID)
	c, err := scanChat(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: chat by binance id: %w", err)
	}
	return c, nil
}

func (s *SQLite) SetLanguage(chatID int64, lang string) error {
	_, err := s.db.Exec(`UPDATE chats SET language = ? WHERE chat_id = ?`, lang, chatID)
	if err != nil {
		return fmt.Errorf("store: set language: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateNicknames(chatID int64, name, link string) error {
	_, err := s.db.Exec(`UPDATE chats SET tg_name = ?, tg_link = ? WHERE chat_id = ?`, name, link, chatID)
	if err != nil {
		return fmt.Errorf("store: update nicknames: %w", err)
	}
	return nil
}

func (s *SQLite) CompleteRegistration(chatID int64, realName string, binanceID int64, wallet string) error {
	_, err := s.db.Exec(`
		UPDATE chats SET real_name = ?, binance_id = ?, withdraw_wallet = ?, registered_at = ?
		WHERE chat_id = ?
	`, realName, binanceID, wallet, time.Now().Format(time.RFC3339), chatID)
	if err != nil {
		return fmt.Errorf("store: complete registration: %w", err)
	}
	return nil
}

func (s *SQLite) SetUserLevelByBinanceID(binanceID int64, level int) (bool, error) {
	res, err := s.db.Exec(`UPDATE chats SET user_level = ? WHERE binance_id = ?`, level, binanceID)
	if err != nil {
		return false, fmt.Errorf("store: set user level: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) SetAdminLevel(chatID int64, level int) error {
	_, err := s.db.Exec(`UPDATE chats SET admin_level = ? WHERE chat_id = ?`, level, chatID)
	if err != nil {
		return fmt.Errorf("store: set admin level: %w", err)
	}
	return nil
}

func (s *SQLite) SetWithdrawBalances(chatID int64, usdt, bnb float64) error {
	_, err := s.db.Exec(`UPDATE chats SET withdraw_usdt = ?, withdraw_bnb = ? WHERE chat_id = ?`, usdt, bnb, chatID)
	if err != nil {
		return fmt.Errorf("store: set withdraw balances: %w", err)
	}
	return nil
}

func (s *SQLite) Admins(minLevel int) ([]protocol.Chat, error) {
	rows, err := s.db.Query(chatColumns+` WHERE admin_level >= ?`, minLevel)
	if err != nil {
		return nil, fmt.Errorf("store: admins: %w", err)
	}
	defer rows.Close()
	return collectChats(rows)
}

func (s *SQLite) UsersWithPendingWithdraw(usdtMin, bnbMin float64) ([]protocol.Chat, error) {
	rows, err := s.db.Query(chatColumns+`
		WHERE withdraw_usdt >= ? OR withdraw_bnb >= ?
		ORDER BY withdraw_usdt DESC
	`, usdtMin, bnbMin)
	if err != nil {
		return nil, fmt.Errorf("store: pending withdraws: %w", err)
	}
	defer rows.Close()
	return collectChats(rows)
}

func (s *SQLite) ResetPendingWithdraws(usdtMin, bnbMin float64) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE chats SET withdraw_usdt = 0, withdraw_bnb = 0
		WHERE withdraw_usdt >= ? OR withdraw_bnb >= ?
	`, usdtMin, bnbMin)
	if err != nil {
		return 0, fmt.Errorf("store: reset pending withdraws: %w", err)
	}
	return res.RowsAffected()
}

// Restrict bans a chat from interacting with the bot. Idempotent.
func (s *SQLite) Restrict(chatID int64, reason string) error {
	_, err := s.db.Exec(`
		INSERT INTO restrictions (chat_id, reason, created_at) VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET reason = excluded.reason
	`, chatID, reason, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: restrict: %w", err)
	}
	return nil
}

func (s *SQLite) Restricted(chatID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM restrictions WHERE chat_id = ?`, chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: restricted: %w", err)
	}
	return n > 0, nil
}

// --- Tickets ---

func (s *SQLite) CreateTicket(t *protocol.Ticket) error {
	_, err := s.db.Exec(`
		INSERT INTO tickets (id, chat_id, heading, state, support_agent, selected_by_user, selected_by_support, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ChatID, t.Heading, string(t.State), t.SupportAgent,
		boolToInt(t.SelectedByUser), t.SelectedBySupport, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: create ticket: %w", err)
	}
	return nil
}

func (s *SQLite) Ticket(id string) (*protocol.Ticket, error) {
	row := s.db.QueryRow(ticketColumns+` WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: ticket: %w", err)
	}
	return t, nil
}

func (s *SQLite) OpenTickets(chatID int64) ([]*protocol.Ticket, error) {
	rows, err := s.db.Query(ticketColumns+`
		WHERE chat_id = ? AND state != 'closed' ORDER BY created_at
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("store: open tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (s *SQLite) NewTickets() ([]*protocol.Ticket, error) {
	rows, err := s.db.Query(ticketColumns + ` WHERE state = 'new' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: new tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (s *SQLite) AgentTickets(agentID int64, includeClosed bool) ([]*protocol.Ticket, error) {
	query := ticketColumns + ` WHERE support_agent = ?`
	if !includeClosed {
		query += ` AND state != 'closed'`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, agentID)
	if err != nil {
		return nil, fmt.Errorf("store: agent tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// SelectedTicket returns the in-progress ticket the actor is actively
// bound to, or ErrNotFound. Only in-progress tickets relay messages: a
// new ticket has no counterpart yet.
func (s *SQLite) SelectedTicket(actorID int64, side protocol.Side) (*protocol.Ticket, error) {
	var row *sql.Row
	if side == protocol.SideUser {
		row = s.db.QueryRow(ticketColumns+`
			WHERE chat_id = ? AND state = 'in_progress' AND selected_by_user = 1
		`, actorID)
	} else {
		row = s.db.QueryRow(ticketColumns+`
			WHERE support_agent = ? AND state = 'in_progress' AND selected_by_support = ?
		`, actorID, actorID)
	}

	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: selected ticket: %w", err)
	}
	return t, nil
}

// SelectTicket binds the actor to the ticket, unselecting every other
// non-closed ticket for that actor first. Both steps run in one
// transaction so exclusivity holds under concurrent selects.
func (s *SQLite) SelectTicket(id string, actorID int64, side protocol.Side) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("store: select ticket: %w", err)
	}
	defer tx.Rollback()

	if _, err := unselectAll(tx, actorID, side); err != nil {
		return false, err
	}

	var res sql.Result
	if side == protocol.SideUser {
		res, err = tx.Exec(`
			UPDATE tickets SET selected_by_user = 1 WHERE id = ? AND state != 'closed'
		`, id)
	} else {
		res, err = tx.Exec(`
			UPDATE tickets SET selected_by_support = ? WHERE id = ? AND state != 'closed'
		`, actorID, id)
	}
	if err != nil {
		return false, fmt.Errorf("store: select ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: select ticket: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) UnselectAll(actorID int64, side protocol.Side) (int64, error) {
	return unselectAll(s.db, actorID, side)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func unselectAll(e execer, actorID int64, side protocol.Side) (int64, error) {
	var res sql.Result
	var err error
	if side == protocol.SideUser {
		res, err = e.Exec(`
			UPDATE tickets SET selected_by_user = 0
			WHERE chat_id = ? AND state != 'closed' AND selected_by_user = 1
		`, actorID)
	} else {
		res, err = e.Exec(`
			UPDATE tickets SET selected_by_support = 0
			WHERE support_agent = ? AND state != 'closed' AND selected_by_support != 0
		`, actorID)
	}
	if err != nil {
		return 0, fmt.Errorf("store: unselect all: %w", err)
	}
	return res.RowsAffected()
}

// ClaimTicket transitions new → in_progress and assigns the agent in a
// single conditional update. Returns false when the race was lost (the
// ticket is no longer new).
func (s *SQLite) ClaimTicket(id string, agentID int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE tickets SET state = 'in_progress', support_agent = ?
		WHERE id = ? AND state = 'new'
	`, agentID, id)
	if err != nil {
		return false, fmt.Errorf("store: claim ticket: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CloseTicket transitions any non-closed state to closed, clearing both
// selection flags. Returns false when the ticket was already closed or
// does not exist.
func (s *SQLite) CloseTicket(id string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE tickets SET state = 'closed', closed_at = ?, selected_by_user = 0, selected_by_support = 0
		WHERE id = ? AND state != 'closed'
	`, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("store: close ticket: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Messages ---

func (s *SQLite) AppendMessage(m *protocol.Message) error {
	_, err := s.db.Exec(`
		INSERT INTO ticket_messages (id, ticket_id, issuer_chat_id, sender, kind, text, file_id, caption, media_group_id, reply_to, origin_msg_id, origin_chat_id, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TicketID, m.IssuerChatID, string(m.From), string(m.Kind), m.Text, m.FileID,
		m.Caption, m.MediaGroupID, m.ReplyTo, m.OriginMsgID, m.OriginChatID, m.Date.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// TicketMessages returns the ticket's messages ordered by date, ties
// broken by insertion order. newestFirst reverses the sort for the
// dispatcher's latest-group walk.
func (s *SQLite) TicketMessages(ticketID string, issuerChatID int64, newestFirst bool) ([]protocol.Message, error) {
	order := "date, rowid"
	if newestFirst {
		order = "date DESC, rowid DESC"
	}
	rows, err := s.db.Query(`
		SELECT id, ticket_id, issuer_chat_id, sender, kind, text, file_id, caption, media_group_id, reply_to, origin_msg_id, origin_chat_id, date
		FROM ticket_messages
		WHERE ticket_id = ? AND issuer_chat_id = ?
		ORDER BY `+order, ticketID, issuerChatID)
	if err != nil {
		return nil, fmt.Errorf("store: ticket messages: %w", err)
	}
	defer rows.Close()

	var msgs []protocol.Message
	for rows.Next() {
		var m protocol.Message
		var sender, kind, date string
		if err := rows.Scan(&m.ID, &m.TicketID, &m.IssuerChatID, &sender, &kind, &m.Text,
			&m.FileID, &m.Caption, &m.MediaGroupID, &m.ReplyTo, &m.OriginMsgID, &m.OriginChatID, &date); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.From = protocol.Side(sender)
		m.Kind = protocol.MessageKind(kind)
		m.Date, _ = time.Parse(time.RFC3339Nano, date)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// --- helpers ---

const chatColumns = `SELECT chat_id, language, user_level, admin_level, tg_name, tg_link, real_name, binance_id, withdraw_wallet, first_interaction, registered_at, withdraw_usdt, withdraw_bnb FROM chats`

const ticketColumns = `SELECT id, chat_id, heading, state, support_agent, selected_by_user, selected_by_support, created_at, closed_at FROM tickets`

type scannable interface {
	Scan(dest ...any) error
}

func scanChat(row scannable) (*protocol.Chat, error) {
	var c protocol.Chat
	var first string
	var registered *string
	err := row.Scan(&c.ChatID, &c.Language, &c.UserLevel, &c.AdminLevel, &c.TgName, &c.TgLink,
		&c.RealName, &c.BinanceID, &c.WithdrawWallet, &first, &registered, &c.WithdrawUSDT, &c.WithdrawBNB)
	if err != nil {
		return nil, err
	}
	c.FirstInteraction, _ = time.Parse(time.RFC3339, first)
	if registered != nil {
		t, _ := time.Parse(time.RFC3339, *registered)
		c.RegisteredAt = &t
	}
	return &c, nil
}

func collectChats(rows *sql.Rows) ([]protocol.Chat, error) {
	var chats []protocol.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan chat: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

func scanTicket(row scannable) (*protocol.Ticket, error) {
	var t protocol.Ticket
	var state, created string
	var closed *string
	var selectedByUser int
	err := row.Scan(&t.ID, &t.ChatID, &t.Heading, &state, &t.SupportAgent,
		&selectedByUser, &t.SelectedBySupport, &created, &closed)
	if err != nil {
		return nil, err
	}
	t.State = protocol.TicketState(state)
	t.SelectedByUser = selectedByUser != 0
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	if closed != nil {
		ct, _ := time.Parse(time.RFC3339, *closed)
		t.ClosedAt = &ct
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*protocol.Ticket, error) {
	var tickets []*protocol.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
