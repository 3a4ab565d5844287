package store

import (
	"fmt"
	"time"
)

// CommissionRow is one line of an uploaded commission ledger, scoped to
// a bot instance by InternalID. TrialEnd marks 30 days past the
// referred user's registration: rows before it are paid out at the
// trial ratio, rows after at the standard one.
type CommissionRow struct {
	InternalID       int
	OrderType        string // "spot" or "USDT-futures"
	FriendID         int64
	SubID            string
	Asset            string // "USDT", "BUSD", "BNB"
	CoinEarned       float64
	USDTEarned       float64
	CommissionTime   time.Time
	RegistrationTime time.Time
	TrialEnd         time.Time
	ReferralID       string
}

// CommissionSum is an aggregation bucket for one referred user.
type CommissionSum struct {
	FriendID int64
	USDTSum  float64
	CoinSum  float64
}

// InsertCommissionRows appends ledger rows in one transaction.
func (s *SQLite) InsertCommissionRows(rows []CommissionRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: insert commissions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO commissions (internal_id, order_type, friend_id, sub_id, asset, coin_earned, usdt_earned, commission_time, registration_time, trial_end, referral_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: insert commissions: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(r.InternalID, r.OrderType, r.FriendID, r.SubID, r.Asset,
			r.CoinEarned, r.USDTEarned,
			r.CommissionTime.Format(time.RFC3339),
			r.RegistrationTime.Format(time.RFC3339),
			r.TrialEnd.Format(time.RFC3339),
			r.ReferralID)
		if err != nil {
			return fmt.Errorf("store: insert commissions: %w", err)
		}
	}
	return tx.Commit()
}

// PruneCommissions deletes every ledger row for the bot instance.
func (s *SQLite) PruneCommissions(internalID int) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM commissions WHERE internal_id = ?`, internalID)
	if err != nil {
		return 0, fmt.Errorf("store: prune commissions: %w", err)
	}
	return res.RowsAffected()
}

// CommissionFriendIDs returns the distinct referred-user ids present in
// the ledger for the bot instance.
func (s *SQLite) CommissionFriendIDs(internalID int) ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT friend_id FROM commissions WHERE internal_id = ?`, internalID)
	if err != nil {
		return nil, fmt.Errorf("store: commission friend ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SumCommissions groups ledger rows for (order type, asset) by referred
// user and sums earnings, restricted to rows before or after each row's
// trial end.
func (s *SQLite) SumCommissions(internalID int, orderType, asset string, beforeTrialEnd bool) ([]CommissionSum, error) {
	cmp := ">="
	if beforeTrialEnd {
		cmp = "<"
	}
	rows, err := s.db.Query(`
		SELECT friend_id, SUM(usdt_earned), SUM(coin_earned)
		FROM commissions
		WHERE internal_id = ? AND order_type = ? AND asset = ? AND commission_time `+cmp+` trial_end
		GROUP BY friend_id
	`, internalID, orderType, asset)
	if err != nil {
		return nil, fmt.Errorf("store: sum commissions: %w", err)
	}
	defer rows.Close()

	var sums []CommissionSum
	for rows.Next() {
		var cs CommissionSum
		if err := rows.Scan(&cs.FriendID, &cs.USDTSum, &cs.CoinSum); err != nil {
			return nil, fmt.Errorf("store: scan commission sum: %w", err)
		}
		sums = append(sums, cs)
	}
	return sums, rows.Err()
}
