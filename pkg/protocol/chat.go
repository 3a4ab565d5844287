package protocol

import "time"

// Admin authorization levels. A chat with AdminLevel >= LevelSupport may
// claim and work tickets; LevelOwner gates destructive operations.
const (
	LevelAnyAdmin = 1
	LevelSupport  = 3
	LevelOwner    = 10
)

// User cashback tiers.
const (
	MinUserLevel = 1
	MaxUserLevel = 2
)

// Chat is the per-participant record: identity, locale, cashback
// registration data and accumulated payout balances.
type Chat struct {
	ChatID           int64      `json:"chat_id"`
	Language         string     `json:"language"`
	UserLevel        int        `json:"user_level"`
	AdminLevel       int        `json:"admin_level,omitempty"`
	TgName           string     `json:"tg_name,omitempty"`
	TgLink           string     `json:"tg_link,omitempty"`
	RealName         string     `json:"real_name,omitempty"`
	BinanceID        int64      `json:"binance_id,omitempty"`
	WithdrawWallet   string     `json:"withdraw_wallet,omitempty"`
	FirstInteraction time.Time  `json:"first_interaction"`
	RegisteredAt     *time.Time `json:"full_registration_time,omitempty"`
	WithdrawUSDT     float64    `json:"available_to_withdraw_usdt"`
	WithdrawBNB      float64    `json:"available_to_withdraw_bnb"`
}

// IsAdmin reports whether the chat holds at least the required level.
func (c *Chat) IsAdmin(level int) bool { return c.AdminLevel >= level }

// Side returns which end of a ticket this chat acts on: chats at or
// above support level act as agents, everyone else as users.
func (c *Chat) Side() Side {
	if c.IsAdmin(LevelSupport) {
		return SideAgent
	}
	return SideUser
}

// Registered reports whether the chat completed the registration
// conversation (name, exchange id, withdraw wallet).
func (c *Chat) Registered() bool {
	return c.RealName != "" && c.BinanceID != 0 && c.WithdrawWallet != ""
}
