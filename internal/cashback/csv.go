package cashback

import (
	"strconv"
	"strings"
	"time"

	"github.com/refback-io/refback/internal/store"
)

// ledger timestamps come in this layout from the export.
const ledgerTimeLayout = "2006-01-02 15:04:05"

// trialPeriod is how long a referred user counts as new.
const trialPeriod = 30 * 24 * time.Hour

// ParseLedger converts a raw commission export into ledger rows scoped
// to the bot instance. Lines that do not look like data rows (headers,
// trailing blanks, anything without a numeric friend id) are skipped,
// matching how the exports are actually shaped.
func ParseLedger(internalID int, raw string) []store.CommissionRow {
	var rows []store.CommissionRow
	for _, line := range strings.Split(raw, "\n") {
		cols := strings.Split(line, ",")
		if len(cols) < 9 {
			continue
		}
		friendID, err := strconv.ParseInt(cols[1], 10, 64)
		if err != nil {
			continue
		}
		coinEarned, err := strconv.ParseFloat(cols[4], 64)
		if err != nil {
			continue
		}
		usdtEarned, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			continue
		}
		commissionTime, err := time.Parse(ledgerTimeLayout, cols[6])
		if err != nil {
			continue
		}
		registrationTime, err := time.Parse(ledgerTimeLayout, cols[7])
		if err != nil {
			continue
		}

		rows = append(rows, store.CommissionRow{
			InternalID:       internalID,
			OrderType:        cols[0],
			FriendID:         friendID,
			SubID:            cols[2],
			Asset:            cols[3],
			CoinEarned:       coinEarned,
			USDTEarned:       usdtEarned,
			CommissionTime:   commissionTime,
			RegistrationTime: registrationTime,
			TrialEnd:         registrationTime.Add(trialPeriod),
			ReferralID:       strings.TrimRight(cols[8], "\r\n"),
		})
	}
	return rows
}
