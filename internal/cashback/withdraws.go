package cashback

import (
	"fmt"
	"strings"

	"github.com/refback-io/refback/pkg/protocol"
)

// WithdrawReport renders the admin-facing list of pending withdraws.
// Each entry shows the user's wallet, the balances to transfer and the
// estimated traded volume behind them, reconstructed from the futures
// commissions in the calculation results.
func WithdrawReport(pending []protocol.Chat, results map[string]CalcResult) string {
	var sb strings.Builder
	for _, u := range pending {
		r, ok := results[fmt.Sprintf("%d", u.BinanceID)]
		if !ok {
			continue
		}

		volume := TotalVolumeBeforeTrial(r.BeforeTrial.Futures.USDT+r.BeforeTrial.Futures.BUSD) +
			TotalVolumeAfterTrial(r.AfterTrial.Futures.USDT+r.AfterTrial.Futures.BUSD)

		fmt.Fprintf(&sb, "%d | %s\n%s\n%gUSDT | %gBNB | %g\n\n",
			u.BinanceID, u.RealName, u.WithdrawWallet, u.WithdrawUSDT, u.WithdrawBNB, volume)
	}
	return sb.String()
}
