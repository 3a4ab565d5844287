// Package cashback computes referral cashback payouts from commission
// ledgers. The ratios differ by user level and by whether a commission
// was earned before or after the referred user's 30 day trial.
package cashback

import "math"

// Withdraw thresholds and transfer commissions. A computed payout
// below the threshold is zeroed and waits for the next calculation.
const (
	MinWithdrawUSDT = 1.0
	MinWithdrawBNB  = 0.01

	CommissionUSDT = 2.0
	CommissionBNB  = 0.005
)

// Order types and commission assets as they appear in the ledger.
const (
	OrderTypeSpot    = "spot"
	OrderTypeFutures = "USDT-futures"

	AssetUSDT = "USDT"
	AssetBUSD = "BUSD"
	AssetBNB  = "BNB"
)

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// TotalVolumeBeforeTrial estimates the traded volume that produced a
// commission sum earned during the trial period.
func TotalVolumeBeforeTrial(sum float64) float64 {
	return roundTo(sum*100/40, 3)
}

// TotalVolumeAfterTrial estimates the traded volume that produced a
// commission sum earned after the trial period.
func TotalVolumeAfterTrial(sum float64) float64 {
	return roundTo(sum*100/30, 3)
}

// Level 1 users get a share of the commission, reconstructed from the
// platform ratios. Spot and BNB shares use the same ratio before and
// after the trial; futures differ.

func level1FuturesBefore(sum float64) float64 {
	return roundTo((sum*100/40)*25/100, 3)
}

func level1FuturesAfter(sum float64) float64 {
	return roundTo((sum*100/30)*25/100, 3)
}

func level1Spot(sum float64) float64 {
	return roundTo((sum*100/41)*30/100, 3)
}

func level1BNB(sum float64) float64 {
	return (sum * 100 / 41) * 30 / 100
}

// Level 2 users get the commission passed through as is.
func level2(sum float64) float64 {
	return roundTo(sum, 3)
}
