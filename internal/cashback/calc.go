package cashback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/refback-io/refback/internal/store"
	"github.com/refback-io/refback/pkg/protocol"
)

// AssetSums holds commission sums per asset for one bucket.
type AssetSums struct {
	USDT float64 `json:"usdt"`
	BUSD float64 `json:"busd"`
	BNB  float64 `json:"bnb"`
}

// PeriodSums splits one trial period into spot and futures commissions.
type PeriodSums struct {
	Spot    AssetSums `json:"spot"`
	Futures AssetSums `json:"futures"`
}

// CalcResult is the per-user aggregation returned by the calculation
// service.
type CalcResult struct {
	BeforeTrial PeriodSums `json:"sum_results_before_user_used_the_bot_for_30_days"`
	AfterTrial  PeriodSums `json:"sum_results_after_user_used_the_bot_for_30_days"`
}

// Payout converts a user's commission sums into withdrawable balances.
// USDT and BUSD commissions pay out in USDT, BNB commissions in BNB.
// The transfer commission is deducted and amounts below the withdraw
// minimum are zeroed.
func Payout(r CalcResult, userLevel int) (usdt, bnb float64) {
	var b struct{ spotUSDT, spotBUSD, spotBNB, futUSDT, futBUSD, futBNB float64 }
	var a struct{ spotUSDT, spotBUSD, spotBNB, futUSDT, futBUSD, futBNB float64 }

	switch userLevel {
	case 1:
		b.spotUSDT = level1Spot(r.BeforeTrial.Spot.USDT)
		b.spotBUSD = level1Spot(r.BeforeTrial.Spot.BUSD)
		b.spotBNB = level1BNB(r.BeforeTrial.Spot.BNB)
		b.futUSDT = level1FuturesBefore(r.BeforeTrial.Futures.USDT)
		b.futBUSD = level1FuturesBefore(r.BeforeTrial.Futures.BUSD)
		b.futBNB = level1BNB(r.BeforeTrial.Futures.BNB)
		a.spotUSDT = level1Spot(r.AfterTrial.Spot.USDT)
		a.spotBUSD = level1Spot(r.AfterTrial.Spot.BUSD)
		a.spotBNB = level1BNB(r.AfterTrial.Spot.BNB)
		a.futUSDT = level1FuturesAfter(r.AfterTrial.Futures.USDT)
		a.futBUSD = level1FuturesAfter(r.AfterTrial.Futures.BUSD)
		a.futBNB = level1BNB(r.AfterTrial.Futures.BNB)
	case 2:
		b.spotUSDT = level2(r.BeforeTrial.Spot.USDT)
		b.spotBUSD = level2(r.BeforeTrial.Spot.BUSD)
		b.spotBNB = level2(r.BeforeTrial.Spot.BNB)
		b.futUSDT = level2(r.BeforeTrial.Futures.USDT)
		b.futBUSD = level2(r.BeforeTrial.Futures.BUSD)
		b.futBNB = level2(r.BeforeTrial.Futures.BNB)
		a.spotUSDT = level2(r.AfterTrial.Spot.USDT)
		a.spotBUSD = level2(r.AfterTrial.Spot.BUSD)
		a.spotBNB = level2(r.AfterTrial.Spot.BNB)
		a.futUSDT = level2(r.AfterTrial.Futures.USDT)
		a.futBUSD = level2(r.AfterTrial.Futures.BUSD)
		a.futBNB = level2(r.AfterTrial.Futures.BNB)
	default:
		return 0, 0
	}

	usdt = b.spotUSDT + b.spotBUSD + b.futUSDT + b.futBUSD +
		a.spotUSDT + a.spotBUSD + a.futUSDT + a.futBUSD
	bnb = b.spotBNB + b.futBNB + a.spotBNB + a.futBNB

	usdt = roundTo(usdt-CommissionUSDT, 3)
	bnb = roundTo(bnb-CommissionBNB, 4)

	if usdt < MinWithdrawUSDT {
		usdt = 0
	}
	if bnb < MinWithdrawBNB {
		bnb = 0
	}
	return usdt, bnb
}

// Apply stores the computed payouts for every registered user present
// in the calculation results. Results keyed by a Binance ID no chat
// registered with are skipped.
func Apply(_ context.Context, st store.Store, results map[string]CalcResult, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for key, r := range results {
		bid, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warn("skipping malformed binance id", "key", key)
			continue
		}
		chat, err := st.ChatByBinanceID(bid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("cashback: apply: %w", err)
		}

		level := chat.UserLevel
		if level > protocol.MaxUserLevel {
			level = protocol.MaxUserLevel
		}
		usdt, bnb := Payout(r, level)
		if err := st.SetWithdrawBalances(chat.ChatID, usdt, bnb); err != nil {
			return fmt.Errorf("cashback: apply: %w", err)
		}
		logger.Info("payout stored", "binance_id", bid, "usdt", usdt, "bnb", bnb)
	}
	return nil
}
