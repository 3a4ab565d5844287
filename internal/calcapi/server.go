// Package calcapi exposes the commission aggregation over HTTP. The
// bot uploads ledger rows into the shared store and queries this
// service for the per-user sums the payout formulas run on.
package calcapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/refback-io/refback/internal/cashback"
	"github.com/refback-io/refback/internal/store"
)

// LedgerStore is the slice of the store the service reads.
type LedgerStore interface {
	CommissionFriendIDs(internalID int) ([]int64, error)
	SumCommissions(internalID int, orderType, asset string, beforeTrialEnd bool) ([]store.CommissionSum, error)
	PruneCommissions(internalID int) (int64, error)
}

// Server serves the calculation endpoints.
type Server struct {
	store  LedgerStore
	logger *slog.Logger
	engine *gin.Engine
}

// New builds a Server with its routes registered.
func New(st LedgerStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  st,
		logger: logger.With("component", "calcapi"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	calc := engine.Group("/calculations")
	calc.GET("/get_calculation_results_for_all_users/:bot_internal_id", s.results)
	calc.POST("/prune_db_documents_with_internal_id/:bot_internal_id", s.prune)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for serving and for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("calculation service listening", "addr", addr)
	if err := s.engine.Run(addr); err != nil {
		return fmt.Errorf("calcapi: serve: %w", err)
	}
	return nil
}

func internalID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("bot_internal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bot_internal_id must be an integer"})
		return 0, false
	}
	return id, true
}

// results aggregates the ledger into per-user sums, one bucket per
// (period, order type, asset).
func (s *Server) results(c *gin.Context) {
	id, ok := internalID(c)
	if !ok {
		return
	}

	friendIDs, err := s.store.CommissionFriendIDs(id)
	if err != nil {
		s.fail(c, "list friend ids", err)
		return
	}

	data := make(map[string]cashback.CalcResult, len(friendIDs))
	for _, fid := range friendIDs {
		data[strconv.FormatInt(fid, 10)] = cashback.CalcResult{}
	}

	set := func(orderType, asset string, before bool) error {
		sums, err := s.store.SumCommissions(id, orderType, asset, before)
		if err != nil {
			return err
		}
		for _, sum := range sums {
			key := strconv.FormatInt(sum.FriendID, 10)
			r := data[key]

			period := &r.AfterTrial
			if before {
				period = &r.BeforeTrial
			}
			bucket := &period.Spot
			if orderType == cashback.OrderTypeFutures {
				bucket = &period.Futures
			}

			// USDT commissions are summed in USDT terms, the
			// coin-denominated assets in their own coin.
			switch asset {
			case cashback.AssetUSDT:
				bucket.USDT = sum.USDTSum
			case cashback.AssetBUSD:
				bucket.BUSD = sum.CoinSum
			case cashback.AssetBNB:
				bucket.BNB = sum.CoinSum
			}
			data[key] = r
		}
		return nil
	}

	for _, orderType := range []string{cashback.OrderTypeSpot, cashback.OrderTypeFutures} {
		for _, asset := range []string{cashback.AssetUSDT, cashback.AssetBUSD, cashback.AssetBNB} {
			for _, before := range []bool{true, false} {
				if err := set(orderType, asset, before); err != nil {
					s.fail(c, "aggregate", err)
					return
				}
			}
		}
	}

	c.JSON(http.StatusOK, data)
}

func (s *Server) prune(c *gin.Context) {
	id, ok := internalID(c)
	if !ok {
		return
	}

	deleted, err := s.store.PruneCommissions(id)
	if err != nil {
		s.fail(c, "prune", err)
		return
	}
	if deleted > 0 {
		c.JSON(http.StatusOK, "Success")
		return
	}
	c.JSON(http.StatusOK, "Nothing was deleted, perhaps there is nothing to prune")
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
