package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"rebalancer/internal/engine"
	"rebalancer/types"
)

type cycleEngine interface {
	RunCycle(ctx context.Context) (*engine.CycleResult, error)
	Snapshot() types.PortfolioView
	Report() *engine.Report
}

// AccountHandler exposes the paper account driven by the engine.
type AccountHandler struct {
	engine   cycleEngine
	currency string
	logger   *slog.Logger
}

func NewAccountHandler(eng cycleEngine, currency string, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{engine: eng, currency: currency, logger: logger}
}

type positionResponse struct {
	Ticker    string `json:"ticker"`
	Quantity  string `json:"quantity"`
	AvgCost   string `json:"avg_cost"`
	LastPrice string `json:"last_price"`
}

type accountResponse struct {
	Cash      string             `json:"cash"`
	Positions []positionResponse `json:"positions"`
	AsOf      string             `json:"as_of"`
}

type executionResponse struct {
	Order        OrderResponse `json:"order"`
	Status       string        `json:"status"`
	FilledQty    string        `json:"filled_qty"`
	AvgFillPrice string        `json:"avg_fill_price"`
	Fees         string        `json:"fees"`
	RejectReason string        `json:"reject_reason,omitempty"`
}

type cycleResponse struct {
	CycleID    string              `json:"cycle_id"`
	Balance    string              `json:"balance"`
	Delta      *types.WeightTable  `json:"delta"`
	Executions []executionResponse `json:"executions"`
	Account    accountResponse     `json:"account"`
}

type reportResponse struct {
	Report   *engine.Report `json:"report"`
	Markdown string         `json:"markdown"`
}

// GetAccount handles GET /v1/account.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toAccountResponse(h.engine.Snapshot()))
}

// GetReport handles GET /v1/account/report.
func (h *AccountHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report := h.engine.Report()
	WriteJSON(w, http.StatusOK, reportResponse{Report: report, Markdown: report.Markdown(h.currency)})
}

// RunCycle handles POST /v1/cycles.
func (h *AccountHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, engine.ErrEmptyAccount) {
			WriteError(w, http.StatusUnprocessableEntity, "empty_account", err.Error())
			return
		}
		h.logger.Error("manual cycle failed", slog.String("error", err.Error()))
		mapRebalanceError(w, err)
		return
	}

	executions := make([]executionResponse, 0, len(result.Reports))
	for _, er := range result.Reports {
		executions = append(executions, executionResponse{
			Order:        NewOrderResponse(er.Order),
			Status:       string(er.Status),
			FilledQty:    er.FilledQty.String(),
			AvgFillPrice: er.AvgFillPrice.String(),
			Fees:         er.TotalFees.String(),
			RejectReason: er.RejectReason,
		})
	}
	WriteJSON(w, http.StatusOK, cycleResponse{
		CycleID:    result.ID.String(),
		Balance:    result.Balance.String(),
		Delta:      result.Delta,
		Executions: executions,
		Account:    toAccountResponse(result.Snapshot),
	})
}

func toAccountResponse(view types.PortfolioView) accountResponse {
	positions := make([]positionResponse, 0, len(view.Positions))
	for sym, pos := range view.Positions {
		positions = append(positions, positionResponse{
			Ticker:    sym,
			Quantity:  pos.Quantity.String(),
			AvgCost:   pos.AvgCost.String(),
			LastPrice: pos.LastPrice.String(),
		})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Ticker < positions[j].Ticker })
	return accountResponse{
		Cash:      view.Cash.String(),
		Positions: positions,
		AsOf:      view.Time.UTC().Format(time.RFC3339),
	}
}
