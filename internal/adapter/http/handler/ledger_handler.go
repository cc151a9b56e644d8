package handler

import (
	"net/http"

	"revenue-settlement-engine/internal/adapter/http/dto"
	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"
	"revenue-settlement-engine/pkg/apperror"
	"revenue-settlement-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles unit-ledger endpoints.
type LedgerHandler struct {
	ledgerSvc ports.UnitLedger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.UnitLedger) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// UnitOperation handles POST /api/v1/ledger/units.
func (h *LedgerHandler) UnitOperation(c *gin.Context) {
	var req dto.UnitOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, ok := dto.ParseAmount(req.Amount)
	if !ok {
		response.Rejected(c, http.StatusOK, "amount must be a positive number", nil)
		return
	}

	res, err := h.ledgerSvc.CreditOrDebit(c.Request.Context(), ports.LedgerRequest{
		Collection: req.Collection,
		EntityID:   req.EntityID,
		Field:      req.Field,
		Amount:     amount,
		Direction:  domain.LedgerDirection(req.Direction),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.Status {
		response.Rejected(c, http.StatusOK, res.Msg, nil)
		return
	}

	response.OK(c, res.Msg, res)
}

// MilleTransfer handles POST /api/v1/ledger/mille.
func (h *LedgerHandler) MilleTransfer(c *gin.Context) {
	var req dto.MilleTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, ok := dto.ParseAmount(req.Amount)
	if !ok {
		response.Rejected(c, http.StatusOK, "amount must be a positive number", nil)
		return
	}

	res, err := h.ledgerSvc.TransferMille(c.Request.Context(), ports.MilleRequest{
		UserID:    req.UserID,
		BrandID:   req.BrandID,
		Amount:    amount,
		Direction: domain.LedgerDirection(req.Direction),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.Status {
		response.Rejected(c, http.StatusOK, res.Msg, nil)
		return
	}

	response.OK(c, res.Msg, res)
}
