package handler

import (
	"net/http"
	"time"

	"revenue-settlement-engine/internal/adapter/http/dto"
	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"
	"revenue-settlement-engine/pkg/apperror"
	"revenue-settlement-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet provisioning and deposit webhooks.
type WalletHandler struct {
	walletSvc ports.WalletProvisioner
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletProvisioner) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Provision handles POST /api/v1/wallets.
func (h *WalletHandler) Provision(c *gin.Context) {
	var req dto.ProvisionWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	record, err := h.walletSvc.Provision(c.Request.Context(), ports.ProvisionRequest{
		BrandID:    req.BrandID,
		WalletType: req.WalletType,
		UserID:     req.UserID,
		Currency:   req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "wallet provisioned", toWalletResponse(record))
}

// DepositWebhook handles POST /api/v1/webhooks/deposit, the chain watcher's
// push delivery.
func (h *WalletHandler) DepositWebhook(c *gin.Context) {
	var req dto.DepositWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	notification := domain.DepositNotification{
		Address:      req.Address,
		Transactions: make([]domain.DepositTx, 0, len(req.Transactions)),
	}
	for _, tx := range req.Transactions {
		value, ok := dto.ParseAmount(tx.Value)
		if !ok {
			response.Rejected(c, http.StatusOK, "transaction value must be a positive number", nil)
			return
		}
		notification.Transactions = append(notification.Transactions, domain.DepositTx{
			TxID:          tx.TxID,
			Value:         value,
			Confirmations: tx.Confirmations,
		})
	}

	res, err := h.walletSvc.HandleDeposit(c.Request.Context(), notification)
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

func toWalletResponse(w *domain.WalletRecord) dto.WalletResponse {
	return dto.WalletResponse{
		ID:                  w.ID,
		BrandID:             w.BrandID,
		UserID:              w.UserID,
		WalletType:          w.WalletType,
		Currency:            w.Currency,
		Address:             w.Address,
		LegacyAddress:       w.LegacyAddress,
		NestedAddress:       w.NestedAddress,
		PublicKey:           w.PublicKey,
		WebhookRegistration: w.WebhookRegistration,
		CreatedAt:           w.CreatedAt.Format(time.RFC3339),
	}
}
