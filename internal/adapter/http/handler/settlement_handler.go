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

// SettlementHandler handles settlement endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Settle handles POST /api/v1/settlements.
func (h *SettlementHandler) Settle(c *gin.Context) {
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	event, err := toSettlementEvent(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.settlementSvc.Settle(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.State == domain.SettlementFailed {
		response.Rejected(c, http.StatusOK, result.Reason, result)
		return
	}

	response.OK(c, "settlement committed", result)
}

func toSettlementEvent(req dto.SettlementRequest) (domain.SettlementEvent, error) {
	value, ok := dto.ParseAmount(req.Value)
	if !ok {
		return domain.SettlementEvent{}, apperror.ErrInvalidAmount()
	}
	sellerProfit, ok := dto.ParseDecimal(req.SellerProfit)
	if !ok {
		return domain.SettlementEvent{}, apperror.Validation("seller_profit must be a decimal number")
	}

	rules := make([]domain.Rule, 0, len(req.Rules))
	for _, r := range req.Rules {
		ruleValue, ok := dto.ParseDecimal(r.Value)
		if !ok {
			return domain.SettlementEvent{}, apperror.Validation("rule value must be a decimal number")
		}
		serviceCharge, ok := dto.ParseDecimal(r.ServiceCharge)
		if !ok {
			return domain.SettlementEvent{}, apperror.Validation("service charge must be a decimal number")
		}
		rules = append(rules, domain.Rule{
			Name:          r.Name,
			Value:         ruleValue,
			Direction:     domain.RuleDirection(r.Direction),
			ServiceCharge: serviceCharge,
		})
	}

	hierarchy, err := toHierarchy(req.Hierarchy)
	if err != nil {
		return domain.SettlementEvent{}, err
	}

	return domain.SettlementEvent{
		Kind:         domain.SettlementKind(req.Kind),
		UserID:       req.UserID,
		Value:        value,
		Currency:     req.Currency,
		SellerProfit: sellerProfit,
		RuleName:     req.RuleName,
		Rules:        rules,
		Hierarchy:    hierarchy,
	}, nil
}

func toHierarchy(h dto.Hierarchy) (domain.Hierarchy, error) {
	out := domain.Hierarchy{}
	for _, lvl := range []struct {
		src dto.HierarchyLevel
		dst *domain.HierarchyLevel
	}{
		{h.Brand, &out.Brand},
		{h.Parent, &out.Parent},
		{h.Master, &out.Master},
	} {
		rate, ok := dto.ParseDecimal(lvl.src.Rate)
		if !ok || rate.IsNegative() {
			return domain.Hierarchy{}, apperror.Validation("hierarchy rate must be a non-negative decimal")
		}
		*lvl.dst = domain.HierarchyLevel{
			BrandID:  lvl.src.BrandID,
			Currency: lvl.src.Currency,
			Rate:     rate,
		}
	}
	return out, nil
}
