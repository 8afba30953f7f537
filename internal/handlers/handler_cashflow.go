package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talkal/home_finance_app/internal/apperrors"
	portssvc "github.com/talkal/home_finance_app/internal/core/ports/services"
	"github.com/talkal/home_finance_app/internal/dto"
	"github.com/talkal/home_finance_app/internal/middleware"
)

// cashFlowHandler handles HTTP requests related to cash flows.
type cashFlowHandler struct {
	cashFlowService portssvc.CashFlowSvcFacade
}

func newCashFlowHandler(cs portssvc.CashFlowSvcFacade) *cashFlowHandler {
	return &cashFlowHandler{cashFlowService: cs}
}

// registerCashFlowRoutes registers routes related to cash flows.
func registerCashFlowRoutes(rg *gin.RouterGroup, cashFlowService portssvc.CashFlowSvcFacade) {
	h := newCashFlowHandler(cashFlowService)

	flows := rg.Group("/cashflows")
	{
		flows.POST("", h.createCashFlow)
		flows.GET("", h.listCashFlows)
		flows.GET("/:cashFlowID", h.getCashFlow)
	}
}

func (h *cashFlowHandler) createCashFlow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCashFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCashFlow", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	flow, err := h.cashFlowService.CreateCashFlow(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cash flow already exists"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create cash flow", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cash flow"})
		}
		return
	}

	logger.Info("Cash flow created", slog.String("cash_flow_id", flow.CashFlowID))
	c.JSON(http.StatusCreated, dto.ToCashFlowResponse(flow))
}

func (h *cashFlowHandler) getCashFlow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	flow, err := h.cashFlowService.GetCashFlow(c.Request.Context(), userID, c.Param("cashFlowID"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cash flow not found"})
		} else {
			logger.Error("Failed to get cash flow", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cash flow"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCashFlowResponse(flow))
}

func (h *cashFlowHandler) listCashFlows(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	flows, err := h.cashFlowService.ListCashFlows(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Failed to list cash flows", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cash flows"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCashFlowResponses(flows))
}
