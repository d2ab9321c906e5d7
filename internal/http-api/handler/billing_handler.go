package handler

import (
	"errors"
	"net/http"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// RegisterRoutes registers billing routes. The webhook group is expected to
// sit behind the provider-signature verification at the edge.
func (h *BillingHandler) RegisterRoutes(webhook, authed *gin.RouterGroup) {
	webhook.POST("/billing/webhook", h.Webhook)
	authed.GET("/billing/status", h.Status)
}

// Webhook applies a subscription status change from the payment provider
// POST /api/billing/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	var req dto.BillingWebhookDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.billingService.ApplyWebhook(req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

// Status reports the caller's current subscription state
// GET /api/billing/status
func (h *BillingHandler) Status(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	status, err := h.billingService.Status(userID.(string))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
