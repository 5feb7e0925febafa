package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/domain"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/repo"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/service"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutResponse struct {
	Success    bool    `json:"success"`
	OrderID    string  `json:"orderId"`
	OrderDBID  int64   `json:"orderDbId"`
	ReceiptURL *string `json:"receiptUrl"`
	Message    string  `json:"message"`
}

// Submit handles POST /api/checkout.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Body-parse failures go to the generic error branch, matching
		// the storefront's contract.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, &req, err)
		return
	}

	c.JSON(http.StatusOK, checkoutResponse{
		Success:    true,
		OrderID:    result.OrderID,
		OrderDBID:  result.OrderDBID,
		ReceiptURL: result.ReceiptURL,
		Message:    "Order submitted successfully",
	})
}

func (h *CheckoutHandler) fail(c *gin.Context, req *domain.OrderRequest, err error) {
	if errors.Is(err, domain.ErrMissingFields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	var persistErr *repo.PersistError
	if errors.As(err, &persistErr) {
		log.Printf("Order %s failed at %s stage: %v", req.OrderID, persistErr.Stage, persistErr.Err)
		switch persistErr.Stage {
		case repo.StageItems:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add order items: " + persistErr.Err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order: " + persistErr.Err.Error()})
		}
		return
	}

	log.Printf("Checkout error for order %s: %v", req.OrderID, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}
