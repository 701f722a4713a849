package handlers

import (
	"errors"
	"net/http"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"
	"github.com/dhanbyte/shopwave-sub001/internal/logger"
	"github.com/dhanbyte/shopwave-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminReferralStats returns the platform-wide rollup.
func (h *Handler) AdminReferralStats(c *gin.Context) {
	stats, err := h.Admin.GetStats(c.Request.Context())
	countOp("admin_stats", err)
	if err != nil {
		logger.Error("admin stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

type ResolveWithdrawalRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// ResolveWithdrawal moves a pending withdrawal to approved, rejected or paid.
func (h *Handler) ResolveWithdrawal(c *gin.Context) {
	id := c.Param("id")

	var req ResolveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	w, err := h.Ledger.ResolveWithdrawal(c.Request.Context(), id, domain.WithdrawalStatus(req.Status), req.Notes)
	countOp("resolve_withdrawal", err)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved, rejected or paid"})
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "pending withdrawal not found"})
		default:
			logger.Error("resolve withdrawal failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "withdrawal": w})
}
