package handlers

import (
	"errors"
	"net/http"

	"github.com/dhanbyte/shopwave-sub001/internal/logger"
	"github.com/dhanbyte/shopwave-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateCode checks a referral code and returns its record.
func (h *Handler) ValidateCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	rc, err := h.Ledger.ValidateCode(c.Request.Context(), code)
	countOp("validate_code", err)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "referral code not found"})
			return
		}
		logger.Error("validate code failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rc})
}

type SignupRequest struct {
	ReferralCode string `json:"referralCode" binding:"required"`
	NewUserID    string `json:"newUserId" binding:"required"`
}

// AttributeSignup credits a referrer with a new signup.
func (h *Handler) AttributeSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "referralCode and newUserId are required"})
		return
	}

	err := h.Ledger.AttributeSignup(c.Request.Context(), req.ReferralCode, req.NewUserID)
	countOp("attribute_signup", err)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferral) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral"})
			return
		}
		logger.Error("signup attribution failed", "code", req.ReferralCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type PurchaseRequest struct {
	Code        string `json:"code" binding:"required"`
	RefereeID   string `json:"refereeId" binding:"required"`
	OrderID     string `json:"orderId" binding:"required"`
	OrderAmount int64  `json:"orderAmount"`
}

// AttributePurchase credits a referrer for a referee's purchase.
func (h *Handler) AttributePurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code, refereeId and orderId are required"})
		return
	}

	err := h.Ledger.AttributePurchase(c.Request.Context(), req.Code, req.RefereeID, req.OrderID, req.OrderAmount)
	countOp("attribute_purchase", err)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferral) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral"})
			return
		}
		logger.Error("purchase attribution failed", "code", req.Code, "order_id", req.OrderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type RedeemRequest struct {
	UserID     string `json:"userId" binding:"required"`
	CoinsToUse int64  `json:"coinsToUse" binding:"required"`
}

// RedeemCoins consumes available coins and returns the new balance.
func (h *Handler) RedeemCoins(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and coinsToUse are required"})
		return
	}

	available, err := h.Ledger.RedeemCoins(c.Request.Context(), req.UserID, req.CoinsToUse)
	countOp("redeem_coins", err)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "coinsToUse must be a positive integer"})
		case errors.Is(err, service.ErrInsufficientCoins):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient coins"})
		default:
			logger.Error("redeem failed", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "available_coins": available})
}

// GetStats returns the user's full referral stats document.
func (h *Handler) GetStats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	stats, err := h.Ledger.GetStats(c.Request.Context(), userID)
	countOp("get_stats", err)
	if err != nil {
		logger.Error("get stats failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

type CreateCodeRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateCode issues a new referral code for the user.
func (h *Handler) CreateCode(c *gin.Context) {
	var req CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	rc, err := h.Ledger.CreateCode(c.Request.Context(), req.UserID)
	countOp("create_code", err)
	if err != nil {
		logger.Error("create code failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rc})
}

type DeactivateCodeRequest struct {
	UserID string `json:"userId" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// DeactivateCode turns off one of the user's codes.
func (h *Handler) DeactivateCode(c *gin.Context) {
	var req DeactivateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and code are required"})
		return
	}

	err := h.Ledger.DeactivateCode(c.Request.Context(), req.Code, req.UserID)
	countOp("deactivate_code", err)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "referral code not found"})
			return
		}
		logger.Error("deactivate code failed", "code", req.Code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type WithdrawRequest struct {
	UserID string `json:"userId" binding:"required"`
	Coins  int64  `json:"coins" binding:"required"`
}

// RequestWithdrawal debits coins into a pending withdrawal request.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and coins are required"})
		return
	}

	w, err := h.Ledger.RequestWithdrawal(c.Request.Context(), req.UserID, req.Coins)
	countOp("request_withdrawal", err)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "coins must be a positive integer"})
		case errors.Is(err, service.ErrInsufficientCoins):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient coins"})
		default:
			logger.Error("withdrawal request failed", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "withdrawal": w})
}

// GetWithdrawals lists the user's withdrawal requests.
func (h *Handler) GetWithdrawals(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	withdrawals, err := h.Ledger.Withdrawals(c.Request.Context(), userID)
	countOp("get_withdrawals", err)
	if err != nil {
		logger.Error("list withdrawals failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}
