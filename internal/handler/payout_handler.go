package handler

import (
	"net/http"
	"strconv"

	"velour/internal/domain"
	"velour/internal/middleware"
	"velour/internal/repository"
	"velour/internal/service"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	ledgerRepo *repository.LedgerRepository
	payoutRepo *repository.PayoutRepository
	payoutSvc  *service.PayoutService
}

func NewPayoutHandler(ledgerRepo *repository.LedgerRepository, payoutRepo *repository.PayoutRepository, payoutSvc *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{ledgerRepo: ledgerRepo, payoutRepo: payoutRepo, payoutSvc: payoutSvc}
}

func (h *PayoutHandler) account(c *gin.Context) (uint, bool) {
	userID := middleware.GetUserID(c)
	kind := domain.AccountKindUser
	if role, _ := c.Get("role"); role == domain.RoleClub {
		kind = domain.AccountKindClub
	}
	acc, err := h.ledgerRepo.GetOrCreateAccount(userID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account error"})
		return 0, false
	}
	return acc.ID, true
}

// Request creates a pending payout. No credits are debited yet; the
// amount is earmarked against the balance until an admin decides.
func (h *PayoutHandler) Request(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	var req struct {
		Amount  int64  `json:"amount" binding:"required,min=1"`
		Method  string `json:"method" binding:"required"`
		Details string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.payoutSvc.Request(accountID, req.Amount, req.Method, req.Details)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       p.ID,
		"order_id": p.OrderID,
		"amount":   p.Amount,
		"status":   p.Status,
	})
}

// ListMine returns the caller's payouts, newest first.
func (h *PayoutHandler) ListMine(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, total, err := h.payoutRepo.ListByAccount(accountID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payouts error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list, "total": total, "page": page})
}
