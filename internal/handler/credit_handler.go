package handler

import (
	"net/http"
	"strconv"

	"velour/config"
	"velour/internal/domain"
	"velour/internal/middleware"
	"velour/internal/repository"
	"velour/internal/service"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	cfg         *config.Config
	ledgerRepo  *repository.LedgerRepository
	packageRepo *repository.CreditPackageRepository
	creditSvc   *service.CreditService
	summarySvc  *service.SummaryService
}

func NewCreditHandler(
	cfg *config.Config,
	ledgerRepo *repository.LedgerRepository,
	packageRepo *repository.CreditPackageRepository,
	creditSvc *service.CreditService,
	summarySvc *service.SummaryService,
) *CreditHandler {
	return &CreditHandler{
		cfg:         cfg,
		ledgerRepo:  ledgerRepo,
		packageRepo: packageRepo,
		creditSvc:   creditSvc,
		summarySvc:  summarySvc,
	}
}

// account resolves (or lazily creates) the caller's ledger account.
func (h *CreditHandler) account(c *gin.Context) (uint, bool) {
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

// GetBalance returns the committed balance snapshot.
func (h *CreditHandler) GetBalance(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	snap, err := h.ledgerRepo.GetBalance(accountID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetHistory returns the caller's transactions, newest first.
func (h *CreditHandler) GetHistory(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, total, err := h.ledgerRepo.GetHistory(accountID, page, pageSize)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list, "total": total, "page": page})
}

// GetSummary returns balance plus payout headroom.
func (h *CreditHandler) GetSummary(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	sum, err := h.summarySvc.ClubCredits(accountID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GetEarnings returns the per-source earnings breakdown.
func (h *CreditHandler) GetEarnings(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	sum, err := h.summarySvc.Earnings(accountID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ListPackages returns purchasable credit packages.
func (h *CreditHandler) ListPackages(c *gin.Context) {
	list, err := h.packageRepo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "packages error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

// InitiatePurchase starts a gateway payment for a credit package. Credits
// land only after the gateway's confirm webhook.
func (h *CreditHandler) InitiatePurchase(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	var req struct {
		PackageID uint `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	callbackURL := ""
	if h.cfg.Payment.WebhookBaseURL != "" {
		callbackURL = h.cfg.Payment.WebhookBaseURL + "/api/v1/webhooks/payment"
	}
	tx, resp, err := h.creditSvc.InitiatePurchase(c.Request.Context(), accountID, req.PackageID, callbackURL)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": tx.ID,
		"status":         tx.Status,
		"payment_ref":    resp.Reference,
		"checkout_url":   resp.CheckoutURL,
		"expires_at":     resp.ExpiresAt,
	})
}

// CancelPurchase cancels the caller's own unconfirmed purchase.
func (h *CreditHandler) CancelPurchase(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	txID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	if err := h.creditSvc.CancelPurchase(uint(txID), accountID); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// Spend debits the caller's balance for an on-platform action.
func (h *CreditHandler) Spend(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	var req struct {
		Amount      int64  `json:"amount" binding:"required,min=1"`
		Description string `json:"description" binding:"required"`
		Source      string `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.creditSvc.Spend(accountID, req.Amount, req.Description, req.Source)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	snap, _ := h.ledgerRepo.GetBalance(accountID)
	resp := gin.H{"transaction_id": tx.ID, "status": tx.Status}
	if snap != nil {
		resp["balance"] = snap.Balance
	}
	c.JSON(http.StatusCreated, resp)
}

// Transfer sends credits to another account (gifts, fan-post tips).
func (h *CreditHandler) Transfer(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	var req struct {
		ToAccountID uint   `json:"to_account_id" binding:"required"`
		Amount      int64  `json:"amount" binding:"required,min=1"`
		Source      string `json:"source"`
		Note        string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, in, err := h.creditSvc.Transfer(accountID, req.ToAccountID, req.Amount, req.Source, req.Note)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"out_transaction_id": out.ID,
		"in_transaction_id":  in.ID,
		"amount":             req.Amount,
	})
}
