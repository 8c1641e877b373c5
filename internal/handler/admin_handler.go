package handler

import (
	"net/http"
	"strconv"

	"velour/internal/middleware"
	"velour/internal/models"
	"velour/internal/repository"
	"velour/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminRepo   *repository.AdminRepository
	ledgerRepo  *repository.LedgerRepository
	payoutRepo  *repository.PayoutRepository
	auditRepo   *repository.AuditLogRepository
	packageRepo *repository.CreditPackageRepository
	creditSvc   *service.CreditService
	payoutSvc   *service.PayoutService
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	ledgerRepo *repository.LedgerRepository,
	payoutRepo *repository.PayoutRepository,
	auditRepo *repository.AuditLogRepository,
	packageRepo *repository.CreditPackageRepository,
	creditSvc *service.CreditService,
	payoutSvc *service.PayoutService,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:   adminRepo,
		ledgerRepo:  ledgerRepo,
		payoutRepo:  payoutRepo,
		auditRepo:   auditRepo,
		packageRepo: packageRepo,
		creditSvc:   creditSvc,
		payoutSvc:   payoutSvc,
	}
}

// Dashboard handles GET /admin/dashboard — ledger overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreditVolume handles GET /admin/credits/volume?days=30.
func (h *AdminHandler) CreditVolume(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	points, err := h.adminRepo.CreditVolumeByDay(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "volume error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// ListAccounts handles GET /admin/accounts.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListAccounts(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accounts error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": list, "total": total, "page": page})
}

// ListTransactions handles GET /admin/transactions?type=&status=.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	page, limit := pageParams(c)
	list, total, err := h.adminRepo.ListTransactions(c.Query("type"), c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transactions error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list, "total": total, "page": page})
}

// ListPayouts handles GET /admin/payouts?status=.
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	page, limit := pageParams(c)
	list, total, err := h.payoutRepo.ListByStatus(c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payouts error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list, "total": total, "page": page})
}

// ApprovePayout handles POST /admin/payouts/:id/approve.
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	payoutID, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.payoutSvc.Approve(payoutID, middleware.GetUserID(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "status": p.Status})
}

// CompletePayout handles POST /admin/payouts/:id/complete. The ledger
// debit and the status flip are one atomic unit; a stale balance
// auto-fails the payout and reports 409.
func (h *AdminHandler) CompletePayout(c *gin.Context) {
	payoutID, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.payoutSvc.Complete(payoutID, middleware.GetUserID(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "status": p.Status, "processed_at": p.ProcessedAt})
}

// FailPayout handles POST /admin/payouts/:id/fail. Reason is mandatory.
func (h *AdminHandler) FailPayout(c *gin.Context) {
	payoutID, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	p, err := h.payoutSvc.Fail(payoutID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "status": p.Status})
}

// AdjustBalance handles POST /admin/accounts/:id/adjust.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	accountID, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Amount    int64  `json:"amount" binding:"required,min=1"`
		Direction string `json:"direction" binding:"required,oneof=credit debit"`
		Reason    string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.creditSvc.AdminAdjustment(accountID, req.Amount, req.Direction, req.Reason, middleware.GetUserID(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction_id": tx.ID, "status": tx.Status})
}

// RefundTransaction handles POST /admin/transactions/:id/refund.
func (h *AdminHandler) RefundTransaction(c *gin.Context) {
	txID, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	refund, err := h.creditSvc.Refund(txID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"refund_transaction_id": refund.ID})
}

// VerifyAccount handles GET /admin/accounts/:id/verify — reconciles the
// cached balance against the transaction log.
func (h *AdminHandler) VerifyAccount(c *gin.Context) {
	accountID, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.ledgerRepo.VerifyIntegrity(accountID); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consistent": true})
}

// ListAuditLog handles GET /admin/audit?target_type=&target_id=&actor_id=.
func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if actor := c.Query("actor_id"); actor != "" {
		actorID, err := strconv.ParseUint(actor, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor_id"})
			return
		}
		list, err := h.auditRepo.ListByActor(uint(actorID), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "audit error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actions": list})
		return
	}
	if tt, tid := c.Query("target_type"), c.Query("target_id"); tt != "" && tid != "" {
		list, err := h.auditRepo.ListByTarget(tt, tid, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "audit error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actions": list})
		return
	}
	list, err := h.auditRepo.ListRecent(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": list})
}

// CreatePackage handles POST /admin/packages.
func (h *AdminHandler) CreatePackage(c *gin.Context) {
	var req struct {
		Name          string `json:"name" binding:"required"`
		CreditsAmount int64  `json:"credits_amount" binding:"required,min=1"`
		PriceCents    int64  `json:"price_cents" binding:"required,min=1"`
		Currency      string `json:"currency"`
		Featured      bool   `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	pkg := &models.CreditPackage{
		Name:          req.Name,
		CreditsAmount: req.CreditsAmount,
		PriceCents:    req.PriceCents,
		Currency:      req.Currency,
		Featured:      req.Featured,
		Active:        true,
	}
	if err := h.packageRepo.Create(pkg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "package error"})
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// DeactivatePackage handles DELETE /admin/packages/:id.
func (h *AdminHandler) DeactivatePackage(c *gin.Context) {
	pkgID, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.packageRepo.Deactivate(pkgID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "package error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
