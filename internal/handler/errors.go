package handler

import (
	"errors"
	"log"
	"net/http"

	"velour/internal/repository"

	"github.com/gin-gonic/gin"
)

// respondLedgerError maps the ledger error taxonomy onto HTTP. The "code"
// field lets dashboards distinguish transient conditions (busy: retry with
// backoff) from terminal ones (insufficient_credits: prompt the user).
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidAmount), errors.Is(err, repository.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, repository.ErrInsufficientCredits):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "insufficient_credits"})
	case errors.Is(err, repository.ErrStaleBalance):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "stale_balance"})
	case errors.Is(err, repository.ErrAlreadyRefunded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_refunded"})
	case errors.Is(err, repository.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_processed"})
	case errors.Is(err, repository.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, repository.ErrConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "busy"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, repository.ErrIntegrityViolation):
		log.Printf("[ALARM] integrity violation surfaced to API: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger integrity violation", "code": "integrity"})
	default:
		log.Printf("[Ledger] unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
