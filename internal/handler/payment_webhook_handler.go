package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"velour/config"
	"velour/internal/repository"
	"velour/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler consumes the gateway's asynchronous confirm/fail
// callbacks that finalize purchase transactions. The ledger never calls
// the card network directly.
type PaymentWebhookHandler struct {
	creditSvc *service.CreditService
	cfg       *config.Config
}

func NewPaymentWebhookHandler(creditSvc *service.CreditService, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{creditSvc: creditSvc, cfg: cfg}
}

// Handle expects JSON: { "reference": "...", "status": "COMPLETED"|"FAILED" }
// and optional X-Webhook-Signature (hex HMAC-SHA256 of the raw body).
// Replays of an already-finalized reference are acknowledged without effect.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	switch strings.ToUpper(payload.Status) {
	case "COMPLETED", "SUCCESS":
		_, err = h.creditSvc.OnPaymentConfirmed(payload.Reference)
	case "FAILED", "CANCELLED", "EXPIRED":
		_, err = h.creditSvc.OnPaymentFailed(payload.Reference)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyProcessed), errors.Is(err, repository.ErrNotFound):
		// Unknown or replayed ref: ack so the gateway stops retrying.
	default:
		log.Printf("[Webhook] payment %s finalize failed: %v", payload.Reference, err)
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
