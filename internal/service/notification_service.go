package service

import (
	"encoding/json"
	"fmt"

	"velour/internal/domain"
	"velour/internal/models"
	"velour/internal/repository"
)

type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

func (s *NotificationService) NotifyPaymentConfirmed(userID uint, amount int64, reference string) error {
	return s.Notify(userID, "PAYMENT_CONFIRMED", "Payment confirmed",
		fmt.Sprintf("%d credits have been added to your balance.", amount),
		map[string]interface{}{"amount": amount, "reference": reference})
}

func (s *NotificationService) NotifyPaymentFailed(userID uint, reference string) error {
	return s.Notify(userID, "PAYMENT_FAILED", "Payment failed",
		"Your credit purchase could not be completed. No credits were charged.",
		map[string]interface{}{"reference": reference})
}

func (s *NotificationService) NotifyCreditsReceived(userID uint, amount int64, source string) error {
	return s.Notify(userID, "CREDITS_RECEIVED", "Credits received",
		fmt.Sprintf("You received %d credits.", amount),
		map[string]interface{}{"amount": amount, "source": source})
}

func (s *NotificationService) NotifyPayoutStatus(userID uint, orderID, status string, amount int64) error {
	return s.Notify(userID, "PAYOUT_"+status, "Payout "+status,
		fmt.Sprintf("Your payout %s over %d credits is now %s.", orderID, amount, status),
		map[string]interface{}{"order_id": orderID, "status": status, "amount": amount})
}

func (s *NotificationService) NotifyBalanceAdjusted(userID uint, amount int64, direction, reason string) error {
	verb := "added to"
	if direction == domain.DirectionDebit {
		verb = "removed from"
	}
	return s.Notify(userID, "BALANCE_ADJUSTED", "Balance adjusted",
		fmt.Sprintf("%d credits were %s your balance by an administrator. Reason: %s", amount, verb, reason),
		map[string]interface{}{"amount": amount, "direction": direction})
}

// NotifyAdmins fans an alert out to every admin user. Used for payout
// completions that auto-failed on a stale balance.
func (s *NotificationService) NotifyAdmins(notifType, title, body string, data map[string]interface{}) {
	admins, err := s.userRepo.ListByRole(domain.RoleAdmin)
	if err != nil {
		return
	}
	for _, a := range admins {
		_ = s.Notify(a.ID, notifType, title, body, data)
	}
}
