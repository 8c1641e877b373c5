package service

import (
	"errors"
	"testing"

	"velour/internal/domain"
	"velour/internal/repository"
)

func TestPayoutRequestValidation(t *testing.T) {
	f := newFixture(t)
	_, acc := f.user(t, domain.RoleClub, 100)

	if _, err := f.payoutSvc.Request(acc.ID, 50, "", ""); !errors.Is(err, repository.ErrReasonRequired) {
		t.Fatalf("methodless request error = %v, want ErrReasonRequired", err)
	}
	if _, err := f.payoutSvc.Request(acc.ID, 0, "bank", "IBAN DE89"); !errors.Is(err, repository.ErrInvalidAmount) {
		t.Fatalf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if _, err := f.payoutSvc.Request(acc.ID, 101, "bank", "IBAN DE89"); !errors.Is(err, repository.ErrInsufficientCredits) {
		t.Fatalf("over-balance request error = %v, want ErrInsufficientCredits", err)
	}
}

// A club earns 500, spends 250, withdraws 200 and ends at 50: the full
// request -> approve -> complete walk with audit and notifications.
func TestPayoutHappyPath(t *testing.T) {
	f := newFixture(t)
	admin, _ := f.user(t, domain.RoleAdmin, 0)
	owner, acc := f.user(t, domain.RoleClub, 500)

	if _, err := f.credits.Spend(acc.ID, 250, "venue promotion", domain.SourceBooking); err != nil {
		t.Fatalf("spend: %v", err)
	}

	p, err := f.payoutSvc.Request(acc.ID, 200, "bank", "IBAN DE89 3704 0044 0532 0130 00")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if p.Status != domain.PayoutStatusPending || p.OrderID == "" {
		t.Fatalf("payout = %+v, want pending with an order id", p)
	}

	if _, err := f.payoutSvc.Approve(p.ID, admin.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	done, err := f.payoutSvc.Complete(p.ID, admin.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != domain.PayoutStatusCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}

	snap, _ := f.ledger.GetBalance(acc.ID)
	if snap.Balance != 50 {
		t.Fatalf("final balance = %d, want 50", snap.Balance)
	}
	if err := f.ledger.VerifyIntegrity(acc.ID); err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}

	trail, err := f.audit.ListByActor(admin.ID, 10, 0)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("audit entries = %d, want approve + complete", len(trail))
	}

	// The owner hears about both transitions.
	notifs := f.notifications(t, owner.ID)
	var processing, completed bool
	for _, n := range notifs {
		switch n.Type {
		case "PAYOUT_processing":
			processing = true
		case "PAYOUT_completed":
			completed = true
		}
	}
	if !processing || !completed {
		t.Fatalf("owner notifications = %+v, want processing and completed", notifs)
	}
}

func TestPayoutFailReleasesFunds(t *testing.T) {
	f := newFixture(t)
	admin, _ := f.user(t, domain.RoleAdmin, 0)
	owner, acc := f.user(t, domain.RoleClub, 100)

	p, err := f.payoutSvc.Request(acc.ID, 100, "bank", "IBAN DE89")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if _, err := f.payoutSvc.Fail(p.ID, admin.ID, ""); !errors.Is(err, repository.ErrReasonRequired) {
		t.Fatalf("reasonless fail error = %v, want ErrReasonRequired", err)
	}
	failed, err := f.payoutSvc.Fail(p.ID, admin.ID, "payout details did not match account holder")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if failed.Status != domain.PayoutStatusFailed {
		t.Fatalf("status = %q, want failed", failed.Status)
	}

	// No ledger effect; the balance is fully requestable again.
	snap, _ := f.ledger.GetBalance(acc.ID)
	if snap.Balance != 100 {
		t.Fatalf("balance = %d, want 100", snap.Balance)
	}
	if _, err := f.payoutSvc.Request(acc.ID, 100, "bank", "IBAN DE89"); err != nil {
		t.Fatalf("request after fail: %v", err)
	}

	notifs := f.notifications(t, owner.ID)
	if len(notifs) == 0 || notifs[0].Type != "PAYOUT_failed" {
		t.Fatalf("owner notifications = %+v, want PAYOUT_failed first", notifs)
	}
}

// When the balance races below an approved payout before completion, the
// payout auto-fails, admins get alerted, and ErrStaleBalance surfaces.
func TestPayoutCompleteStaleBalance(t *testing.T) {
	f := newFixture(t)
	admin, _ := f.user(t, domain.RoleAdmin, 0)
	_, acc := f.user(t, domain.RoleClub, 100)

	p, err := f.payoutSvc.Request(acc.ID, 100, "bank", "IBAN DE89")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := f.payoutSvc.Approve(p.ID, admin.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.credits.Spend(acc.ID, 60, "racing spend", domain.SourceBooking); err != nil {
		t.Fatalf("spend: %v", err)
	}

	got, err := f.payoutSvc.Complete(p.ID, admin.ID)
	if !errors.Is(err, repository.ErrStaleBalance) {
		t.Fatalf("Complete error = %v, want ErrStaleBalance", err)
	}
	if got.Status != domain.PayoutStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	snap, _ := f.ledger.GetBalance(acc.ID)
	if snap.Balance != 40 {
		t.Fatalf("balance = %d, want 40", snap.Balance)
	}

	var alerted bool
	for _, n := range f.notifications(t, admin.ID) {
		if n.Type == "PAYOUT_STALE_BALANCE" {
			alerted = true
		}
	}
	if !alerted {
		t.Fatal("admin was not alerted about the stale-balance auto-fail")
	}
}
