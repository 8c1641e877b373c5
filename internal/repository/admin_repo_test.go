package repository

import (
	"testing"

	"velour/internal/domain"
)

func TestDashboardStats(t *testing.T) {
	db, ledger, payouts := newPayoutFixture(t)
	admin := NewAdminRepository(db)

	a := seedAccount(t, db, 1, 500)
	b := seedAccount(t, db, 2, 300)
	if _, err := ledger.Apply(Entry{
		AccountID: a.ID, Type: domain.TxSpend, Direction: domain.DirectionDebit,
		Amount: 100, Source: domain.SourceGift,
	}); err != nil {
		t.Fatalf("spend: %v", err)
	}
	reservedPayout(t, payouts, b.ID, 150)

	stats, err := admin.GetDashboardStats()
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if stats.TotalAccounts != 2 {
		t.Fatalf("accounts = %d, want 2", stats.TotalAccounts)
	}
	if stats.TotalCreditsIssued != 800 {
		t.Fatalf("issued = %d, want 800", stats.TotalCreditsIssued)
	}
	if stats.TotalCreditsSpent != 100 {
		t.Fatalf("spent = %d, want 100", stats.TotalCreditsSpent)
	}
	if stats.PendingPayouts != 1 || stats.PendingPayoutLiability != 150 {
		t.Fatalf("pending payouts = %d/%d, want 1/150", stats.PendingPayouts, stats.PendingPayoutLiability)
	}
	if stats.PaidOutCredits != 0 {
		t.Fatalf("paid out = %d, want 0", stats.PaidOutCredits)
	}
}

func TestListTransactionsFiltered(t *testing.T) {
	db, ledger, _ := newPayoutFixture(t)
	admin := NewAdminRepository(db)
	acc := seedAccount(t, db, 1, 400)

	if _, err := ledger.Apply(Entry{
		AccountID: acc.ID, Type: domain.TxSpend, Direction: domain.DirectionDebit,
		Amount: 50, Source: domain.SourceGift,
	}); err != nil {
		t.Fatalf("spend: %v", err)
	}

	spends, total, err := admin.ListTransactions(domain.TxSpend, "", 1, 20)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 1 || len(spends) != 1 || spends[0].Type != domain.TxSpend {
		t.Fatalf("spend filter = %d rows (total %d)", len(spends), total)
	}
	all, total, err := admin.ListTransactions("", "", 1, 20)
	if err != nil {
		t.Fatalf("ListTransactions(all): %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("unfiltered = %d rows (total %d), want 2", len(all), total)
	}
}

func TestAuditTrailIsAppendOnlyOrdered(t *testing.T) {
	db := openTestDB(t)
	audit := NewAuditLogRepository(db)

	if err := audit.Record(1, domain.AuditPayoutApproved, "payout", "10", "", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := audit.Record(1, domain.AuditPayoutCompleted, "payout", "10", "", "debit tx 4"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := audit.Record(2, domain.AuditAdminAdjustment, "account", "3", "fraud claw-back", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}

	byTarget, err := audit.ListByTarget("payout", "10", 50, 0)
	if err != nil {
		t.Fatalf("ListByTarget: %v", err)
	}
	if len(byTarget) != 2 {
		t.Fatalf("target entries = %d, want 2", len(byTarget))
	}
	if byTarget[0].ActionType != domain.AuditPayoutCompleted {
		t.Fatalf("not newest first: got %s", byTarget[0].ActionType)
	}

	byActor, err := audit.ListByActor(2, 50, 0)
	if err != nil {
		t.Fatalf("ListByActor: %v", err)
	}
	if len(byActor) != 1 || byActor[0].Reason != "fraud claw-back" {
		t.Fatalf("actor entries = %+v", byActor)
	}

	recent, err := audit.ListRecent(2, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent limit ignored: got %d rows", len(recent))
	}
}
