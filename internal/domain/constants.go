package domain

const (
	RoleClient = "CLIENT"
	RoleLady   = "LADY"
	RoleClub   = "CLUB"
	RoleAdmin  = "ADMIN"
)

const (
	AccountKindUser = "USER"
	AccountKindClub = "CLUB"
)

const (
	TxPurchase        = "purchase"
	TxSpend           = "spend"
	TxRefund          = "refund"
	TxTransferIn      = "transfer_in"
	TxTransferOut     = "transfer_out"
	TxAdminAdjustment = "admin_adjustment"
	TxPayout          = "payout"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusRefunded  = "refunded"
)

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// Earning source categories. Stored as a first-class column on
// credit_transactions so summaries never have to parse metadata.
const (
	SourceGift     = "gift"
	SourceFanpost  = "fanpost"
	SourceBooking  = "booking"
	SourcePackage  = "package"
	SourceAdmin    = "admin"
	SourceTransfer = "transfer"
	SourcePayout   = "payout"
)

const (
	AuditPayoutApproved   = "payout_approved"
	AuditPayoutCompleted  = "payout_completed"
	AuditPayoutFailed     = "payout_failed"
	AuditAdminAdjustment  = "admin_adjustment"
	AuditRefundIssued     = "refund_issued"
	AuditPaymentConfirmed = "payment_confirmed"
	AuditPaymentFailed    = "payment_failed"
)

// PayoutTerminal reports whether a payout status admits no further transitions.
func PayoutTerminal(status string) bool {
	return status == PayoutStatusCompleted || status == PayoutStatusFailed
}
