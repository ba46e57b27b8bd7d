package models

// Withdrawal request lifecycle. Only pending requests transition; approval
// and rejection are mutually exclusive terminals.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Withdrawal payout modes.
const (
	WithdrawalModeUPI  = "upi"
	WithdrawalModeBank = "bank"
)

// WithdrawalRequest is a payout request raised by a collection user.
type WithdrawalRequest struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	HolderName      string `json:"holderName"`
	Amount          int64  `json:"amount"`
	Mode            string `json:"mode"`
	UpiID           string `json:"upiId,omitempty"`
	BankName        string `json:"bankName,omitempty"`
	AccountNumber   string `json:"accountNumber,omitempty"`
	IfscCode        string `json:"ifscCode,omitempty"`
	Status          string `json:"status"`
	UtrNumber       string `json:"utrNumber,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	CreatedAt       string `json:"createdAt"`
}
