package models

// QRCode is a payment collection QR code entry. QrID is the gateway-assigned
// business identifier; the storage document id stays internal and is never
// exposed to the gateway.
type QRCode struct {
	QrID              string `json:"qrId"`
	FileID            string `json:"fileId"`
	ImageURL          string `json:"imageUrl"`
	AssignedUserID    string `json:"assignedUserId,omitempty"`
	IsActive          bool   `json:"isActive"`
	TotalTransactions int64  `json:"totalTransactions"`
	TotalPayInAmount  int64  `json:"totalPayInAmount"`
	CreatedAt         string `json:"createdAt"`
}
