package models

// WebhookEvent is the immutable audit record of one accepted gateway
// delivery. Payload holds the verbatim request body for replay.
type WebhookEvent struct {
	Payload   string `json:"payload"`
	QrCodeID  string `json:"qrCodeId"`
	PaymentID string `json:"paymentId"`
	RrnNumber string `json:"rrnNumber"`
	Amount    int64  `json:"amount"`
	Vpa       string `json:"vpa"`
	CreatedAt string `json:"created_at"`
}
