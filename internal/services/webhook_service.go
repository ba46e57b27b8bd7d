package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
)

// AcceptedEventType is the only gateway event this service ingests.
const AcceptedEventType = "qr_code.credited"

// Rejection reasons surfaced by the ingestion pipeline. The handler maps each
// to its HTTP status class.
var (
	ErrMissingSignature  = errors.New("missing gateway signature")
	ErrSignatureMismatch = errors.New("gateway signature mismatch")
	ErrUnsupportedEvent  = errors.New("unsupported event type")
	ErrMissingQRCodeID   = errors.New("qr code id not found in payload")
	ErrMissingPaymentID  = errors.New("payment id not found in payload")
)

// ClassifiedEvent is the set of fields extracted from an accepted payload.
// The cumulative totals are optional: not every event variant carries them,
// and their absence only skips reconciliation.
type ClassifiedEvent struct {
	QrCodeID  string
	PaymentID string
	RrnNumber string
	Amount    int64
	Vpa       string
	CreatedAt time.Time

	PaymentsCount  *int64
	PaymentsAmount *int64
}

// gatewayPayload mirrors the gateway's webhook body shape.
type gatewayPayload struct {
	Event   string `json:"event"`
	Payload struct {
		QRCode struct {
			Entity struct {
				ID                     string `json:"id"`
				PaymentsAmountReceived *int64 `json:"payments_amount_received"`
				PaymentsCountReceived  *int64 `json:"payments_count_received"`
			} `json:"entity"`
		} `json:"qr_code"`
		Payment struct {
			Entity struct {
				ID           string `json:"id"`
				AcquirerData struct {
					Rrn string `json:"rrn"`
				} `json:"acquirer_data"`
				Amount    int64  `json:"amount"`
				Vpa       string `json:"vpa"`
				CreatedAt int64  `json:"created_at"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookService ingests payment-gateway webhooks: it verifies the delivery,
// records an immutable audit event and reconciles QR running totals.
type WebhookService struct {
	store  DocumentStore
	cfg    config.AppwriteConfig
	secret string
}

func NewWebhookService(store DocumentStore, cfg config.AppwriteConfig, webhookSecret string) *WebhookService {
	return &WebhookService{
		store:  store,
		cfg:    cfg,
		secret: webhookSecret,
	}
}

// VerifySignature checks the HMAC-SHA256 hex digest of the raw body against
// the header-supplied signature. rawBody must be the untouched wire bytes;
// re-serialized JSON would not hash to the same digest.
func (s *WebhookService) VerifySignature(rawBody []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// ClassifyEvent decodes the payload, gates on the accepted event type and
// extracts the fields the recorder and reconciler need. A missing QR or
// payment identifier is a hard rejection; missing cumulative totals are not.
func ClassifyEvent(rawBody []byte) (*ClassifiedEvent, error) {
	var body gatewayPayload
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEvent, err)
	}

	if body.Event != AcceptedEventType {
		return nil, ErrUnsupportedEvent
	}

	qr := body.Payload.QRCode.Entity
	payment := body.Payload.Payment.Entity

	if qr.ID == "" {
		return nil, ErrMissingQRCodeID
	}
	if payment.ID == "" {
		return nil, ErrMissingPaymentID
	}

	return &ClassifiedEvent{
		QrCodeID:       qr.ID,
		PaymentID:      payment.ID,
		RrnNumber:      payment.AcquirerData.Rrn,
		Amount:         payment.Amount,
		Vpa:            payment.Vpa,
		CreatedAt:      time.Unix(payment.CreatedAt, 0).UTC(),
		PaymentsCount:  qr.PaymentsCountReceived,
		PaymentsAmount: qr.PaymentsAmountReceived,
	}, nil
}

// Ingest persists the audit record and then reconciles the QR totals. The
// record write is mandatory; reconciliation is best-effort and never fails
// the ingestion once the record is durable.
func (s *WebhookService) Ingest(ctx context.Context, rawBody []byte, event *ClassifiedEvent) error {
	if err := s.recordEvent(ctx, rawBody, event); err != nil {
		return err
	}

	if event.PaymentsCount == nil || event.PaymentsAmount == nil {
		log.Printf("[WEBHOOK] Payload for qrId %s carries no cumulative totals, skipping reconciliation", event.QrCodeID)
		return nil
	}

	if err := s.reconcileTotals(ctx, event); err != nil {
		log.Printf("[WEBHOOK] Reconciliation for qrId %s failed (record already saved): %v", event.QrCodeID, err)
	}
	return nil
}

// recordEvent writes one immutable WebhookEvent document per accepted
// delivery. Duplicate gateway deliveries produce duplicate records; dedup by
// payment id is deliberately not performed.
func (s *WebhookService) recordEvent(ctx context.Context, rawBody []byte, event *ClassifiedEvent) error {
	data := map[string]any{
		"payload":    string(rawBody),
		"qrCodeId":   event.QrCodeID,
		"paymentId":  event.PaymentID,
		"rrnNumber":  event.RrnNumber,
		"amount":     event.Amount,
		"vpa":        event.Vpa,
		"created_at": event.CreatedAt.Format(time.RFC3339),
	}

	doc, err := s.store.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.WebhookDataCollectionID, appwrite.UniqueID(), data)
	if err != nil {
		return fmt.Errorf("saving webhook event: %w", err)
	}

	log.Printf("[WEBHOOK] Event saved, document %s, payment %s", doc.ID(), event.PaymentID)
	return nil
}

// reconcileTotals resolves the QR record by its business identifier and
// overwrites its running counters with the gateway-supplied cumulative
// values. The gateway totals are authoritative, so this is a replace, not an
// increment; repeated deliveries converge instead of double-counting.
func (s *WebhookService) reconcileTotals(ctx context.Context, event *ClassifiedEvent) error {
	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, []string{
		appwrite.QueryEqual("qrId", event.QrCodeID),
		appwrite.QueryLimit(1),
	})
	if err != nil {
		return fmt.Errorf("looking up qr record: %w", err)
	}

	if len(list.Documents) == 0 {
		log.Printf("[WEBHOOK] QR code with qrId %s not found, totals left untouched", event.QrCodeID)
		return nil
	}

	// Only the counters this flow owns are written; assignment and the
	// active flag belong to the admin routes.
	_, err = s.store.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, list.Documents[0].ID(), map[string]any{
		"totalTransactions": *event.PaymentsCount,
		"totalPayInAmount":  *event.PaymentsAmount,
	})
	if err != nil {
		return fmt.Errorf("updating qr totals: %w", err)
	}

	log.Printf("[WEBHOOK] QR totals updated for qrId %s: count=%d amount=%d", event.QrCodeID, *event.PaymentsCount, *event.PaymentsAmount)
	return nil
}
