package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/scanpay/backend/internal/services"
)

// WebhookHandler orchestrates the gateway ingestion pipeline: signature
// check, event classification, durable recording, best-effort reconciliation.
// Each stage either advances the request or terminates it with the status
// class the gateway's retry policy keys off.
const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	service *services.WebhookService
}

func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandleWebhook receives POST /webhook deliveries from the payment gateway.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	log.Printf("[WEBHOOK] Delivery received from %s", r.RemoteAddr)

	// The signature covers the exact wire bytes, so the body is read before
	// any JSON handling. Gateway payloads are small; cap the read the same
	// way DecodeJSONBody caps authenticated endpoints.
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Printf("[WEBHOOK] Failed to read request body: %v", err)
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("x-razorpay-signature")
	if err := h.service.VerifySignature(rawBody, signature); err != nil {
		if errors.Is(err, services.ErrMissingSignature) {
			log.Printf("[WEBHOOK] Delivery rejected: signature header absent")
			http.Error(w, "Missing Razorpay signature", http.StatusBadRequest)
			return
		}
		log.Printf("[WEBHOOK] Delivery rejected: signature mismatch")
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	event, err := services.ClassifyEvent(rawBody)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingQRCodeID):
			log.Printf("[WEBHOOK] Delivery rejected: QR code id missing")
			http.Error(w, "QR Code ID not found", http.StatusBadRequest)
		case errors.Is(err, services.ErrMissingPaymentID):
			log.Printf("[WEBHOOK] Delivery rejected: payment id missing")
			http.Error(w, "Payment ID not found", http.StatusBadRequest)
		default:
			log.Printf("[WEBHOOK] Delivery rejected: %v", err)
			http.Error(w, "Unsupported event type", http.StatusBadRequest)
		}
		return
	}

	if err := h.service.Ingest(r.Context(), rawBody, event); err != nil {
		// The mandatory record write failed; a 500 tells the gateway to
		// re-deliver on its own schedule.
		log.Printf("[WEBHOOK] Failed to save webhook event: %v", err)
		http.Error(w, "Error saving webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received and saved"))
}
