package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
	"github.com/scanpay/backend/internal/services"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error) {
	args := m.Called(ctx, databaseID, collectionID, documentID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(appwrite.Document), args.Error(1)
}

func (m *mockStore) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []string) (*appwrite.DocumentList, error) {
	args := m.Called(ctx, databaseID, collectionID, queries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.DocumentList), args.Error(1)
}

func (m *mockStore) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error) {
	args := m.Called(ctx, databaseID, collectionID, documentID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(appwrite.Document), args.Error(1)
}

func (m *mockStore) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	args := m.Called(ctx, databaseID, collectionID, documentID)
	return args.Error(0)
}

const webhookSecret = "whsec_test"

var webhookCfg = config.AppwriteConfig{
	DatabaseID:              "db",
	QRCodeCollectionID:      "qrcodes",
	WebhookDataCollectionID: "webhookdata",
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	if signature != "" {
		r.Header.Set("x-razorpay-signature", signature)
	}
	w := httptest.NewRecorder()
	h.HandleWebhook(w, r)
	return w
}

func TestWebhookHandler_HandleWebhook(t *testing.T) {
	creditedBody := fmt.Sprintf(`{
		"event": "qr_code.credited",
		"payload": {
			"qr_code": {"entity": {"id": "qr_abc", "payments_amount_received": 5000, "payments_count_received": 5}},
			"payment": {"entity": {"id": "pay_xyz", "amount": 1000, "vpa": "payer@upi", "created_at": 1700000000, "acquirer_data": {"rrn": "%s"}}}
		}
	}`, "555444333222")

	t.Run("missing signature returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		w := postWebhook(h, creditedBody, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing Razorpay signature")
		store.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid signature returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		w := postWebhook(h, creditedBody, "deadbeef")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid signature")
	})

	t.Run("unsupported event returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		body := `{"event":"payment.captured","payload":{}}`
		w := postWebhook(h, body, sign(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unsupported event type")
	})

	t.Run("missing qr id returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		body := `{"event":"qr_code.credited","payload":{"payment":{"entity":{"id":"pay_xyz"}}}}`
		w := postWebhook(h, body, sign(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "QR Code ID not found")
	})

	t.Run("missing payment id returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		body := `{"event":"qr_code.credited","payload":{"qr_code":{"entity":{"id":"qr_abc"}}}}`
		w := postWebhook(h, body, sign(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Payment ID not found")
	})

	t.Run("valid delivery records event and updates totals", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		store.On("CreateDocument", mock.Anything, "db", "webhookdata", mock.AnythingOfType("string"),
			mock.MatchedBy(func(data map[string]any) bool {
				return data["qrCodeId"] == "qr_abc" && data["paymentId"] == "pay_xyz"
			})).Return(appwrite.Document{"$id": "doc_1"}, nil)
		store.On("ListDocuments", mock.Anything, "db", "qrcodes", mock.Anything).
			Return(&appwrite.DocumentList{
				Total:     1,
				Documents: []appwrite.Document{{"$id": "qrdoc_1", "qrId": "qr_abc"}},
			}, nil)
		store.On("UpdateDocument", mock.Anything, "db", "qrcodes", "qrdoc_1",
			map[string]any{"totalTransactions": int64(5), "totalPayInAmount": int64(5000)}).
			Return(appwrite.Document{"$id": "qrdoc_1"}, nil)

		w := postWebhook(h, creditedBody, sign(creditedBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Webhook received and saved", w.Body.String())
		store.AssertExpectations(t)
	})

	t.Run("duplicate delivery records a second event", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		store.On("CreateDocument", mock.Anything, "db", "webhookdata", mock.Anything, mock.Anything).
			Return(appwrite.Document{"$id": "doc_1"}, nil).Twice()
		store.On("ListDocuments", mock.Anything, "db", "qrcodes", mock.Anything).
			Return(&appwrite.DocumentList{
				Total:     1,
				Documents: []appwrite.Document{{"$id": "qrdoc_1", "qrId": "qr_abc"}},
			}, nil)
		store.On("UpdateDocument", mock.Anything, "db", "qrcodes", "qrdoc_1", mock.Anything).
			Return(appwrite.Document{"$id": "qrdoc_1"}, nil)

		first := postWebhook(h, creditedBody, sign(creditedBody))
		second := postWebhook(h, creditedBody, sign(creditedBody))

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "Webhook received and saved", first.Body.String())
		assert.Equal(t, "Webhook received and saved", second.Body.String())
		store.AssertNumberOfCalls(t, "CreateDocument", 2)
	})

	t.Run("oversized body returns 400", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		body := `{"event":"qr_code.credited","pad":"` + strings.Repeat("a", 1<<20) + `"}`
		w := postWebhook(h, body, sign(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Cannot read request body")
		store.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		store := new(mockStore)
		h := NewWebhookHandler(services.NewWebhookService(store, webhookCfg, webhookSecret))

		store.On("CreateDocument", mock.Anything, "db", "webhookdata", mock.Anything, mock.Anything).
			Return(nil, errors.New("store unavailable"))

		w := postWebhook(h, creditedBody, sign(creditedBody))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Error saving webhook")
	})
}
