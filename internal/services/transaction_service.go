package services

import (
	"log"
	"net/http"
	"strconv"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
	"github.com/scanpay/backend/internal/models"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 50
)

// TransactionRecord is one webhook event as returned by the listing
// endpoints. The storage id doubles as the pagination cursor.
type TransactionRecord struct {
	ID string `json:"$id"`
	models.WebhookEvent
}

// TransactionPage is a single page of newest-first transactions. NextCursor
// is empty on the last page.
type TransactionPage struct {
	Transactions []TransactionRecord `json:"transactions"`
	NextCursor   string              `json:"nextCursor,omitempty"`
}

// TransactionService lists recorded webhook events, scoped by QR ownership.
// Ownership is resolved through the QR service before the event collection is
// queried, so a user can never page through another user's payments.
type TransactionService struct {
	store DocumentStore
	qr    *QRService
	cfg   config.AppwriteConfig
}

func NewTransactionService(store DocumentStore, qr *QRService, cfg config.AppwriteConfig) *TransactionService {
	return &TransactionService{
		store: store,
		qr:    qr,
		cfg:   cfg,
	}
}

func parsePageLimit(raw string) int {
	limit := defaultPageLimit
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit
}

func docToTransaction(doc appwrite.Document) TransactionRecord {
	return TransactionRecord{
		ID: doc.ID(),
		WebhookEvent: models.WebhookEvent{
			Payload:   doc.String("payload"),
			QrCodeID:  doc.String("qrCodeId"),
			PaymentID: doc.String("paymentId"),
			RrnNumber: doc.String("rrnNumber"),
			Amount:    doc.Int64("amount"),
			Vpa:       doc.String("vpa"),
			CreatedAt: doc.String("created_at"),
		},
	}
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// listPage queries the event collection with the given qrId filter values and
// cursor, returning one page newest first.
func (ts *TransactionService) listPage(r *http.Request, qrIDs []string, limit int, cursor string) (*TransactionPage, error) {
	queries := []string{}
	if len(qrIDs) > 0 {
		values := make([]any, len(qrIDs))
		for i, id := range qrIDs {
			values[i] = id
		}
		queries = append(queries, appwrite.QueryEqual("qrCodeId", values...))
	}
	queries = append(queries,
		appwrite.QueryOrderDesc("created_at"),
		appwrite.QueryLimit(limit),
	)
	if cursor != "" {
		queries = append(queries, appwrite.QueryCursorAfter(cursor))
	}

	list, err := ts.store.ListDocuments(r.Context(), ts.cfg.DatabaseID, ts.cfg.WebhookDataCollectionID, queries)
	if err != nil {
		return nil, err
	}

	page := &TransactionPage{Transactions: make([]TransactionRecord, 0, len(list.Documents))}
	for _, doc := range list.Documents {
		page.Transactions = append(page.Transactions, docToTransaction(doc))
	}
	// A full page implies there may be more; the last id resumes the scan.
	if len(page.Transactions) == limit {
		page.NextCursor = page.Transactions[len(page.Transactions)-1].ID
	}
	return page, nil
}

// ListTransactions serves the admin listing with optional userId/qrId
// filters and cursor pagination.
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	qrID := r.URL.Query().Get("qrId")
	cursor := r.URL.Query().Get("cursor")
	limit := parsePageLimit(r.URL.Query().Get("limit"))

	var qrIDs []string
	switch {
	case userID != "" && qrID != "":
		owned, err := ts.qr.QrIDsForUser(r.Context(), userID)
		if err != nil {
			log.Printf("[TRANSACTIONS] Ownership lookup failed for user %s: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		if !contains(owned, qrID) {
			// Not an error: a foreign qrId yields an empty page.
			log.Printf("[TRANSACTIONS] QR id %s does not belong to user %s", qrID, userID)
			SendJSON(w, http.StatusOK, TransactionPage{Transactions: []TransactionRecord{}})
			return
		}
		qrIDs = []string{qrID}
	case qrID != "":
		qrIDs = []string{qrID}
	case userID != "":
		owned, err := ts.qr.QrIDsForUser(r.Context(), userID)
		if err != nil {
			log.Printf("[TRANSACTIONS] Ownership lookup failed for user %s: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		if len(owned) == 0 {
			SendJSON(w, http.StatusOK, TransactionPage{Transactions: []TransactionRecord{}})
			return
		}
		qrIDs = owned
	}

	page, err := ts.listPage(r, qrIDs, limit, cursor)
	if err != nil {
		log.Printf("[TRANSACTIONS] Failed to fetch transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, page)
}

// ListUserTransactions serves the user-facing listing. userId is mandatory
// and every page is restricted to QR codes that user owns.
func (ts *TransactionService) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	qrID := r.URL.Query().Get("qrId")
	cursor := r.URL.Query().Get("cursor")
	limit := parsePageLimit(r.URL.Query().Get("limit"))

	if userID == "" {
		SendErrorResponse(w, "userId is required", http.StatusBadRequest, nil)
		return
	}

	owned, err := ts.qr.QrIDsForUser(r.Context(), userID)
	if err != nil {
		log.Printf("[TRANSACTIONS] Ownership lookup failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch user transactions", http.StatusInternalServerError, nil)
		return
	}

	var qrIDs []string
	if qrID != "" {
		if !contains(owned, qrID) {
			log.Printf("[TRANSACTIONS] QR id %s does not belong to user %s", qrID, userID)
			SendJSON(w, http.StatusOK, TransactionPage{Transactions: []TransactionRecord{}})
			return
		}
		qrIDs = []string{qrID}
	} else {
		if len(owned) == 0 {
			SendJSON(w, http.StatusOK, TransactionPage{Transactions: []TransactionRecord{}})
			return
		}
		qrIDs = owned
	}

	page, err := ts.listPage(r, qrIDs, limit, cursor)
	if err != nil {
		log.Printf("[TRANSACTIONS] Failed to fetch user transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch user transactions", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, page)
}
