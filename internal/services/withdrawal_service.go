package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
	"github.com/scanpay/backend/internal/models"
)

// ErrWithdrawalNotPending is returned when an approve/reject targets a
// request that already reached a terminal status.
var ErrWithdrawalNotPending = errors.New("withdrawal request is not pending")

const withdrawalListLimit = 100

// WithdrawalService manages payout requests: creation by users, listing and
// the pending→approved / pending→rejected transitions by admins.
type WithdrawalService struct {
	store     DocumentStore
	cfg       config.AppwriteConfig
	validator *ValidationHelper
}

func NewWithdrawalService(store DocumentStore, cfg config.AppwriteConfig) *WithdrawalService {
	return &WithdrawalService{
		store:     store,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// generateWithdrawalID builds a human-scannable request id: prefix, epoch
// millis and a 3-digit discriminator.
func generateWithdrawalID() string {
	return fmt.Sprintf("wdh_%d%d", time.Now().UnixMilli(), 100+rand.Intn(900))
}

func docToWithdrawal(doc appwrite.Document) models.WithdrawalRequest {
	return models.WithdrawalRequest{
		ID:              doc.String("id"),
		UserID:          doc.String("userId"),
		HolderName:      doc.String("holderName"),
		Amount:          doc.Int64("amount"),
		Mode:            doc.String("mode"),
		UpiID:           doc.String("upiId"),
		BankName:        doc.String("bankName"),
		AccountNumber:   doc.String("accountNumber"),
		IfscCode:        doc.String("ifscCode"),
		Status:          doc.String("status"),
		UtrNumber:       doc.String("utrNumber"),
		RejectionReason: doc.String("rejectionReason"),
		CreatedAt:       doc.String("createdAt"),
	}
}

type withdrawRequest struct {
	UserID        string `json:"userId" validate:"required"`
	HolderName    string `json:"holderName" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Mode          string `json:"mode" validate:"required,oneof=upi bank"`
	UpiID         string `json:"upiId"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IfscCode      string `json:"ifscCode"`
}

// Withdraw records a new payout request with status pending.
func (s *WithdrawalService) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid mode. Must be upi or bank.", http.StatusBadRequest, err)
		return
	}
	if req.Mode == models.WithdrawalModeUPI && req.UpiID == "" {
		SendErrorResponse(w, "UPI ID is required for UPI withdrawal", http.StatusBadRequest, nil)
		return
	}
	if req.Mode == models.WithdrawalModeBank && (req.BankName == "" || req.AccountNumber == "" || req.IfscCode == "") {
		SendErrorResponse(w, "Bank details are incomplete", http.StatusBadRequest, nil)
		return
	}

	withdrawalID := generateWithdrawalID()
	log.Printf("[WITHDRAW] Request %s from user %s, mode %s", withdrawalID, req.UserID, req.Mode)

	nullable := func(v string) any {
		if v == "" {
			return nil
		}
		return v
	}

	doc, err := s.store.CreateDocument(r.Context(), s.cfg.DatabaseID, s.cfg.WithdrawalCollectionID, appwrite.UniqueID(), map[string]any{
		"id":            withdrawalID,
		"userId":        req.UserID,
		"holderName":    req.HolderName,
		"amount":        req.Amount,
		"mode":          req.Mode,
		"upiId":         nullable(req.UpiID),
		"bankName":      nullable(req.BankName),
		"accountNumber": nullable(req.AccountNumber),
		"ifscCode":      nullable(req.IfscCode),
		"status":        models.WithdrawalStatusPending,
		"createdAt":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("[WITHDRAW] Failed to save request %s: %v", withdrawalID, err)
		SendErrorResponse(w, "Failed to save withdrawal request", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    docToWithdrawal(doc),
	})
}

func (s *WithdrawalService) list(ctx context.Context, status, userID string) ([]models.WithdrawalRequest, int64, error) {
	queries := []string{}
	if status != "" {
		queries = append(queries, appwrite.QueryEqual("status", status))
	}
	if userID != "" {
		queries = append(queries, appwrite.QueryEqual("userId", userID))
	}
	queries = append(queries,
		appwrite.QueryOrderDesc("$createdAt"),
		appwrite.QueryLimit(withdrawalListLimit),
	)

	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.WithdrawalCollectionID, queries)
	if err != nil {
		return nil, 0, err
	}

	withdrawals := make([]models.WithdrawalRequest, 0, len(list.Documents))
	for _, doc := range list.Documents {
		withdrawals = append(withdrawals, docToWithdrawal(doc))
	}
	return withdrawals, list.Total, nil
}

// ListWithdrawals serves the admin listing with an optional status filter.
func (s *WithdrawalService) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, total, err := s.list(r.Context(), r.URL.Query().Get("status"), "")
	if err != nil {
		log.Printf("[WITHDRAW] Failed to fetch withdrawals: %v", err)
		SendErrorResponse(w, "Failed to fetch withdrawal requests", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"count":       total,
		"withdrawals": withdrawals,
	})
}

// ListUserWithdrawals serves the user-facing listing with optional status
// and userId filters.
func (s *WithdrawalService) ListUserWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, total, err := s.list(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("userId"))
	if err != nil {
		log.Printf("[WITHDRAW] Failed to fetch withdrawals: %v", err)
		SendErrorResponse(w, "Failed to fetch withdrawal requests", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"count":       total,
		"withdrawals": withdrawals,
	})
}

// findByBusinessID resolves a withdrawal document by its wdh_ id.
func (s *WithdrawalService) findByBusinessID(ctx context.Context, id string) (appwrite.Document, error) {
	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.WithdrawalCollectionID, []string{
		appwrite.QueryEqual("id", id),
		appwrite.QueryLimit(1),
	})
	if err != nil {
		return nil, err
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}
	return list.Documents[0], nil
}

// transition applies a terminal status to a pending request. Approval sets
// the settlement reference and clears any rejection reason; rejection does
// the inverse.
func (s *WithdrawalService) transition(ctx context.Context, doc appwrite.Document, status, utrNumber, reason string) error {
	if doc.String("status") != models.WithdrawalStatusPending {
		return ErrWithdrawalNotPending
	}

	data := map[string]any{"status": status}
	switch status {
	case models.WithdrawalStatusApproved:
		data["utrNumber"] = utrNumber
		data["rejectionReason"] = nil
	case models.WithdrawalStatusRejected:
		data["rejectionReason"] = reason
		data["utrNumber"] = nil
	}

	_, err := s.store.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.WithdrawalCollectionID, doc.ID(), data)
	return err
}

// Approve moves a pending request to approved with a settlement (UTR)
// reference.
func (s *WithdrawalService) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		UtrNumber string `json:"utrNumber"`
	}
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	req.UtrNumber = strings.TrimSpace(req.UtrNumber)
	if req.ID == "" || len(req.UtrNumber) < 5 {
		SendErrorResponse(w, "Invalid ID or UTR number too short", http.StatusBadRequest, nil)
		return
	}

	doc, err := s.findByBusinessID(r.Context(), req.ID)
	if err != nil {
		log.Printf("[WITHDRAW] Approve lookup failed for %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to approve withdrawal", http.StatusInternalServerError, nil)
		return
	}
	if doc == nil {
		SendErrorResponse(w, "Withdrawal request not found", http.StatusNotFound, nil)
		return
	}

	if err := s.transition(r.Context(), doc, models.WithdrawalStatusApproved, req.UtrNumber, ""); err != nil {
		if errors.Is(err, ErrWithdrawalNotPending) {
			SendErrorResponse(w, "Withdrawal request is not pending", http.StatusConflict, nil)
			return
		}
		log.Printf("[WITHDRAW] Approve failed for %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to approve withdrawal", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Withdrawal approved"})
}

// Reject moves a pending request to rejected with a reason.
func (s *WithdrawalService) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	}
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.ID == "" || len(req.Reason) < 4 {
		SendErrorResponse(w, "Invalid ID or reason too short", http.StatusBadRequest, nil)
		return
	}

	doc, err := s.findByBusinessID(r.Context(), req.ID)
	if err != nil {
		log.Printf("[WITHDRAW] Reject lookup failed for %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to reject withdrawal", http.StatusInternalServerError, nil)
		return
	}
	if doc == nil {
		SendErrorResponse(w, "Withdrawal request not found", http.StatusNotFound, nil)
		return
	}

	if err := s.transition(r.Context(), doc, models.WithdrawalStatusRejected, "", req.Reason); err != nil {
		if errors.Is(err, ErrWithdrawalNotPending) {
			SendErrorResponse(w, "Withdrawal request is not pending", http.StatusConflict, nil)
			return
		}
		log.Printf("[WITHDRAW] Reject failed for %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to reject withdrawal", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Withdrawal rejected"})
}

// GetApproved resolves an approved bank-mode withdrawal for settlement
// export.
func (s *WithdrawalService) GetApproved(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	doc, err := s.findByBusinessID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	withdrawal := docToWithdrawal(doc)
	return &withdrawal, nil
}
