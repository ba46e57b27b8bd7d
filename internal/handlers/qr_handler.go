package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scanpay/backend/internal/services"
)

type QRHandler struct {
	service   *services.QRService
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ListQRCodes returns every QR record, newest first.
func (h *QRHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListQRCodes(r.Context())
	if err != nil {
		log.Printf("[QR] Failed to fetch qr codes: %v", err)
		services.SendErrorResponse(w, "Failed to fetch QR codes.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, codes)
}

// CreateEntry registers a new QR code record.
func (h *QRHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QrID      string `json:"qrId" validate:"required"`
		FileID    string `json:"fileId"`
		ImageURL  string `json:"imageUrl"`
		CreatedAt string `json:"createdAt"`
	}

	if err := services.DecodeJSONBody(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Missing required field: qrId.", http.StatusBadRequest, err)
		return
	}
	// fileId and imageUrl travel together; the server renders an image when
	// both are absent.
	if (req.FileID == "") != (req.ImageURL == "") {
		services.SendErrorResponse(w, "fileId and imageUrl must be supplied together.", http.StatusBadRequest, nil)
		return
	}

	code, err := h.service.CreateEntry(r.Context(), req.QrID, req.FileID, req.ImageURL, req.CreatedAt)
	if err != nil {
		log.Printf("[QR] Failed to create qr entry: %v", err)
		services.SendErrorResponse(w, "Failed to create QR code entry.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusCreated, map[string]any{
		"message": "QR Code entry created successfully.",
		"qrCode":  code,
	})
}

// DeleteQRCode removes a QR record and its stored image.
func (h *QRHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	qrID := chi.URLParam(r, "qrId")

	if err := h.service.DeleteQRCode(r.Context(), qrID); err != nil {
		if errors.Is(err, services.ErrQRCodeNotFound) {
			services.SendErrorResponse(w, "QR Code not found.", http.StatusNotFound, nil)
			return
		}
		log.Printf("[QR] Failed to delete qr code %s: %v", qrID, err)
		services.SendErrorResponse(w, "Failed to delete QR code.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]string{
		"message": "QR Code and file deleted successfully.",
	})
}

// ToggleStatus flips the active flag of a QR record.
func (h *QRHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	qrID := chi.URLParam(r, "qrId")

	var req struct {
		IsActive *bool `json:"isActive" validate:"required"`
	}
	if err := services.DecodeJSONBody(w, r, &req); err != nil || req.IsActive == nil {
		services.SendErrorResponse(w, "Invalid value for 'isActive'.", http.StatusBadRequest, nil)
		return
	}

	if err := h.service.SetActive(r.Context(), qrID, *req.IsActive); err != nil {
		if errors.Is(err, services.ErrQRCodeNotFound) {
			services.SendErrorResponse(w, "QR Code not found.", http.StatusNotFound, nil)
			return
		}
		log.Printf("[QR] Failed to toggle qr status %s: %v", qrID, err)
		services.SendErrorResponse(w, "Failed to update QR code status.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]string{
		"message": "QR Code status updated successfully.",
	})
}

// AssignUser links or unlinks a user from a QR record. An empty
// assignedUserId clears the assignment.
func (h *QRHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	qrID := chi.URLParam(r, "qrId")

	var req struct {
		AssignedUserID string `json:"assignedUserId"`
	}
	if err := services.DecodeJSONBody(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.service.AssignUser(r.Context(), qrID, req.AssignedUserID); err != nil {
		if errors.Is(err, services.ErrQRCodeNotFound) {
			services.SendErrorResponse(w, "QR Code not found.", http.StatusNotFound, nil)
			return
		}
		log.Printf("[QR] Failed to update assignment for %s: %v", qrID, err)
		services.SendErrorResponse(w, "Failed to update user assignment.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]string{
		"message": "User assignment updated successfully.",
	})
}

// ListUserQRCodes returns the QR records assigned to one user.
func (h *QRHandler) ListUserQRCodes(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		services.SendErrorResponse(w, "Missing userId parameter", http.StatusBadRequest, nil)
		return
	}

	codes, err := h.service.ListUserQRCodes(r.Context(), userID)
	if err != nil {
		log.Printf("[QR] Failed to fetch qr codes for user %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to fetch user QR codes.", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, codes)
}
