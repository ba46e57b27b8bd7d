package services

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/models"
)

// UserService exposes the admin user-management endpoints, backed by the
// auth provider's user directory. Accounts carrying the admin label are
// immutable through these routes.
type UserService struct {
	directory UserDirectory
	validator *ValidationHelper
}

func NewUserService(directory UserDirectory) *UserService {
	return &UserService{
		directory: directory,
		validator: NewValidationHelper(),
	}
}

func simplifyUser(u appwrite.User) models.User {
	return models.User{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Status: u.Status,
		Labels: u.Labels,
	}
}

// guardAdminTarget fetches the target user and rejects the operation when it
// is an admin account.
func (s *UserService) guardAdminTarget(ctx context.Context, userID string) (*appwrite.User, bool) {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, false
	}
	return user, !simplifyUser(*user).IsAdmin()
}

// ListUsers returns every directory account in simplified form.
func (s *UserService) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := s.directory.ListUsers(r.Context())
	if err != nil {
		log.Printf("[USERS] List users error: %v", err)
		SendErrorResponse(w, "Failed to fetch users", http.StatusInternalServerError, nil)
		return
	}

	users := make([]models.User, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, simplifyUser(u))
	}
	SendJSON(w, http.StatusOK, users)
}

// CreateUser registers a new account.
func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Name, Email and password are required", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Name, Email and password are required", http.StatusBadRequest, err)
		return
	}

	user, err := s.directory.CreateUser(r.Context(), appwrite.UniqueID(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Printf("[USERS] Create user error: %v", err)
		SendErrorResponse(w, "User creation failed", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user": map[string]string{
			"$id":   user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// EditUser updates name, email and/or labels of a non-admin account.
func (s *UserService) EditUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req struct {
		Name   string    `json:"name"`
		Email  string    `json:"email"`
		Labels *[]string `json:"labels"`
	}
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if req.Name == "" && req.Email == "" && req.Labels == nil {
		SendErrorResponse(w, "User ID and at least one field (name or email or labels) are required", http.StatusBadRequest, nil)
		return
	}

	target, allowed := s.guardAdminTarget(r.Context(), userID)
	if target == nil {
		SendErrorResponse(w, "Failed to update user", http.StatusInternalServerError, nil)
		return
	}
	if !allowed {
		SendErrorResponse(w, "Cannot edit admin users", http.StatusForbidden, nil)
		return
	}

	ctx := r.Context()
	if req.Name != "" {
		if err := s.directory.UpdateName(ctx, userID, req.Name); err != nil {
			log.Printf("[USERS] Update name error for %s: %v", userID, err)
			SendErrorResponse(w, "Failed to update user", http.StatusInternalServerError, nil)
			return
		}
	}
	if req.Email != "" {
		if err := s.directory.UpdateEmail(ctx, userID, req.Email); err != nil {
			log.Printf("[USERS] Update email error for %s: %v", userID, err)
			SendErrorResponse(w, "Failed to update user", http.StatusInternalServerError, nil)
			return
		}
	}
	if req.Labels != nil {
		if err := s.directory.UpdateLabels(ctx, userID, *req.Labels); err != nil {
			log.Printf("[USERS] Update labels error for %s: %v", userID, err)
			SendErrorResponse(w, "Failed to update user", http.StatusInternalServerError, nil)
			return
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

// ResetPassword sets a new password on a non-admin account.
func (s *UserService) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req struct {
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Password must be at least 6 characters", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Password must be at least 6 characters", http.StatusBadRequest, err)
		return
	}

	target, allowed := s.guardAdminTarget(r.Context(), userID)
	if target == nil {
		SendErrorResponse(w, "Failed to reset password", http.StatusInternalServerError, nil)
		return
	}
	if !allowed {
		SendErrorResponse(w, "Cannot reset password for admin users", http.StatusForbidden, nil)
		return
	}

	if err := s.directory.UpdatePassword(r.Context(), userID, req.Password); err != nil {
		log.Printf("[USERS] Reset password error for %s: %v", userID, err)
		SendErrorResponse(w, "Failed to reset password", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// UpdateStatus enables or disables a non-admin account.
func (s *UserService) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId" validate:"required"`
		Status *bool  `json:"status" validate:"required"`
	}
	if err := DecodeJSONBody(w, r, &req); err != nil || req.UserID == "" || req.Status == nil {
		SendErrorResponse(w, "Missing or invalid fields", http.StatusBadRequest, nil)
		return
	}

	target, allowed := s.guardAdminTarget(r.Context(), req.UserID)
	if target == nil {
		SendErrorResponse(w, "Failed to update status", http.StatusInternalServerError, nil)
		return
	}
	if !allowed {
		SendErrorResponse(w, "Forbidden: Cannot change status of admin users", http.StatusForbidden, nil)
		return
	}

	if err := s.directory.UpdateStatus(r.Context(), req.UserID, *req.Status); err != nil {
		log.Printf("[USERS] Status update failed for %s: %v", req.UserID, err)
		SendErrorResponse(w, "Failed to update status", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "status": *req.Status})
}

// DeleteUser removes a non-admin account from the directory.
func (s *UserService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		SendErrorResponse(w, "Missing user ID", http.StatusBadRequest, nil)
		return
	}

	target, allowed := s.guardAdminTarget(r.Context(), userID)
	if target == nil {
		SendErrorResponse(w, "Failed to delete user", http.StatusInternalServerError, nil)
		return
	}
	if !allowed {
		SendErrorResponse(w, "Cannot delete admin users", http.StatusForbidden, nil)
		return
	}

	if err := s.directory.DeleteUser(r.Context(), userID); err != nil {
		log.Printf("[USERS] Delete user error for %s: %v", userID, err)
		SendErrorResponse(w, "Failed to delete user", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
