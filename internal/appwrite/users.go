package appwrite

import (
	"context"
	"fmt"
	"net/http"
)

// User is an account in the project's user directory.
type User struct {
	ID     string   `json:"$id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Status bool     `json:"status"`
	Labels []string `json:"labels"`
}

// UserList is the envelope of the users list call.
type UserList struct {
	Total int64  `json:"total"`
	Users []User `json:"users"`
}

// ListUsers returns every user in the project.
func (c *Client) ListUsers(ctx context.Context) (*UserList, error) {
	var list UserList
	if err := c.do(ctx, "GET", "/users", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateUser registers a new user with an email/password credential.
func (c *Client) CreateUser(ctx context.Context, userID, email, password, name string) (*User, error) {
	body := map[string]any{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	}
	var user User
	if err := c.do(ctx, "POST", "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a single user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, "GET", "/users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateName changes a user's display name.
func (c *Client) UpdateName(ctx context.Context, userID, name string) error {
	return c.do(ctx, "PATCH", "/users/"+userID+"/name", map[string]any{"name": name}, nil)
}

// UpdateEmail changes a user's email address.
func (c *Client) UpdateEmail(ctx context.Context, userID, email string) error {
	return c.do(ctx, "PATCH", "/users/"+userID+"/email", map[string]any{"email": email}, nil)
}

// UpdateLabels replaces a user's label set.
func (c *Client) UpdateLabels(ctx context.Context, userID string, labels []string) error {
	return c.do(ctx, "PUT", "/users/"+userID+"/labels", map[string]any{"labels": labels}, nil)
}

// UpdatePassword sets a new password for the user.
func (c *Client) UpdatePassword(ctx context.Context, userID, password string) error {
	return c.do(ctx, "PATCH", "/users/"+userID+"/password", map[string]any{"password": password}, nil)
}

// UpdateStatus enables or disables the user's account.
func (c *Client) UpdateStatus(ctx context.Context, userID string, status bool) error {
	return c.do(ctx, "PATCH", "/users/"+userID+"/status", map[string]any{"status": status}, nil)
}

// DeleteUser removes the user from the project.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, "DELETE", "/users/"+userID, nil, nil)
}

// GetAccount verifies a user-issued JWT by fetching the account it belongs
// to. The call runs in the user's scope, not the server key's.
func (c *Client) GetAccount(ctx context.Context, jwt string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"/account", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-JWT", jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to appwrite: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
