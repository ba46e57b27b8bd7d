package models

// AdminLabel marks accounts with admin privileges in the auth provider.
const AdminLabel = "admin"

// User is the simplified directory entry returned by the admin endpoints.
type User struct {
	ID     string   `json:"$id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Status bool     `json:"status"`
	Labels []string `json:"labels"`
}

// IsAdmin reports whether the user carries the admin label.
func (u User) IsAdmin() bool {
	for _, label := range u.Labels {
		if label == AdminLabel {
			return true
		}
	}
	return false
}
