package models

import "time"

// User is an operations dashboard account. Tasks reference users as
// assignee and creator; directors and admins decide extension requests.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         UserRole  `json:"role"`
	Agency       string    `json:"agency,omitempty"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanDecideExtensions reports whether the user's role allows deciding
// extension requests.
func (u User) CanDecideExtensions() bool {
	return u.Role == RoleDirector || u.Role == RoleAdmin
}
