package model

// Role is the server-assigned authorization role of a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// User is the profile returned alongside the access token at login.
// It is persisted in the session store and consulted to gate admin-only UI.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	Active        bool   `json:"isActive"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserBrief is the compact user shape embedded in tasks, comments, and
// activity-log entries, and returned by the assignee lookup endpoint.
type UserBrief struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}
