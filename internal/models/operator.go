package models

import "time"

// Operator is an authenticated account allowed to create records and to
// edit or delete the records it created
type Operator struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"displayName" db:"display_name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"` // "operator" or "administrator"
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

const (
	RoleOperator      = "operator"
	RoleAdministrator = "administrator"
)

// OperatorProfile is the minimal identity returned on login for the client
// to retain. It never carries credentials
type OperatorProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Profile projects an Operator down to its public fields
func (o Operator) Profile() OperatorProfile {
	return OperatorProfile{
		ID:          o.ID,
		Username:    o.Username,
		DisplayName: o.DisplayName,
		Role:        o.Role,
	}
}
