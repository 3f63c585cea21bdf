package models

import "time"

// Roles assignable to a user. Every account starts as a voter; promotion
// to admin is an admin-only operation.
const (
	RoleAdmin = "admin"
	RoleVoter = "voter"
)

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:voter" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated identity attached to each request by the
// auth middleware. Handlers receive it explicitly instead of reading
// ambient session state.
type Principal struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin voter"`
}
