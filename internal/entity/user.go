package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleSales    = "sales"
	RoleAdmin    = "admin"
)

// User is an account able to authenticate and own orders.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:",pk,autoincrement"`
	Email        string    `bun:"email,unique,notnull"`
	Name         string    `bun:"name"`
	Role         string    `bun:"role,notnull"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

// IsAdmin reports whether the user has administrative rights.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsStaff reports whether the user works the back office (sales or admin).
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSales)
}
