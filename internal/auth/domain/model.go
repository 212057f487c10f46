// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/auth/token"
)

// User represents an account. Role is fixed for the account's lifetime.
type User struct {
	ID             snowflake.ID       `gorm:"primaryKey" json:"id"`
	Username       string             `gorm:"type:text;not null;uniqueIndex" json:"username"`
	Email          string             `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash   string             `gorm:"type:text;not null" json:"-"`
	Role           authorization.Role `gorm:"type:text;not null;index" json:"role"`
	OrganizationID *snowflake.ID      `gorm:"index" json:"organization_id,omitempty"`
	IsActive       bool               `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Caller returns the authorization identity of the user.
func (u User) Caller() authorization.Caller {
	return authorization.Caller{
		ID:             u.ID,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
}

type LoginResult struct {
	User   *User      `json:"user"`
	Tokens token.Pair `json:"tokens"`
}
