package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email         string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  string           `gorm:"column:password_hash;not null"`
	FirstName     string           `gorm:"column:first_name;not null"`
	LastName      string           `gorm:"column:last_name;not null"`
	Phone         *string          `gorm:"column:phone"`
	Role          enums.MemberRole `gorm:"column:role;type:text;not null;default:'customer'"`
	EmailVerified bool             `gorm:"column:email_verified;not null;default:false"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt   *time.Time       `gorm:"column:last_login_at"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
