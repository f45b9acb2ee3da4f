package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
)

// RegisterInput carries the sign-up request data.
type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// VerifyEmailInput carries the OTP confirmation request.
type VerifyEmailInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=4,max=10"`
}

// LoginInput carries the credential check request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public account representation.
type UserView struct {
	ID            uuid.UUID        `json:"id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"first_name"`
	LastName      string           `json:"last_name"`
	Phone         *string          `json:"phone,omitempty"`
	Role          enums.MemberRole `json:"role"`
	EmailVerified bool             `json:"email_verified"`
	CreatedAt     time.Time        `json:"created_at"`
}

// SessionResult is returned on login and refresh. The controller moves the
// access token into the auth cookie; the refresh token goes to the body.
type SessionResult struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserView  `json:"user"`
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}
