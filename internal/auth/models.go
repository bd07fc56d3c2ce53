package auth

import "time"

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	PasswordHash     string    `json:"-"`
	FullName         string    `json:"full_name"`
	EmergencyMessage string    `json:"emergency_message"`
	CreatedAt        time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	EmergencyMessage string `json:"emergency_message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Phone            *string `json:"phone"`
	FullName         *string `json:"full_name"`
	EmergencyMessage *string `json:"emergency_message"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
