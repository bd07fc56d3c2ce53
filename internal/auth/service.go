package auth

import (
	"context"
	"errors"
	"time"

	"backend-safetrail/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 24 * time.Hour

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, querier db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     querier,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	if req.Email == "" || req.Password == "" {
		return User{}, TokenResponse{}, errors.New("email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:               uuid.NewString(),
		Email:            req.Email,
		Phone:            req.Phone,
		PasswordHash:     string(hash),
		FullName:         req.FullName,
		EmergencyMessage: req.EmergencyMessage,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, phone, password_hash, full_name, emergency_message)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, user.ID, user.Email, user.Phone, user.PasswordHash, user.FullName, user.EmergencyMessage)
	if err := row.Scan(&user.CreatedAt); err != nil {
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.generateTokens(user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, phone, password_hash, full_name, emergency_message, created_at
		FROM users WHERE email = $1
	`, req.Email)

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Phone, &user.PasswordHash, &user.FullName, &user.EmergencyMessage, &user.CreatedAt); err != nil {
		return User{}, TokenResponse{}, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, errors.New("invalid credentials")
	}

	tokens, err := s.generateTokens(user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, phone, password_hash, full_name, emergency_message, created_at
		FROM users WHERE id = $1
	`, userID)

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Phone, &user.PasswordHash, &user.FullName, &user.EmergencyMessage, &user.CreatedAt); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateProfile patches the fields the request carries; nil fields are
// left untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfileUpdate) (User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.EmergencyMessage != nil {
		user.EmergencyMessage = *patch.EmergencyMessage
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users SET phone=$2, full_name=$3, emergency_message=$4 WHERE id=$1
	`, user.ID, user.Phone, user.FullName, user.EmergencyMessage)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) generateTokens(userID string) (TokenResponse, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
