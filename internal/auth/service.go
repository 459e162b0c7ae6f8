// Package auth handles account registration, login, JWT issuance and
// validation, and profile updates.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/voicelog/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadSignupCode      = errors.New("invalid signup code")
	ErrAccountDisabled    = errors.New("account disabled")
)

const tokenLifetime = 24 * time.Hour

// Service handles all authentication operations.
type Service struct {
	db         *gorm.DB
	jwtSecret  []byte
	signupCode string
}

// NewService creates an authentication service. Registration requires the
// configured signup code; an empty code disables the check.
func NewService(db *gorm.DB, jwtSecret []byte, signupCode string) *Service {
	return &Service{db: db, jwtSecret: jwtSecret, signupCode: signupCode}
}

// AuthResponse is what login and registration return.
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Username   string `json:"username" binding:"required,min=3,max=30"`
	Password   string `json:"password" binding:"required,min=8"`
	SignupCode string `json:"signup_code"`
}

// LoginRequest accepts a username or an email in the same field.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account. The signup code gates registration while
// the platform is invite-only.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if s.signupCode != "" && req.SignupCode != s.signupCode {
		return nil, ErrBadSignupCode
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	err = s.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", req.Username).First(&existing).Error
	if err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  req.Username,
		PasswordHash: string(hashed),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateAuthResponse(&user)
}

// Login authenticates by username or email plus password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", req.Login, req.Login).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateAuthResponse(&user)
}

// generateAuthResponse creates the JWT token and auth response.
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(tokenLifetime)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT and returns the fresh user row.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, uint(rawID)).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return &user, nil
}

// ProfileUpdate is a sparse profile edit; nil fields are untouched.
type ProfileUpdate struct {
	DisplayName      *string `json:"display_name"`
	Website          *string `json:"website"`
	Bio              *string `json:"bio"`
	AIBio            *string `json:"ai_bio"`
	AIWritingSamples *string `json:"ai_writing_samples"`
}

// UpdateProfile applies a sparse profile edit.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, upd ProfileUpdate) error {
	updates := map[string]interface{}{}
	if upd.DisplayName != nil {
		updates["display_name"] = *upd.DisplayName
	}
	if upd.Website != nil {
		updates["website"] = *upd.Website
	}
	if upd.Bio != nil {
		updates["bio"] = *upd.Bio
	}
	if upd.AIBio != nil {
		updates["ai_bio"] = *upd.AIBio
	}
	if upd.AIWritingSamples != nil {
		updates["ai_writing_samples"] = *upd.AIWritingSamples
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ChangePassword verifies the current password and replaces it.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", string(hashed)).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// PromoteAdmin grants admin rights to the named user.
func (s *Service) PromoteAdmin(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Update("is_admin", true)
	if res.Error != nil {
		return fmt.Errorf("failed to promote user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
