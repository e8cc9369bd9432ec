package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

// AuthService handles account registration, login, and token issuance.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

// NewAuthService creates an AuthService. jwtSecretKey must come from
// configuration; jwtExpiryHours defaults to 24 when non-positive.
func NewAuthService(userRepo repository.UserRepository, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecretKey),
		jwtExpiry: time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Register creates an account and returns it together with a fresh token.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*domain.User, string, error) {
	logCtx := logrus.WithField("email", email)

	if email == "" || password == "" || displayName == "" {
		return nil, "", ErrRegistrationFailed
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		logCtx.Warn("Registration failed: email already registered")
		return nil, "", ErrRegistrationFailed
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error checking for existing user")
		return nil, "", ErrInternalServer
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, "", ErrInternalServer
	}

	user := &domain.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Password:    hashedPassword,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: email already exists")
			return nil, "", ErrRegistrationFailed
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, "", ErrInternalServer
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token after registration")
		return nil, "", ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.Password = ""
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	logCtx := logrus.WithField("email", email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		return nil, "", ErrAuthenticationFailed
	}
	if user == nil {
		logCtx.Warn("Login attempt failed: repository returned nil user without error")
		return nil, "", ErrAuthenticationFailed
	}

	if !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, "", ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return nil, "", ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	user.Password = ""
	return user, token, nil
}

// GetUser loads one account by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user")
		return nil, ErrInternalServer
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile changes display name and/or email. Empty fields are left
// untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, displayName, email string) (*domain.User, error) {
	logCtx := logrus.WithField("user_id", userID)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Failed to load user for profile update")
		return nil, ErrInternalServer
	}

	if email != "" && email != user.Email {
		if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
			return nil, ErrRegistrationFailed
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			logCtx.WithError(err).Error("Failed to check email availability")
			return nil, ErrInternalServer
		}
		user.Email = email
	}
	if displayName != "" {
		user.DisplayName = displayName
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrRegistrationFailed
		}
		logCtx.WithError(err).Error("Failed to save profile update")
		return nil, ErrInternalServer
	}

	logCtx.Info("Profile updated")
	user.Password = ""
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	logCtx := logrus.WithField("user_id", userID)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		logCtx.WithError(err).Error("Failed to load user for password change")
		return ErrInternalServer
	}

	if !checkPassword(currentPassword, user.Password) {
		logCtx.Warn("Password change rejected: current password incorrect")
		return ErrAuthenticationFailed
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash new password")
		return ErrInternalServer
	}
	user.Password = hashed

	if err := s.userRepo.Save(ctx, user); err != nil {
		logCtx.WithError(err).Error("Failed to save new password")
		return ErrInternalServer
	}
	logCtx.Info("Password changed")
	return nil
}

// ValidateToken parses a bearer token and returns the user id claim.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token or claims type")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("token missing user_id claim")
	}
	return userID, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *AuthService) generateJWT(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
