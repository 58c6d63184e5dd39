package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/config"
	"rentstore/internal/logger"
	"rentstore/internal/models"
	"rentstore/internal/notify"
	"rentstore/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// maxResetAttempts wrong guesses invalidate an issued reset code.
	maxResetAttempts = 5
)

// RegisterInput holds the fields a new account is created from.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UpdateProfileInput changes only the non-nil fields. NewPassword requires CurrentPassword.
type UpdateProfileInput struct {
	FirstName         *string
	LastName          *string
	Phone             *string
	NotificationEmail *string
	WhatsAppPhone     *string
	PreferredChannel  *models.Channel
	CurrentPassword   string
	NewPassword       string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	sender     notify.Sender
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	resetTTL   time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sender notify.Sender, jwtCfg config.JWTConfig, resetTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		sender:     sender,
		jwtSecret:  []byte(jwtCfg.Secret),
		tokenDurat: jwtCfg.TTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for token and reset code expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// RegisterUser creates a regular account with a hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", apperrors.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, apperrors.ErrValidation)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", email, apperrors.ErrConflict)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashSecret(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:            email,
		Password:         hashed,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Phone:            strings.TrimSpace(in.Phone),
		PreferredChannel: models.ChannelEmail,
		Role:             models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrAuth)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrAuth)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		logger.Debug("token validation failed", "error", err)
		return nil, fmt.Errorf("invalid token: %w: %w", apperrors.ErrAuth, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token: %w", apperrors.ErrAuth)
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies profile and notification preference changes.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&user.FirstName, in.FirstName)
	set(&user.LastName, in.LastName)
	set(&user.Phone, in.Phone)
	set(&user.NotificationEmail, in.NotificationEmail)
	set(&user.WhatsAppPhone, in.WhatsAppPhone)

	if in.PreferredChannel != nil {
		if !in.PreferredChannel.Valid() {
			return nil, fmt.Errorf("unknown notification channel %q: %w", *in.PreferredChannel, apperrors.ErrValidation)
		}
		user.PreferredChannel = *in.PreferredChannel
	}

	if in.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
			return nil, fmt.Errorf("current password is incorrect: %w", apperrors.ErrAuth)
		}
		if len(in.NewPassword) < minPasswordLength {
			return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, apperrors.ErrValidation)
		}
		if user.Password, err = hashSecret(in.NewPassword); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ForgotPassword issues a reset code and sends it over channel. The code is stored hashed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, channel models.Channel) (notify.Result, error) {
	if channel == "" {
		channel = models.ChannelEmail
	}
	if !channel.Valid() {
		return notify.Result{}, fmt.Errorf("unknown notification channel %q: %w", channel, apperrors.ErrValidation)
	}
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return notify.Result{}, err
	}

	code, err := generateResetCode()
	if err != nil {
		return notify.Result{}, err
	}
	hashed, err := hashSecret(code)
	if err != nil {
		return notify.Result{}, err
	}
	expiry := s.now().Add(s.resetTTL)
	user.ResetCode = &hashed
	user.ResetCodeExpiry = &expiry
	user.ResetAttempts = 0
	if err := s.userRepo.Update(ctx, user); err != nil {
		return notify.Result{}, err
	}

	msg, err := notify.ResetCode(code, s.resetTTL)
	if err != nil {
		return notify.Result{}, err
	}
	msg.Channel = channel
	msg.Destination = user.Destination(channel)
	return s.sender.Send(ctx, msg)
}

// ResetPassword checks the code and its expiry, sets the new password and clears the code.
// Every wrong code is counted; after maxResetAttempts the code is discarded.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, apperrors.ErrValidation)
	}
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("invalid reset code: %w", apperrors.ErrAuth)
		}
		return err
	}
	if user.ResetCode == nil || user.ResetCodeExpiry == nil || s.now().After(*user.ResetCodeExpiry) {
		return fmt.Errorf("reset code is invalid or expired: %w", apperrors.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.ResetCode), []byte(strings.TrimSpace(code))); err != nil {
		user.ResetAttempts++
		if user.ResetAttempts >= maxResetAttempts {
			clearResetCode(user)
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return fmt.Errorf("invalid reset code: %w", apperrors.ErrAuth)
	}

	if user.Password, err = hashSecret(newPassword); err != nil {
		return err
	}
	clearResetCode(user)
	return s.userRepo.Update(ctx, user)
}

func clearResetCode(user *models.User) {
	user.ResetCode = nil
	user.ResetCodeExpiry = nil
	user.ResetAttempts = 0
}

// PurgeExpiredResetCodes clears every reset code past its expiry.
func (s *AuthService) PurgeExpiredResetCodes(ctx context.Context) (int64, error) {
	return s.userRepo.ClearExpiredResetCodes(ctx, s.now())
}
