package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"microblog/internal/mail"
	"microblog/internal/models"
	"microblog/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// resetTokenTTL bounds how long a password-reset link stays usable.
const resetTokenTTL = 10 * time.Minute

// PasswordResetService issues and verifies signed password-reset tokens and
// sends the reset email.
type PasswordResetService struct {
	identity *IdentityService
	mailer   mail.Mailer
	secret   []byte
	baseURL  string
	now      func() time.Time
}

// NewPasswordResetService returns a new PasswordResetService.
func NewPasswordResetService(identity *IdentityService, mailer mail.Mailer, secret, baseURL string) *PasswordResetService {
	return &PasswordResetService{
		identity: identity,
		mailer:   mailer,
		secret:   []byte(secret),
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// GenerateToken mints a signed reset token for the user.
func (s *PasswordResetService) GenerateToken(userID uint) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"reset_password": strconv.FormatUint(uint64(userID), 10),
		"exp":            now.Add(resetTokenTTL).Unix(),
		"iat":            now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// VerifyToken returns the user ID a valid, unexpired reset token was issued
// for. Invalid or expired tokens resolve to an unauthorized error.
func (s *PasswordResetService) VerifyToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return 0, models.NewUnauthorizedError("Invalid or expired reset token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, models.NewUnauthorizedError("Invalid reset token claims")
	}
	sub, ok := claims["reset_password"].(string)
	if !ok {
		return 0, models.NewUnauthorizedError("Invalid reset token claims")
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid reset token claims")
	}
	return uint(id), nil
}

// RequestReset sends a reset link to the account with the given email. An
// unknown email is treated as success so the endpoint does not leak which
// addresses are registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.identity.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	msg := mail.Email{
		To:      []string{user.Email},
		Subject: "[microblog] Reset Your Password",
		Body: fmt.Sprintf(
			"Dear %s,\n\nTo reset your password visit the following link:\n\n%s\n\n"+
				"If you have not requested a password reset simply ignore this message.\n",
			user.Username, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Reset mail failure is not the caller's fault; log and move on.
		observability.Logger.ErrorContext(ctx, "failed to send password reset email", "error", err)
	}
	return nil
}

// ConfirmReset validates the token and applies the new password.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, tokenString, newPassword string) error {
	userID, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	return s.identity.SetPassword(ctx, userID, newPassword)
}
