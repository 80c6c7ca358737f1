package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rmc-erp/internal/account"
	"rmc-erp/internal/apperr"
	"rmc-erp/internal/events"
	"rmc-erp/internal/session"
)

type Mailer interface {
	Send(ctx context.Context, m events.Mail) error
}

// PasswordResetService runs the emailed one-time code flow for forgotten passwords.
type PasswordResetService struct {
	users    UserStore
	codes    *session.ResetCodes
	sessions *session.Store
	mailer   Mailer
	now      func() time.Time
}

func NewPasswordResetService(users UserStore, codes *session.ResetCodes, sessions *session.Store, mailer Mailer) *PasswordResetService {
	return &PasswordResetService{
		users:    users,
		codes:    codes,
		sessions: sessions,
		mailer:   mailer,
		now:      time.Now,
	}
}

// resetFailure turns code errors into messages the form can show.
func resetFailure(err error) error {
	if errors.Is(err, session.ErrResetCodeInvalid) || errors.Is(err, session.ErrResetCodeExpired) {
		return apperr.Validation(err.Error())
	}
	return err
}

// RequestReset emails a fresh six digit code to the account holder.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return apperr.Validation("No account found with this email")
	}
	if err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, user.Email, s.now())
	if err != nil {
		return err
	}
	err = s.mailer.Send(ctx, events.Mail{
		To:      user.Email,
		Subject: "RMC ERP Password Reset OTP",
		Body: fmt.Sprintf("Your password reset OTP is: %s\nThis OTP will expire in %d minutes.",
			code, int(session.ResetCodeTTL/time.Minute)),
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error sending reset code to user %d", user.ID)
		s.codes.Clear(ctx, user.Email)
		return err
	}
	return nil
}

// VerifyCode checks a code without spending it, so the form can move on to the new
// password step.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	return resetFailure(s.codes.Check(ctx, email, code, s.now()))
}

// ResetPassword sets a new password when code is still valid, then spends the code
// and ends any live session of the user.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := s.codes.Check(ctx, email, code, s.now()); err != nil {
		return resetFailure(err)
	}
	if err := account.ValidatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.codes.Clear(ctx, email)
	return s.sessions.Revoke(ctx, user.ID)
}
