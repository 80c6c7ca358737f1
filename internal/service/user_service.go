package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"

	"rmc-erp/internal/account"
	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrApprovalPending    = errors.New("Admin approval pending")
)

type UserService struct {
	repo     UserStore
	sessions *session.Store
	tokens   *session.TokenIssuer
	ids      *snowflake.Node
	now      func() time.Time
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, sessions *session.Store, tokens *session.TokenIssuer, ids *snowflake.Node) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		ids:      ids,
		now:      time.Now,
	}
}

// Register validates the form and stores a new account. Admin registrations start
// out pending approval.
func (s *UserService) Register(ctx context.Context, reg account.Registration) (*entity.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	reg = reg.Normalize()

	if err := s.ensureEmailFree(ctx, reg.Email); err != nil {
		return nil, err
	}
	if err := s.ensureNumberFree(ctx, reg.Number); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:             s.ids.Generate().Int64(),
		Name:           reg.Name,
		Email:          reg.Email,
		Number:         reg.Number,
		Address:        sanitize(reg.Address),
		Role:           reg.Role,
		ApprovalStatus: account.InitialApproval(reg.Role),
		PasswordHash:   string(hash),
	}
	if err := s.repo.CreateUser(ctx, user, s.now()); err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return apperr.Validation("Email already exists")
	case errors.Is(err, apperr.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *UserService) ensureNumberFree(ctx context.Context, number string) error {
	_, err := s.repo.GetUserByNumber(ctx, number)
	switch {
	case err == nil:
		return apperr.Validation("Mobile number already exists")
	case errors.Is(err, apperr.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// LoginResult is the authenticated user with a fresh session token.
type LoginResult struct {
	User  *entity.User
	Token string
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if session.NormalizeRole(user.Role) == entity.RoleAdmin && user.ApprovalStatus != entity.ApprovalApproved {
		return nil, ErrApprovalPending
	}

	// After validation, generate JWT token
	token, err := s.tokens.Issue(*user, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, user.ID, token); err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

func (s *UserService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Revoke(ctx, userID)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the profile form. Email and number must stay unique.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, p account.ProfileUpdate) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p = p.Normalize()

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(p.Email, user.Email) {
		if err := s.ensureEmailFree(ctx, p.Email); err != nil {
			return err
		}
	}
	if p.Number != user.Number {
		if err := s.ensureNumberFree(ctx, p.Number); err != nil {
			return err
		}
	}

	user.Name = sanitize(p.Name)
	user.Email = p.Email
	user.Number = p.Number
	if p.Address != nil {
		user.Address = sanitize(*p.Address)
	}
	return s.repo.UpdateProfile(ctx, user)
}

func (s *UserService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) ListPendingAdmins(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListPendingAdmins(ctx)
}

func (s *UserService) ApproveAdmin(ctx context.Context, id int64) error {
	return s.setAdminApproval(ctx, id, entity.ApprovalApproved)
}

func (s *UserService) RejectAdmin(ctx context.Context, id int64) error {
	return s.setAdminApproval(ctx, id, entity.ApprovalRejected)
}

func (s *UserService) setAdminApproval(ctx context.Context, id int64, status string) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != entity.RoleAdmin {
		return apperr.Validation("User is not an admin")
	}
	if err := s.repo.UpdateApprovalStatus(ctx, id, status); err != nil {
		return err
	}
	if status != entity.ApprovalApproved {
		// A rejected admin loses any live session.
		return s.sessions.Revoke(ctx, id)
	}
	return nil
}
