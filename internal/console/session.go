// Package console holds the view models of the customer and admin consoles. Views
// fetch through the API client, apply the client-side rules and keep the last result
// for rendering.
package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/client"
	"rmc-erp/internal/session"
)

const currentUserKey = "console:current-user"

var principalFields = []string{"role", "name", "email", "number", "address", "token"}

func fieldKey(userID int64, field string) string {
	return fmt.Sprintf("console:user:%d:%s", userID, field)
}

// Principal is the signed-in user as seen by the console.
type Principal struct {
	UserID  int64
	Role    string
	Name    string
	Email   string
	Number  string
	Address string
	Token   string
}

// Session tracks the signed-in principal and keeps the client's token in step with it.
type Session struct {
	api   *client.Client
	store Store

	mu        sync.RWMutex
	principal *Principal
}

func NewSession(api *client.Client, store Store) *Session {
	return &Session{api: api, store: store}
}

// Login authenticates and persists the principal with its role normalized.
func (s *Session) Login(ctx context.Context, email, password string) (Principal, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{
		UserID:  res.UserID,
		Role:    session.NormalizeRole(res.Role),
		Name:    res.Name,
		Email:   res.Email,
		Number:  res.Number,
		Address: res.Address,
		Token:   res.Token,
	}
	if err := s.save(ctx, p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

func (s *Session) save(ctx context.Context, p Principal) error {
	values := map[string]string{
		"role":    p.Role,
		"name":    p.Name,
		"email":   p.Email,
		"number":  p.Number,
		"address": p.Address,
		"token":   p.Token,
	}
	for _, field := range principalFields {
		if err := s.store.Set(ctx, fieldKey(p.UserID, field), values[field]); err != nil {
			return fmt.Errorf("store session field %s: %w", field, err)
		}
	}
	if err := s.store.Set(ctx, currentUserKey, strconv.FormatInt(p.UserID, 10)); err != nil {
		return fmt.Errorf("store current user: %w", err)
	}

	s.mu.Lock()
	s.principal = &p
	s.mu.Unlock()
	s.api.SetToken(p.Token)
	return nil
}

// Restore reloads a principal persisted by an earlier Login. It reports false when
// nothing is stored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	raw, err := s.store.Get(ctx, currentUserKey)
	if errors.Is(err, ErrNoValue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("stored user id %q: %w", raw, err)
	}

	p := Principal{UserID: userID}
	dst := map[string]*string{
		"role":    &p.Role,
		"name":    &p.Name,
		"email":   &p.Email,
		"number":  &p.Number,
		"address": &p.Address,
		"token":   &p.Token,
	}
	for _, field := range principalFields {
		v, err := s.store.Get(ctx, fieldKey(userID, field))
		if err != nil && !errors.Is(err, ErrNoValue) {
			return false, err
		}
		*dst[field] = v
	}
	if p.Token == "" {
		return false, nil
	}
	p.Role = session.NormalizeRole(p.Role)

	s.mu.Lock()
	s.principal = &p
	s.mu.Unlock()
	s.api.SetToken(p.Token)
	return true, nil
}

// Principal returns the signed-in user, if any.
func (s *Session) Principal() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return Principal{}, false
	}
	return *s.principal, true
}

// Require returns the principal when it holds role.
func (s *Session) Require(role string) (Principal, error) {
	p, ok := s.Principal()
	if !ok {
		return Principal{}, &apperr.AuthorizationError{Required: role}
	}
	if p.Role != role {
		return Principal{}, &apperr.AuthorizationError{Role: p.Role, Required: role}
	}
	return p, nil
}

// RefreshProfile reloads the profile fields from the server.
func (s *Session) RefreshProfile(ctx context.Context) (Principal, error) {
	p, ok := s.Principal()
	if !ok {
		return Principal{}, &apperr.AuthorizationError{}
	}
	profile, err := s.api.GetProfile(ctx, p.UserID)
	if err != nil {
		return Principal{}, err
	}
	p.Name = profile.Name
	p.Email = profile.Email
	p.Number = profile.Number
	p.Address = profile.Address
	if err := s.save(ctx, p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Logout ends the server session and clears every stored field, even when the server
// call fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	p := s.principal
	s.principal = nil
	s.mu.Unlock()

	var apiErr error
	if p != nil {
		apiErr = s.api.Logout(ctx)
	}
	s.api.SetToken("")

	keys := []string{currentUserKey}
	if p != nil {
		for _, field := range principalFields {
			keys = append(keys, fieldKey(p.UserID, field))
		}
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return errors.Join(apiErr, err)
	}
	return apiErr
}
