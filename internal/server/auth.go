package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/idgen"
	"github.com/Self-Labs/pmes/internal/model"
)

// resetTokenTTL bounds how long a password reset link stays valid.
const resetTokenTTL = time.Hour

// errBadCredentials is returned by login for an unknown email or a wrong
// password. The two cases are deliberately indistinguishable.
var errBadCredentials = errors.New("invalid credentials")

// login verifies credentials and returns a signed session token plus the
// account. Inactive (not yet approved) accounts cannot log in.
func (s *RosterServer) login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, errBadCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, errBadCredentials
	}
	if !user.Active {
		return "", nil, permissionError("account pending approval")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

type signupInput struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	UnitID   string `json:"unidade_id"`
}

// signup registers a new editor account bound to an existing unit. The
// account stays inactive until an administrator approves it; a UserSignup
// event carries the request to whoever does the approving.
func (s *RosterServer) signup(ctx context.Context, in signupInput) (*model.User, error) {
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.UnitID == "" {
		return nil, inputError("unidade_id is required")
	}

	unit, err := s.store.GetUnit(ctx, in.UnitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inputError("unknown unit " + in.UnitID)
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, conflictError("email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	id, err := idgen.Generate(idgen.PrefixUser)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleEditor,
		UnitID:       &in.UnitID,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := model.ValidateUser(user); err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, events.TopicUserSignup, events.UserSignup{User: user, UnitSigla: unit.Sigla})
	return user, nil
}

// requestPasswordReset issues a single-use reset token for the account with
// the given email. Unknown emails are ignored without error so the endpoint
// does not reveal which addresses exist.
func (s *RosterServer) requestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	plaintext, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	reset := &model.PasswordReset{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.store.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	s.publish(ctx, events.TopicPasswordResetRequested, events.PasswordResetRequested{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     plaintext,
		ExpiresAt: reset.ExpiresAt.Format(time.RFC3339),
	})
	return nil
}

// resetPassword consumes a reset token and replaces the account password.
func (s *RosterServer) resetPassword(ctx context.Context, token, newPassword string) error {
	if err := model.ValidatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.store.ConsumePasswordReset(ctx, auth.HashResetToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return inputError("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("consume password reset: %w", err)
	}

	user, err := s.store.GetUser(ctx, reset.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// updateProfile lets an authenticated user change their own name, email, or
// password. Changing the password requires the current one; a session token
// alone is not enough.
func (s *RosterServer) updateProfile(ctx context.Context, userID string, name, email, password, currentPassword *string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if name != nil {
		user.Name = strings.TrimSpace(*name)
	}
	if email != nil {
		next := strings.ToLower(strings.TrimSpace(*email))
		if next != user.Email {
			if _, err := s.store.GetUserByEmail(ctx, next); err == nil {
				return nil, conflictError("email already registered")
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("check email: %w", err)
			}
			user.Email = next
		}
	}
	if password != nil {
		if currentPassword == nil || !auth.CheckPassword(user.PasswordHash, *currentPassword) {
			return nil, inputError("current password is incorrect")
		}
		if err := model.ValidatePassword(*password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := model.ValidateUser(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
