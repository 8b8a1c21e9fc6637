package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"famfin/internal/auth"
	"famfin/internal/core"
	"famfin/internal/log"
	"famfin/internal/storage"
)

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, error) {
	u := core.User{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return core.User{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
		return core.User{}, err
	}
	u.PasswordHash = hash

	u, err = s.store.CreateUser(ctx, u)
	if errors.Is(err, storage.ErrConflict) {
		return core.User{}, fmt.Errorf("%w: email already registered", storage.ErrConflict)
	}
	if err != nil {
		return core.User{}, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentAuth).InfoContext(ctx, "User registered",
		log.NewFields().WithUser(u.ID).WithOperation(log.OpCreate).ToSlice()...)
	return u, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords both yield auth.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, auth.ErrInvalidCredentials
		}
		return core.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAuth).WarnContext(ctx, "Failed login attempt",
			log.FieldUserID, u.ID)
		return core.User{}, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) CreateFamilyMember(ctx context.Context, userID int64, m core.FamilyMember) (core.FamilyMember, error) {
	m.UserID = userID
	if err := m.Validate(); err != nil {
		return core.FamilyMember{}, err
	}
	return s.store.CreateFamilyMember(ctx, m)
}

func (s *Service) ListFamilyMembers(ctx context.Context, userID int64) ([]core.FamilyMember, error) {
	return s.store.ListFamilyMembers(ctx, userID)
}

func (s *Service) DeleteFamilyMember(ctx context.Context, userID, id int64) error {
	return s.store.DeleteFamilyMember(ctx, userID, id)
}
