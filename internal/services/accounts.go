package services

import (
	"context"

	"famfin/internal/core"
)

func (s *Service) CreateAccount(ctx context.Context, userID int64, a core.Account) (core.Account, error) {
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.invalidate(ctx, userID)
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

// UpdateAccount renames or retypes an account. The balance is owned by the
// transactions posted against it and is never taken from the request.
func (s *Service) UpdateAccount(ctx context.Context, userID int64, a core.Account) (core.Account, error) {
	current, err := s.store.GetAccount(ctx, userID, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	current.Name = a.Name
	current.Type = a.Type
	if err := current.Validate(); err != nil {
		return core.Account{}, err
	}
	updated, err := s.store.UpdateAccount(ctx, current)
	if err != nil {
		return core.Account{}, err
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}
