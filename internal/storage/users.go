package storage

import (
	"context"
	"fmt"
	"strings"

	"famfin/internal/core"
)

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}
	return r.GetUser(ctx, id)
}

const userColumns = `id, name, email, password_hash, created_at`

func scanUser(s scanner) (core.User, error) {
	var u core.User
	var created string
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		return core.User{}, mapErr(err)
	}
	u.CreatedAt, _ = parseTimestamp(created)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateFamilyMember(ctx context.Context, m core.FamilyMember) (core.FamilyMember, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO family_members (user_id, name, relationship) VALUES (?, ?, ?)`,
		m.UserID, m.Name, m.Relationship)
	if err != nil {
		return core.FamilyMember{}, fmt.Errorf("create family member: %w", mapErr(err))
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return core.FamilyMember{}, fmt.Errorf("create family member id: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListFamilyMembers(ctx context.Context, userID int64) ([]core.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, relationship FROM family_members WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	out := make([]core.FamilyMember, 0)
	for rows.Next() {
		var m core.FamilyMember
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Relationship); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteFamilyMember(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM family_members WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete family member %d: %w", id, err)
	}
	return nil
}

// memberOwned reports whether memberID is nil or belongs to userID.
func memberOwned(ctx context.Context, q querier, userID int64, memberID *int64) error {
	if memberID == nil {
		return nil
	}
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM family_members WHERE id = ? AND user_id = ?`, *memberID, userID).Scan(&one)
	if err != nil {
		return fmt.Errorf("family member %d: %w", *memberID, mapErr(err))
	}
	return nil
}
