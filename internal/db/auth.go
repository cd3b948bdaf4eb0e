package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/backend/internal/model"
)

const userColumns = `id::text, username, email, fullname, password_hash, refresh_token_hash, avatar_ref, cover_ref, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.AvatarRef,
		&user.CoverRef,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user. Duplicate username/email fails with ErrUniqueViolation.
func (db *Postgres) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (id, username, email, fullname, password_hash, avatar_ref, cover_ref, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + userColumns
	created, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, user.AvatarRef, user.CoverRef,
	))
	if err != nil {
		return nil, wrapUniqueViolation(err)
	}
	return created, nil
}

// GetUserByLogin matches identifier against username or email.
func (db *Postgres) GetUserByLogin(ctx context.Context, identifier string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $1
		LIMIT 1
	`
	return scanUser(db.Pool.QueryRow(ctx, query, identifier))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1::uuid
	`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

// SwapRefreshTokenHash replaces the stored refresh token hash only if it still
// equals expected (nil meaning no session). It reports whether the swap happened.
func (db *Postgres) SwapRefreshTokenHash(ctx context.Context, userID string, expected, next *string) (bool, error) {
	result, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1::uuid AND refresh_token_hash IS NOT DISTINCT FROM $2
	`, userID, expected, next)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (db *Postgres) ClearRefreshTokenHash(ctx context.Context, userID string) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, updated_at = NOW()
		WHERE id = $1::uuid
	`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1::uuid
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	query := `
		UPDATE users
		SET fullname = $2, email = $3, updated_at = NOW()
		WHERE id = $1::uuid
		RETURNING ` + userColumns
	user, err := scanUser(db.Pool.QueryRow(ctx, query, userID, fullName, email))
	if err != nil {
		return nil, wrapUniqueViolation(err)
	}
	return user, nil
}

// SwapMediaRef stores ref in the slot column and returns the value it replaced,
// in a single statement.
func (db *Postgres) SwapMediaRef(ctx context.Context, userID string, slot model.MediaSlot, ref string) (string, error) {
	column, err := mediaColumn(slot)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`
		UPDATE users AS u
		SET %[1]s = $2, updated_at = NOW()
		FROM (SELECT id, %[1]s FROM users WHERE id = $1::uuid FOR UPDATE) AS prev
		WHERE u.id = prev.id
		RETURNING prev.%[1]s
	`, column)

	var previous string
	if err := db.Pool.QueryRow(ctx, query, userID, ref).Scan(&previous); err != nil {
		return "", err
	}
	return previous, nil
}

func mediaColumn(slot model.MediaSlot) (string, error) {
	switch slot {
	case model.SlotAvatar:
		return "avatar_ref", nil
	case model.SlotCover:
		return "cover_ref", nil
	default:
		return "", fmt.Errorf("invalid media slot: %s", slot)
	}
}
