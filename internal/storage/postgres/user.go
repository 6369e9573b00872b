package postgres

import (
	"context"
	"errors"
	"fmt"

	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `
	u.id, u.username, u.name, u.email, u.hashed_password, u.salt, u.role,
	u.reset_password_link,
	COALESCE(array_agg(uc.category_id) FILTER (WHERE uc.category_id IS NOT NULL), '{}'),
	u.created_at, u.updated_at
`

// SaveUser inserts the user together with its category subscriptions. The
// unique indexes on email and username are the last line of defense against
// two activations racing for the same pending registration.
func (r *Repo) SaveUser(ctx context.Context, u models.User) (int64, error) {
	const op = "storage.postgres.SaveUser"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (username, name, email, hashed_password, salt, role, reset_password_link)
		VALUES ($1, $2, $3, $4, $5, $6, '')
		RETURNING id;
	`

	var id int64

	err = tx.QueryRow(ctx, query, u.Username, u.Name, u.Email, u.HashedPassword, u.Salt, u.Role).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	for _, categoryID := range u.Categories {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_categories (user_id, category_id) VALUES ($1, $2)`,
			id, categoryID,
		)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to save subscription: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *Repo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN user_categories uc ON uc.user_id = u.id
		WHERE u.email = $1
		GROUP BY u.id;
	`, userColumns)

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *Repo) UserByID(ctx context.Context, id int64) (models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN user_categories uc ON uc.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id;
	`, userColumns)

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UserByResetLink matches on the exact outstanding token. A stale or
// superseded reset token no longer matches any row.
func (r *Repo) UserByResetLink(ctx context.Context, resetLink string) (models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN user_categories uc ON uc.user_id = u.id
		WHERE u.reset_password_link = $1
		GROUP BY u.id;
	`, userColumns)

	return r.scanUser(r.pool.QueryRow(ctx, query, resetLink))
}

func (r *Repo) SetResetLink(ctx context.Context, userID int64, resetLink string) error {
	const op = "storage.postgres.SetResetLink"

	query := `UPDATE users SET reset_password_link = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, resetLink, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// ResetPassword stores a fresh credential pair and clears the consumed reset
// link in one statement.
func (r *Repo) ResetPassword(ctx context.Context, userID int64, hashedPassword, salt string) error {
	const op = "storage.postgres.ResetPassword"

	query := `
		UPDATE users
		SET hashed_password = $1, salt = $2, reset_password_link = '', updated_at = NOW()
		WHERE id = $3
	`

	tag, err := r.pool.Exec(ctx, query, hashedPassword, salt, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// UpdateUser patches name and, when non-empty, the credential pair, then
// replaces the category subscriptions.
func (r *Repo) UpdateUser(ctx context.Context, userID int64, name, hashedPassword, salt string, categories []int64) (models.User, error) {
	const op = "storage.postgres.UpdateUser"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE users
		SET name = $1,
		    hashed_password = CASE WHEN $2 = '' THEN hashed_password ELSE $2 END,
		    salt = CASE WHEN $2 = '' THEN salt ELSE $3 END,
		    updated_at = NOW()
		WHERE id = $4
	`

	tag, err := tx.Exec(ctx, query, name, hashedPassword, salt, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, storage.ErrUserNotFound
	}

	if categories != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM user_categories WHERE user_id = $1`, userID); err != nil {
			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}

		for _, categoryID := range categories {
			_, err = tx.Exec(ctx,
				`INSERT INTO user_categories (user_id, category_id) VALUES ($1, $2)`,
				userID, categoryID,
			)
			if err != nil {
				return models.User{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return r.UserByID(ctx, userID)
}

// UsersByCategories lists users subscribed to at least one of the given
// categories, for new-link notifications.
func (r *Repo) UsersByCategories(ctx context.Context, categoryIDs []int64) ([]models.User, error) {
	const op = "storage.postgres.UsersByCategories"

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN user_categories uc ON uc.user_id = u.id
		WHERE u.id IN (
			SELECT DISTINCT user_id FROM user_categories WHERE category_id = ANY($1)
		)
		GROUP BY u.id;
	`, userColumns)

	rows, err := r.pool.Query(ctx, query, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *Repo) scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.HashedPassword,
		&u.Salt,
		&u.Role,
		&u.ResetPasswordLink,
		&u.Categories,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}
