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

const categoryColumns = `
	id, name, slug, content, image_url, image_key, posted_by, created_at, updated_at
`

func (r *Repo) SaveCategory(ctx context.Context, c models.Category) (int64, error) {
	const op = "storage.postgres.SaveCategory"

	query := `
		INSERT INTO categories (name, slug, content, image_url, image_key, posted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, c.Name, c.Slug, c.Content, c.ImageURL, c.ImageKey, c.PostedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, storage.ErrCategoryExists
		}

		return 0, fmt.Errorf("%s: failed to save category: %w", op, err)
	}

	return id, nil
}

func (r *Repo) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.postgres.Categories"

	query := fmt.Sprintf(`SELECT %s FROM categories ORDER BY name;`, categoryColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func (r *Repo) CategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE slug = $1;`, categoryColumns)

	return scanCategory(r.pool.QueryRow(ctx, query, slug))
}

func (r *Repo) CategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error) {
	const op = "storage.postgres.CategoriesByIDs"

	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = ANY($1);`, categoryColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func (r *Repo) UpdateCategory(ctx context.Context, slug, name, content string) (models.Category, error) {
	query := fmt.Sprintf(`
		UPDATE categories
		SET name = $1, content = $2, updated_at = NOW()
		WHERE slug = $3
		RETURNING %s;
	`, categoryColumns)

	return scanCategory(r.pool.QueryRow(ctx, query, name, content, slug))
}

func (r *Repo) UpdateCategoryImage(ctx context.Context, id int64, imageURL, imageKey string) error {
	const op = "storage.postgres.UpdateCategoryImage"

	query := `UPDATE categories SET image_url = $1, image_key = $2, updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, imageURL, imageKey, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrCategoryNotFound
	}

	return nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteCategory"

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrCategoryNotFound
	}

	return nil
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Content,
		&c.ImageURL,
		&c.ImageKey,
		&c.PostedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, storage.ErrCategoryNotFound
		}

		return models.Category{}, err
	}

	return c, nil
}

func scanCategories(rows pgx.Rows) ([]models.Category, error) {
	var categories []models.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
