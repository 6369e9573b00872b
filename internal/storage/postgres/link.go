package postgres

import (
	"context"
	"errors"
	"fmt"

	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/jackc/pgx/v5"
)

const linkColumns = `
	l.id, l.title, l.url, l.slug, l.posted_by, l.type, l.medium, l.clicks,
	COALESCE(array_agg(lc.category_id) FILTER (WHERE lc.category_id IS NOT NULL), '{}'),
	l.created_at, l.updated_at
`

func (r *Repo) SaveLink(ctx context.Context, l models.Link) (int64, error) {
	const op = "storage.postgres.SaveLink"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO links (title, url, slug, posted_by, type, medium)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	var id int64

	err = tx.QueryRow(ctx, query, l.Title, l.URL, l.Slug, l.PostedBy, l.Type, l.Medium).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to save link: %w", op, err)
	}

	for _, categoryID := range l.Categories {
		_, err = tx.Exec(ctx,
			`INSERT INTO link_categories (link_id, category_id) VALUES ($1, $2)`,
			id, categoryID,
		)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to save link category: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *Repo) LinkByID(ctx context.Context, id int64) (models.Link, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		WHERE l.id = $1
		GROUP BY l.id;
	`, linkColumns)

	return scanLink(r.pool.QueryRow(ctx, query, id))
}

// Links lists newest first with limit/skip pagination.
func (r *Repo) Links(ctx context.Context, limit, skip int) ([]models.Link, error) {
	const op = "storage.postgres.Links"

	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		GROUP BY l.id
		ORDER BY l.created_at DESC
		LIMIT $1 OFFSET $2;
	`, linkColumns)

	return r.queryLinks(ctx, op, query, limit, skip)
}

func (r *Repo) LinksByUser(ctx context.Context, userID int64) ([]models.Link, error) {
	const op = "storage.postgres.LinksByUser"

	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		WHERE l.posted_by = $1
		GROUP BY l.id
		ORDER BY l.created_at DESC;
	`, linkColumns)

	return r.queryLinks(ctx, op, query, userID)
}

func (r *Repo) LinksByCategory(ctx context.Context, categoryID int64, limit, skip int) ([]models.Link, error) {
	const op = "storage.postgres.LinksByCategory"

	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		WHERE l.id IN (SELECT link_id FROM link_categories WHERE category_id = $1)
		GROUP BY l.id
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3;
	`, linkColumns)

	return r.queryLinks(ctx, op, query, categoryID, limit, skip)
}

func (r *Repo) UpdateLink(ctx context.Context, l models.Link) (models.Link, error) {
	const op = "storage.postgres.UpdateLink"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Link{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE links
		SET title = $1, url = $2, slug = $3, type = $4, medium = $5, updated_at = NOW()
		WHERE id = $6
	`

	tag, err := tx.Exec(ctx, query, l.Title, l.URL, l.Slug, l.Type, l.Medium, l.ID)
	if err != nil {
		return models.Link{}, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Link{}, storage.ErrLinkNotFound
	}

	if l.Categories != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM link_categories WHERE link_id = $1`, l.ID); err != nil {
			return models.Link{}, fmt.Errorf("%s: %w", op, err)
		}

		for _, categoryID := range l.Categories {
			_, err = tx.Exec(ctx,
				`INSERT INTO link_categories (link_id, category_id) VALUES ($1, $2)`,
				l.ID, categoryID,
			)
			if err != nil {
				return models.Link{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Link{}, fmt.Errorf("%s: %w", op, err)
	}

	return r.LinkByID(ctx, l.ID)
}

func (r *Repo) DeleteLink(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteLink"

	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrLinkNotFound
	}

	return nil
}

func (r *Repo) IncrementClicks(ctx context.Context, id int64) (models.Link, error) {
	const op = "storage.postgres.IncrementClicks"

	tag, err := r.pool.Exec(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return models.Link{}, fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return models.Link{}, storage.ErrLinkNotFound
	}

	return r.LinkByID(ctx, id)
}

func (r *Repo) PopularLinks(ctx context.Context, limit int) ([]models.Link, error) {
	const op = "storage.postgres.PopularLinks"

	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		GROUP BY l.id
		ORDER BY l.clicks DESC
		LIMIT $1;
	`, linkColumns)

	return r.queryLinks(ctx, op, query, limit)
}

func (r *Repo) PopularLinksInCategory(ctx context.Context, categoryID int64, limit int) ([]models.Link, error) {
	const op = "storage.postgres.PopularLinksInCategory"

	query := fmt.Sprintf(`
		SELECT %s
		FROM links l
		LEFT JOIN link_categories lc ON lc.link_id = l.id
		WHERE l.id IN (SELECT link_id FROM link_categories WHERE category_id = $1)
		GROUP BY l.id
		ORDER BY l.clicks DESC
		LIMIT $2;
	`, linkColumns)

	return r.queryLinks(ctx, op, query, categoryID, limit)
}

func (r *Repo) queryLinks(ctx context.Context, op, query string, args ...any) ([]models.Link, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		links = append(links, l)
	}

	return links, rows.Err()
}

func scanLink(row pgx.Row) (models.Link, error) {
	var l models.Link
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.URL,
		&l.Slug,
		&l.PostedBy,
		&l.Type,
		&l.Medium,
		&l.Clicks,
		&l.Categories,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Link{}, storage.ErrLinkNotFound
		}

		return models.Link{}, err
	}

	return l, nil
}
