package categories

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	sl "linkshare/internal/lib/logger"
	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrInvalidImage = errors.New("invalid image payload")
	ErrUploadFailed = errors.New("upload failed")
)

type Store interface {
	SaveCategory(ctx context.Context, c models.Category) (int64, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	UpdateCategory(ctx context.Context, slug, name, content string) (models.Category, error)
	UpdateCategoryImage(ctx context.Context, id int64, imageURL, imageKey string) error
	DeleteCategory(ctx context.Context, id int64) error
	LinksByCategory(ctx context.Context, categoryID int64, limit, skip int) ([]models.Link, error)
}

type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Categories struct {
	log      *slog.Logger
	store    Store
	uploader Uploader
}

func New(log *slog.Logger, store Store, uploader Uploader) *Categories {
	return &Categories{
		log:      log,
		store:    store,
		uploader: uploader,
	}
}

// Create stores a category with its image. The image arrives as a base64
// data URI; it lands in object storage under a random key and only the
// resulting URL and key are persisted.
func (c *Categories) Create(ctx context.Context, postedBy int64, name, content, imageDataURI string) (models.Category, error) {
	const op = "categories.Create"

	log := c.log.With(slog.String("op", op))

	data, ext, err := decodeImage(imageDataURI)
	if err != nil {
		return models.Category{}, ErrInvalidImage
	}

	key := fmt.Sprintf("category/%s.%s", uuid.NewString(), ext)

	url, err := c.uploader.Upload(ctx, key, data, "image/"+ext)
	if err != nil {
		log.Error("failed to upload image", sl.Err(err))
		return models.Category{}, ErrUploadFailed
	}

	category := models.Category{
		Name:     name,
		Slug:     slug.Make(name),
		Content:  content,
		ImageURL: url,
		ImageKey: key,
		PostedBy: postedBy,
	}

	id, err := c.store.SaveCategory(ctx, category)
	if err != nil {
		if errors.Is(err, storage.ErrCategoryExists) {
			return models.Category{}, storage.ErrCategoryExists
		}

		log.Error("failed to save category", sl.Err(err))
		return models.Category{}, fmt.Errorf("%s: %w", op, err)
	}
	category.ID = id

	log.Info("category created", slog.String("slug", category.Slug))

	return category, nil
}

func (c *Categories) List(ctx context.Context) ([]models.Category, error) {
	return c.store.Categories(ctx)
}

// Read returns the category with a page of its links, newest first.
func (c *Categories) Read(ctx context.Context, categorySlug string, limit, skip int) (models.Category, []models.Link, error) {
	const op = "categories.Read"

	category, err := c.store.CategoryBySlug(ctx, categorySlug)
	if err != nil {
		return models.Category{}, nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}

	links, err := c.store.LinksByCategory(ctx, category.ID, limit, skip)
	if err != nil {
		c.log.Error("failed to load category links", slog.String("op", op), sl.Err(err))
		return models.Category{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	return category, links, nil
}

// Update patches name and content; when a new image is supplied, the old
// object is deleted (failure only logged) and the new one uploaded.
func (c *Categories) Update(ctx context.Context, categorySlug, name, content, imageDataURI string) (models.Category, error) {
	const op = "categories.Update"

	log := c.log.With(slog.String("op", op))

	updated, err := c.store.UpdateCategory(ctx, categorySlug, name, content)
	if err != nil {
		return models.Category{}, err
	}

	if imageDataURI == "" {
		return updated, nil
	}

	data, ext, err := decodeImage(imageDataURI)
	if err != nil {
		return models.Category{}, ErrInvalidImage
	}

	if updated.ImageKey != "" {
		if err := c.uploader.Delete(ctx, updated.ImageKey); err != nil {
			log.Warn("failed to delete old image", sl.Err(err))
		}
	}

	key := fmt.Sprintf("category/%s.%s", uuid.NewString(), ext)

	url, err := c.uploader.Upload(ctx, key, data, "image/"+ext)
	if err != nil {
		log.Error("failed to upload image", sl.Err(err))
		return models.Category{}, ErrUploadFailed
	}

	if err := c.store.UpdateCategoryImage(ctx, updated.ID, url, key); err != nil {
		log.Error("failed to save image location", sl.Err(err))
		return models.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	updated.ImageURL = url
	updated.ImageKey = key

	return updated, nil
}

// Delete removes the category row and its stored image.
func (c *Categories) Delete(ctx context.Context, categorySlug string) error {
	const op = "categories.Delete"

	log := c.log.With(slog.String("op", op))

	category, err := c.store.CategoryBySlug(ctx, categorySlug)
	if err != nil {
		return err
	}

	if err := c.store.DeleteCategory(ctx, category.ID); err != nil {
		log.Error("failed to delete category", sl.Err(err))
		return err
	}

	if category.ImageKey != "" {
		if err := c.uploader.Delete(ctx, category.ImageKey); err != nil {
			log.Warn("failed to delete image", sl.Err(err))
		}
	}

	log.Info("category removed", slog.String("slug", categorySlug))

	return nil
}

var dataURIRe = regexp.MustCompile(`^data:image/(\w+);base64,`)

func decodeImage(dataURI string) (data []byte, ext string, err error) {
	m := dataURIRe.FindStringSubmatch(dataURI)
	if m == nil {
		return nil, "", ErrInvalidImage
	}

	raw := strings.TrimPrefix(dataURI, m[0])

	data, err = base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", ErrInvalidImage
	}

	return data, m[1], nil
}
