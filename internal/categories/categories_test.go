package categories

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"

	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	categories map[int64]*models.Category
	nextID     int64
	links      map[int64][]models.Link
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: map[int64]*models.Category{},
		nextID:     1,
		links:      map[int64][]models.Link{},
	}
}

func (s *fakeStore) SaveCategory(_ context.Context, c models.Category) (int64, error) {
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return 0, storage.ErrCategoryExists
		}
	}

	c.ID = s.nextID
	s.nextID++
	s.categories[c.ID] = &c

	return c.ID, nil
}

func (s *fakeStore) Categories(_ context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range s.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) CategoryBySlug(_ context.Context, slug string) (models.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return models.Category{}, storage.ErrCategoryNotFound
}

func (s *fakeStore) UpdateCategory(_ context.Context, slug, name, content string) (models.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			c.Name = name
			c.Content = content
			return *c, nil
		}
	}
	return models.Category{}, storage.ErrCategoryNotFound
}

func (s *fakeStore) UpdateCategoryImage(_ context.Context, id int64, imageURL, imageKey string) error {
	c, ok := s.categories[id]
	if !ok {
		return storage.ErrCategoryNotFound
	}
	c.ImageURL = imageURL
	c.ImageKey = imageKey
	return nil
}

func (s *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := s.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *fakeStore) LinksByCategory(_ context.Context, categoryID int64, limit, skip int) ([]models.Link, error) {
	return s.links[categoryID], nil
}

type fakeUploader struct {
	uploaded map[string][]byte
	deleted  []string
	fail     bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if u.fail {
		return "", io.ErrClosedPipe
	}
	u.uploaded[key] = data
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	delete(u.uploaded, key)
	return nil
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
}

func newService(store *fakeStore, uploader *fakeUploader) *Categories {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), store, uploader)
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	uploader := newFakeUploader()
	svc := newService(store, uploader)

	created, err := svc.Create(context.Background(), 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)

	assert.Equal(t, "node-js", created.Slug)
	assert.Equal(t, int64(1), created.PostedBy)
	assert.True(t, strings.HasPrefix(created.ImageKey, "category/"))
	assert.True(t, strings.HasSuffix(created.ImageKey, ".png"))
	assert.Contains(t, created.ImageURL, created.ImageKey)
	assert.Len(t, uploader.uploaded, 1)
}

func TestCreate_DuplicateSlug(t *testing.T) {
	store := newFakeStore()
	uploader := newFakeUploader()
	svc := newService(store, uploader)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, "Node JS", "Another take", testImage())
	assert.ErrorIs(t, err, storage.ErrCategoryExists)
}

func TestCreate_BadImage(t *testing.T) {
	svc := newService(newFakeStore(), newFakeUploader())

	_, err := svc.Create(context.Background(), 1, "Node JS", "All about Node", "not-a-data-uri")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestCreate_UploadFailure(t *testing.T) {
	uploader := newFakeUploader()
	uploader.fail = true
	svc := newService(newFakeStore(), uploader)

	_, err := svc.Create(context.Background(), 1, "Node JS", "All about Node", testImage())
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUpdate_ReplacesImage(t *testing.T) {
	store := newFakeStore()
	uploader := newFakeUploader()
	svc := newService(store, uploader)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)
	oldKey := created.ImageKey

	updated, err := svc.Update(ctx, "node-js", "Node JS", "Updated content here", testImage())
	require.NoError(t, err)

	assert.NotEqual(t, oldKey, updated.ImageKey)
	assert.Contains(t, uploader.deleted, oldKey)
	assert.Equal(t, "Updated content here", updated.Content)
}

func TestUpdate_WithoutImageKeepsOld(t *testing.T) {
	store := newFakeStore()
	uploader := newFakeUploader()
	svc := newService(store, uploader)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "node-js", "Node", "Updated content here", "")
	require.NoError(t, err)

	assert.Equal(t, created.ImageKey, updated.ImageKey)
	assert.Empty(t, uploader.deleted)
}

func TestDelete_RemovesImage(t *testing.T) {
	store := newFakeStore()
	uploader := newFakeUploader()
	svc := newService(store, uploader)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "node-js"))

	assert.Contains(t, uploader.deleted, created.ImageKey)
	assert.Empty(t, store.categories)
}

func TestRead_PaginationDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, newFakeUploader())
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "Node JS", "All about Node", testImage())
	require.NoError(t, err)
	store.links[created.ID] = []models.Link{{ID: 9, Title: "A link"}}

	category, links, err := svc.Read(ctx, "node-js", 0, -1)
	require.NoError(t, err)

	assert.Equal(t, created.ID, category.ID)
	assert.Len(t, links, 1)
}
