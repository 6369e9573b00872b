package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"linkshare/internal/lib/password"
	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users map[int64]*models.User
	links map[int64][]models.Link
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[int64]*models.User{},
		links: map[int64][]models.Link{},
	}
}

func (s *fakeStore) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return *u, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, userID int64, name, hashedPassword, salt string, categories []int64) (models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	u.Name = name
	u.Categories = categories
	if hashedPassword != "" {
		u.HashedPassword = hashedPassword
		u.Salt = salt
	}

	return *u, nil
}

func (s *fakeStore) LinksByUser(_ context.Context, userID int64) ([]models.Link, error) {
	return s.links[userID], nil
}

func newService(store *fakeStore) *Users {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, store, store)
}

func seedUser(store *fakeStore) *models.User {
	hash, salt := password.Set("secret123")
	u := &models.User{
		ID:             1,
		Username:       "ab12cd",
		Name:           "Misha",
		Email:          "misha@example.com",
		HashedPassword: hash,
		Salt:           salt,
		Role:           models.RoleSubscriber,
		Categories:     []int64{2, 3},
	}
	store.users[u.ID] = u
	return u
}

func TestProfile(t *testing.T) {
	store := newFakeStore()
	seedUser(store)
	store.links[1] = []models.Link{{ID: 9, Title: "A link", PostedBy: 1}}

	view, err := newService(store).Profile(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Misha", view.User.Name)
	assert.Equal(t, "ab12cd", view.Username)
	assert.Equal(t, []int64{2, 3}, view.Categories)
	require.Len(t, view.Links, 1)
	assert.Equal(t, int64(9), view.Links[0].ID)
}

func TestProfile_UnknownUser(t *testing.T) {
	_, err := newService(newFakeStore()).Profile(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdate_WithoutPassword(t *testing.T) {
	store := newFakeStore()
	seeded := seedUser(store)
	oldHash := seeded.HashedPassword

	updated, err := newService(store).Update(context.Background(), 1, "New Name", "", []int64{5})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, oldHash, store.users[1].HashedPassword)
	assert.Equal(t, []int64{5}, store.users[1].Categories)
	assert.True(t, password.Authenticate("secret123", store.users[1].HashedPassword, store.users[1].Salt))
}

func TestUpdate_WithPassword(t *testing.T) {
	store := newFakeStore()
	seedUser(store)

	_, err := newService(store).Update(context.Background(), 1, "Misha", "newsecret", []int64{2, 3})
	require.NoError(t, err)

	stored := store.users[1]
	assert.False(t, password.Authenticate("secret123", stored.HashedPassword, stored.Salt))
	assert.True(t, password.Authenticate("newsecret", stored.HashedPassword, stored.Salt))
}

func TestUpdate_UnknownUser(t *testing.T) {
	_, err := newService(newFakeStore()).Update(context.Background(), 42, "Name", "", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
