package links

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	links      map[int64]*models.Link
	nextID     int64
	categories map[int64]models.Category
	users      []models.User
	saveErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links:      map[int64]*models.Link{},
		nextID:     1,
		categories: map[int64]models.Category{},
	}
}

func (s *fakeStore) SaveLink(_ context.Context, l models.Link) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}

	l.ID = s.nextID
	s.nextID++
	s.links[l.ID] = &l

	return l.ID, nil
}

func (s *fakeStore) LinkByID(_ context.Context, id int64) (models.Link, error) {
	l, ok := s.links[id]
	if !ok {
		return models.Link{}, storage.ErrLinkNotFound
	}
	return *l, nil
}

func (s *fakeStore) Links(_ context.Context, limit, skip int) ([]models.Link, error) {
	all := s.sorted(func(a, b models.Link) bool { return a.ID > b.ID })
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) UpdateLink(_ context.Context, l models.Link) (models.Link, error) {
	stored, ok := s.links[l.ID]
	if !ok {
		return models.Link{}, storage.ErrLinkNotFound
	}
	l.PostedBy = stored.PostedBy
	l.Clicks = stored.Clicks
	s.links[l.ID] = &l
	return l, nil
}

func (s *fakeStore) DeleteLink(_ context.Context, id int64) error {
	if _, ok := s.links[id]; !ok {
		return storage.ErrLinkNotFound
	}
	delete(s.links, id)
	return nil
}

func (s *fakeStore) IncrementClicks(_ context.Context, id int64) (models.Link, error) {
	l, ok := s.links[id]
	if !ok {
		return models.Link{}, storage.ErrLinkNotFound
	}
	l.Clicks++
	return *l, nil
}

func (s *fakeStore) PopularLinks(_ context.Context, limit int) ([]models.Link, error) {
	all := s.sorted(func(a, b models.Link) bool { return a.Clicks > b.Clicks })
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) PopularLinksInCategory(_ context.Context, categoryID int64, limit int) ([]models.Link, error) {
	var in []models.Link
	for _, l := range s.sorted(func(a, b models.Link) bool { return a.Clicks > b.Clicks }) {
		for _, c := range l.Categories {
			if c == categoryID {
				in = append(in, l)
				break
			}
		}
	}
	if limit < len(in) {
		in = in[:limit]
	}
	return in, nil
}

func (s *fakeStore) CategoryBySlug(_ context.Context, slug string) (models.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return models.Category{}, storage.ErrCategoryNotFound
}

func (s *fakeStore) CategoriesByIDs(_ context.Context, ids []int64) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) UsersByCategories(_ context.Context, categoryIDs []int64) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		for _, sub := range u.Categories {
			matched := false
			for _, id := range categoryIDs {
				if sub == id {
					out = append(out, u)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) sorted(less func(a, b models.Link) bool) []models.Link {
	var all []models.Link
	for _, l := range s.links {
		all = append(all, *l)
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	return all
}

type fakePublisher struct {
	messages []models.EmailMessage
}

func (p *fakePublisher) SendMessage(_ context.Context, msg models.EmailMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func newService(store *fakeStore, publisher *fakePublisher) *Links {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, publisher, "http://localhost:3000")
}

func TestCreate_Defaults(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})

	link, err := svc.Create(context.Background(), 1, "Go tutorial", "https://Example.COM/Go", []int64{2}, "", "")
	require.NoError(t, err)

	assert.Equal(t, "Free", link.Type)
	assert.Equal(t, "Video", link.Medium)
	assert.Equal(t, "https://example.com/go", link.Slug)
	assert.Equal(t, int64(1), link.PostedBy)
}

func TestCreate_NotifiesSubscribersExceptPoster(t *testing.T) {
	store := newFakeStore()
	store.categories[2] = models.Category{ID: 2, Name: "Node JS", Slug: "node-js"}
	store.users = []models.User{
		{ID: 1, Email: "poster@example.com", Categories: []int64{2}},
		{ID: 5, Email: "reader@example.com", Categories: []int64{2}},
		{ID: 6, Email: "other@example.com", Categories: []int64{9}},
	}
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	_, err := svc.Create(context.Background(), 1, "Go tutorial", "https://example.com/go", []int64{2}, "Free", "Article")
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "reader@example.com", publisher.messages[0].To)
	assert.Contains(t, publisher.messages[0].HTML, "Go tutorial")
	assert.Contains(t, publisher.messages[0].HTML, "Node JS")
}

func TestCreate_SaveFailureSkipsNotify(t *testing.T) {
	store := newFakeStore()
	store.saveErr = storage.ErrLinkExists
	store.users = []models.User{{ID: 5, Email: "reader@example.com", Categories: []int64{2}}}
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	_, err := svc.Create(context.Background(), 1, "Go tutorial", "https://example.com/go", []int64{2}, "", "")
	require.Error(t, err)
	assert.Empty(t, publisher.messages)
}

func TestClickCount(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})
	ctx := context.Background()

	link, err := svc.Create(ctx, 1, "Go tutorial", "https://example.com/go", nil, "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		link, err = svc.ClickCount(ctx, link.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), link.Clicks)
}

func TestPopular_TopThree(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})
	ctx := context.Background()

	clicks := []int{5, 1, 9, 3}
	for _, n := range clicks {
		link, err := svc.Create(ctx, 1, "Link", "https://example.com", nil, "", "")
		require.NoError(t, err)
		for j := 0; j < n; j++ {
			_, err = svc.ClickCount(ctx, link.ID)
			require.NoError(t, err)
		}
	}

	popular, err := svc.Popular(ctx)
	require.NoError(t, err)

	require.Len(t, popular, 3)
	assert.Equal(t, int64(9), popular[0].Clicks)
	assert.Equal(t, int64(5), popular[1].Clicks)
	assert.Equal(t, int64(3), popular[2].Clicks)
}

func TestPopularInCategory(t *testing.T) {
	store := newFakeStore()
	store.categories[2] = models.Category{ID: 2, Name: "Node JS", Slug: "node-js"}
	svc := newService(store, &fakePublisher{})
	ctx := context.Background()

	inCat, err := svc.Create(ctx, 1, "In category", "https://example.com/a", []int64{2}, "", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "Outside", "https://example.com/b", []int64{7}, "", "")
	require.NoError(t, err)

	links, err := svc.PopularInCategory(ctx, "node-js")
	require.NoError(t, err)

	require.Len(t, links, 1)
	assert.Equal(t, inCat.ID, links[0].ID)
}

func TestPopularInCategory_UnknownSlug(t *testing.T) {
	svc := newService(newFakeStore(), &fakePublisher{})

	_, err := svc.PopularInCategory(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)
}

func TestUpdate_PreservesOwnerAndClicks(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})
	ctx := context.Background()

	link, err := svc.Create(ctx, 7, "Go tutorial", "https://example.com/go", []int64{2}, "", "")
	require.NoError(t, err)
	_, err = svc.ClickCount(ctx, link.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, link.ID, "Better title", "https://example.com/go2", []int64{3}, "Paid", "Article")
	require.NoError(t, err)

	assert.Equal(t, int64(7), updated.PostedBy)
	assert.Equal(t, int64(1), updated.Clicks)
	assert.Equal(t, "Better title", updated.Title)
	assert.Equal(t, []int64{3}, updated.Categories)
}

func TestList_Pagination(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, 1, "Link", "https://example.com", nil, "", "")
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 2, 1)
	require.NoError(t, err)

	require.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)
}
