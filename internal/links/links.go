package links

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"linkshare/internal/lib/email"
	sl "linkshare/internal/lib/logger"
	"linkshare/internal/models"
)

type Store interface {
	SaveLink(ctx context.Context, l models.Link) (int64, error)
	LinkByID(ctx context.Context, id int64) (models.Link, error)
	Links(ctx context.Context, limit, skip int) ([]models.Link, error)
	UpdateLink(ctx context.Context, l models.Link) (models.Link, error)
	DeleteLink(ctx context.Context, id int64) error
	IncrementClicks(ctx context.Context, id int64) (models.Link, error)
	PopularLinks(ctx context.Context, limit int) ([]models.Link, error)
	PopularLinksInCategory(ctx context.Context, categoryID int64, limit int) ([]models.Link, error)
	CategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	CategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error)
	UsersByCategories(ctx context.Context, categoryIDs []int64) ([]models.User, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.EmailMessage) error
}

type Links struct {
	log       *slog.Logger
	store     Store
	publisher Publisher
	clientURL string
}

func New(log *slog.Logger, store Store, publisher Publisher, clientURL string) *Links {
	return &Links{
		log:       log,
		store:     store,
		publisher: publisher,
		clientURL: clientURL,
	}
}

const popularLimit = 3

// Create stores a link and notifies subscribers of its categories. The
// notification fan-out is best effort: failures are logged and never fail
// the create.
func (l *Links) Create(ctx context.Context, postedBy int64, title, url string, categories []int64, linkType, medium string) (models.Link, error) {
	const op = "links.Create"

	log := l.log.With(slog.String("op", op))

	if linkType == "" {
		linkType = "Free"
	}
	if medium == "" {
		medium = "Video"
	}

	link := models.Link{
		Title:      title,
		URL:        url,
		Slug:       strings.ToLower(url),
		PostedBy:   postedBy,
		Categories: categories,
		Type:       linkType,
		Medium:     medium,
	}

	id, err := l.store.SaveLink(ctx, link)
	if err != nil {
		log.Error("failed to save link", sl.Err(err))
		return models.Link{}, fmt.Errorf("%s: %w", op, err)
	}
	link.ID = id

	l.notifySubscribers(ctx, link)

	log.Info("link created", slog.Int64("id", id))

	return link, nil
}

func (l *Links) notifySubscribers(ctx context.Context, link models.Link) {
	const op = "links.notifySubscribers"

	log := l.log.With(slog.String("op", op))

	subscribers, err := l.store.UsersByCategories(ctx, link.Categories)
	if err != nil {
		log.Error("failed to find subscribers", sl.Err(err))
		return
	}

	cats, err := l.store.CategoriesByIDs(ctx, link.Categories)
	if err != nil {
		log.Error("failed to load categories", sl.Err(err))
		return
	}

	for _, subscriber := range subscribers {
		if subscriber.ID == link.PostedBy {
			continue
		}

		msg := email.LinkPublished(l.clientURL, subscriber.Email, link, cats)
		if err := l.publisher.SendMessage(ctx, msg); err != nil {
			log.Error("failed to queue notification", sl.Err(err), slog.Int64("uid", subscriber.ID))
		}
	}
}

func (l *Links) List(ctx context.Context, limit, skip int) ([]models.Link, error) {
	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}

	return l.store.Links(ctx, limit, skip)
}

func (l *Links) Read(ctx context.Context, id int64) (models.Link, error) {
	return l.store.LinkByID(ctx, id)
}

func (l *Links) Update(ctx context.Context, id int64, title, url string, categories []int64, linkType, medium string) (models.Link, error) {
	const op = "links.Update"

	link := models.Link{
		ID:         id,
		Title:      title,
		URL:        url,
		Slug:       strings.ToLower(url),
		Categories: categories,
		Type:       linkType,
		Medium:     medium,
	}

	updated, err := l.store.UpdateLink(ctx, link)
	if err != nil {
		l.log.Error("failed to update link", slog.String("op", op), sl.Err(err))
		return models.Link{}, err
	}

	return updated, nil
}

func (l *Links) Delete(ctx context.Context, id int64) error {
	return l.store.DeleteLink(ctx, id)
}

// ClickCount registers one click and returns the updated link.
func (l *Links) ClickCount(ctx context.Context, id int64) (models.Link, error) {
	return l.store.IncrementClicks(ctx, id)
}

func (l *Links) Popular(ctx context.Context) ([]models.Link, error) {
	return l.store.PopularLinks(ctx, popularLimit)
}

func (l *Links) PopularInCategory(ctx context.Context, categorySlug string) ([]models.Link, error) {
	category, err := l.store.CategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	return l.store.PopularLinksInCategory(ctx, category.ID, popularLimit)
}
