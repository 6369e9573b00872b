package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "linkshare/internal/lib/logger"
	"linkshare/internal/lib/password"
	"linkshare/internal/models"
	"linkshare/internal/storage"
)

var ErrUserNotFound = errors.New("user not found")

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type UserUpdater interface {
	UpdateUser(ctx context.Context, userID int64, name, hashedPassword, salt string, categories []int64) (models.User, error)
}

type LinkProvider interface {
	LinksByUser(ctx context.Context, userID int64) ([]models.Link, error)
}

type Users struct {
	log      *slog.Logger
	provider UserProvider
	updater  UserUpdater
	links    LinkProvider
}

func New(log *slog.Logger, provider UserProvider, updater UserUpdater, links LinkProvider) *Users {
	return &Users{
		log:      log,
		provider: provider,
		updater:  updater,
		links:    links,
	}
}

// ProfileView is a user's dashboard: the public projection plus subscription
// ids and everything they posted.
type ProfileView struct {
	User       models.PublicUser `json:"user"`
	Username   string            `json:"username"`
	Categories []int64           `json:"categories"`
	Links      []models.Link     `json:"links"`
}

func (u *Users) Profile(ctx context.Context, userID int64) (ProfileView, error) {
	const op = "users.Profile"

	log := u.log.With(slog.String("op", op))

	user, err := u.provider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ProfileView{}, ErrUserNotFound
		}

		log.Error("failed to load user", sl.Err(err))
		return ProfileView{}, fmt.Errorf("%s: %w", op, err)
	}

	links, err := u.links.LinksByUser(ctx, userID)
	if err != nil {
		log.Error("failed to load links", sl.Err(err))
		return ProfileView{}, fmt.Errorf("%s: %w", op, err)
	}

	return ProfileView{
		User:       user.Public(),
		Username:   user.Username,
		Categories: user.Categories,
		Links:      links,
	}, nil
}

// Update patches name, subscriptions and, when a new password is supplied,
// re-derives the credential pair with a fresh salt.
func (u *Users) Update(ctx context.Context, userID int64, name, newPassword string, categories []int64) (models.PublicUser, error) {
	const op = "users.Update"

	log := u.log.With(slog.String("op", op))

	var hash, salt string
	if newPassword != "" {
		hash, salt = password.Set(newPassword)
	}

	updated, err := u.updater.UpdateUser(ctx, userID, name, hash, salt, categories)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}

		log.Error("failed to update user", sl.Err(err))
		return models.PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user updated", slog.Int64("uid", userID))

	return updated.Public(), nil
}
